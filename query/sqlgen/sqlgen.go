// Package sqlgen generates SQL Server (T-SQL) statements from compiled
// select nodes.
package sqlgen

import (
	"database/sql"
	"strings"

	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/translation"
)

// Query represents a SQL query with its named parameters, in the order they
// were bound.
type Query struct {
	SQL    string
	Params []ast.Param
}

// Args returns the parameters as database/sql named arguments.
func (q *Query) Args() []any {
	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		args[i] = sql.Named(p.Name, p.Value)
	}
	return args
}

// Values returns the bound values in order.
func (q *Query) Values() []any {
	values := make([]any, len(q.Params))
	for i, p := range q.Params {
		values[i] = p.Value
	}
	return values
}

// Render serializes node into a statement under paging. Placeholders are
// named @<prefix>1, @<prefix>2, ... in the order they appear in the text:
// projection, predicate, then ordering. Under RowNumberWindow paging the
// ordering sits in the OVER clause ahead of the predicate and is numbered first.
func Render(node *ast.SelectNode, paging Paging, prefix string) (*Query, error) {
	if len(node.GroupBy) > 0 {
		return nil, translation.UnsupportedOperator("GroupBy", "grouping is not rendered")
	}
	if prefix == "" {
		prefix = ast.DefaultParamPrefix
	}
	params := ast.NewParams(prefix)

	s := statement{
		from:      tableRef(node.Table),
		limit:     node.RowLimit,
		skip:      node.Skip(),
		aggregate: node.Columns.Aggregate,
	}
	if s.skip < 0 {
		s.skip = 0
	}

	switch {
	case node.Any:
		s.columns = "1"
	case node.Columns.Raw != nil:
		s.columns = node.Columns.Raw.Render(params)
	case len(node.Columns.Names) > 0:
		cols := make([]string, len(node.Columns.Names))
		for i, c := range node.Columns.Names {
			cols[i] = columnRef(node.Table.Alias, c)
		}
		s.columns = strings.Join(cols, ", ")
	default:
		s.columns = allColumns(node.Table.Alias)
	}

	ordered := !node.Any && !node.Columns.Aggregate && len(node.OrderBy) > 0
	if ordered && paging.windowFirst(s.skip) {
		s.orderBy = renderOrder(node.OrderBy, params)
		ordered = false
	}

	if node.Predicate != nil && !node.Predicate.IsEmpty() {
		s.where = node.Predicate.Render(params)
	}

	if node.Any {
		return &Query{SQL: s.exists(), Params: params.List()}, nil
	}

	if ordered {
		s.orderBy = renderOrder(node.OrderBy, params)
	}

	text, err := paging.apply(s)
	if err != nil {
		return nil, err
	}
	return &Query{SQL: text, Params: params.List()}, nil
}

func renderOrder(keys []ast.OrderKey, params *ast.Params) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		dir := k.Direction
		if dir == "" {
			dir = ast.Ascending
		}
		out[i] = k.Expr.Render(params) + " " + string(dir)
	}
	return strings.Join(out, ", ")
}
