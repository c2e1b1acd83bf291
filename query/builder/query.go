package builder

import (
	"reflect"
	"slices"

	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/expr"
)

// Query is a chained query over rows of type T. Every method returns a new
// Query and leaves the receiver untouched, so a partial query can be shared
// and extended in several directions.
type Query[T any] struct {
	table ast.Table
	row   *expr.Param
	ops   []ast.Operator
}

// From starts a query over table. The name may be schema-qualified.
func From[T any](table string) *Query[T] {
	return &Query[T]{
		table: ast.Table{Name: table},
		row:   expr.Row[T](),
	}
}

// Row returns the row parameter predicates are built on.
func (q *Query[T]) Row() *expr.Param {
	return q.row
}

// Field is shorthand for q.Row().Field(name).
func (q *Query[T]) Field(name string) *expr.Member {
	return q.row.Field(name)
}

// WhereBuilder returns a WHERE builder over the row of this query.
func (q *Query[T]) WhereBuilder() *WhereBuilder {
	return NewWhereBuilder(q.row)
}

// ElementType returns the row type, so a Query can be nested with
// expr.Query.
func (q *Query[T]) ElementType() reflect.Type {
	return q.row.Type
}

// AsSubquery wraps the query as a nested query node.
func (q *Query[T]) AsSubquery() *expr.Subquery {
	return expr.Query(q)
}

// As sets the table alias.
func (q *Query[T]) As(alias string) *Query[T] {
	next := q.clone()
	next.table.Alias = alias
	return next
}

func (q *Query[T]) clone() *Query[T] {
	return &Query[T]{
		table: q.table,
		row:   q.row,
		ops:   slices.Clip(q.ops),
	}
}

func (q *Query[T]) then(kind ast.OpKind, args ...expr.Node) *Query[T] {
	next := q.clone()
	next.ops = append(next.ops, ast.Operator{Kind: kind, Args: args})
	return next
}

// Where filters rows. A later Where replaces an earlier one.
func (q *Query[T]) Where(pred expr.Node) *Query[T] {
	return q.then(ast.OpWhere, pred)
}

// OrderBy sorts ascending by key.
func (q *Query[T]) OrderBy(key expr.Node) *Query[T] {
	return q.then(ast.OpOrderBy, key)
}

// OrderByDescending sorts descending by key.
func (q *Query[T]) OrderByDescending(key expr.Node) *Query[T] {
	return q.then(ast.OpOrderByDescending, key)
}

// ThenBy adds an ascending secondary key.
func (q *Query[T]) ThenBy(key expr.Node) *Query[T] {
	return q.then(ast.OpThenBy, key)
}

// ThenByDescending adds a descending secondary key.
func (q *Query[T]) ThenByDescending(key expr.Node) *Query[T] {
	return q.then(ast.OpThenByDescending, key)
}

// Take limits the number of rows.
func (q *Query[T]) Take(n int) *Query[T] {
	return q.then(ast.OpTake, expr.Value(n))
}

// TakeExpr limits the number of rows to a host computed count.
func (q *Query[T]) TakeExpr(n expr.Node) *Query[T] {
	return q.then(ast.OpTake, n)
}

// Skip skips the first n rows.
func (q *Query[T]) Skip(n int) *Query[T] {
	return q.then(ast.OpSkip, expr.Value(n))
}

// SkipExpr skips a host computed number of rows.
func (q *Query[T]) SkipExpr(n expr.Node) *Query[T] {
	return q.then(ast.OpSkip, n)
}

// GroupBy groups by key. The compiler rejects grouping.
func (q *Query[T]) GroupBy(key expr.Node) *Query[T] {
	return q.then(ast.OpGroupBy, key)
}

// Select projects each row through selector. The compiler rejects
// projections.
func (q *Query[T]) Select(selector expr.Node) *Query[T] {
	return q.then(ast.OpSelect, selector)
}

// Pipeline returns the pipeline for the rows of the query.
func (q *Query[T]) Pipeline() *ast.Pipeline {
	return &ast.Pipeline{
		Table:     q.table,
		Row:       q.row,
		Operators: slices.Clone(q.ops),
	}
}

func (q *Query[T]) terminal(kind ast.OpKind, args []expr.Node) *ast.Pipeline {
	var kept []expr.Node
	for _, a := range args {
		if a != nil {
			kept = append(kept, a)
		}
	}
	return q.then(kind, kept...).Pipeline()
}

// First returns the pipeline for the first row, optionally matching pred.
func (q *Query[T]) First(pred ...expr.Node) *ast.Pipeline {
	return q.terminal(ast.OpFirst, pred)
}

// Single is First for queries expected to match one row.
func (q *Query[T]) Single(pred ...expr.Node) *ast.Pipeline {
	return q.terminal(ast.OpSingle, pred)
}

// Count returns the pipeline counting rows, optionally matching pred.
func (q *Query[T]) Count(pred ...expr.Node) *ast.Pipeline {
	return q.terminal(ast.OpCount, pred)
}

// Any returns the pipeline testing whether a row exists, optionally
// matching pred.
func (q *Query[T]) Any(pred ...expr.Node) *ast.Pipeline {
	return q.terminal(ast.OpAny, pred)
}

// Min returns the pipeline for the smallest value of selector.
func (q *Query[T]) Min(selector expr.Node) *ast.Pipeline {
	return q.then(ast.OpMin, selector).Pipeline()
}

// Max returns the pipeline for the largest value of selector.
func (q *Query[T]) Max(selector expr.Node) *ast.Pipeline {
	return q.then(ast.OpMax, selector).Pipeline()
}

// Sum returns the pipeline for the sum of selector.
func (q *Query[T]) Sum(selector expr.Node) *ast.Pipeline {
	return q.then(ast.OpSum, selector).Pipeline()
}
