// Package compiler compiles query pipelines into T-SQL.
package compiler

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/satishbabariya/tsqlgen/internal/debug"
	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/columns"
	"github.com/satishbabariya/tsqlgen/query/expr"
	"github.com/satishbabariya/tsqlgen/query/sqlgen"
	"github.com/satishbabariya/tsqlgen/query/translation"
)

// Compiler compiles query pipelines into SQL. The paging dialect is fixed at
// construction. A Compiler keeps no per-query state and may be used from
// several goroutines.
type Compiler struct {
	paging sqlgen.Paging
	mapper columns.Mapper
	prefix string
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMapper sets the column mapper. The default maps fields through their
// "db" tag.
func WithMapper(m columns.Mapper) Option {
	return func(c *Compiler) {
		if m != nil {
			c.mapper = m
		}
	}
}

// WithLogger sets the logger compilations are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithParamPrefix sets the placeholder prefix, "p" by default.
func WithParamPrefix(prefix string) Option {
	return func(c *Compiler) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// New creates a compiler for the given paging dialect.
func New(paging sqlgen.Paging, opts ...Option) *Compiler {
	c := &Compiler{
		paging: paging,
		mapper: columns.NewTagMapper(columns.DefaultTag),
		prefix: ast.DefaultParamPrefix,
		logger: debug.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Paging returns the dialect the compiler was built for.
func (c *Compiler) Paging() sqlgen.Paging {
	return c.paging
}

// Mapper returns the column mapper members are resolved through.
func (c *Compiler) Mapper() columns.Mapper {
	return c.mapper
}

// Compile compiles a pipeline into SQL and its parameters. No partial result
// is returned on failure.
func (c *Compiler) Compile(p *ast.Pipeline) (*sqlgen.Query, error) {
	if p == nil {
		return nil, fmt.Errorf("compile: %w", ErrInvalidPipeline)
	}
	if p.Table.Name == "" {
		return nil, fmt.Errorf("compile: %w: missing table", ErrInvalidPipeline)
	}

	q, err := c.compile(p)
	if err != nil {
		c.logger.Debug("compile failed",
			"table", p.Table.Name,
			"paging", c.paging.String(),
			"error", err,
		)
		return nil, err
	}

	c.logger.Debug("compiled",
		"table", p.Table.Name,
		"paging", c.paging.String(),
		"params", len(q.Params),
		"sql", q.SQL,
	)
	return q, nil
}

func (c *Compiler) compile(p *ast.Pipeline) (*sqlgen.Query, error) {
	cc := &compilation{
		node:       ast.NewSelectNode(p.Table),
		translator: sqlgen.NewTranslator(c.mapper, p.Table.Alias),
	}

	for i, op := range p.Operators {
		if cc.terminal != "" {
			return nil, fmt.Errorf("%s: %w", op.Kind,
				translation.UnsupportedOperator(string(op.Kind), fmt.Sprintf("cannot follow %s", cc.terminal)))
		}
		if err := cc.apply(op); err != nil {
			return nil, fmt.Errorf("%s (operator %d): %w", op.Kind, i+1, err)
		}
	}

	q, err := sqlgen.Render(cc.node, c.paging, c.prefix)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return q, nil
}

// compilation is the scratch state of one Compile call.
type compilation struct {
	node       *ast.SelectNode
	translator *sqlgen.Translator
	terminal   ast.OpKind
}

func (cc *compilation) apply(op ast.Operator) error {
	switch op.Kind {
	case ast.OpWhere:
		if op.Arg(0) == nil {
			return translation.UnsupportedArgument(string(op.Kind), "missing predicate")
		}
		return cc.filter(op.Arg(0))

	case ast.OpFirst, ast.OpSingle:
		if err := cc.filter(op.Arg(0)); err != nil {
			return err
		}
		one := 1
		cc.node.RowLimit = &one
		return nil

	case ast.OpTake:
		n, err := foldCount(op)
		if err != nil {
			return err
		}
		cc.node.RowLimit = &n
		return nil

	case ast.OpSkip:
		n, err := foldCount(op)
		if err != nil {
			return err
		}
		cc.node.RowSkip = &n
		return nil

	case ast.OpOrderBy, ast.OpThenBy:
		return cc.orderBy(op, ast.Ascending)

	case ast.OpOrderByDescending, ast.OpThenByDescending:
		return cc.orderBy(op, ast.Descending)

	case ast.OpCount:
		if err := cc.filter(op.Arg(0)); err != nil {
			return err
		}
		raw := ast.Text("COUNT(*)")
		cc.node.Columns = ast.Columns{Raw: &raw, Aggregate: true}
		return nil

	case ast.OpMin, ast.OpMax, ast.OpSum:
		return cc.aggregate(op)

	case ast.OpAny:
		if err := cc.filter(op.Arg(0)); err != nil {
			return err
		}
		cc.node.Any = true
		cc.terminal = op.Kind
		return nil

	case ast.OpGroupBy, ast.OpSelect:
		return translation.UnsupportedOperator(string(op.Kind), "grouping and projection are not translated")

	default:
		return translation.UnsupportedOperator(string(op.Kind))
	}
}

// filter replaces the predicate. A nil predicate leaves it unchanged.
func (cc *compilation) filter(pred expr.Node) error {
	if pred == nil {
		return nil
	}
	f, err := cc.translator.TranslatePredicate(pred)
	if err != nil {
		return err
	}
	cc.node.Predicate = &f
	return nil
}

func (cc *compilation) orderBy(op ast.Operator, dir ast.Direction) error {
	key := op.Arg(0)
	if key == nil {
		return translation.UnsupportedArgument(string(op.Kind), "missing key selector")
	}
	f, err := cc.translator.Translate(key)
	if err != nil {
		return err
	}
	cc.node.OrderBy = append(cc.node.OrderBy, ast.OrderKey{Expr: f, Direction: dir})
	return nil
}

var aggregateFuncs = map[ast.OpKind]string{
	ast.OpMin: "MIN",
	ast.OpMax: "MAX",
	ast.OpSum: "SUM",
}

func (cc *compilation) aggregate(op ast.Operator) error {
	selector := op.Arg(0)
	if selector == nil {
		return translation.UnsupportedArgument(string(op.Kind), "missing selector")
	}
	f, err := cc.translator.Translate(selector)
	if err != nil {
		return err
	}
	raw := ast.Text(aggregateFuncs[op.Kind] + "(")
	raw.Append(f)
	raw.WriteString(")")
	cc.node.Columns = ast.Columns{Raw: &raw, Aggregate: true}
	return nil
}

// foldCount folds the single argument of take or skip to a non-negative
// integer.
func foldCount(op ast.Operator) (int, error) {
	name := string(op.Kind)
	if op.Arg(0) == nil {
		return 0, translation.UnsupportedArgument(name, "missing count")
	}
	folded, err := expr.Fold(op.Arg(0))
	if err != nil {
		return 0, translation.UnsupportedArgument(name, err.Error())
	}
	c, ok := folded.(*expr.Constant)
	if !ok {
		return 0, translation.UnsupportedArgument(name, "count must not depend on the row")
	}

	rv := reflect.ValueOf(c.Value)
	var n int64
	switch {
	case !rv.IsValid():
		return 0, translation.UnsupportedArgument(name, "count is null")
	case rv.CanInt():
		n = rv.Int()
	case rv.CanUint():
		n = int64(rv.Uint())
	default:
		return 0, translation.UnsupportedArgument(name, fmt.Sprintf("count must be an integer, got %T", c.Value))
	}
	if n < 0 {
		return 0, translation.UnsupportedArgument(name, fmt.Sprintf("count must not be negative, got %d", n))
	}
	return int(n), nil
}
