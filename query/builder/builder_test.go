package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/expr"
)

type order struct {
	ID       int
	Customer string
	Note     *string
	Total    float64
}

func kinds(p *ast.Pipeline) []ast.OpKind {
	out := make([]ast.OpKind, len(p.Operators))
	for i, op := range p.Operators {
		out[i] = op.Kind
	}
	return out
}

func TestQueryChain(t *testing.T) {
	q := From[order]("sales.Orders").As("o")
	p := q.Where(expr.Gt(q.Field("Total"), expr.Value(10.0))).
		OrderBy(q.Field("Customer")).
		ThenByDescending(q.Field("ID")).
		Skip(20).
		Take(10).
		Pipeline()

	assert.Equal(t, ast.Table{Name: "sales.Orders", Alias: "o"}, p.Table)
	assert.Same(t, q.Row(), p.Row)
	assert.Equal(t, "order", p.ElementType().Name())
	assert.Equal(t, []ast.OpKind{ast.OpWhere, ast.OpOrderBy, ast.OpThenByDescending, ast.OpSkip, ast.OpTake}, kinds(p))
	assert.Equal(t, 20, p.Operators[3].Arg(0).(*expr.Constant).Value)
}

func TestQueryIsImmutable(t *testing.T) {
	base := From[order]("Orders").OrderBy(From[order]("Orders").Field("ID"))

	a := base.Take(1)
	b := base.Skip(5)

	assert.Equal(t, []ast.OpKind{ast.OpOrderBy}, kinds(base.Pipeline()))
	assert.Equal(t, []ast.OpKind{ast.OpOrderBy, ast.OpTake}, kinds(a.Pipeline()))
	assert.Equal(t, []ast.OpKind{ast.OpOrderBy, ast.OpSkip}, kinds(b.Pipeline()))

	aliased := base.As("x")
	assert.Empty(t, base.Pipeline().Table.Alias)
	assert.Equal(t, "x", aliased.Pipeline().Table.Alias)
}

func TestTerminals(t *testing.T) {
	q := From[order]("Orders")
	pred := expr.Eq(q.Field("ID"), expr.Value(1))

	tests := []struct {
		name string
		p    *ast.Pipeline
		kind ast.OpKind
		args int
	}{
		{"first", q.First(), ast.OpFirst, 0},
		{"first with predicate", q.First(pred), ast.OpFirst, 1},
		{"first with nil", q.First(nil), ast.OpFirst, 0},
		{"single", q.Single(pred), ast.OpSingle, 1},
		{"count", q.Count(), ast.OpCount, 0},
		{"any", q.Any(pred), ast.OpAny, 1},
		{"min", q.Min(q.Field("Total")), ast.OpMin, 1},
		{"max", q.Max(q.Field("Total")), ast.OpMax, 1},
		{"sum", q.Sum(q.Field("Total")), ast.OpSum, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.p.Operators, 1)
			assert.Equal(t, tt.kind, tt.p.Operators[0].Kind)
			assert.Len(t, tt.p.Operators[0].Args, tt.args)
		})
	}
}

func TestUnsupportedOperatorsAreRecorded(t *testing.T) {
	q := From[order]("Orders")
	p := q.GroupBy(q.Field("Customer")).Select(q.Field("Total")).Pipeline()
	assert.Equal(t, []ast.OpKind{ast.OpGroupBy, ast.OpSelect}, kinds(p))
}

func TestSubquery(t *testing.T) {
	q := From[order]("Orders")
	sub := q.AsSubquery()
	assert.Equal(t, q.ElementType(), sub.Source.ElementType())
}

func TestWhereBuilder(t *testing.T) {
	q := From[order]("Orders")

	w := q.WhereBuilder().
		Equals("Customer", "acme").
		GreaterThan("Total", 100.0).
		IsNull("Note")
	assert.Equal(t, `(((row.Customer == "acme") && (row.Total > 100)) && (row.Note == null))`, w.Build().String())

	w = q.WhereBuilder().SetOperator(expr.OpOr).
		LessThan("ID", 5).
		GreaterOrEqual("ID", 50)
	assert.Equal(t, "((row.ID < 5) || (row.ID >= 50))", w.Build().String())

	assert.Nil(t, q.WhereBuilder().Build())
}

func TestWhereBuilderGroups(t *testing.T) {
	q := From[order]("Orders")
	w := q.WhereBuilder()

	w.OR(
		w.Sub().StartsWith("Customer", "a"),
		w.Sub().EndsWith("Customer", "z"),
	).NOT(
		w.Sub().IsNotNull("Note"),
	).AND(nil, w.Sub())

	assert.Equal(t,
		`((row.Customer.StartsWith("a") || row.Customer.EndsWith("z")) && !(row.Note != null))`,
		w.Build().String())
}

func TestWhereBuilderValues(t *testing.T) {
	q := From[order]("Orders")
	limit := 3

	w := q.WhereBuilder().
		NotEquals("Note", nil).
		LessOrEqual("ID", expr.Var("limit", &limit)).
		Contains("Customer", "co")
	assert.Equal(t, `(((row.Note != null) && (row.ID <= limit)) && row.Customer.Contains("co"))`, w.Build().String())
}
