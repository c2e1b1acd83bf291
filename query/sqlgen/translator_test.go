package sqlgen

import (
	"database/sql"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/tsqlgen/query/columns"
	"github.com/satishbabariya/tsqlgen/query/expr"
	"github.com/satishbabariya/tsqlgen/query/translation"
)

type person struct {
	ID       int `db:"person_id"`
	Name     string
	Nickname *string
	Email    sql.NullString
	Age      int
	Active   bool
	Born     time.Time
	Key      uuid.UUID
	Tags     []string
}

type source struct{}

func (source) ElementType() reflect.Type { return reflect.TypeFor[person]() }

func TestTranslateBinaryOperators(t *testing.T) {
	row := expr.Row[person]()
	age := row.Field("Age")
	tr := NewTranslator(nil, "")

	tests := []struct {
		name string
		node expr.Node
		want string
	}{
		{"eq", expr.Eq(age, expr.Value(1)), "([Age] = @p1)"},
		{"ne", expr.Ne(age, expr.Value(1)), "([Age] <> @p1)"},
		{"lt", expr.Lt(age, expr.Value(1)), "([Age] < @p1)"},
		{"le", expr.Le(age, expr.Value(1)), "([Age] <= @p1)"},
		{"gt", expr.Gt(age, expr.Value(1)), "([Age] > @p1)"},
		{"ge", expr.Ge(age, expr.Value(1)), "([Age] >= @p1)"},
		{"add", expr.Add(age, expr.Value(1)), "([Age] + @p1)"},
		{"sub", expr.Sub(age, expr.Value(1)), "([Age] - @p1)"},
		{"mul", expr.Mul(age, expr.Value(1)), "([Age] * @p1)"},
		{"div", expr.Div(age, expr.Value(1)), "([Age] / @p1)"},
		{"mod", expr.Mod(age, expr.Value(1)), "([Age] % @p1)"},
		{"xor", expr.Xor(age, expr.Value(1)), "([Age] ^ @p1)"},
		{"and", expr.And(expr.Gt(age, expr.Value(1)), expr.Lt(age, expr.Value(9))), "(([Age] > @p1) AND ([Age] < @p2))"},
		{"or", expr.Or(expr.Gt(age, expr.Value(1)), expr.Lt(age, expr.Value(9))), "(([Age] > @p1) OR ([Age] < @p2))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tr.Translate(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
		})
	}
}

func TestTranslateNullComparison(t *testing.T) {
	row := expr.Row[person]()
	var missing *string

	tests := []struct {
		name string
		node expr.Node
		want string
	}{
		{"pointer is null", expr.Eq(row.Field("Nickname"), expr.Null()), "([Nickname] IS NULL)"},
		{"pointer is not null", expr.Ne(row.Field("Nickname"), expr.Null()), "([Nickname] IS NOT NULL)"},
		{"null wrapper", expr.Eq(row.Field("Email"), expr.Null()), "([Email] IS NULL)"},
		{"captured nil", expr.Eq(row.Field("Nickname"), expr.Var("missing", &missing)), "([Nickname] IS NULL)"},
		{"not nullable", expr.Eq(row.Field("Name"), expr.Null()), "([Name] = NULL)"},
		{"null on the left", expr.Eq(expr.Null(), row.Field("Nickname")), "(NULL = [Nickname])"},
		{"ordering is untouched", expr.Lt(row.Field("Nickname"), expr.Null()), "([Nickname] < NULL)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewTranslator(nil, "").Translate(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
			assert.Empty(t, f.Args())
		})
	}
}

func TestTranslateStringFunctions(t *testing.T) {
	row := expr.Row[person]()
	name := row.Field("Name")

	tests := []struct {
		name string
		node expr.Node
		want string
		args []any
	}{
		{"starts with", expr.StartsWith(name, expr.Value("A")), "([Name] LIKE @p1 + '%')", []any{"A"}},
		{"ends with", expr.EndsWith(name, expr.Value("z")), "([Name] LIKE '%' + @p1)", []any{"z"}},
		{"contains", expr.Contains(name, expr.Value("mid")), "([Name] LIKE '%' + @p1 + '%')", []any{"mid"}},
		{"is null or empty", expr.IsNullOrEmpty(row.Field("Nickname")), "([Nickname] IS NULL OR [Nickname] = '')", nil},
		{"upper", expr.ToUpper(name), "UPPER([Name])", nil},
		{"lower", expr.ToLower(name), "LOWER([Name])", nil},
		{"replace", expr.Replace(name, expr.Value("a"), expr.Value("b")), "REPLACE([Name],@p1,@p2)", []any{"a", "b"}},
		{"substring", expr.Substring(name, expr.Value(2)), "SUBSTRING([Name], @p1 + 1, 8000)", []any{2}},
		{"substring length", expr.Substring(name, expr.Value(2), expr.Value(3)), "SUBSTRING([Name], @p1 + 1, @p2)", []any{2, 3}},
		{"trim", expr.Trim(name), "RTRIM(LTRIM([Name]))", nil},
		{"nested", expr.StartsWith(expr.ToUpper(name), expr.Value("A")), "(UPPER([Name]) LIKE @p1 + '%')", []any{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewTranslator(nil, "").TranslatePredicate(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
			assert.Equal(t, tt.args, f.Args())
		})
	}
}

func TestTranslateLiteralsAndFolding(t *testing.T) {
	row := expr.Row[person]()
	limit := 29
	key := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	born := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		node expr.Node
		want string
		args []any
	}{
		{"folded local", expr.Gt(row.Field("Age"), expr.Add(expr.Var("limit", &limit), expr.Value(1))), "([Age] > @p1)", []any{30}},
		{"guid", expr.Eq(row.Field("Key"), expr.Value(key)), "([Key] = @p1)", []any{key}},
		{"time", expr.Ge(row.Field("Born"), expr.Value(born)), "([Born] >= @p1)", []any{born}},
		{"bool", expr.Eq(row.Field("Active"), expr.Value(true)), "([Active] = @p1)", []any{true}},
		{"conversion is transparent", expr.Eq(expr.AsObject(row.Field("Age")), expr.Value(int64(4))), "([Age] = @p1)", []any{int64(4)}},
		{"tagged column", expr.Eq(row.Field("ID"), expr.Value(7)), "([person_id] = @p1)", []any{7}},
		{"concatenation", expr.Eq(expr.Add(row.Field("Name"), expr.Value("x")), expr.Value("y")), "(([Name] + @p1) = @p2)", []any{"x", "y"}},
		{"fully constant", expr.Gt(expr.Value(2), expr.Value(1)), "(@p1 = 1)", []any{true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewTranslator(nil, "").TranslatePredicate(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.String())
			assert.Equal(t, tt.args, f.Args())
		})
	}
}

func TestTranslateBareBooleans(t *testing.T) {
	row := expr.Row[person]()
	active := row.Field("Active")
	tr := NewTranslator(nil, "")

	f, err := tr.TranslatePredicate(active)
	require.NoError(t, err)
	assert.Equal(t, "([Active] = 1)", f.String())

	f, err = tr.TranslatePredicate(expr.Not(active))
	require.NoError(t, err)
	assert.Equal(t, "(NOT ([Active] = 1))", f.String())

	f, err = tr.TranslatePredicate(expr.And(active, expr.Gt(row.Field("Age"), expr.Value(18))))
	require.NoError(t, err)
	assert.Equal(t, "(([Active] = 1) AND ([Age] > @p1))", f.String())

	// a value context leaves the column alone
	f, err = tr.Translate(active)
	require.NoError(t, err)
	assert.Equal(t, "[Active]", f.String())
}

func TestTranslateAliasAndMapper(t *testing.T) {
	row := expr.Row[person]()
	reg := columns.NewRegistry().Register(reflect.TypeFor[person](), "Age", "age_years")

	f, err := NewTranslator(columns.Chain{reg, columns.NewTagMapper("")}, "p").
		Translate(expr.And(expr.Gt(row.Field("Age"), expr.Value(1)), expr.Eq(row.Field("Name"), expr.Value("x"))))
	require.NoError(t, err)
	assert.Equal(t, "(([p].[age_years] > @p1) AND ([p].[Name] = @p2))", f.String())
}

func TestTranslateErrors(t *testing.T) {
	row := expr.Row[person]()

	tests := []struct {
		name string
		node expr.Node
		kind error
		what string
	}{
		{"composite literal", expr.Eq(row.Field("Tags"), expr.Value([]string{"a"})), translation.ErrUnsupportedConstant, "[]string"},
		{"struct literal", expr.Eq(row.Field("Age"), expr.Value(struct{ X int }{1})), translation.ErrUnsupportedConstant, ""},
		{"unknown column", expr.Eq(row.Field("Missing"), expr.Value(1)), translation.ErrUnsupportedMember, "Missing"},
		{"nested member", expr.Eq(row.Field("Born").Field("Year"), expr.Value(1)), translation.ErrUnsupportedMember, "Year"},
		{"row as value", expr.Eq(row, expr.Value(1)), translation.ErrUnsupportedMember, "person"},
		{"unknown method", expr.Method(row.Field("Name"), "PadLeft", expr.Value(3)), translation.ErrUnsupportedOperator, "PadLeft"},
		{"wrong arity", expr.Method(row.Field("Name"), expr.MethodToUpper, expr.Value(3)), translation.ErrUnsupportedArgument, "ToUpper"},
		{"subquery", expr.Eq(expr.AsObject(expr.Query(source{})), expr.Value(1)), translation.ErrUnsupportedOperator, "subquery"},
		{"fold failure", expr.Gt(row.Field("Age"), expr.Div(expr.Value(1), expr.Value(0))), translation.ErrUnsupportedArgument, "/"},
		{"missing", nil, translation.ErrUnsupportedArgument, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTranslator(nil, "").TranslatePredicate(tt.node)
			require.ErrorIs(t, err, tt.kind)
			if tt.what != "" {
				assert.True(t, strings.Contains(err.Error(), tt.what), err.Error())
			}
		})
	}
}

func TestTranslatorIsStateless(t *testing.T) {
	row := expr.Row[person]()
	tr := NewTranslator(nil, "")

	first, err := tr.Translate(expr.Eq(row.Field("Age"), expr.Value(1)))
	require.NoError(t, err)
	second, err := tr.Translate(expr.Eq(row.Field("Name"), expr.Value("x")))
	require.NoError(t, err)

	assert.Equal(t, []any{1}, first.Args())
	assert.Equal(t, []any{"x"}, second.Args())
	assert.Equal(t, "([Name] = @p1)", second.String())
}
