package expr

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/tsqlgen/query/translation"
)

type person struct {
	ID       int
	Name     string
	Nickname *string
	Email    sql.NullString
	Age      int
	Born     time.Time
}

type address struct {
	City string
}

type owner struct {
	Home address
}

type fakeSource struct{}

func (fakeSource) ElementType() reflect.Type { return reflect.TypeFor[person]() }

func TestFoldLocalArithmetic(t *testing.T) {
	row := Row[person]()
	limit := 29

	folded, err := Fold(Gt(row.Field("Age"), Add(Var("limit", &limit), Value(1))))
	require.NoError(t, err)

	b, ok := folded.(*Binary)
	require.True(t, ok)
	assert.Same(t, row, b.Left.(*Member).Target)

	c, ok := b.Right.(*Constant)
	require.True(t, ok)
	assert.Equal(t, 30, c.Value)
	assert.Equal(t, reflect.TypeFor[int](), c.Type)
}

func TestFoldReadsLocalsLazily(t *testing.T) {
	name := "before"
	node := Eq(Row[person]().Field("Name"), Var("name", &name))
	name = "after"

	folded, err := Fold(node)
	require.NoError(t, err)
	assert.Equal(t, "after", folded.(*Binary).Right.(*Constant).Value)
}

func TestFoldKeepsSubqueries(t *testing.T) {
	sub := Query(fakeSource{})
	folded, err := Fold(sub)
	require.NoError(t, err)
	assert.Same(t, sub, folded)

	// a sub-tree containing a nested query is not evaluated either
	n := Eq(AsObject(sub), Value(1))
	folded, err = Fold(n)
	require.NoError(t, err)
	_, isBinary := folded.(*Binary)
	assert.True(t, isBinary)
}

func TestFoldObjectConversion(t *testing.T) {
	folded, err := Fold(AsObject(Value(int64(7))))
	require.NoError(t, err)
	assert.Equal(t, int64(7), folded.(*Constant).Value)
}

func TestFoldNilPointerBecomesNull(t *testing.T) {
	var nick *string
	folded, err := Fold(Var("nick", &nick))
	require.NoError(t, err)
	c := folded.(*Constant)
	assert.Nil(t, c.Value)
	assert.Equal(t, reflect.TypeFor[*string](), c.Type)
}

func TestFoldLocalStructMember(t *testing.T) {
	o := owner{Home: address{City: "Oslo"}}
	folded, err := Fold(FieldOf(FieldOf(Var("o", &o), "Home"), "City"))
	require.NoError(t, err)
	assert.Equal(t, "Oslo", folded.(*Constant).Value)
}

func TestEval(t *testing.T) {
	born := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		node Node
		want any
	}{
		{"int add", Add(Value(2), Value(3)), 5},
		{"int sub", Sub(Value(2), Value(3)), -1},
		{"int mul", Mul(Value(4), Value(3)), 12},
		{"int div", Div(Value(7), Value(2)), 3},
		{"int mod", Mod(Value(7), Value(2)), 1},
		{"int xor", Xor(Value(6), Value(3)), 5},
		{"bool xor", Xor(Value(true), Value(false)), true},
		{"mixed int float", Add(Value(1), Value(0.5)), 1.5},
		{"uint", Add(Value(uint8(1)), Value(uint8(2))), uint8(3)},
		{"float mod", Mod(Value(7.5), Value(2.0)), 1.5},
		{"concat", Add(Value("a"), Value("b")), "ab"},
		{"eq numbers across types", Eq(Value(int32(3)), Value(int64(3))), true},
		{"ne strings", Ne(Value("a"), Value("b")), true},
		{"eq nil", Eq(Null(), Null()), true},
		{"lt", Lt(Value(1), Value(2)), true},
		{"le", Le(Value(2), Value(2)), true},
		{"gt strings", Gt(Value("b"), Value("a")), true},
		{"ge time", Ge(Value(born.Add(time.Hour)), Value(born)), true},
		{"and short circuit", And(Value(false), Row[person]().Field("Age")), false},
		{"or short circuit", Or(Value(true), Row[person]().Field("Age")), true},
		{"not", Not(Value(false)), true},
		{"starts with", StartsWith(Value("hello"), Value("he")), true},
		{"ends with", EndsWith(Value("hello"), Value("lo")), true},
		{"contains", Contains(Value("hello"), Value("ell")), true},
		{"is null or empty nil", IsNullOrEmpty(Null()), true},
		{"is null or empty empty", IsNullOrEmpty(Value("")), true},
		{"is null or empty text", IsNullOrEmpty(Value("x")), false},
		{"upper", ToUpper(Value("abc")), "ABC"},
		{"lower", ToLower(Value("ABC")), "abc"},
		{"trim", Trim(Value("  x ")), "x"},
		{"replace", Replace(Value("a-b-c"), Value("-"), Value("+")), "a+b+c"},
		{"substring", Substring(Value("hello"), Value(1)), "ello"},
		{"substring length", Substring(Value("hello"), Value(1), Value(3)), "ell"},
		{"convert", ConvertTo(Value(3), reflect.TypeFor[int64]()), int64(3)},
		{"func", Func("now", func() any { return 42 }), 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		node Node
		kind error
	}{
		{"row parameter", Row[person]().Field("Age"), translation.ErrUnsupportedMember},
		{"subquery", Query(fakeSource{}), translation.ErrUnsupportedOperator},
		{"division by zero", Div(Value(1), Value(0)), translation.ErrUnsupportedArgument},
		{"mismatched operands", Sub(Value("a"), Value(1)), translation.ErrUnsupportedOperator},
		{"unknown method", Method(Value("a"), "PadLeft", Value(3)), translation.ErrUnsupportedOperator},
		{"substring out of range", Substring(Value("abc"), Value(5)), translation.ErrUnsupportedArgument},
		{"missing field", FieldOf(Value(address{}), "Zip"), translation.ErrUnsupportedMember},
		{"member on nil", FieldOf(Null(), "City"), translation.ErrUnsupportedMember},
		{"int to string", ConvertTo(Value(65), reflect.TypeFor[string]()), translation.ErrUnsupportedConstant},
		{"negate number", Not(Value(1)), translation.ErrUnsupportedOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(tt.node)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestTypeOfAndNullability(t *testing.T) {
	row := Row[person]()

	assert.Equal(t, "person", row.Kind())
	assert.Equal(t, reflect.TypeFor[int](), TypeOf(row.Field("Age")))
	assert.Nil(t, TypeOf(row.Field("Missing")))
	assert.Equal(t, reflect.TypeFor[bool](), TypeOf(Gt(row.Field("Age"), Value(1))))
	assert.Equal(t, reflect.TypeFor[int](), TypeOf(Add(row.Field("Age"), Value(1))))
	assert.Equal(t, reflect.TypeFor[string](), TypeOf(ToUpper(row.Field("Name"))))

	assert.True(t, IsNullable(TypeOf(row.Field("Nickname"))))
	assert.True(t, IsNullable(TypeOf(row.Field("Email"))))
	assert.False(t, IsNullable(TypeOf(row.Field("Name"))))
	assert.False(t, IsNullable(TypeOf(row.Field("Born"))))
	assert.False(t, IsNullable(nil))
}

func TestString(t *testing.T) {
	row := Row[person]()
	n := And(Eq(row.Field("Name"), Value("Ann")), Not(StartsWith(row.Field("Name"), Value("A"))))
	assert.Equal(t, `((row.Name == "Ann") && !row.Name.StartsWith("A"))`, n.String())
	assert.Equal(t, "IsNullOrEmpty(row.Name)", IsNullOrEmpty(row.Field("Name")).String())
	assert.Nil(t, AndAll())
	assert.Equal(t, "((row.ID == 1) || (row.ID == 2))", OrAll(Eq(row.Field("ID"), Value(1)), Eq(row.Field("ID"), Value(2))).String())
}
