package sqlgen

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/columns"
	"github.com/satishbabariya/tsqlgen/query/expr"
	"github.com/satishbabariya/tsqlgen/query/translation"
)

// defaultSubstringLength is the length SUBSTRING is given when the call
// omits one.
const defaultSubstringLength = "8000"

var binaryOperators = map[expr.BinaryOp]string{
	expr.OpAnd: "AND",
	expr.OpOr:  "OR",
	expr.OpEq:  "=",
	expr.OpNe:  "<>",
	expr.OpLt:  "<",
	expr.OpLe:  "<=",
	expr.OpGt:  ">",
	expr.OpGe:  ">=",
	expr.OpAdd: "+",
	expr.OpSub: "-",
	expr.OpMul: "*",
	expr.OpDiv: "/",
	expr.OpMod: "%",
	expr.OpXor: "^",
}

// Translator turns expression graphs into T-SQL fragments. It holds no
// per-call state and is safe for concurrent use.
type Translator struct {
	mapper columns.Mapper
	alias  string
}

// NewTranslator creates a translator resolving columns through mapper and
// qualifying them with alias when it is not empty.
func NewTranslator(mapper columns.Mapper, alias string) *Translator {
	if mapper == nil {
		mapper = columns.NewTagMapper("")
	}
	return &Translator{mapper: mapper, alias: alias}
}

// Translate folds n and translates it as a value.
func (t *Translator) Translate(n expr.Node) (ast.Fragment, error) {
	return t.translate(n, false)
}

// TranslatePredicate folds n and translates it as a search condition. A bare
// boolean column or literal is compared with 1.
func (t *Translator) TranslatePredicate(n expr.Node) (ast.Fragment, error) {
	return t.translate(n, true)
}

func (t *Translator) translate(n expr.Node, predicate bool) (ast.Fragment, error) {
	var f ast.Fragment
	if n == nil {
		return f, translation.UnsupportedArgument("expression", "missing expression")
	}
	folded, err := expr.Fold(n)
	if err != nil {
		return f, err
	}
	if predicate {
		err = t.visitCondition(folded, &f)
	} else {
		err = t.visit(folded, &f)
	}
	return f, err
}

func (t *Translator) visit(n expr.Node, f *ast.Fragment) error {
	switch x := n.(type) {
	case *expr.Binary:
		return t.visitBinary(x, f)
	case *expr.Unary:
		return t.visitUnary(x, f)
	case *expr.Convert:
		return t.visit(x.Operand, f)
	case *expr.Constant:
		return visitConstant(x.Value, f)
	case *expr.Local:
		v, err := expr.Eval(x)
		if err != nil {
			return err
		}
		return visitConstant(v, f)
	case *expr.Member:
		return t.visitMember(x, f)
	case *expr.Call:
		return t.visitCall(x, f)
	case *expr.Param:
		return translation.UnsupportedMember(x.Kind(), "the row cannot be used as a value")
	case *expr.Subquery:
		return translation.UnsupportedOperator("subquery", "nested queries cannot be translated")
	case nil:
		return translation.UnsupportedArgument("expression", "missing operand")
	default:
		return translation.UnsupportedOperator(fmt.Sprintf("%T", n))
	}
}

// visitCondition visits n where SQL expects a search condition.
func (t *Translator) visitCondition(n expr.Node, f *ast.Fragment) error {
	if isBareBoolean(n) {
		f.WriteString("(")
		if err := t.visit(n, f); err != nil {
			return err
		}
		f.WriteString(" = 1)")
		return nil
	}
	return t.visit(n, f)
}

func isBareBoolean(n expr.Node) bool {
	switch x := n.(type) {
	case *expr.Convert:
		return isBareBoolean(x.Operand)
	case *expr.Member:
		return isBool(x.Type)
	case *expr.Constant:
		return x.Value != nil && isBool(x.Type)
	default:
		return false
	}
}

func isBool(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Bool
}

func (t *Translator) visitBinary(b *expr.Binary, f *ast.Fragment) error {
	op, ok := binaryOperators[b.Op]
	if !ok {
		return translation.UnsupportedOperator(b.Op.String())
	}
	if isNullLiteral(b.Right) && expr.IsNullable(expr.TypeOf(b.Left)) {
		switch b.Op {
		case expr.OpEq:
			op = "IS"
		case expr.OpNe:
			op = "IS NOT"
		}
	}

	operand := t.visit
	if b.Op.IsLogical() {
		operand = t.visitCondition
	}

	f.WriteString("(")
	if err := operand(b.Left, f); err != nil {
		return err
	}
	f.WriteString(" " + op + " ")
	if err := operand(b.Right, f); err != nil {
		return err
	}
	f.WriteString(")")
	return nil
}

func isNullLiteral(n expr.Node) bool {
	switch x := n.(type) {
	case *expr.Constant:
		return x.Value == nil
	case *expr.Convert:
		return isNullLiteral(x.Operand)
	default:
		return false
	}
}

func (t *Translator) visitUnary(u *expr.Unary, f *ast.Fragment) error {
	if u.Op != expr.OpNot {
		return translation.UnsupportedOperator(u.Op.String())
	}
	f.WriteString("(NOT ")
	if err := t.visitCondition(u.Operand, f); err != nil {
		return err
	}
	f.WriteString(")")
	return nil
}

func visitConstant(v any, f *ast.Fragment) error {
	if v == nil {
		f.WriteString("NULL")
		return nil
	}
	if !isScalar(v) {
		return translation.UnsupportedConstant(fmt.Sprintf("%T", v), "only scalar literals can be bound")
	}
	f.WriteArg(v)
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case uuid.UUID, time.Time, driver.Valuer:
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (t *Translator) visitMember(m *expr.Member, f *ast.Fragment) error {
	row, ok := m.Target.(*expr.Param)
	if !ok {
		return translation.UnsupportedMember(m.Name, fmt.Sprintf("cannot translate member access on %s", m.Target))
	}
	column, err := t.mapper.ResolveColumn(row.Type, m.Name)
	if err != nil {
		return err
	}
	f.WriteString(columnRef(t.alias, column))
	return nil
}

func (t *Translator) visitCall(c *expr.Call, f *ast.Fragment) error {
	want, ok := methodArity[c.Method]
	if !ok {
		return translation.UnsupportedOperator(c.Method)
	}
	if len(c.Args) < want.min || len(c.Args) > want.max {
		return translation.UnsupportedArgument(c.Method, fmt.Sprintf("unexpected argument count %d", len(c.Args)))
	}
	if c.Method != expr.MethodIsNullOrEmpty && c.Receiver == nil {
		return translation.UnsupportedOperator(c.Method, "missing receiver")
	}

	recv := func() error { return t.visit(c.Receiver, f) }
	arg := func(i int) error { return t.visit(c.Args[i], f) }

	switch c.Method {
	case expr.MethodStartsWith:
		return t.write(f, "(", recv, " LIKE ", func() error { return arg(0) }, " + '%')")
	case expr.MethodEndsWith:
		return t.write(f, "(", recv, " LIKE '%' + ", func() error { return arg(0) }, ")")
	case expr.MethodContains:
		return t.write(f, "(", recv, " LIKE '%' + ", func() error { return arg(0) }, " + '%')")
	case expr.MethodIsNullOrEmpty:
		a := func() error { return arg(0) }
		return t.write(f, "(", a, " IS NULL OR ", a, " = '')")
	case expr.MethodToUpper:
		return t.write(f, "UPPER(", recv, ")")
	case expr.MethodToLower:
		return t.write(f, "LOWER(", recv, ")")
	case expr.MethodReplace:
		return t.write(f, "REPLACE(", recv, ",", func() error { return arg(0) }, ",", func() error { return arg(1) }, ")")
	case expr.MethodSubstring:
		length := func() error {
			if len(c.Args) > 1 {
				return arg(1)
			}
			f.WriteString(defaultSubstringLength)
			return nil
		}
		return t.write(f, "SUBSTRING(", recv, ", ", func() error { return arg(0) }, " + 1, ", length, ")")
	case expr.MethodTrim:
		return t.write(f, "RTRIM(LTRIM(", recv, "))")
	default:
		return translation.UnsupportedOperator(c.Method)
	}
}

type arity struct{ min, max int }

var methodArity = map[string]arity{
	expr.MethodStartsWith:    {1, 1},
	expr.MethodEndsWith:      {1, 1},
	expr.MethodContains:      {1, 1},
	expr.MethodIsNullOrEmpty: {1, 1},
	expr.MethodToUpper:       {0, 0},
	expr.MethodToLower:       {0, 0},
	expr.MethodReplace:       {2, 2},
	expr.MethodSubstring:     {1, 2},
	expr.MethodTrim:          {0, 0},
}

// write emits a sequence of literal text and visits in order.
func (t *Translator) write(f *ast.Fragment, parts ...any) error {
	for _, p := range parts {
		switch x := p.(type) {
		case string:
			f.WriteString(x)
		case func() error:
			if err := x(); err != nil {
				return err
			}
		}
	}
	return nil
}
