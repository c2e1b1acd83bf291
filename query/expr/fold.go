package expr

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/satishbabariya/tsqlgen/query/translation"
)

// Fold returns a copy of n in which every sub-tree that references neither
// the row parameter nor a nested query is replaced by a Constant holding its
// value. Subquery nodes are kept as they are so they stay lazy.
func Fold(n Node) (Node, error) {
	if n == nil {
		return nil, nil
	}
	if _, ok := n.(*Constant); ok {
		return n, nil
	}
	if !rowBound(n) {
		v, err := Eval(n)
		if err != nil {
			return nil, err
		}
		v = indirect(v)
		t := reflect.TypeOf(v)
		if t == nil {
			t = TypeOf(n)
		}
		return &Constant{Value: v, Type: t}, nil
	}

	switch x := n.(type) {
	case *Binary:
		left, err := Fold(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := Fold(x.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: x.Op, Left: left, Right: right}, nil
	case *Unary:
		operand, err := Fold(x.Operand)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: x.Op, Operand: operand}, nil
	case *Convert:
		operand, err := Fold(x.Operand)
		if err != nil {
			return nil, err
		}
		return &Convert{Operand: operand, Type: x.Type}, nil
	case *Member:
		target, err := Fold(x.Target)
		if err != nil {
			return nil, err
		}
		return &Member{Target: target, Name: x.Name, Type: x.Type}, nil
	case *Call:
		receiver, err := Fold(x.Receiver)
		if err != nil {
			return nil, err
		}
		args := make([]Node, len(x.Args))
		for i, a := range x.Args {
			if args[i], err = Fold(a); err != nil {
				return nil, err
			}
		}
		return &Call{Method: x.Method, Receiver: receiver, Args: args}, nil
	default:
		return n, nil
	}
}

// rowBound reports whether n references the row parameter or contains a
// nested query.
func rowBound(n Node) bool {
	switch x := n.(type) {
	case nil:
		return false
	case *Param, *Subquery:
		return true
	case *Member:
		return rowBound(x.Target)
	case *Binary:
		return rowBound(x.Left) || rowBound(x.Right)
	case *Unary:
		return rowBound(x.Operand)
	case *Convert:
		return rowBound(x.Operand)
	case *Call:
		if rowBound(x.Receiver) {
			return true
		}
		for _, a := range x.Args {
			if rowBound(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Eval evaluates n with host semantics. It fails for graphs that reference
// the row parameter or a nested query.
func Eval(n Node) (any, error) {
	switch x := n.(type) {
	case *Constant:
		return x.Value, nil
	case *Local:
		if x.Get == nil {
			return nil, nil
		}
		return indirect(x.Get()), nil
	case *Member:
		target, err := Eval(x.Target)
		if err != nil {
			return nil, err
		}
		return fieldValue(target, x.Name)
	case *Convert:
		v, err := Eval(x.Operand)
		if err != nil {
			return nil, err
		}
		return convertValue(v, x.Type)
	case *Unary:
		v, err := Eval(x.Operand)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, translation.UnsupportedOperator(x.Op.String(), fmt.Sprintf("cannot negate %T", v))
		}
		return !b, nil
	case *Binary:
		return evalBinary(x)
	case *Call:
		return evalCall(x)
	case *Param:
		return nil, translation.UnsupportedMember(x.Kind(), "row parameter has no host value")
	case *Subquery:
		return nil, translation.UnsupportedOperator("subquery", "nested queries are not evaluated")
	default:
		return nil, translation.UnsupportedOperator(fmt.Sprintf("%T", n))
	}
}

func indirect(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func fieldValue(target any, name string) (any, error) {
	rv := reflect.ValueOf(indirect(target))
	if !rv.IsValid() {
		return nil, translation.UnsupportedMember(name, "member access on nil value")
	}
	if rv.Kind() != reflect.Struct {
		return nil, translation.UnsupportedMember(name, fmt.Sprintf("%s has no fields", rv.Type()))
	}
	f, ok := rv.Type().FieldByName(name)
	if !ok || !f.IsExported() {
		return nil, translation.UnsupportedMember(name, fmt.Sprintf("%s has no exported field %s", rv.Type(), name))
	}
	return indirect(rv.FieldByIndex(f.Index).Interface()), nil
}

func convertValue(v any, t reflect.Type) (any, error) {
	if v == nil || t == nil || t == ObjectType {
		return v, nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == t {
		return v, nil
	}
	if t.Kind() == reflect.String && rv.Kind() != reflect.String {
		return nil, translation.UnsupportedConstant(t.String(), fmt.Sprintf("cannot convert %T", v))
	}
	if !rv.Type().ConvertibleTo(t) {
		return nil, translation.UnsupportedConstant(t.String(), fmt.Sprintf("cannot convert %T", v))
	}
	return rv.Convert(t).Interface(), nil
}

func evalBinary(b *Binary) (any, error) {
	left, err := Eval(b.Left)
	if err != nil {
		return nil, err
	}

	if b.Op.IsLogical() {
		lb, ok := left.(bool)
		if !ok {
			return nil, operandError(b.Op, left, nil)
		}
		if b.Op == OpAnd && !lb {
			return false, nil
		}
		if b.Op == OpOr && lb {
			return true, nil
		}
		right, err := Eval(b.Right)
		if err != nil {
			return nil, err
		}
		rb, ok := right.(bool)
		if !ok {
			return nil, operandError(b.Op, left, right)
		}
		return rb, nil
	}

	right, err := Eval(b.Right)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case OpEq, OpNe:
		eq, err := equal(left, right)
		if err != nil {
			return nil, err
		}
		return eq == (b.Op == OpEq), nil
	case OpLt, OpLe, OpGt, OpGe:
		c, err := compare(b.Op, left, right)
		if err != nil {
			return nil, err
		}
		switch b.Op {
		case OpLt:
			return c < 0, nil
		case OpLe:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case OpAdd:
		ls, lok := stringValue(left)
		rs, rok := stringValue(right)
		if lok && rok {
			return ls + rs, nil
		}
		return arith(b.Op, left, right)
	case OpXor:
		lb, lok := left.(bool)
		rb, rok := right.(bool)
		if lok && rok {
			return lb != rb, nil
		}
		return arith(b.Op, left, right)
	default:
		return arith(b.Op, left, right)
	}
}

func operandError(op BinaryOp, left, right any) error {
	return translation.UnsupportedOperator(op.String(), fmt.Sprintf("cannot evaluate on %T and %T", left, right))
}

type numClass int

const (
	notNumeric numClass = iota
	intClass
	uintClass
	floatClass
)

func classify(v any) (reflect.Value, numClass) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return rv, notNumeric
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv, intClass
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv, uintClass
	case reflect.Float32, reflect.Float64:
		return rv, floatClass
	default:
		return rv, notNumeric
	}
}

func asFloat(rv reflect.Value, c numClass) float64 {
	switch c {
	case intClass:
		return float64(rv.Int())
	case uintClass:
		return float64(rv.Uint())
	default:
		return rv.Float()
	}
}

func asInt(rv reflect.Value, c numClass) int64 {
	if c == uintClass {
		return int64(rv.Uint())
	}
	return rv.Int()
}

// resultClass picks the class arithmetic is carried out in, and the type of
// the result. Operands of one type keep it.
func resultClass(lv reflect.Value, lc numClass, rv reflect.Value, rc numClass) (numClass, reflect.Type) {
	if lv.Type() == rv.Type() {
		return lc, lv.Type()
	}
	switch {
	case lc == floatClass || rc == floatClass:
		return floatClass, reflect.TypeFor[float64]()
	case lc == uintClass && rc == uintClass:
		return uintClass, reflect.TypeFor[uint64]()
	default:
		return intClass, reflect.TypeFor[int64]()
	}
}

func arith(op BinaryOp, left, right any) (any, error) {
	lv, lc := classify(left)
	rv, rc := classify(right)
	if lc == notNumeric || rc == notNumeric {
		return nil, operandError(op, left, right)
	}
	class, t := resultClass(lv, lc, rv, rc)

	var result reflect.Value
	switch class {
	case floatClass:
		a, b := asFloat(lv, lc), asFloat(rv, rc)
		var f float64
		switch op {
		case OpAdd:
			f = a + b
		case OpSub:
			f = a - b
		case OpMul:
			f = a * b
		case OpDiv:
			f = a / b
		case OpMod:
			f = math.Mod(a, b)
		default:
			return nil, operandError(op, left, right)
		}
		result = reflect.ValueOf(f)
	case uintClass:
		a, b := lv.Uint(), rv.Uint()
		if (op == OpDiv || op == OpMod) && b == 0 {
			return nil, translation.UnsupportedArgument(op.String(), "division by zero")
		}
		var u uint64
		switch op {
		case OpAdd:
			u = a + b
		case OpSub:
			u = a - b
		case OpMul:
			u = a * b
		case OpDiv:
			u = a / b
		case OpMod:
			u = a % b
		case OpXor:
			u = a ^ b
		}
		result = reflect.ValueOf(u)
	default:
		a, b := asInt(lv, lc), asInt(rv, rc)
		if (op == OpDiv || op == OpMod) && b == 0 {
			return nil, translation.UnsupportedArgument(op.String(), "division by zero")
		}
		var i int64
		switch op {
		case OpAdd:
			i = a + b
		case OpSub:
			i = a - b
		case OpMul:
			i = a * b
		case OpDiv:
			i = a / b
		case OpMod:
			i = a % b
		case OpXor:
			i = a ^ b
		}
		result = reflect.ValueOf(i)
	}
	return result.Convert(t).Interface(), nil
}

func equal(left, right any) (bool, error) {
	if left == nil || right == nil {
		return left == nil && right == nil, nil
	}
	lv, lc := classify(left)
	rv, rc := classify(right)
	if lc != notNumeric && rc != notNumeric {
		c, err := compareNumbers(lv, lc, rv, rc)
		return c == 0, err
	}
	if lt, ok := left.(time.Time); ok {
		rt, ok := right.(time.Time)
		return ok && lt.Equal(rt), nil
	}
	if !lv.Type().Comparable() || !rv.Type().Comparable() {
		return false, translation.UnsupportedOperator(OpEq.String(), fmt.Sprintf("cannot compare %T and %T", left, right))
	}
	return left == right, nil
}

func compare(op BinaryOp, left, right any) (int, error) {
	lv, lc := classify(left)
	rv, rc := classify(right)
	if lc != notNumeric && rc != notNumeric {
		return compareNumbers(lv, lc, rv, rc)
	}
	if ls, ok := stringValue(left); ok {
		if rs, ok := stringValue(right); ok {
			return strings.Compare(ls, rs), nil
		}
	}
	if lt, ok := left.(time.Time); ok {
		if rt, ok := right.(time.Time); ok {
			return lt.Compare(rt), nil
		}
	}
	return 0, operandError(op, left, right)
}

func compareNumbers(lv reflect.Value, lc numClass, rv reflect.Value, rc numClass) (int, error) {
	switch {
	case lc == intClass && rc == intClass:
		return cmp3(lv.Int() < rv.Int(), lv.Int() > rv.Int()), nil
	case lc == uintClass && rc == uintClass:
		return cmp3(lv.Uint() < rv.Uint(), lv.Uint() > rv.Uint()), nil
	default:
		a, b := asFloat(lv, lc), asFloat(rv, rc)
		return cmp3(a < b, a > b), nil
	}
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

func stringValue(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func intValue(v any) (int, bool) {
	rv, c := classify(v)
	switch c {
	case intClass:
		return int(rv.Int()), true
	case uintClass:
		return int(rv.Uint()), true
	default:
		return 0, false
	}
}

func evalCall(c *Call) (any, error) {
	args := make([]any, len(c.Args))
	for i, a := range c.Args {
		v, err := Eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if c.Method == MethodIsNullOrEmpty {
		if len(args) != 1 {
			return nil, arityError(c, 1)
		}
		if args[0] == nil {
			return true, nil
		}
		s, ok := stringValue(args[0])
		if !ok {
			return nil, translation.UnsupportedArgument(c.Method, fmt.Sprintf("expected string, got %T", args[0]))
		}
		return s == "", nil
	}

	if c.Receiver == nil {
		return nil, translation.UnsupportedOperator(c.Method)
	}
	recv, err := Eval(c.Receiver)
	if err != nil {
		return nil, err
	}
	if recv == nil {
		return nil, translation.UnsupportedArgument(c.Method, "method call on nil string")
	}
	s, ok := stringValue(recv)
	if !ok {
		return nil, translation.UnsupportedOperator(c.Method, fmt.Sprintf("receiver is %T", recv))
	}
	strArg := func(i int) (string, error) {
		a, ok := stringValue(args[i])
		if !ok {
			return "", translation.UnsupportedArgument(c.Method, fmt.Sprintf("expected string, got %T", args[i]))
		}
		return a, nil
	}

	switch c.Method {
	case MethodStartsWith, MethodEndsWith, MethodContains:
		if len(args) != 1 {
			return nil, arityError(c, 1)
		}
		a, err := strArg(0)
		if err != nil {
			return nil, err
		}
		switch c.Method {
		case MethodStartsWith:
			return strings.HasPrefix(s, a), nil
		case MethodEndsWith:
			return strings.HasSuffix(s, a), nil
		default:
			return strings.Contains(s, a), nil
		}
	case MethodToUpper:
		return strings.ToUpper(s), nil
	case MethodToLower:
		return strings.ToLower(s), nil
	case MethodTrim:
		return strings.TrimSpace(s), nil
	case MethodReplace:
		if len(args) != 2 {
			return nil, arityError(c, 2)
		}
		oldValue, err := strArg(0)
		if err != nil {
			return nil, err
		}
		newValue, err := strArg(1)
		if err != nil {
			return nil, err
		}
		return strings.ReplaceAll(s, oldValue, newValue), nil
	case MethodSubstring:
		return substring(c, s, args)
	default:
		return nil, translation.UnsupportedOperator(c.Method)
	}
}

func substring(c *Call, s string, args []any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, arityError(c, 1)
	}
	runes := []rune(s)
	start, ok := intValue(args[0])
	if !ok || start < 0 || start > len(runes) {
		return nil, translation.UnsupportedArgument(c.Method, "start index out of range")
	}
	end := len(runes)
	if len(args) == 2 {
		n, ok := intValue(args[1])
		if !ok || n < 0 || start+n > len(runes) {
			return nil, translation.UnsupportedArgument(c.Method, "length out of range")
		}
		end = start + n
	}
	return string(runes[start:end]), nil
}

func arityError(c *Call, want int) error {
	return translation.UnsupportedArgument(c.Method, fmt.Sprintf("expected %d argument(s), got %d", want, len(c.Args)))
}
