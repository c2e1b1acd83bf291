// Package expr defines the predicate and value graph that query operators
// carry as arguments.
//
// The node set is closed: Param, Member, Constant, Local, Binary, Unary,
// Convert, Call and Subquery. Translators dispatch on the concrete type with
// an exhaustive type switch.
package expr

import (
	"fmt"
	"reflect"
	"strings"
)

// Node is a node of an expression graph.
type Node interface {
	String() string
	node()
}

// Queryable is a nested query over a data source, referenced by Subquery.
type Queryable interface {
	ElementType() reflect.Type
}

// Param is the row parameter: the implicit per-row value that member
// accesses resolve against.
type Param struct {
	Type reflect.Type
}

// Member is a field access on Target.
type Member struct {
	Target Node
	Name   string
	Type   reflect.Type
}

// Constant is a literal value. A nil Value is the NULL literal.
type Constant struct {
	Value any
	Type  reflect.Type
}

// Local is a value captured from the host program. Get is called when the
// expression is folded, never when it is built.
type Local struct {
	Name string
	Type reflect.Type
	Get  func() any
}

// Binary is a logical, comparison or arithmetic operation.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

// Unary is a logical negation.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

// Convert is a type conversion of Operand.
type Convert struct {
	Operand Node
	Type    reflect.Type
}

// Call is a string method call. Receiver is nil for static methods such as
// IsNullOrEmpty.
type Call struct {
	Method   string
	Receiver Node
	Args     []Node
}

// Subquery is a nested query. It is never folded.
type Subquery struct {
	Source Queryable
}

func (*Param) node()    {}
func (*Member) node()   {}
func (*Constant) node() {}
func (*Local) node()    {}
func (*Binary) node()   {}
func (*Unary) node()    {}
func (*Convert) node()  {}
func (*Call) node()     {}
func (*Subquery) node() {}

// BinaryOp is the operator of a Binary node.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpXor
)

var binaryOpSymbols = [...]string{
	OpAnd: "&&",
	OpOr:  "||",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpXor: "^",
}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryOpSymbols) {
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
	return binaryOpSymbols[op]
}

// IsLogical reports whether op is AND or OR.
func (op BinaryOp) IsLogical() bool { return op == OpAnd || op == OpOr }

// IsComparison reports whether op yields a boolean from two values.
func (op BinaryOp) IsComparison() bool { return op >= OpEq && op <= OpGe }

// UnaryOp is the operator of a Unary node.
type UnaryOp int

const (
	OpNot UnaryOp = iota
)

func (op UnaryOp) String() string {
	if op == OpNot {
		return "!"
	}
	return fmt.Sprintf("UnaryOp(%d)", int(op))
}

// String method names understood by Call.
const (
	MethodStartsWith    = "StartsWith"
	MethodEndsWith      = "EndsWith"
	MethodContains      = "Contains"
	MethodIsNullOrEmpty = "IsNullOrEmpty"
	MethodToUpper       = "ToUpper"
	MethodToLower       = "ToLower"
	MethodReplace       = "Replace"
	MethodSubstring     = "Substring"
	MethodTrim          = "Trim"
)

// ObjectType is the generic object type. A conversion to it is a candidate
// for constant folding.
var ObjectType = reflect.TypeFor[any]()

// Row returns the row parameter for rows of type T.
func Row[T any]() *Param {
	return &Param{Type: reflect.TypeFor[T]()}
}

// Kind returns the name of the row type.
func (p *Param) Kind() string {
	if p.Type == nil {
		return ""
	}
	return structType(p.Type).Name()
}

// Field returns a member access on the row parameter.
func (p *Param) Field(name string) *Member {
	return FieldOf(p, name)
}

// Field returns a member access on m.
func (m *Member) Field(name string) *Member {
	return FieldOf(m, name)
}

// FieldOf returns a member access on target. The member type is resolved
// from the target's static type when it is known.
func FieldOf(target Node, name string) *Member {
	m := &Member{Target: target, Name: name}
	if t := TypeOf(target); t != nil {
		if st := structType(t); st.Kind() == reflect.Struct {
			if f, ok := st.FieldByName(name); ok {
				m.Type = f.Type
			}
		}
	}
	return m
}

// Value returns a literal holding v.
func Value(v any) *Constant {
	return &Constant{Value: v, Type: reflect.TypeOf(v)}
}

// Null returns the NULL literal.
func Null() *Constant {
	return &Constant{}
}

// Var captures the variable p. Its current value is read at fold time.
func Var[T any](name string, p *T) *Local {
	return &Local{Name: name, Type: reflect.TypeFor[T](), Get: func() any { return *p }}
}

// Func captures a host computation evaluated at fold time.
func Func(name string, fn func() any) *Local {
	return &Local{Name: name, Get: fn}
}

func binary(op BinaryOp, left, right Node) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func And(left, right Node) *Binary { return binary(OpAnd, left, right) }
func Or(left, right Node) *Binary  { return binary(OpOr, left, right) }
func Eq(left, right Node) *Binary  { return binary(OpEq, left, right) }
func Ne(left, right Node) *Binary  { return binary(OpNe, left, right) }
func Lt(left, right Node) *Binary  { return binary(OpLt, left, right) }
func Le(left, right Node) *Binary  { return binary(OpLe, left, right) }
func Gt(left, right Node) *Binary  { return binary(OpGt, left, right) }
func Ge(left, right Node) *Binary  { return binary(OpGe, left, right) }
func Add(left, right Node) *Binary { return binary(OpAdd, left, right) }
func Sub(left, right Node) *Binary { return binary(OpSub, left, right) }
func Mul(left, right Node) *Binary { return binary(OpMul, left, right) }
func Div(left, right Node) *Binary { return binary(OpDiv, left, right) }
func Mod(left, right Node) *Binary { return binary(OpMod, left, right) }
func Xor(left, right Node) *Binary { return binary(OpXor, left, right) }

// AndAll combines nodes with AND, left to right. It returns nil for no nodes.
func AndAll(nodes ...Node) Node { return chain(OpAnd, nodes) }

// OrAll combines nodes with OR, left to right. It returns nil for no nodes.
func OrAll(nodes ...Node) Node { return chain(OpOr, nodes) }

func chain(op BinaryOp, nodes []Node) Node {
	if len(nodes) == 0 {
		return nil
	}
	result := nodes[0]
	for _, n := range nodes[1:] {
		result = binary(op, result, n)
	}
	return result
}

// Not negates operand.
func Not(operand Node) *Unary {
	return &Unary{Op: OpNot, Operand: operand}
}

// ConvertTo converts operand to t.
func ConvertTo(operand Node, t reflect.Type) *Convert {
	return &Convert{Operand: operand, Type: t}
}

// AsObject converts operand to the generic object type.
func AsObject(operand Node) *Convert {
	return ConvertTo(operand, ObjectType)
}

// Method builds a call of an arbitrary method on receiver.
func Method(receiver Node, name string, args ...Node) *Call {
	return &Call{Method: name, Receiver: receiver, Args: args}
}

func StartsWith(s, prefix Node) *Call { return Method(s, MethodStartsWith, prefix) }
func EndsWith(s, suffix Node) *Call   { return Method(s, MethodEndsWith, suffix) }
func Contains(s, substr Node) *Call   { return Method(s, MethodContains, substr) }
func ToUpper(s Node) *Call            { return Method(s, MethodToUpper) }
func ToLower(s Node) *Call            { return Method(s, MethodToLower) }
func Trim(s Node) *Call               { return Method(s, MethodTrim) }

// Replace replaces every occurrence of oldValue in s with newValue.
func Replace(s, oldValue, newValue Node) *Call {
	return Method(s, MethodReplace, oldValue, newValue)
}

// IsNullOrEmpty is the static string test.
func IsNullOrEmpty(s Node) *Call {
	return &Call{Method: MethodIsNullOrEmpty, Args: []Node{s}}
}

// Substring takes the substring of s starting at the zero-based start,
// optionally limited to length characters.
func Substring(s, start Node, length ...Node) *Call {
	args := []Node{start}
	if len(length) > 0 && length[0] != nil {
		args = append(args, length[0])
	}
	return Method(s, MethodSubstring, args...)
}

// Query wraps a nested query.
func Query(source Queryable) *Subquery {
	return &Subquery{Source: source}
}

func (p *Param) String() string { return "row" }

func (m *Member) String() string {
	if m.Target == nil {
		return m.Name
	}
	return m.Target.String() + "." + m.Name
}

func (c *Constant) String() string {
	if c.Value == nil {
		return "null"
	}
	if s, ok := c.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", c.Value)
}

func (l *Local) String() string { return l.Name }

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (u *Unary) String() string { return u.Op.String() + u.Operand.String() }

func (c *Convert) String() string {
	if c.Type == nil {
		return fmt.Sprintf("convert(%s)", c.Operand)
	}
	return fmt.Sprintf("%s(%s)", c.Type, c.Operand)
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	if c.Receiver == nil {
		return fmt.Sprintf("%s(%s)", c.Method, strings.Join(args, ", "))
	}
	return fmt.Sprintf("%s.%s(%s)", c.Receiver, c.Method, strings.Join(args, ", "))
}

func (s *Subquery) String() string { return "subquery" }
