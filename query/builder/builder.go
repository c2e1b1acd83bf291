// Package builder provides a fluent query builder API.
package builder

import (
	"github.com/satishbabariya/tsqlgen/query/expr"
)

// WhereBuilder builds predicates over named fields of the row parameter.
type WhereBuilder struct {
	row        *expr.Param
	conditions []expr.Node
	operator   expr.BinaryOp
}

// NewWhereBuilder creates a new WHERE builder. Conditions are combined with
// AND unless SetOperator says otherwise.
func NewWhereBuilder(row *expr.Param) *WhereBuilder {
	return &WhereBuilder{
		row:      row,
		operator: expr.OpAnd,
	}
}

func (w *WhereBuilder) add(n expr.Node) *WhereBuilder {
	w.conditions = append(w.conditions, n)
	return w
}

func (w *WhereBuilder) field(name string) *expr.Member {
	return w.row.Field(name)
}

// Equals adds an equality condition
func (w *WhereBuilder) Equals(field string, value any) *WhereBuilder {
	return w.add(expr.Eq(w.field(field), literal(value)))
}

// NotEquals adds a not-equals condition
func (w *WhereBuilder) NotEquals(field string, value any) *WhereBuilder {
	return w.add(expr.Ne(w.field(field), literal(value)))
}

// GreaterThan adds a greater-than condition
func (w *WhereBuilder) GreaterThan(field string, value any) *WhereBuilder {
	return w.add(expr.Gt(w.field(field), literal(value)))
}

// LessThan adds a less-than condition
func (w *WhereBuilder) LessThan(field string, value any) *WhereBuilder {
	return w.add(expr.Lt(w.field(field), literal(value)))
}

// GreaterOrEqual adds a greater-or-equal condition
func (w *WhereBuilder) GreaterOrEqual(field string, value any) *WhereBuilder {
	return w.add(expr.Ge(w.field(field), literal(value)))
}

// LessOrEqual adds a less-or-equal condition
func (w *WhereBuilder) LessOrEqual(field string, value any) *WhereBuilder {
	return w.add(expr.Le(w.field(field), literal(value)))
}

// Contains adds a substring match
func (w *WhereBuilder) Contains(field string, s string) *WhereBuilder {
	return w.add(expr.Contains(w.field(field), expr.Value(s)))
}

// StartsWith adds a prefix match
func (w *WhereBuilder) StartsWith(field string, prefix string) *WhereBuilder {
	return w.add(expr.StartsWith(w.field(field), expr.Value(prefix)))
}

// EndsWith adds a suffix match
func (w *WhereBuilder) EndsWith(field string, suffix string) *WhereBuilder {
	return w.add(expr.EndsWith(w.field(field), expr.Value(suffix)))
}

// IsNull adds an IS NULL condition
func (w *WhereBuilder) IsNull(field string) *WhereBuilder {
	return w.add(expr.Eq(w.field(field), expr.Null()))
}

// IsNotNull adds an IS NOT NULL condition
func (w *WhereBuilder) IsNotNull(field string) *WhereBuilder {
	return w.add(expr.Ne(w.field(field), expr.Null()))
}

// Condition adds an arbitrary predicate
func (w *WhereBuilder) Condition(n expr.Node) *WhereBuilder {
	if n == nil {
		return w
	}
	return w.add(n)
}

// SetOperator sets the logical operator joining the conditions. Only
// expr.OpAnd and expr.OpOr are meaningful.
func (w *WhereBuilder) SetOperator(op expr.BinaryOp) *WhereBuilder {
	if op.IsLogical() {
		w.operator = op
	}
	return w
}

// Build returns the combined predicate, or nil when there are no conditions.
func (w *WhereBuilder) Build() expr.Node {
	if w.operator == expr.OpOr {
		return expr.OrAll(w.conditions...)
	}
	return expr.AndAll(w.conditions...)
}

// literal wraps value unless it already is a node.
func literal(value any) expr.Node {
	if n, ok := value.(expr.Node); ok {
		return n
	}
	if value == nil {
		return expr.Null()
	}
	return expr.Value(value)
}
