// Package columns maps row members to physical columns and provides typed
// column helpers that build predicate graphs.
package columns

import (
	"time"

	"github.com/satishbabariya/tsqlgen/query/expr"
)

// Column is a typed handle on one member of the row parameter.
type Column interface {
	// Name returns the member name
	Name() string
	// Expr returns the member access node
	Expr() *expr.Member
}

// BaseColumn is the base implementation for all column types
type BaseColumn struct {
	member *expr.Member
}

func newBase(row *expr.Param, name string) BaseColumn {
	return BaseColumn{member: row.Field(name)}
}

// Name returns the member name
func (c BaseColumn) Name() string {
	return c.member.Name
}

// Expr returns the member access node
func (c BaseColumn) Expr() *expr.Member {
	return c.member
}

// IntColumn represents an integer column
type IntColumn struct {
	BaseColumn
}

// NewIntColumn creates a new IntColumn
func NewIntColumn(row *expr.Param, name string) IntColumn {
	return IntColumn{BaseColumn: newBase(row, name)}
}

// EQ creates an equality condition
func (c IntColumn) EQ(value int) expr.Node { return expr.Eq(c.member, expr.Value(value)) }

// NOT_EQ creates a not-equal condition
func (c IntColumn) NOT_EQ(value int) expr.Node { return expr.Ne(c.member, expr.Value(value)) }

// GT creates a greater-than condition
func (c IntColumn) GT(value int) expr.Node { return expr.Gt(c.member, expr.Value(value)) }

// GTE creates a greater-than-or-equal condition
func (c IntColumn) GTE(value int) expr.Node { return expr.Ge(c.member, expr.Value(value)) }

// LT creates a less-than condition
func (c IntColumn) LT(value int) expr.Node { return expr.Lt(c.member, expr.Value(value)) }

// LTE creates a less-than-or-equal condition
func (c IntColumn) LTE(value int) expr.Node { return expr.Le(c.member, expr.Value(value)) }

// Between matches lo <= column <= hi.
func (c IntColumn) Between(lo, hi int) expr.Node {
	return expr.And(c.GTE(lo), c.LTE(hi))
}

// StringColumn represents a string column
type StringColumn struct {
	BaseColumn
}

// NewStringColumn creates a new StringColumn
func NewStringColumn(row *expr.Param, name string) StringColumn {
	return StringColumn{BaseColumn: newBase(row, name)}
}

// EQ creates an equality condition
func (c StringColumn) EQ(value string) expr.Node { return expr.Eq(c.member, expr.Value(value)) }

// NOT_EQ creates a not-equal condition
func (c StringColumn) NOT_EQ(value string) expr.Node { return expr.Ne(c.member, expr.Value(value)) }

// Contains creates a LIKE condition with wildcards
func (c StringColumn) Contains(value string) expr.Node {
	return expr.Contains(c.member, expr.Value(value))
}

// StartsWith creates a LIKE condition that matches the start
func (c StringColumn) StartsWith(value string) expr.Node {
	return expr.StartsWith(c.member, expr.Value(value))
}

// EndsWith creates a LIKE condition that matches the end
func (c StringColumn) EndsWith(value string) expr.Node {
	return expr.EndsWith(c.member, expr.Value(value))
}

// Upper and Lower fold the case of the column.
func (c StringColumn) Upper() expr.Node { return expr.ToUpper(c.member) }
func (c StringColumn) Lower() expr.Node { return expr.ToLower(c.member) }

// NullableStringColumn represents a nullable string column
type NullableStringColumn struct {
	BaseColumn
}

// NewNullableStringColumn creates a new NullableStringColumn
func NewNullableStringColumn(row *expr.Param, name string) NullableStringColumn {
	return NullableStringColumn{BaseColumn: newBase(row, name)}
}

// EQ creates an equality condition. A nil value compares with IS NULL.
func (c NullableStringColumn) EQ(value *string) expr.Node {
	return expr.Eq(c.member, nullable(value))
}

// NOT_EQ creates a not-equal condition. A nil value compares with IS NOT NULL.
func (c NullableStringColumn) NOT_EQ(value *string) expr.Node {
	return expr.Ne(c.member, nullable(value))
}

// Contains creates a LIKE condition with wildcards
func (c NullableStringColumn) Contains(value string) expr.Node {
	return expr.Contains(c.member, expr.Value(value))
}

// IsNull creates an IS NULL condition
func (c NullableStringColumn) IsNull() expr.Node { return expr.Eq(c.member, expr.Null()) }

// IsNotNull creates an IS NOT NULL condition
func (c NullableStringColumn) IsNotNull() expr.Node { return expr.Ne(c.member, expr.Null()) }

// IsNullOrEmpty matches NULL or the empty string.
func (c NullableStringColumn) IsNullOrEmpty() expr.Node { return expr.IsNullOrEmpty(c.member) }

func nullable(value *string) expr.Node {
	if value == nil {
		return expr.Null()
	}
	return expr.Value(*value)
}

// BoolColumn represents a boolean column
type BoolColumn struct {
	BaseColumn
}

// NewBoolColumn creates a new BoolColumn
func NewBoolColumn(row *expr.Param, name string) BoolColumn {
	return BoolColumn{BaseColumn: newBase(row, name)}
}

// EQ creates an equality condition
func (c BoolColumn) EQ(value bool) expr.Node { return expr.Eq(c.member, expr.Value(value)) }

// NOT_EQ creates a not-equal condition
func (c BoolColumn) NOT_EQ(value bool) expr.Node { return expr.Ne(c.member, expr.Value(value)) }

// IsTrue matches rows where the column is set.
func (c BoolColumn) IsTrue() expr.Node { return c.EQ(true) }

// DateTimeColumn represents a datetime column
type DateTimeColumn struct {
	BaseColumn
}

// NewDateTimeColumn creates a new DateTimeColumn
func NewDateTimeColumn(row *expr.Param, name string) DateTimeColumn {
	return DateTimeColumn{BaseColumn: newBase(row, name)}
}

// EQ creates an equality condition
func (c DateTimeColumn) EQ(value time.Time) expr.Node { return expr.Eq(c.member, expr.Value(value)) }

// NOT_EQ creates a not-equal condition
func (c DateTimeColumn) NOT_EQ(value time.Time) expr.Node { return expr.Ne(c.member, expr.Value(value)) }

// GT creates a greater-than condition
func (c DateTimeColumn) GT(value time.Time) expr.Node { return expr.Gt(c.member, expr.Value(value)) }

// GTE creates a greater-than-or-equal condition
func (c DateTimeColumn) GTE(value time.Time) expr.Node { return expr.Ge(c.member, expr.Value(value)) }

// LT creates a less-than condition
func (c DateTimeColumn) LT(value time.Time) expr.Node { return expr.Lt(c.member, expr.Value(value)) }

// LTE creates a less-than-or-equal condition
func (c DateTimeColumn) LTE(value time.Time) expr.Node { return expr.Le(c.member, expr.Value(value)) }

// Before and After are strict comparisons against t.
func (c DateTimeColumn) Before(t time.Time) expr.Node { return c.LT(t) }
func (c DateTimeColumn) After(t time.Time) expr.Node  { return c.GT(t) }

// AND combines multiple conditions with AND. It returns nil for none.
func AND(conditions ...expr.Node) expr.Node {
	return expr.AndAll(conditions...)
}

// OR combines multiple conditions with OR. It returns nil for none.
func OR(conditions ...expr.Node) expr.Node {
	return expr.OrAll(conditions...)
}
