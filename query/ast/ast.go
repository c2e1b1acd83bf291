// Package ast defines the query AST: the chained operator pipeline handed to
// the compiler and the SelectNode it is compiled into.
package ast

import (
	"reflect"

	"github.com/satishbabariya/tsqlgen/query/expr"
)

// OpKind names a pipeline operator.
type OpKind string

const (
	OpWhere             OpKind = "Where"
	OpFirst             OpKind = "First"
	OpSingle            OpKind = "Single"
	OpTake              OpKind = "Take"
	OpSkip              OpKind = "Skip"
	OpOrderBy           OpKind = "OrderBy"
	OpOrderByDescending OpKind = "OrderByDescending"
	OpThenBy            OpKind = "ThenBy"
	OpThenByDescending  OpKind = "ThenByDescending"
	OpCount             OpKind = "Count"
	OpMin               OpKind = "Min"
	OpMax               OpKind = "Max"
	OpSum               OpKind = "Sum"
	OpAny               OpKind = "Any"
	OpGroupBy           OpKind = "GroupBy"
	OpSelect            OpKind = "Select"
)

// Operator is one call in a chained query.
type Operator struct {
	Kind OpKind
	Args []expr.Node
}

// Arg returns the i-th argument, or nil if it was omitted.
func (o Operator) Arg(i int) expr.Node {
	if i < 0 || i >= len(o.Args) {
		return nil
	}
	return o.Args[i]
}

// Pipeline is a row source followed by the operators applied to it, in call
// order.
type Pipeline struct {
	Table     Table
	Row       *expr.Param
	Operators []Operator
}

// ElementType returns the row type of the pipeline.
func (p *Pipeline) ElementType() reflect.Type {
	if p.Row == nil {
		return nil
	}
	return p.Row.Type
}

// Table is the table a query reads from.
type Table struct {
	Name  string
	Alias string
}

// Columns is the projection of a SelectNode: either a list of physical
// column names or a raw SQL fragment. The zero value projects every column.
type Columns struct {
	// Names is only set on hand-built nodes. The select operator is not
	// translated, so compiled pipelines never fill it.
	Names []string
	Raw   *Fragment
	// Aggregate is set when Raw is an aggregate such as COUNT(*).
	Aggregate bool
}

// IsAll reports whether the projection selects every column.
func (c Columns) IsAll() bool {
	return len(c.Names) == 0 && c.Raw == nil
}

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// OrderKey is one ORDER BY term.
type OrderKey struct {
	Expr      Fragment
	Direction Direction
}

// SelectNode is the root of one compiled query.
type SelectNode struct {
	Table     Table
	Columns   Columns
	Predicate *Fragment
	// GroupBy is reserved for the group_by operator, which is not
	// translated. Rendering a node that sets it fails.
	GroupBy   []string
	OrderBy   []OrderKey
	RowLimit  *int
	RowSkip   *int
	// Any marks a query wrapped into an EXISTS test.
	Any bool
}

// NewSelectNode returns an empty select over table.
func NewSelectNode(table Table) *SelectNode {
	return &SelectNode{Table: table}
}

// Skip returns the row skip, zero when unset.
func (s *SelectNode) Skip() int {
	if s.RowSkip == nil {
		return 0
	}
	return *s.RowSkip
}
