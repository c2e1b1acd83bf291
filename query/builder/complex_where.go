package builder

import (
	"github.com/satishbabariya/tsqlgen/query/expr"
)

// AND adds a group that holds when every sub-builder holds
func (w *WhereBuilder) AND(builders ...*WhereBuilder) *WhereBuilder {
	return w.Condition(expr.AndAll(built(builders)...))
}

// OR adds a group that holds when any sub-builder holds
func (w *WhereBuilder) OR(builders ...*WhereBuilder) *WhereBuilder {
	return w.Condition(expr.OrAll(built(builders)...))
}

// NOT adds the negation of a sub-builder
func (w *WhereBuilder) NOT(builder *WhereBuilder) *WhereBuilder {
	if builder == nil {
		return w
	}
	if n := builder.Build(); n != nil {
		w.add(expr.Not(n))
	}
	return w
}

// Sub creates an independent WHERE builder over the same row for use in
// AND, OR and NOT.
func (w *WhereBuilder) Sub() *WhereBuilder {
	return NewWhereBuilder(w.row)
}

func built(builders []*WhereBuilder) []expr.Node {
	var nodes []expr.Node
	for _, b := range builders {
		if b == nil {
			continue
		}
		if n := b.Build(); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
