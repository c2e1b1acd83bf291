package ast

import (
	"strconv"
	"strings"
)

// Fragment is SQL text interleaved with the literal values it references.
// Placeholders are named only when the fragment is rendered into a Params
// set, so fragments compiled for different clauses never collide.
type Fragment struct {
	parts []part
}

type part struct {
	text  string
	value any
	arg   bool
}

// WriteString appends SQL text.
func (f *Fragment) WriteString(s string) {
	if s == "" {
		return
	}
	f.push(part{text: s})
}

// WriteArg appends a bound value.
func (f *Fragment) WriteArg(v any) {
	f.push(part{value: v, arg: true})
}

// push never writes into spare capacity, so copies of a Fragment value
// stay independent.
func (f *Fragment) push(p part) {
	n := len(f.parts)
	f.parts = append(f.parts[:n:n], p)
}

// Append appends another fragment.
func (f *Fragment) Append(other Fragment) {
	for _, p := range other.parts {
		if p.arg {
			f.WriteArg(p.value)
		} else {
			f.WriteString(p.text)
		}
	}
}

// IsEmpty reports whether nothing has been written.
func (f Fragment) IsEmpty() bool { return len(f.parts) == 0 }

// Args returns the bound values in order.
func (f Fragment) Args() []any {
	var args []any
	for _, p := range f.parts {
		if p.arg {
			args = append(args, p.value)
		}
	}
	return args
}

// Render returns the SQL text, adding each bound value to params.
func (f Fragment) Render(params *Params) string {
	var sb strings.Builder
	for _, p := range f.parts {
		if p.arg {
			sb.WriteString(params.Add(p.value))
		} else {
			sb.WriteString(p.text)
		}
	}
	return sb.String()
}

// String renders the fragment with a scratch parameter set.
func (f Fragment) String() string {
	return f.Render(NewParams(DefaultParamPrefix))
}

// Text returns a fragment holding only s.
func Text(s string) Fragment {
	var f Fragment
	f.WriteString(s)
	return f
}

// DefaultParamPrefix is the placeholder prefix: @p1, @p2, ...
const DefaultParamPrefix = "p"

// Param is a named bound value.
type Param struct {
	Name  string
	Value any
}

// Placeholder returns the text that references the parameter in SQL.
func (p Param) Placeholder() string { return "@" + p.Name }

// Params is the ordered parameter set of one compilation. Names are
// assigned in encounter order.
type Params struct {
	prefix string
	list   []Param
}

// NewParams returns an empty set naming parameters @<prefix>1, @<prefix>2, ...
func NewParams(prefix string) *Params {
	return &Params{prefix: prefix}
}

// Add binds v and returns its placeholder.
func (p *Params) Add(v any) string {
	param := Param{Name: p.prefix + strconv.Itoa(len(p.list)+1), Value: v}
	p.list = append(p.list, param)
	return param.Placeholder()
}

// List returns the bound parameters in order.
func (p *Params) List() []Param {
	out := make([]Param, len(p.list))
	copy(out, p.list)
	return out
}

// Len returns the number of bound parameters.
func (p *Params) Len() int { return len(p.list) }
