package expr

import (
	"reflect"
)

var boolType = reflect.TypeFor[bool]()
var stringType = reflect.TypeFor[string]()

// TypeOf returns the static type of n, or nil when it cannot be known
// without evaluating the graph.
func TypeOf(n Node) reflect.Type {
	switch x := n.(type) {
	case *Param:
		return x.Type
	case *Member:
		return x.Type
	case *Constant:
		return x.Type
	case *Local:
		return x.Type
	case *Convert:
		return x.Type
	case *Unary:
		return boolType
	case *Binary:
		if x.Op.IsLogical() || x.Op.IsComparison() {
			return boolType
		}
		if t := TypeOf(x.Left); t != nil {
			return t
		}
		return TypeOf(x.Right)
	case *Call:
		switch x.Method {
		case MethodStartsWith, MethodEndsWith, MethodContains, MethodIsNullOrEmpty:
			return boolType
		default:
			return stringType
		}
	default:
		return nil
	}
}

// IsNullable reports whether values of type t may hold NULL: pointers,
// interfaces, slices, maps and the database/sql Null* wrappers.
func IsNullable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	case reflect.Struct:
		f, ok := t.FieldByName("Valid")
		return ok && f.Type.Kind() == reflect.Bool && len(t.Name()) >= 4 && t.Name()[:4] == "Null"
	default:
		return false
	}
}

func structType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
