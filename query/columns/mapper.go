package columns

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/satishbabariya/tsqlgen/query/translation"
)

// DefaultTag is the struct tag read by TagMapper.
const DefaultTag = "db"

// Mapper resolves a member of a row type to its physical column name.
type Mapper interface {
	ResolveColumn(row reflect.Type, member string) (string, error)
}

// MapperFunc adapts a function to Mapper.
type MapperFunc func(row reflect.Type, member string) (string, error)

// ResolveColumn calls f.
func (f MapperFunc) ResolveColumn(row reflect.Type, member string) (string, error) {
	return f(row, member)
}

// TagMapper maps exported struct fields through a struct tag. A field without
// the tag maps to its own name; a field tagged "-" is not mapped.
type TagMapper struct {
	Tag string
}

// NewTagMapper creates a mapper reading tag. An empty tag means DefaultTag.
func NewTagMapper(tag string) *TagMapper {
	if tag == "" {
		tag = DefaultTag
	}
	return &TagMapper{Tag: tag}
}

// ResolveColumn implements Mapper.
func (m *TagMapper) ResolveColumn(row reflect.Type, member string) (string, error) {
	if row == nil {
		return "", translation.UnsupportedMember(member, "row type is unknown")
	}
	for row.Kind() == reflect.Pointer {
		row = row.Elem()
	}
	if row.Kind() != reflect.Struct {
		return "", translation.UnsupportedMember(member, fmt.Sprintf("%s is not a struct", row))
	}

	field, ok := row.FieldByName(member)
	if !ok || !field.IsExported() {
		return "", translation.UnsupportedMember(member, fmt.Sprintf("%s has no exported field %s", row.Name(), member))
	}

	tag := m.Tag
	if tag == "" {
		tag = DefaultTag
	}
	name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
	switch name {
	case "-":
		return "", translation.UnsupportedMember(member, "field is not mapped to a column")
	case "":
		return field.Name, nil
	default:
		return name, nil
	}
}

// Registry holds explicit member to column mappings per row type.
type Registry struct {
	mu      sync.RWMutex
	columns map[reflect.Type]map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{columns: make(map[reflect.Type]map[string]string)}
}

// Register maps member of row to column.
func (r *Registry) Register(row reflect.Type, member, column string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.columns[row]
	if !ok {
		m = make(map[string]string)
		r.columns[row] = m
	}
	m[member] = column
	return r
}

// ResolveColumn implements Mapper.
func (r *Registry) ResolveColumn(row reflect.Type, member string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if column, ok := r.columns[row][member]; ok {
		return column, nil
	}
	return "", translation.UnsupportedMember(member, "no column registered")
}

// Chain tries each mapper in order and returns the first column resolved.
type Chain []Mapper

// ResolveColumn implements Mapper.
func (c Chain) ResolveColumn(row reflect.Type, member string) (string, error) {
	err := translation.UnsupportedMember(member, "no mapper configured")
	for _, m := range c {
		var column string
		if column, err = m.ResolveColumn(row, member); err == nil {
			return column, nil
		}
	}
	return "", err
}
