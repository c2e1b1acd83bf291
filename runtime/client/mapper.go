package client

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/satishbabariya/tsqlgen/query/ast"
	"github.com/satishbabariya/tsqlgen/query/columns"
)

// ScanRows scans every row into a T, matching result columns to fields
// through m. A nil mapper uses the "db" tag. Columns with no matching field
// are discarded. rows is closed on return.
func ScanRows[T any](rows *sql.Rows, m columns.Mapper) ([]T, error) {
	defer rows.Close()

	if m == nil {
		m = columns.NewTagMapper(columns.DefaultTag)
	}

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	fields, err := fieldIndexes(reflect.TypeFor[T](), names, m)
	if err != nil {
		return nil, err
	}

	var results []T
	for rows.Next() {
		var result T
		val := reflect.ValueOf(&result).Elem()

		dest := make([]any, len(names))
		for i, index := range fields {
			if index == nil {
				dest[i] = new(any)
				continue
			}
			dest[i] = val.FieldByIndex(index).Addr().Interface()
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// fieldIndexes returns, for each result column, the index of the field it
// scans into, or nil when no field maps to it. Column names match
// case-insensitively.
func fieldIndexes(typ reflect.Type, names []string, m columns.Mapper) ([][]int, error) {
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot scan rows into %s: not a struct", typ)
	}

	byColumn := make(map[string][]int, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}
		column, err := m.ResolveColumn(typ, field.Name)
		if err != nil {
			continue
		}
		byColumn[strings.ToLower(column)] = field.Index
	}

	fields := make([][]int, len(names))
	for i, name := range names {
		fields[i] = byColumn[strings.ToLower(name)]
	}
	return fields, nil
}

// Find runs p and scans the rows into a slice of T. Columns are matched
// through the mapper of the compiler that built the statement.
func Find[T any](ctx context.Context, c *Client, p *ast.Pipeline) ([]T, error) {
	cc := c.Compiler()
	q, err := c.compileWith(cc, p)
	if err != nil {
		return nil, err
	}
	rows, err := c.query(ctx, c.db, q.SQL, q.Args())
	if err != nil {
		return nil, err
	}
	return ScanRows[T](rows, cc.Mapper())
}
