package sqlgen

import (
	"strings"

	"github.com/satishbabariya/tsqlgen/query/ast"
)

// quoteIdentifier bracket-quotes one SQL Server identifier.
func quoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// quoteQualified quotes a possibly schema-qualified name such as dbo.People.
// Parts that are already bracketed are unwrapped first.
func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if len(p) >= 2 && p[0] == '[' && p[len(p)-1] == ']' {
			p = strings.ReplaceAll(p[1:len(p)-1], "]]", "]")
		}
		parts[i] = quoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func tableRef(t ast.Table) string {
	ref := quoteQualified(t.Name)
	if t.Alias != "" {
		ref += " AS " + quoteIdentifier(t.Alias)
	}
	return ref
}

func columnRef(alias, column string) string {
	if alias == "" {
		return quoteIdentifier(column)
	}
	return quoteIdentifier(alias) + "." + quoteIdentifier(column)
}

func allColumns(alias string) string {
	if alias == "" {
		return "*"
	}
	return quoteIdentifier(alias) + ".*"
}
