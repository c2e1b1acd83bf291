package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/tsqlgen/query/translation"
)

// Paging is the dialect policy that applies row skip and row limit to an
// already generated statement. It is chosen once per compiler.
type Paging int

const (
	// NoPaging supports TOP only. A row skip is rejected.
	NoPaging Paging = iota
	// RowNumberWindow pages through a CTE numbered with ROW_NUMBER(),
	// for servers older than SQL Server 2012.
	RowNumberWindow
	// OffsetFetch pages with OFFSET ... FETCH NEXT.
	OffsetFetch
)

// Names accepted by ParsePaging.
const (
	NoPagingName        = "nopaging"
	RowNumberWindowName = "rownumber"
	OffsetFetchName     = "offsetfetch"
)

func (p Paging) String() string {
	switch p {
	case NoPaging:
		return NoPagingName
	case RowNumberWindow:
		return RowNumberWindowName
	case OffsetFetch:
		return OffsetFetchName
	default:
		return "Paging(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParsePaging parses a paging name. Matching is case-insensitive.
func ParsePaging(name string) (Paging, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NoPagingName, "none", "top":
		return NoPaging, nil
	case RowNumberWindowName, "row_number", "rownumberwindow":
		return RowNumberWindow, nil
	case OffsetFetchName, "offset_fetch", "offset":
		return OffsetFetch, nil
	default:
		return NoPaging, fmt.Errorf("unknown paging dialect %q", name)
	}
}

// statement holds the rendered, non-paged clauses of a SELECT. Paging only
// rearranges this text.
type statement struct {
	columns   string
	aggregate bool
	from    string
	where   string
	orderBy string
	limit   *int
	skip    int
}

const (
	cteName      = "cte"
	rowNumberCol = "rownum"
	aggregateCol = "[value]"
	noOrder      = "(SELECT NULL)"
)

func (p Paging) apply(s statement) (string, error) {
	if s.skip == 0 {
		return s.top(), nil
	}
	switch p {
	case NoPaging:
		return "", translation.UnsupportedArgument("Skip", "row skip requires a paging dialect")
	case RowNumberWindow:
		return s.rowNumberWindow(), nil
	case OffsetFetch:
		return s.offsetFetch(), nil
	default:
		return "", translation.UnsupportedOperator(p.String(), "unknown paging dialect")
	}
}

func (s statement) top() string {
	var parts []string

	if s.limit != nil {
		parts = append(parts, fmt.Sprintf("SELECT TOP %d %s", *s.limit, s.columns))
	} else {
		parts = append(parts, "SELECT "+s.columns)
	}
	parts = append(parts, "FROM "+s.from)
	if s.where != "" {
		parts = append(parts, "WHERE "+s.where)
	}
	if s.orderBy != "" {
		parts = append(parts, "ORDER BY "+s.orderBy)
	}

	return strings.Join(parts, " ")
}

func (s statement) order() string {
	if s.orderBy == "" {
		return noOrder
	}
	return s.orderBy
}

func (s statement) offsetFetch() string {
	parts := []string{
		"SELECT " + s.columns,
		"FROM " + s.from,
	}
	if s.where != "" {
		parts = append(parts, "WHERE "+s.where)
	}
	parts = append(parts, "ORDER BY "+s.order())
	parts = append(parts, fmt.Sprintf("OFFSET %d ROWS", s.skip))
	if s.limit != nil {
		parts = append(parts, fmt.Sprintf("FETCH NEXT %d ROWS ONLY", *s.limit))
	}
	return strings.Join(parts, " ")
}

// windowFirst reports whether the order keys appear ahead of the predicate
// in the paged text.
func (p Paging) windowFirst(skip int) bool {
	return p == RowNumberWindow && skip > 0
}

// rowNumberWindow numbers the rows in a CTE and filters on the number.
// Every CTE column needs a name, so an aggregate projection is aliased.
func (s statement) rowNumberWindow() string {
	columns := s.columns
	if s.aggregate {
		columns += " AS " + aggregateCol
	}
	inner := []string{
		fmt.Sprintf("SELECT %s, ROW_NUMBER() OVER (ORDER BY %s) AS %s", columns, s.order(), rowNumberCol),
		"FROM " + s.from,
	}
	if s.where != "" {
		inner = append(inner, "WHERE "+s.where)
	}

	sql := fmt.Sprintf("WITH %s AS (%s) SELECT * FROM %s WHERE %s > %d",
		cteName, strings.Join(inner, " "), cteName, rowNumberCol, s.skip)
	if s.limit != nil {
		sql += fmt.Sprintf(" AND %s <= %d", rowNumberCol, s.skip+*s.limit)
	}
	return sql + " ORDER BY " + rowNumberCol
}

// exists wraps the statement into an EXISTS test. Paging and ordering do not
// apply to the inner query.
func (s statement) exists() string {
	inner := []string{"SELECT " + s.columns, "FROM " + s.from}
	if s.where != "" {
		inner = append(inner, "WHERE "+s.where)
	}
	return "SELECT (CASE WHEN EXISTS(" + strings.Join(inner, " ") + ") THEN 1 ELSE 0 END)"
}
