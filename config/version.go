package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/satishbabariya/tsqlgen/query/sqlgen"
)

var (
	// SQL Server 2012 added OFFSET ... FETCH.
	offsetFetchSince = version.Must(version.NewVersion("11.0"))
	// SQL Server 2005 added ROW_NUMBER().
	rowNumberSince = version.Must(version.NewVersion("9.0"))
)

// PagingForVersion picks the paging dialect for a server product version
// such as "10.50.1600.1" or "15.0".
func PagingForVersion(serverVersion string) (sqlgen.Paging, error) {
	v, err := version.NewVersion(strings.TrimSpace(serverVersion))
	if err != nil {
		return sqlgen.NoPaging, fmt.Errorf("invalid server version %q: %w", serverVersion, err)
	}

	switch {
	case v.GreaterThanOrEqual(offsetFetchSince):
		return sqlgen.OffsetFetch, nil
	case v.GreaterThanOrEqual(rowNumberSince):
		return sqlgen.RowNumberWindow, nil
	default:
		return sqlgen.NoPaging, nil
	}
}
