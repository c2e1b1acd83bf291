package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/tsqlgen/config"
	"github.com/satishbabariya/tsqlgen/internal/version"
)

func memFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj", 0o755))
	prev := config.AppFs
	config.AppFs = fs
	t.Cleanup(func() { config.AppFs = prev })
	return fs
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDialectCommand(t *testing.T) {
	out, err := run(t, "", "dialect", "10.50.1600.1")
	require.NoError(t, err)
	assert.Contains(t, out, "rownumber")

	out, err = run(t, "", "dialect", "16.0")
	require.NoError(t, err)
	assert.Contains(t, out, "offsetfetch")

	_, err = run(t, "", "dialect", "denali")
	assert.ErrorContains(t, err, "invalid server version")

	_, err = run(t, "", "dialect")
	assert.Error(t, err)
}

func TestNormalizeStdin(t *testing.T) {
	out, err := run(t, "SELECT * FROM T WHERE Active = True", "normalize")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM T WHERE Active = 1", out)
}

func TestNormalizeFile(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, afero.WriteFile(fs, "/proj/legacy.sql", []byte("SELECT IIf(Age > 17, 'adult', 'minor') FROM T"), 0o644))

	out, err := run(t, "", "normalize", "/proj/legacy.sql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT (CASE WHEN Age > 17 THEN 'adult' ELSE 'minor' END) FROM T", out)

	_, err = run(t, "", "normalize", "/proj/missing.sql")
	assert.ErrorContains(t, err, "failed to read")
}

func TestNormalizeDiff(t *testing.T) {
	out, err := run(t, "SELECT 1\nWHERE At < Now()", "normalize", "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "  SELECT 1")
	assert.Contains(t, out, "- WHERE At < Now()")
	assert.Contains(t, out, "+ WHERE At < GETDATE()")
}

func TestNormalizeError(t *testing.T) {
	_, err := run(t, "SELECT IIf(a, b)", "normalize")
	assert.ErrorContains(t, err, "normalize inline_if")
}

func TestNormalizeRules(t *testing.T) {
	out, err := run(t, "", "normalize", "--rules")
	require.NoError(t, err)
	for _, name := range []string{"date_literals", "date_functions", "inline_if", "boolean_literals"} {
		assert.Contains(t, out, name)
	}
}

func TestInitAndConfig(t *testing.T) {
	fs := memFs(t)

	out, err := run(t, "", "--dir", "/proj", "init", "--dialect", "row_number")
	require.NoError(t, err)
	assert.Contains(t, out, "Created /proj/.tsqlgen.yaml")

	content, err := afero.ReadFile(fs, "/proj/.tsqlgen.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(content), "dialect: rownumber")

	_, err = run(t, "", "--dir", "/proj", "init")
	assert.ErrorContains(t, err, "failed to write")

	_, err = run(t, "", "--dir", "/proj", "init", "--force", "--server-version", "10.0")
	require.NoError(t, err)

	out, err = run(t, "", "--dir", "/proj", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration")
	assert.Contains(t, out, "/proj/.tsqlgen.yaml")
	assert.Contains(t, out, "10.0")
	assert.Contains(t, out, "rownumber")
}

func TestInitValidates(t *testing.T) {
	memFs(t)

	_, err := run(t, "", "--dir", "/proj", "init", "--dialect", "limit")
	assert.ErrorContains(t, err, "unknown paging dialect")

	_, err = run(t, "", "--dir", "/proj", "init", "--server-version", "x.y")
	assert.ErrorContains(t, err, "invalid server version")

	_, err = run(t, "", "--dir", "/proj", "init", "--dialect", "top", "--server-version", "9.0")
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	memFs(t)

	out, err := run(t, "", "--dir", "/proj", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "offsetfetch")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "Go Version")
}
