package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooleanLiterals(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT * FROM T WHERE Active = True", "SELECT * FROM T WHERE Active = 1"},
		{"WHERE a = FALSE OR b = true", "WHERE a = 0 OR b = 1"},
		{"WHERE Name = 'True' AND [False] = 1", "WHERE Name = 'True' AND [False] = 1"},
		{"WHERE IsTrue = 1", "WHERE IsTrue = 1"},
	}
	for _, tt := range tests {
		got, err := BooleanLiterals.Rewrite(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDateFunctions(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WHERE Created < Now()", "WHERE Created < GETDATE()"},
		{"SELECT Date ( ), Time()", "SELECT CAST(GETDATE() AS DATE), CAST(GETDATE() AS TIME)"},
		{"SELECT CAST(x AS DATE), [Now]", "SELECT CAST(x AS DATE), [Now]"},
		{"SELECT 'Now()'", "SELECT 'Now()'"},
		{"SELECT DateAdd(d, 1, x)", "SELECT DateAdd(d, 1, x)"},
	}
	for _, tt := range tests {
		got, err := DateFunctions.Rewrite(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDateLiterals(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WHERE Born = #1/31/2024#", "WHERE Born = '2024-01-31'"},
		{"WHERE At > #12/1/2023 08:30:00#", "WHERE At > '2023-12-01T08:30:00'"},
		{"WHERE At > #2023-12-01#", "WHERE At > '2023-12-01'"},
		{"SELECT * FROM #tmp", "SELECT * FROM #tmp"},
		{"WHERE Note = '#1/31/2024#'", "WHERE Note = '#1/31/2024#'"},
	}
	for _, tt := range tests {
		got, err := DateLiterals.Rewrite(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := DateLiterals.Rewrite("WHERE Born = #13/45/2024#")
	assert.ErrorContains(t, err, "invalid date literal")
}

func TestInlineIf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"SELECT IIf(Age > 17, 'adult', 'minor') FROM T",
			"SELECT (CASE WHEN Age > 17 THEN 'adult' ELSE 'minor' END) FROM T",
		},
		{
			"SELECT iif(a = 1, iif(b = 2, 'x', 'y'), 'z')",
			"SELECT (CASE WHEN a = 1 THEN (CASE WHEN b = 2 THEN 'x' ELSE 'y' END) ELSE 'z' END)",
		},
		{
			"SELECT IIf(Coalesce(a, b) = 1, Len(c), 0)",
			"SELECT (CASE WHEN Coalesce(a, b) = 1 THEN Len(c) ELSE 0 END)",
		},
		{"SELECT 'IIf(a, b, c)'", "SELECT 'IIf(a, b, c)'"},
	}
	for _, tt := range tests {
		got, err := InlineIf.Rewrite(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := InlineIf.Rewrite("SELECT IIf(a, b)")
	assert.ErrorContains(t, err, "IIf takes 3 arguments")

	_, err = InlineIf.Rewrite("SELECT IIf(a, b, c")
	assert.ErrorContains(t, err, "unbalanced")
}

func TestDefaultNormalizer(t *testing.T) {
	n := Default()
	assert.Equal(t, []string{"date_literals", "date_functions", "inline_if", "boolean_literals"}, n.Rules())

	got, err := n.Apply("SELECT IIf(Active = True, Now(), #1/2/2024#) FROM [Log]")
	require.NoError(t, err)
	assert.Equal(t, "SELECT (CASE WHEN Active = 1 THEN GETDATE() ELSE '2024-01-02' END) FROM [Log]", got)

	_, err = n.Apply("SELECT #99/99/9999#")
	assert.ErrorContains(t, err, "normalize date_literals")

	same, err := New().Apply("SELECT True")
	require.NoError(t, err)
	assert.Equal(t, "SELECT True", same)
}
