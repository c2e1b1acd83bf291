// Package normalize rewrites desktop-database SQL syntax into T-SQL. Each
// rule is an independent pure string rewrite; rules only look at code tokens,
// never inside string literals or bracketed identifiers.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2/lexer"
)

// Rule rewrites SQL text.
type Rule struct {
	Name    string
	Rewrite func(sql string) (string, error)
}

// Normalizer applies rules in order.
type Normalizer struct {
	rules []Rule
}

// New creates a normalizer applying rules in order.
func New(rules ...Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Default returns a normalizer with every rule of this package.
func Default() *Normalizer {
	return New(DateLiterals, DateFunctions, InlineIf, BooleanLiterals)
}

// Rules returns the names of the configured rules.
func (n *Normalizer) Rules() []string {
	names := make([]string, len(n.rules))
	for i, r := range n.rules {
		names[i] = r.Name
	}
	return names
}

// Apply runs every rule over sql.
func (n *Normalizer) Apply(sql string) (string, error) {
	var err error
	for _, r := range n.rules {
		if sql, err = r.Rewrite(sql); err != nil {
			return "", fmt.Errorf("normalize %s: %w", r.Name, err)
		}
	}
	return sql, nil
}

// BooleanLiterals turns True and False into 1 and 0.
var BooleanLiterals = Rule{Name: "boolean_literals", Rewrite: rewriteBooleans}

func rewriteBooleans(sql string) (string, error) {
	tokens, err := tokenize(sql)
	if err != nil {
		return "", err
	}
	for i, t := range tokens {
		if t.Type != tokIdent {
			continue
		}
		switch strings.ToLower(t.Value) {
		case "true":
			tokens[i].Value = "1"
		case "false":
			tokens[i].Value = "0"
		}
	}
	return join(tokens), nil
}

var dateFunctions = map[string]string{
	"now":  "GETDATE()",
	"date": "CAST(GETDATE() AS DATE)",
	"time": "CAST(GETDATE() AS TIME)",
}

// DateFunctions maps Now(), Date() and Time() onto GETDATE().
var DateFunctions = Rule{Name: "date_functions", Rewrite: rewriteDateFunctions}

func rewriteDateFunctions(sql string) (string, error) {
	tokens, err := tokenize(sql)
	if err != nil {
		return "", err
	}

	var out []lexer.Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		repl, ok := dateFunctions[strings.ToLower(t.Value)]
		if t.Type != tokIdent || !ok {
			out = append(out, t)
			continue
		}
		open := nextSignificant(tokens, i+1)
		if open >= len(tokens) || tokens[open].Type != tokLParen {
			out = append(out, t)
			continue
		}
		closing := nextSignificant(tokens, open+1)
		if closing >= len(tokens) || tokens[closing].Type != tokRParen {
			out = append(out, t)
			continue
		}
		t.Value = repl
		out = append(out, t)
		i = closing
	}
	return join(out), nil
}

var dateLayouts = []struct {
	in  string
	out string
}{
	{"1/2/2006 15:04:05", "2006-01-02T15:04:05"},
	{"1/2/2006 15:04", "2006-01-02T15:04:05"},
	{"1/2/2006", "2006-01-02"},
	{"2006-01-02 15:04:05", "2006-01-02T15:04:05"},
	{"2006-01-02", "2006-01-02"},
}

// DateLiterals turns #m/d/yyyy# literals into ISO string literals.
var DateLiterals = Rule{Name: "date_literals", Rewrite: rewriteDateLiterals}

func rewriteDateLiterals(sql string) (string, error) {
	tokens, err := tokenize(sql)
	if err != nil {
		return "", err
	}
	for i, t := range tokens {
		if t.Type != tokDateLit {
			continue
		}
		lit, err := isoDate(strings.TrimSpace(t.Value[1 : len(t.Value)-1]))
		if err != nil {
			return "", fmt.Errorf("%s: %w", t.Pos, err)
		}
		tokens[i].Value = lit
	}
	return join(tokens), nil
}

func isoDate(s string) (string, error) {
	for _, l := range dateLayouts {
		if ts, err := time.Parse(l.in, s); err == nil {
			return "'" + ts.Format(l.out) + "'", nil
		}
	}
	return "", fmt.Errorf("invalid date literal #%s#", s)
}

// InlineIf turns IIf(cond, a, b) into a CASE expression. Nested calls are
// rewritten too.
var InlineIf = Rule{Name: "inline_if", Rewrite: rewriteInlineIf}

func rewriteInlineIf(sql string) (string, error) {
	tokens, err := tokenize(sql)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Type != tokIdent || !strings.EqualFold(t.Value, "iif") {
			sb.WriteString(t.Value)
			continue
		}
		open := nextSignificant(tokens, i+1)
		if open >= len(tokens) || tokens[open].Type != tokLParen {
			sb.WriteString(t.Value)
			continue
		}
		args, closing, ok := callArgs(tokens, open)
		if !ok {
			return "", fmt.Errorf("%s: unbalanced IIf call", t.Pos)
		}
		if len(args) != 3 {
			return "", fmt.Errorf("%s: IIf takes 3 arguments, got %d", t.Pos, len(args))
		}

		parts := make([]string, 3)
		for j, a := range args {
			if parts[j], err = rewriteInlineIf(strings.TrimSpace(join(a))); err != nil {
				return "", err
			}
		}
		fmt.Fprintf(&sb, "(CASE WHEN %s THEN %s ELSE %s END)", parts[0], parts[1], parts[2])
		i = closing
	}
	return sb.String(), nil
}
