package normalize

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// sqlLexer splits SQL text into tokens coarse enough for rewriting. String
// literals and bracketed identifiers are single tokens, so rules never touch
// their contents.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:''|[^'])*'`},
	{Name: "DateLit", Pattern: `#\d[\d/:\-. ]*#`},
	{Name: "Bracket", Pattern: `\[(?:\]\]|[^\]])*\]`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

var symbols = sqlLexer.Symbols()

var (
	tokDateLit    = symbols["DateLit"]
	tokIdent      = symbols["Ident"]
	tokLParen     = symbols["LParen"]
	tokRParen     = symbols["RParen"]
	tokComma      = symbols["Comma"]
	tokWhitespace = symbols["Whitespace"]
)

func tokenize(src string) ([]lexer.Token, error) {
	lex, err := sqlLexer.LexString("", src)
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	// drop EOF
	if n := len(tokens); n > 0 && tokens[n-1].EOF() {
		tokens = tokens[:n-1]
	}
	return tokens, nil
}

func join(tokens []lexer.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Value)
	}
	return sb.String()
}

// nextSignificant returns the index of the first non-whitespace token at or
// after i, or len(tokens).
func nextSignificant(tokens []lexer.Token, i int) int {
	for i < len(tokens) && tokens[i].Type == tokWhitespace {
		i++
	}
	return i
}

// callArgs parses the parenthesized argument list opening at tokens[open].
// It returns the top-level arguments and the index of the closing paren.
func callArgs(tokens []lexer.Token, open int) ([][]lexer.Token, int, bool) {
	depth := 0
	var args [][]lexer.Token
	var cur []lexer.Token
	for i := open; i < len(tokens); i++ {
		t := tokens[i]
		switch t.Type {
		case tokLParen:
			depth++
			if depth == 1 {
				continue
			}
		case tokRParen:
			depth--
			if depth == 0 {
				if len(args) > 0 || len(strings.TrimSpace(join(cur))) > 0 {
					args = append(args, cur)
				}
				return args, i, true
			}
		case tokComma:
			if depth == 1 {
				args = append(args, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
	return nil, 0, false
}
