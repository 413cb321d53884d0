package sql

import "testing"

func collectTokens(input string) []Token {
	lex := NewLexer(input)
	var toks []Token
	for {
		tok := lex.NextToken()
		toks = append(toks, tok)
		if tok.Type == TOKEN_EOF {
			return toks
		}
	}
}

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "select star",
			input: "SELECT * FROM t",
			want:  []TokenType{TOKEN_SELECT, TOKEN_STAR, TOKEN_FROM, TOKEN_IDENT, TOKEN_EOF},
		},
		{
			name:  "comparison operators",
			input: "a <= b AND c != d",
			want:  []TokenType{TOKEN_IDENT, TOKEN_LE, TOKEN_IDENT, TOKEN_AND, TOKEN_IDENT, TOKEN_NE, TOKEN_IDENT, TOKEN_EOF},
		},
		{
			name:  "string and numeric literals",
			input: "'hello' 42 3.14",
			want:  []TokenType{TOKEN_STRING, TOKEN_INT, TOKEN_FLOAT, TOKEN_EOF},
		},
		{
			name:  "placeholder",
			input: "WHERE id = ?",
			want:  []TokenType{TOKEN_WHERE, TOKEN_IDENT, TOKEN_EQ, TOKEN_PARAM, TOKEN_EOF},
		},
		{
			name:  "line comment skipped",
			input: "SELECT 1 -- trailing comment\nFROM t",
			want:  []TokenType{TOKEN_SELECT, TOKEN_INT, TOKEN_FROM, TOKEN_IDENT, TOKEN_EOF},
		},
		{
			name:  "ClickHouse dialect modifiers",
			input: "FROM t FINAL SAMPLE 0.1 PREWHERE a SETTINGS b",
			want: []TokenType{
				TOKEN_FROM, TOKEN_IDENT, TOKEN_FINAL, TOKEN_SAMPLE, TOKEN_FLOAT,
				TOKEN_PREWHERE, TOKEN_IDENT, TOKEN_SETTINGS, TOKEN_IDENT, TOKEN_EOF,
			},
		},
		{
			name:  "create table engine keyword",
			input: "ENGINE = MergeTree()",
			want:  []TokenType{TOKEN_ENGINE, TOKEN_EQ, TOKEN_IDENT, TOKEN_LPAREN, TOKEN_RPAREN, TOKEN_EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := collectTokens(tt.input)
			if len(toks) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d (%v)", len(toks), len(tt.want), toks)
			}
			for i, want := range tt.want {
				if toks[i].Type != want {
					t.Errorf("token %d: got %v, want %v (literal %q)", i, toks[i].Type, want, toks[i].Literal)
				}
			}
		})
	}
}

func TestLexerStringEscaping(t *testing.T) {
	toks := collectTokens(`'it''s here'`)
	if toks[0].Type != TOKEN_STRING {
		t.Fatalf("expected string token, got %v", toks[0].Type)
	}
	if toks[0].Literal != "it's here" {
		t.Errorf("got literal %q, want %q", toks[0].Literal, "it's here")
	}
}

func TestLexerIllegalToken(t *testing.T) {
	toks := collectTokens("SELECT $")
	found := false
	for _, tok := range toks {
		if tok.Type == TOKEN_ILLEGAL {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an illegal token for '$', got %v", toks)
	}
}
