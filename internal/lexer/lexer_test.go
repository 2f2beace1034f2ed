package lexer

import "testing"

func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	return New(source).Tokenize()
}

func expectTypes(t *testing.T, tokens []Token, want ...TokenType) {
	t.Helper()
	var got []TokenType
	for _, tok := range tokens {
		got = append(got, tok.Type)
	}
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTokenizeEntityHeader(t *testing.T) {
	tokens := mustTokenize(t, "entity User:\n")
	expectTypes(t, tokens, KW_ENTITY, IDENT, COLON, NEWLINE, EOF)
	if tokens[1].Literal != "User" {
		t.Errorf("expected literal User, got %q", tokens[1].Literal)
	}
}

func TestTokenizeAuthEntity(t *testing.T) {
	tokens := mustTokenize(t, "auth entity User:\n")
	expectTypes(t, tokens, KW_AUTH, KW_ENTITY, IDENT, COLON, NEWLINE, EOF)
}

func TestTokenizeFieldWithDecorators(t *testing.T) {
	tokens := mustTokenize(t, "  id: uuid @primary @default(uuid)\n")
	expectTypes(t, tokens, INDENT, IDENT, COLON, KW_UUID_T, ATNAME, ATNAME, LPAREN, KW_UUID_LIT, RPAREN, NEWLINE, DEDENT, EOF)
}

func TestTokenizeIndentDedent(t *testing.T) {
	src := "entity User:\n  id: uuid\n  name: string\naction login:\n"
	tokens := mustTokenize(t, src)
	var kinds []TokenType
	for _, tok := range tokens {
		kinds = append(kinds, tok.Type)
	}
	hasIndent, hasDedent := false, false
	for _, k := range kinds {
		if k == INDENT {
			hasIndent = true
		}
		if k == DEDENT {
			hasDedent = true
		}
	}
	if !hasIndent || !hasDedent {
		t.Fatalf("expected INDENT and DEDENT tokens in stream: %v", kinds)
	}
}

func TestTokenizeOperators(t *testing.T) {
	tokens := mustTokenize(t, "a == b != c <= d >= e < f > g\n")
	expectTypes(t, tokens, IDENT, EQ, IDENT, NEQ, IDENT, LTE, IDENT, GTE, IDENT, LT, IDENT, GT, IDENT, NEWLINE, EOF)
}

func TestTokenizeDottedIdentifier(t *testing.T) {
	tokens := mustTokenize(t, "input.email\n")
	expectTypes(t, tokens, IDENT, DOT, IDENT, NEWLINE, EOF)
}

func TestTokenizeStringLiteral(t *testing.T) {
	tokens := mustTokenize(t, `"hello world"` + "\n")
	expectTypes(t, tokens, STRING, NEWLINE, EOF)
	if tokens[0].Literal != "hello world" {
		t.Errorf("got literal %q", tokens[0].Literal)
	}
}

func TestTokenizeNumberLiteral(t *testing.T) {
	tokens := mustTokenize(t, "42 3.14\n")
	expectTypes(t, tokens, NUMBER, NUMBER, NEWLINE, EOF)
	if tokens[0].Literal != "42" || tokens[1].Literal != "3.14" {
		t.Errorf("got literals %q %q", tokens[0].Literal, tokens[1].Literal)
	}
}

func TestTokenizeHTTPMethodCaseSensitive(t *testing.T) {
	tokens := mustTokenize(t, "@api GET /users/{id}\n")
	if tokens[0].Type != ATNAME || tokens[0].Literal != "@api" {
		t.Fatalf("expected @api ATNAME, got %v", tokens[0])
	}
	if tokens[1].Type != KW_GET {
		t.Fatalf("expected GET keyword token, got %s", tokens[1].Type)
	}
}

func TestTokenizeDeleteVerbVsDeleteMethodAreDistinct(t *testing.T) {
	tokens := mustTokenize(t, "delete User where id == input.id\n")
	if tokens[0].Type != KW_DELETE {
		t.Fatalf("expected lowercase 'delete' to lex as KW_DELETE, got %s", tokens[0].Type)
	}
	tokens2 := mustTokenize(t, "@api DELETE /users/{id}\n")
	var methodTok Token
	for _, tok := range tokens2 {
		if tok.Type == KW_DELETE_METHOD {
			methodTok = tok
		}
	}
	if methodTok.Type != KW_DELETE_METHOD {
		t.Fatalf("expected uppercase 'DELETE' to lex as KW_DELETE_METHOD")
	}
}

func TestTokenizeCommentIgnored(t *testing.T) {
	tokens := mustTokenize(t, "entity User: # a comment\n  id: uuid\n")
	if tokens[0].Type != KW_ENTITY {
		t.Fatalf("expected KW_ENTITY first, got %s", tokens[0].Type)
	}
}

func TestTokenizeSpanTracksLineAndColumn(t *testing.T) {
	tokens := mustTokenize(t, "entity User:\n  id: uuid\n")
	var idTok Token
	for _, tok := range tokens {
		if tok.Type == IDENT && tok.Literal == "id" {
			idTok = tok
		}
	}
	if idTok.Span.Line != 2 {
		t.Errorf("expected id on line 2, got %d", idTok.Span.Line)
	}
}
