package dsl

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

func TestWrapErrorCarriesPosition(t *testing.T) {
	orig := &participle.UnexpectedTokenError{Unexpected: lexer.Token{
		Type:  chordProLexer.Symbols()["Chord"],
		Value: "[G]",
		Pos:   lexer.Position{Line: 3, Column: 5},
	}}
	err := wrapError(orig)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Pos.Line != 3 || pe.Pos.Column != 5 || pe.Token != "Chord" {
		t.Fatalf("unexpected error detail %+v", pe)
	}
	if !strings.Contains(pe.Error(), "第 3 行第 5 列") {
		t.Fatalf("position missing from message %q", pe.Error())
	}
	var inner *participle.UnexpectedTokenError
	if !errors.As(err, &inner) {
		t.Fatalf("original error should stay reachable")
	}

	plain := errors.New("boom")
	if wrapError(plain) != plain {
		t.Fatalf("non-participle errors must pass through")
	}
}

func TestTokenName(t *testing.T) {
	for name, tt := range chordProLexer.Symbols() {
		if got := TokenName(tt); got != name {
			t.Fatalf("token %d: expected %q, got %q", tt, name, got)
		}
	}
	if got := TokenName(lexer.TokenType(-42)); got != "#-42" {
		t.Fatalf("unexpected fallback name %q", got)
	}
}
