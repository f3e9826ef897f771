package dsl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	chordProLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Newline", Pattern: `\r?\n`},
		{Name: "Directive", Pattern: `\{[^}\n]*\}`},
		{Name: "Chord", Pattern: `\[[^\]\n]*\]`},
		{Name: "Text", Pattern: `[^\[\{\n\r]+|[\[\{\r]`},
	})

	tokenNames = invertSymbols(chordProLexer.Symbols())

	sheetParser = participle.MustBuild[Sheet](
		participle.Lexer(chordProLexer),
	)
)

// Sheet is the root AST node for a ChordPro source.
type Sheet struct {
	Lines []*SheetLine `parser:"@@*"`
}

// SheetLine is one physical source line: a run of parts terminated by a newline.
type SheetLine struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Parts []*Part        `parser:"@@* Newline"`
}

// Part is a directive, an inline chord or a run of lyric text.
type Part struct {
	Directive *Directive `parser:"  @Directive"`
	Chord     *Chord     `parser:"| @Chord"`
	Text      *string    `parser:"| @Text"`
}

// Directive is a `{name: value}` instruction. Name is lower-cased.
type Directive struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Capture implements participle.Capture.
func (d *Directive) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("directive capture requires value")
	}
	raw := values[0]
	if len(raw) < 2 || raw[0] != '{' || raw[len(raw)-1] != '}' {
		return fmt.Errorf("malformed directive %q", raw)
	}
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	name, value, _ := strings.Cut(inner, ":")
	d.Name = strings.ToLower(strings.TrimSpace(name))
	d.Value = strings.TrimSpace(value)
	return nil
}

// Chord is an inline `[sym]` marker with the brackets stripped.
type Chord string

// Capture implements participle.Capture.
func (c *Chord) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("chord capture requires value")
	}
	raw := values[0]
	if len(raw) < 2 {
		return fmt.Errorf("malformed chord %q", raw)
	}
	*c = Chord(strings.TrimSpace(raw[1 : len(raw)-1]))
	return nil
}

// IsBlank reports whether the line carries nothing but whitespace.
func (l *SheetLine) IsBlank() bool {
	for _, p := range l.Parts {
		if p.Directive != nil || p.Chord != nil {
			return false
		}
		if p.Text != nil && strings.TrimSpace(*p.Text) != "" {
			return false
		}
	}
	return true
}

// OnlyDirective returns the directive when it is the sole non-blank part of the line.
func (l *SheetLine) OnlyDirective() *Directive {
	var found *Directive
	for _, p := range l.Parts {
		switch {
		case p.Directive != nil:
			if found != nil {
				return nil
			}
			found = p.Directive
		case p.Chord != nil:
			return nil
		case p.Text != nil && strings.TrimSpace(*p.Text) != "":
			return nil
		}
	}
	return found
}

// PlainText concatenates the text parts of the line, ignoring chords and directives.
func (l *SheetLine) PlainText() string {
	var b strings.Builder
	for _, p := range l.Parts {
		if p.Text != nil {
			b.WriteString(*p.Text)
		}
	}
	return b.String()
}

// Parse parses ChordPro content from an io.Reader.
func Parse(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(data))
}

// ParseString parses ChordPro content from a string.
// A trailing newline is appended so the last line is always terminated.
func ParseString(input string) (*Sheet, error) {
	sheet, err := sheetParser.ParseString("", input+"\n")
	if err != nil {
		return nil, wrapError(err)
	}
	return sheet, nil
}

// ParseError 记录语法错误的位置与出错的词法单元。
type ParseError struct {
	Pos   lexer.Position
	Token string // 词法规则名，未知时为空
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("第 %d 行第 %d 列（%s）: %s", e.Pos.Line, e.Pos.Column, e.Token, e.Msg)
	}
	return fmt.Sprintf("第 %d 行第 %d 列: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

func wrapError(err error) error {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return err
	}
	pe := &ParseError{Pos: perr.Position(), Msg: perr.Message(), Err: err}
	var unexpected *participle.UnexpectedTokenError
	if errors.As(err, &unexpected) {
		pe.Token = TokenName(unexpected.Unexpected.Type)
	}
	return pe
}

// TokenName returns the lexer rule name for a token type, used in diagnostics.
func TokenName(tt lexer.TokenType) string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("#%d", tt)
}

func invertSymbols(symbols map[string]lexer.TokenType) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		out[tt] = name
	}
	return out
}
