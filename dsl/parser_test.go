package dsl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ByLCY/songsheet/dsl"
)

const sampleSheet = `{title: Amazing Grace}
{key: G}
# arranged for guitar

{start_of_verse: Verse 1}
A[G]mazing [C]grace how [G]sweet
{c: softly}
{end_of_verse}
`

func TestParseSheet(t *testing.T) {
	sheet, err := dsl.ParseString(sampleSheet)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(sheet.Lines) < 8 {
		t.Fatalf("expected at least 8 lines, got %d", len(sheet.Lines))
	}

	title := sheet.Lines[0].OnlyDirective()
	if title == nil || title.Name != "title" || title.Value != "Amazing Grace" {
		t.Fatalf("unexpected title directive: %+v", title)
	}

	if !sheet.Lines[3].IsBlank() {
		t.Fatalf("expected line 4 to be blank, got %+v", sheet.Lines[3].Parts)
	}

	env := sheet.Lines[4].OnlyDirective()
	if env == nil || env.Name != "start_of_verse" || env.Value != "Verse 1" {
		t.Fatalf("unexpected environment directive: %+v", env)
	}

	lyric := sheet.Lines[5]
	var chords []string
	for _, p := range lyric.Parts {
		if p.Chord != nil {
			chords = append(chords, string(*p.Chord))
		}
	}
	if strings.Join(chords, ",") != "G,C,G" {
		t.Fatalf("unexpected chords %v", chords)
	}
	if got := lyric.PlainText(); got != "Amazing grace how sweet" {
		t.Fatalf("unexpected plain text %q", got)
	}
	if lyric.OnlyDirective() != nil {
		t.Fatalf("lyric line must not be treated as directive")
	}
}

func TestParseUnterminatedBracket(t *testing.T) {
	sheet, err := dsl.ParseString("look [here")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(sheet.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(sheet.Lines))
	}
	if got := sheet.Lines[0].PlainText(); got != "look [here" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestDirectiveWithoutValue(t *testing.T) {
	sheet, err := dsl.ParseString("{SOC}\r\nAll [D]glory\r\n{eoc}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	d := sheet.Lines[0].OnlyDirective()
	if d == nil || d.Name != "soc" || d.Value != "" {
		t.Fatalf("unexpected directive %+v", d)
	}
	if got := sheet.Lines[1].PlainText(); got != "All glory" {
		t.Fatalf("unexpected text %q", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestParseReader(t *testing.T) {
	sheet, err := dsl.Parse(strings.NewReader("{title: X}\n[C]la"))
	if err != nil || len(sheet.Lines) != 2 {
		t.Fatalf("unexpected parse result %v (%v)", sheet, err)
	}
	if _, err := dsl.Parse(failingReader{}); err == nil {
		t.Fatalf("expected read error")
	}
}
