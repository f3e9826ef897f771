package song

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

const chordProSample = `{title: Come Thou Fount}
{key: D}
{capo: 2}
{artist: Robert Robinson}
# internal note

{start_of_verse}
[D]Come thou fount of [G]every [D]blessing

{comment: all voices}
{end_of_verse}

Chorus
[A]Tune my heart
{inst: D G A D x2}

just words
`

func TestNormalizeChordPro(t *testing.T) {
	s := Normalize(ChordPro{Source: chordProSample})
	if s.Title != "Come Thou Fount" || s.Key != "D" || s.Capo != 2 {
		t.Fatalf("unexpected meta: %+v", s)
	}
	if s.Meta["artist"] != "Robert Robinson" {
		t.Fatalf("expected artist meta, got %+v", s.Meta)
	}
	if len(s.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(s.Sections), s.Sections)
	}

	verse := s.Sections[0]
	if verse.Label != "Verse" || len(verse.Lines) != 2 {
		t.Fatalf("unexpected verse: %+v", verse)
	}
	lyric := verse.Lines[0]
	if lyric.Text != "Come thou fount of every blessing" {
		t.Fatalf("unexpected lyric %q", lyric.Text)
	}
	wantIdx := []int{0, 19, 25}
	for i, c := range lyric.Chords {
		if c.CharIndex != wantIdx[i] {
			t.Fatalf("chord %d (%s): expected index %d, got %d", i, c.Symbol, wantIdx[i], c.CharIndex)
		}
	}
	if verse.Lines[1].Kind != KindComment || verse.Lines[1].Text != "all voices" {
		t.Fatalf("expected comment inside environment, got %+v", verse.Lines[1])
	}

	chorus := s.Sections[1]
	if chorus.Label != "Chorus" || len(chorus.Lines) != 2 {
		t.Fatalf("unexpected chorus: %+v", chorus)
	}
	inst := chorus.Lines[1]
	if inst.Kind != KindInstrumental || inst.Repeat != 2 || len(inst.Tokens) != 4 {
		t.Fatalf("unexpected instrumental: %+v", inst)
	}

	if s.Sections[2].Label != "" || s.Sections[2].Lines[0].Text != "just words" {
		t.Fatalf("expected trailing unlabeled section, got %+v", s.Sections[2])
	}
}

func TestChordProShortForms(t *testing.T) {
	s := Normalize(ChordPro{Source: "{soc}\n[G]Glory\n{eoc}\n{sob: Bridge A}\nhigher\n{eob}"})
	if len(s.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %+v", s.Sections)
	}
	if s.Sections[0].Label != "Chorus" || s.Sections[1].Label != "Bridge A" {
		t.Fatalf("unexpected labels %q, %q", s.Sections[0].Label, s.Sections[1].Label)
	}
	if s.Title != "Untitled" || s.Key != "C" {
		t.Fatalf("expected defaults, got %q/%q", s.Title, s.Key)
	}
}

func TestChordProTrailingChord(t *testing.T) {
	s := Normalize(ChordPro{Source: "end here [Em]  "})
	ln := s.Sections[0].Lines[0]
	if ln.Text != "end here" {
		t.Fatalf("unexpected text %q", ln.Text)
	}
	if ln.Chords[0].CharIndex != 8 {
		t.Fatalf("trailing chord must clamp to text length, got %d", ln.Chords[0].CharIndex)
	}
}

func TestChordProColumnDirectives(t *testing.T) {
	src := "{columns: 2}\n{sov}\none\n{colb}\ntwo\n{eov}\n\nChorus\nthree\n{column_break}\n\nfour\n"
	s := Normalize(ChordPro{Source: src})
	if s.RequestedColumns != 2 {
		t.Fatalf("expected 2 requested columns, got %d", s.RequestedColumns)
	}
	if _, ok := s.Meta["columns"]; ok {
		t.Fatalf("columns must not land in meta: %+v", s.Meta)
	}
	if len(s.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %+v", s.Sections)
	}
	if s.Sections[0].Label != "Verse" || !s.Sections[0].BreakAfter {
		t.Fatalf("break inside verse lost: %+v", s.Sections[0])
	}
	if s.Sections[1].Label != "" || s.Sections[1].Lines[0].Text != "two" {
		t.Fatalf("verse continuation must be unlabeled: %+v", s.Sections[1])
	}
	if s.Sections[2].Label != "Chorus" || !s.Sections[2].BreakAfter || s.Sections[3].BreakAfter {
		t.Fatalf("unexpected breaks: %+v", s.Sections[2:])
	}

	if one := Normalize(ChordPro{Source: "{col: 3}\nhello"}); one.RequestedColumns != 1 {
		t.Fatalf("non-2 column count should request 1, got %d", one.RequestedColumns)
	}
}

func TestReadChordPro(t *testing.T) {
	s, err := ReadChordPro(strings.NewReader("{title: Doxology}\n[G]Praise God"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if s.Title != "Doxology" || len(s.Sections) != 1 || s.Sections[0].Lines[0].Chords[0].Symbol != "G" {
		t.Fatalf("unexpected song %+v", s)
	}
	if _, err := ReadChordPro(iotest.ErrReader(errors.New("disk gone"))); err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("expected read error, got %v", err)
	}
}
