package layout

import (
	"testing"

	"github.com/ByLCY/songsheet/song"
)

func scaled(k float64) MeasureFunc {
	return func(s string) float64 { return runeWidth(s) * k }
}

func marks(symbol string, idx ...int) []song.ChordMark {
	out := make([]song.ChordMark, len(idx))
	for i, n := range idx {
		out[i] = song.ChordMark{Symbol: symbol, CharIndex: n}
	}
	return out
}

func TestChordPositionInvariantUnderTransposition(t *testing.T) {
	text := "This is a lyric line with chords"
	rows := wrapText(text, 1000, scaled(6))
	plain := positionChords(rows, 0, marks("G", 5, 15, 28), scaled(6), scaled(6), 10)
	long := positionChords(rows, 0, marks("F#m7b5", 5, 15, 28), scaled(6), scaled(6), 10)
	if len(plain) != 3 || len(long) != 3 {
		t.Fatalf("expected 3 glyphs each, got %d and %d", len(plain), len(long))
	}
	for i := range plain {
		if plain[i].XPt != long[i].XPt {
			t.Fatalf("chord %d moved under transposition: %g vs %g", i, plain[i].XPt, long[i].XPt)
		}
		if want := float64([]int{5, 15, 28}[i] * 6); plain[i].XPt != want {
			t.Fatalf("chord %d: expected x %g, got %g", i, want, plain[i].XPt)
		}
	}
	if long[0].WidthPt <= plain[0].WidthPt {
		t.Fatalf("glyph width should follow the chord symbol")
	}
}

func assertMinGap(t *testing.T, glyphs []ChordGlyph, minGap float64) {
	t.Helper()
	for i := 1; i < len(glyphs); i++ {
		prev, next := glyphs[i-1], glyphs[i]
		if next.XPt < prev.XPt {
			t.Fatalf("glyphs not sorted by x: %+v", glyphs)
		}
		if next.XPt+1e-9 < prev.XPt+prev.WidthPt+minGap {
			t.Fatalf("glyphs %d and %d closer than %g: %+v", i-1, i, minGap, glyphs)
		}
	}
}

func TestChordCollisionMinimumGap(t *testing.T) {
	lyric, chord := scaled(5), scaled(6)
	minGap := chord(" ")
	cases := map[string][]song.ChordMark{
		"stacked": marks("Am7", 0, 0, 0),
		"dense":   marks("Cmaj7", 1, 2, 3, 4),
		"mixed":   {{Symbol: "G", CharIndex: 0}, {Symbol: "Dsus4", CharIndex: 1}, {Symbol: "Em", CharIndex: 9}},
	}
	for name, ms := range cases {
		t.Run(name, func(t *testing.T) {
			rows := wrapText("abcdefghij", 1000, lyric)
			glyphs := positionChords(rows, 0, ms, lyric, chord, 10)
			if len(glyphs) != len(ms) {
				t.Fatalf("expected %d glyphs, got %d", len(ms), len(glyphs))
			}
			if glyphs[0].XPt < 0 {
				t.Fatalf("glyph pushed left of the column: %+v", glyphs[0])
			}
			assertMinGap(t, glyphs, minGap)
		})
	}
}

func TestTrailingChordsFollowText(t *testing.T) {
	lyric, chord := scaled(5), scaled(6)
	rows := wrapText("abc", 1000, lyric)
	glyphs := positionChords(rows, 0, marks("G", 3, 3), lyric, chord, 10)
	if glyphs[0].XPt < lyric("abc") {
		t.Fatalf("trailing chord before end of text: %+v", glyphs[0])
	}
	assertMinGap(t, glyphs, chord(" "))
}

func TestChordsAssignedToWrappedRows(t *testing.T) {
	text := "hello world"
	rows := wrapText(text, 8, runeWidth)
	ms := []song.ChordMark{{Symbol: "C", CharIndex: 1}, {Symbol: "F", CharIndex: 6}, {Symbol: "G", CharIndex: 11}}

	first := positionChords(rows, 0, ms, runeWidth, runeWidth, 10)
	second := positionChords(rows, 1, ms, runeWidth, runeWidth, 10)
	if len(first) != 1 || first[0].Symbol != "C" || first[0].XPt != 1 {
		t.Fatalf("unexpected first row chords %+v", first)
	}
	if len(second) != 2 || second[0].Symbol != "F" || second[0].XPt != 0 {
		t.Fatalf("unexpected second row chords %+v", second)
	}
	if second[1].Symbol != "G" || second[1].XPt < runeWidth("world") {
		t.Fatalf("line-end chord must land after the text: %+v", second[1])
	}
}
