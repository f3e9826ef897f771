package canvasrenderer

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/songsheet/layout"
	"github.com/ByLCY/songsheet/song"
)

func TestParseFontStyle(t *testing.T) {
	cases := map[string]canvas.FontStyle{
		"":            canvas.FontRegular,
		"regular":     canvas.FontRegular,
		"Bold":        canvas.FontBold,
		"italic":      canvas.FontRegular | canvas.FontItalic,
		"bold italic": canvas.FontBold | canvas.FontItalic,
		"Black":       canvas.FontBold,
		"oblique":     canvas.FontItalic,
	}
	for in, want := range cases {
		if got := parseFontStyle(in); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestSectionLabel(t *testing.T) {
	cases := map[string]string{
		"Verse 1":    "[VERSE 1]",
		" chorus ":   "[CHORUS]",
		"[Bridge]":   "[BRIDGE]",
		"Pre-Chorus": "[PRE-CHORUS]",
	}
	for in, want := range cases {
		if got := sectionLabel(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func TestUnitHelpers(t *testing.T) {
	if got := toPt(toMm(612)); math.Abs(got-612) > 1e-9 {
		t.Fatalf("pt/mm round trip drifted: %g", got)
	}
	if got := headerSize(16); got != 14 {
		t.Fatalf("expected 14pt header for 16pt body, got %g", got)
	}
	kw := metaKeywords(layout.PlanMeta{Key: "G", Capo: 2})
	if len(kw) != 2 || kw[0] != "key G" || kw[1] != "capo 2" {
		t.Fatalf("unexpected keywords %v", kw)
	}
	if kw := metaKeywords(layout.PlanMeta{}); len(kw) != 0 {
		t.Fatalf("expected no keywords, got %v", kw)
	}
}

func TestRenderRejectsInvalidPlans(t *testing.T) {
	r := &Renderer{}
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil plan")
	}
	if _, err := r.Render(&layout.Plan{PageSize: layout.Letter}); err == nil {
		t.Fatalf("expected error for plan without pages")
	}
	one := &layout.Plan{PageSize: layout.Letter, Pages: []layout.Page{{Number: 1}}}
	if _, err := r.RenderJPEG(one, 1, 72); err == nil {
		t.Fatalf("expected error for out-of-range page")
	}
	if _, err := r.RenderJPEG(&layout.Plan{Pages: one.Pages}, 0, 72); err == nil {
		t.Fatalf("expected error for zero page size")
	}
}

func TestMeasurerWithoutFonts(t *testing.T) {
	r := &Renderer{}
	if w := r.LyricMeasurerAt(12)("abc"); !math.IsInf(w, 1) {
		t.Fatalf("expected infinite width without fonts, got %g", w)
	}
}

func TestNewFontErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(Options{BaseDir: dir, LyricFont: "missing.ttf"}); err == nil {
		t.Fatalf("expected error for missing font file")
	}
	if _, err := New(Options{LyricFont: "built-in:Body"}); err == nil {
		t.Fatalf("expected error for unknown built-in font")
	}
	if _, err := New(Options{LyricFont: "built-in:Body", Fonts: map[string]Resource{"Body": {Bytes: []byte("garbage")}}}); err == nil {
		t.Fatalf("expected error for unparsable font bytes")
	}
	if _, err := New(Options{Fonts: map[string]Resource{"Body": {Path: filepath.Join(dir, "nope.ttf")}}}); err == nil {
		t.Fatalf("expected error for unreadable built-in font path")
	}
}

// 依赖系统字体，缺失时跳过。
func TestRenderWithSystemFont(t *testing.T) {
	r, err := New(Options{})
	if err != nil {
		t.Skipf("system font unavailable: %v", err)
	}
	s := song.Normalize(song.ChordPro{Source: "{title: Test}\n{key: D}\n{sov}\n[D]Hello [A]world\n{c: softly}\n{eov}\n"})
	plan, err := layout.Build(s, layout.DefaultOptions(), r)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	data, err := r.Render(plan)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}

	img, err := r.RenderJPEG(plan, 0, 36)
	if err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}
	if len(img) < 2 || img[0] != 0xFF || img[1] != 0xD8 {
		t.Fatalf("output is not a JPEG")
	}
}
