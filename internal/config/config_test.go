package config

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ByLCY/songsheet/layout"
)

func TestDefaultsMatchLayoutDefaults(t *testing.T) {
	opts, err := Defaults().Options(nil)
	if err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	want := layout.DefaultOptions()
	if opts.Page != want.Page || opts.Margin != want.Margin || opts.GutterPt != want.GutterPt || opts.HeaderOffsetPt != want.HeaderOffsetPt {
		t.Fatalf("geometry mismatch: %+v vs %+v", opts, want)
	}
	if !reflect.DeepEqual(opts.FontSizes, want.FontSizes) || !reflect.DeepEqual(opts.AllowColumns, want.AllowColumns) {
		t.Fatalf("search space mismatch: %v %v", opts.FontSizes, opts.AllowColumns)
	}
	if opts.Templates != want.Templates {
		t.Fatalf("templates mismatch: %+v", opts.Templates)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("page:\n  colour: red\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
	cfg, err := Parse(nil)
	if err != nil || !reflect.DeepEqual(cfg, Config{}) {
		t.Fatalf("empty document should give zero config, got %+v (%v)", cfg, err)
	}
}

func TestLoadAndMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songsheet.yaml")
	doc := `
page:
  size: a4
  margin: 0.5in 18pt
layout:
  fontSizes: [14, 12]
  columns: [1]
templates:
  footer: "${page}/${pages}"
thresholds:
  rightSafety: 4pt
fonts:
  lyric: system:Noto Sans
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	file, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	flags := Config{Fonts: Fonts{Chord: "system:Noto Sans Mono"}}
	cfg := Merge(Merge(Defaults(), file), flags)

	if cfg.Fonts.Lyric != "system:Noto Sans" || cfg.Fonts.Chord != "system:Noto Sans Mono" || cfg.Fonts.ChordStyle != "bold" {
		t.Fatalf("unexpected fonts %+v", cfg.Fonts)
	}
	if cfg.Page.Gutter != "18pt" {
		t.Fatalf("default gutter lost: %q", cfg.Page.Gutter)
	}
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Fatalf("unexpected level %v (%v)", level, err)
	}

	opts, err := cfg.Options(nil)
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}
	if math.Abs(opts.Page.WidthPt-595.28) > 0.1 || math.Abs(opts.Page.HeightPt-841.89) > 0.1 {
		t.Fatalf("unexpected a4 size %+v", opts.Page)
	}
	if opts.Margin != (layout.Margin{Top: 36, Right: 18, Bottom: 36, Left: 18}) {
		t.Fatalf("unexpected margin %+v", opts.Margin)
	}
	if !reflect.DeepEqual(opts.FontSizes, []int{14, 12}) || !reflect.DeepEqual(opts.AllowColumns, []int{1}) {
		t.Fatalf("unexpected search space %v %v", opts.FontSizes, opts.AllowColumns)
	}
	if opts.Templates.Footer != "${page}/${pages}" || opts.Thresholds.RightSafetyPt != 4 {
		t.Fatalf("unexpected overrides %+v %+v", opts.Templates, opts.Thresholds)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseMargin(t *testing.T) {
	cases := []struct {
		in   string
		want layout.Margin
	}{
		{"36", layout.Margin{Top: 36, Right: 36, Bottom: 36, Left: 36}},
		{"10pt 20pt", layout.Margin{Top: 10, Right: 20, Bottom: 10, Left: 20}},
		{"1 2 3", layout.Margin{Top: 1, Right: 2, Bottom: 3, Left: 2}},
		{"1 2 3 4", layout.Margin{Top: 1, Right: 2, Bottom: 3, Left: 4}},
	}
	for _, c := range cases {
		got, err := ParseMargin(c.in)
		if err != nil || got != c.want {
			t.Fatalf("%q: expected %+v, got %+v (%v)", c.in, c.want, got, err)
		}
	}
	for _, bad := range []string{"", "1 2 3 4 5", "-3pt", "wide"} {
		if _, err := ParseMargin(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestOptionsValidation(t *testing.T) {
	cases := map[string]Config{
		"unknown size":   {Page: Page{Size: "tabloid"}},
		"bad gutter":     {Page: Page{Gutter: "wide"}},
		"three columns":  {Layout: Layout{Columns: []int{1, 3}}},
		"bad preference": {Layout: Layout{PreferColumns: 4}},
		"bad template":   {Templates: Templates{Footer: "${author}"}},
	}
	for name, cfg := range cases {
		if _, err := Merge(Defaults(), cfg).Options(nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	custom := Merge(Defaults(), Config{Page: Page{Size: "poster", Width: "11in", Height: "17in"}})
	opts, err := custom.Options(nil)
	if err != nil || opts.Page != (layout.PageSize{WidthPt: 792, HeightPt: 1224}) {
		t.Fatalf("unexpected custom page %+v (%v)", opts.Page, err)
	}
}

func TestCheckTemplate(t *testing.T) {
	for _, ok := range []string{"", "${title}", "Key of ${key}", "${meta.tempo} bpm", "${page} / ${pages}"} {
		if err := CheckTemplate(ok); err != nil {
			t.Fatalf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"${author}", "${title.x}", "${pages[0]}", "${meta}", "${meta.}", "${meta.a.b}"} {
		err := CheckTemplate(bad)
		if err == nil || !strings.Contains(err.Error(), "未知的模板字段") {
			t.Fatalf("%q: expected unknown field error, got %v", bad, err)
		}
	}
}

func TestExplicitZeroValues(t *testing.T) {
	file, err := Parse([]byte(`
page:
  margin: 0pt
  headerOffset: "0"
layout:
  ignoreColumnBreaks: true
thresholds:
  nearEmptyPenalty: 0
  collisionPasses: 0
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	opts, err := Merge(Defaults(), file).Options(nil)
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}
	if opts.Margin != (layout.Margin{}) || opts.HeaderOffsetPt != 0 {
		t.Fatalf("zero geometry not kept: %+v %v", opts.Margin, opts.HeaderOffsetPt)
	}
	if opts.GutterPt != 18 {
		t.Fatalf("default gutter lost: %v", opts.GutterPt)
	}
	def := layout.DefaultThresholds()
	if opts.Thresholds.NearEmptyPenalty != 0 || opts.Thresholds.CollisionPasses != 0 {
		t.Fatalf("zero thresholds not kept: %+v", opts.Thresholds)
	}
	if opts.Thresholds.TooFullPenalty != def.TooFullPenalty || opts.Thresholds.RightSafetyPt != def.RightSafetyPt {
		t.Fatalf("unset thresholds should keep defaults: %+v", opts.Thresholds)
	}
	if !opts.IgnoreColumnBreaks {
		t.Fatalf("ignoreColumnBreaks not carried")
	}

	neg := -1.0
	if _, err := Merge(Defaults(), Config{Thresholds: Thresholds{TooFull: &neg}}).Options(nil); err == nil {
		t.Fatalf("expected error for negative threshold")
	}
}
