package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	src, err := Resolve("system: Noto Sans", "")
	if err != nil || !src.IsSystem() || src.System != "Noto Sans" {
		t.Fatalf("unexpected system source %+v (%v)", src, err)
	}
	if src.String() != "system:Noto Sans" {
		t.Fatalf("unexpected string %q", src.String())
	}

	src, err = Resolve("fonts/Body.ttf", "/srv/songs")
	if err != nil || src.Path != filepath.Join("/srv/songs", "fonts/Body.ttf") {
		t.Fatalf("unexpected path source %+v (%v)", src, err)
	}

	for _, bad := range []string{"", "system:", "relative.ttf"} {
		if _, err := Resolve(bad, ""); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	want := []byte("not really a font")
	if err := os.WriteFile(filepath.Join(dir, "a.ttf"), want, 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := Resolve("a.ttf", dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Load(src)
	if err != nil || string(got) != string(want) {
		t.Fatalf("unexpected load result %q (%v)", got, err)
	}

	if _, err := Load(Source{System: "X"}); !errors.Is(err, ErrSystemFont) {
		t.Fatalf("expected ErrSystemFont, got %v", err)
	}
	if _, err := Load(Source{Path: filepath.Join(dir, "missing.ttf")}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
