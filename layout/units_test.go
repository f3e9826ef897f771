package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := Length{Value: pt, Unit: UnitPT}.ToMM()
		back := Length{Value: mm, Unit: UnitMM}.ToPT()
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestParseLength 覆盖常见单位及裸数字（按 pt 处理）。
func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"36pt", 36},
		{"36", 36},
		{"0.5in", 36},
		{" 1IN ", 72},
		{"25.4mm", 72},
		{"2.54cm", 72},
	}
	for _, c := range cases {
		l, err := ParseLength(c.in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", c.in, err)
		}
		if got := l.ToPT(); math.Abs(got-c.want) > 1e-3 {
			t.Fatalf("%q 转 pt 期望 %g，实际 %g", c.in, c.want, got)
		}
	}
}

func TestParseLengthErrors(t *testing.T) {
	for _, in := range []string{"abc", "-3pt", "12px"} {
		if _, err := ParseLength(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
	if l, err := ParseLength("12.5mm"); err != nil || l.String() != "12.5mm" {
		t.Fatalf("unexpected string form %q (%v)", l.String(), err)
	}
	if l, err := ParseLength("  "); err != nil || l != (Length{}) {
		t.Fatalf("blank length should be zero, got %v (%v)", l, err)
	}
}
