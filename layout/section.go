package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/songsheet/song"
)

// metrics 是某个 (字号, 栏数) 候选下测量所需的全部上下文。
type metrics struct {
	size    float64
	columns int
	avail   float64
	lyric   MeasureFunc
	chord   MeasureFunc
	passes  int
}

// measuredLine 是一行输入在当前候选下生成的块（折行后可能多于一个）。
type measuredLine struct {
	blocks []Block
	height float64
}

// measuredSection 是段落在当前候选下的测量结果，块的 YPt 尚未确定。
type measuredSection struct {
	index      int
	header     *Block
	lines      []measuredLine
	breakAfter bool
}

func (s measuredSection) headerHeight() float64 {
	if s.header == nil {
		return 0
	}
	return s.header.HeightPt
}

// heightFrom 返回从第 from 行到段落结束（含段后间距）的高度；from 为 0 时包含标题。
func (s measuredSection) heightFrom(from int) float64 {
	h := float64(spacerPt)
	if from == 0 {
		h += s.headerHeight()
	}
	for _, ln := range s.lines[from:] {
		h += ln.height
	}
	return h
}

// measureSection 对段落逐行折行、定位和弦，并校验宽度。
func measureSection(sec song.Section, index int, m metrics) (measuredSection, error) {
	out := measuredSection{index: index, breakAfter: sec.BreakAfter}
	if label := strings.TrimSpace(sec.Label); label != "" {
		out.header = &Block{
			Kind:     BlockSectionHeader,
			HeightPt: headerHeight(m.size),
			Text:     label,
			Section:  index,
			Line:     -1,
		}
	}
	for li, ln := range sec.Lines {
		ml, err := measureLine(ln, index, li, m)
		if err != nil {
			return measuredSection{}, fmt.Errorf("段落 %d 第 %d 行: %w", index, li, err)
		}
		out.lines = append(out.lines, ml)
	}
	return out, nil
}

func measureLine(ln song.Line, section, line int, m metrics) (measuredLine, error) {
	var out measuredLine
	add := func(b Block) {
		b.Section, b.Line, b.Row = section, line, len(out.blocks)
		out.blocks = append(out.blocks, b)
		out.height += b.HeightPt
	}

	switch ln.Kind {
	case song.KindComment:
		for _, row := range wrapText(ln.Text, m.avail, m.lyric) {
			if m.lyric(row.Text) > m.avail+epsilon {
				return measuredLine{}, errWidthOverflow
			}
			add(Block{Kind: BlockComment, HeightPt: plainRowHeight(m.size), Text: row.Text})
		}
	case song.KindInstrumental:
		for _, row := range instrumentalRows(ln.Tokens, ln.Repeat, m.columns == 2) {
			text := FormatInstrumental(row.tokens, row.repeat)
			if m.chord(text) > m.avail+epsilon {
				return measuredLine{}, errWidthOverflow
			}
			add(Block{Kind: BlockInstrumental, HeightPt: plainRowHeight(m.size), Text: text, Tokens: row.tokens, Repeat: row.repeat})
		}
	default:
		rows := wrapText(ln.Text, m.avail, m.lyric)
		for ri, row := range rows {
			if m.lyric(row.Text) > m.avail+epsilon {
				return measuredLine{}, errWidthOverflow
			}
			glyphs := positionChords(rows, ri, ln.Chords, m.lyric, m.chord, m.passes)
			for _, g := range glyphs {
				if g.XPt+g.WidthPt > m.avail+epsilon {
					return measuredLine{}, errWidthOverflow
				}
			}
			add(Block{Kind: BlockTextLine, HeightPt: lyricRowHeight(m.size, len(glyphs) > 0), Text: row.Text, Chords: glyphs})
		}
	}
	return out, nil
}

type instrumentalRow struct {
	tokens []string
	repeat int
}

// instrumentalRows 在双栏且和弦多于 3 个时把器乐行拆成两行（前半向上取整），重复标记只留在最后一行。
func instrumentalRows(tokens []string, repeat int, split bool) []instrumentalRow {
	if !split || len(tokens) <= 3 {
		return []instrumentalRow{{tokens: tokens, repeat: repeat}}
	}
	half := (len(tokens) + 1) / 2
	return []instrumentalRow{
		{tokens: tokens[:half]},
		{tokens: tokens[half:], repeat: repeat},
	}
}

// FormatInstrumental 生成器乐行的展示文本，例如 "C  //  G  //  D x2"。
func FormatInstrumental(tokens []string, repeat int) string {
	text := strings.Join(tokens, "  //  ")
	if repeat > 1 && text != "" {
		text += fmt.Sprintf(" x%d", repeat)
	}
	return text
}
