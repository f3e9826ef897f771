package layout

import (
	"sort"

	"github.com/ByLCY/songsheet/song"
)

// placedChord 是碰撞处理时使用的中间状态。
type placedChord struct {
	ChordGlyph
	trailing bool // 锚定在歌词末尾之后的和弦
}

// positionChords 计算某一折行内各和弦的 x 坐标并处理碰撞。
// x 始终用歌词字体测量，和弦符号变长（如移调）不会改变锚点位置。
func positionChords(rows []wrappedRow, rowIdx int, marks []song.ChordMark, lyric, chord MeasureFunc, passes int) []ChordGlyph {
	row := rows[rowIdx]
	last := rowIdx == len(rows)-1
	rowRunes := []rune(row.Text)

	var placed []placedChord
	for _, m := range marks {
		inRow := m.CharIndex >= row.Start && m.CharIndex < row.End
		if last && m.CharIndex == row.End {
			inRow = true
		}
		if !inRow {
			continue
		}
		offset := m.CharIndex - row.Start
		trailing := false
		if offset >= len(rowRunes) {
			offset = len(rowRunes)
			trailing = true
		}
		if offset < 0 {
			offset = 0
		}
		placed = append(placed, placedChord{
			ChordGlyph: ChordGlyph{
				Symbol:  m.Symbol,
				XPt:     lyric(string(rowRunes[:offset])),
				WidthPt: chord(m.Symbol),
			},
			trailing: trailing,
		})
	}
	if len(placed) == 0 {
		return nil
	}

	resolveCollisions(placed, chord(" "), lyric(row.Text), passes)

	out := make([]ChordGlyph, len(placed))
	for i, p := range placed {
		out[i] = p.ChordGlyph
	}
	return out
}

// resolveCollisions 先做有限轮的两两推开，再处理三者重叠，最后从左到右扫描保证最小间距。
func resolveCollisions(cs []placedChord, minGap, textEnd float64, passes int) {
	byX := func() {
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].XPt < cs[j].XPt })
	}
	gapAfter := func(i int) float64 {
		return cs[i+1].XPt - (cs[i].XPt + cs[i].WidthPt)
	}

	for pass := 0; pass < passes; pass++ {
		byX()
		moved := false
		for i := 0; i+1 < len(cs); i++ {
			if g := gapAfter(i); g < minGap-epsilon {
				shortfall := minGap - g
				cs[i].XPt -= shortfall / 2
				cs[i+1].XPt += shortfall / 2
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	// 三者重叠：中间保持不动，两侧各自推到中间边缘之外 minGap 处
	for i := 1; i+1 < len(cs); i++ {
		if gapAfter(i-1) < minGap-epsilon && gapAfter(i) < minGap-epsilon {
			cs[i-1].XPt = cs[i].XPt - minGap - cs[i-1].WidthPt
			cs[i+1].XPt = cs[i].XPt + cs[i].WidthPt + minGap
		}
	}
	byX()

	for i := range cs {
		if cs[i].XPt < 0 {
			cs[i].XPt = 0
		}
		if cs[i].trailing && cs[i].XPt < textEnd {
			cs[i].XPt = textEnd
		}
		if i > 0 {
			if floor := cs[i-1].XPt + cs[i-1].WidthPt + minGap; cs[i].XPt < floor {
				cs[i].XPt = floor
			}
		}
	}
}
