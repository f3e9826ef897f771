// Package measure 提供与渲染后端无关的文本测量实现。
package measure

import (
	"unicode/utf8"

	"github.com/ByLCY/songsheet/layout"
)

// Fixed 是等宽测量：宽度 = rune 数 × 字号 × 系数。
// 结果完全确定，适合测试与无字体环境下的预估。
type Fixed struct {
	LyricFactor float64
	ChordFactor float64
}

// DefaultFixed 使用 0.5em 的平均字宽。
func DefaultFixed() Fixed { return Fixed{LyricFactor: 0.5, ChordFactor: 0.5} }

func (f Fixed) LyricMeasurerAt(sizePt float64) layout.MeasureFunc {
	return widthFunc(sizePt, f.LyricFactor)
}

func (f Fixed) ChordMeasurerAt(sizePt float64) layout.MeasureFunc {
	return widthFunc(sizePt, f.ChordFactor)
}

func widthFunc(sizePt, factor float64) layout.MeasureFunc {
	if factor <= 0 {
		factor = 0.5
	}
	return func(text string) float64 {
		return float64(utf8.RuneCountInString(text)) * sizePt * factor
	}
}
