package layout

import (
	"strings"
	"unicode"
)

// wrappedRow 是折行后的一行，[Start, End) 是其在原始文本中的 rune 区间。
// 各行区间首尾相接覆盖整个文本，行间被跳过的空白归入上一行。
type wrappedRow struct {
	Text  string
	Start int
	End   int
}

// wrapText 按空白折行：二分查找不超过 width 的最长前缀，再回退到最后一个空白处断开。
// 单个超宽的词独占一行，由宽度校验决定候选是否可用。
func wrapText(text string, width float64, measure MeasureFunc) []wrappedRow {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return []wrappedRow{{}}
	}

	var rows []wrappedRow
	pos := 0
	for pos < n {
		if len(rows) > 0 {
			for pos < n && unicode.IsSpace(runes[pos]) {
				pos++
			}
			rows[len(rows)-1].End = pos
			if pos == n {
				break
			}
		}
		start := pos
		firstWord := start
		for firstWord < n && unicode.IsSpace(runes[firstWord]) {
			firstWord++
		}

		best := start
		lo, hi := start+1, n
		for lo <= hi {
			mid := (lo + hi) / 2
			if measure(string(runes[start:mid])) <= width+epsilon {
				best = mid
				lo = mid + 1
			} else {
				hi = mid - 1
			}
		}

		var end int
		switch {
		case best == n:
			end = n
		case best > firstWord && unicode.IsSpace(runes[best]):
			end = best
		default:
			end = -1
			for i := best - 1; i > firstWord; i-- {
				if unicode.IsSpace(runes[i]) {
					end = i
					break
				}
			}
			if end < 0 {
				end = firstWord
				for end < n && !unicode.IsSpace(runes[end]) {
					end++
				}
			}
		}

		rows = append(rows, wrappedRow{
			Text:  strings.TrimRightFunc(string(runes[start:end]), unicode.IsSpace),
			Start: start,
			End:   end,
		})
		pos = end
	}
	rows[len(rows)-1].End = n
	return rows
}
