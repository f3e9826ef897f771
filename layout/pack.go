package layout

// pageCollector 按栏顺序收集块，栏满后换栏，最后一栏满后换页。
type pageCollector struct {
	geo    geometry
	pages  [][]Column
	col    int
	cursor float64 // 当前栏已用高度
}

func newPageCollector(geo geometry) *pageCollector {
	pc := &pageCollector{geo: geo}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() {
	pc.pages = append(pc.pages, pc.geo.emptyColumns())
	pc.col = 0
	pc.cursor = 0
}

func (pc *pageCollector) curr() *Column {
	return &pc.pages[len(pc.pages)-1][pc.col]
}

func (pc *pageCollector) remaining() float64 { return pc.geo.capacity - pc.cursor }

func (pc *pageCollector) fresh() bool { return pc.cursor < epsilon }

func (pc *pageCollector) fits(h float64) bool { return h <= pc.remaining()+epsilon }

// lastColumn 表示当前页已没有后续栏。
func (pc *pageCollector) lastColumn() bool { return pc.col >= pc.geo.columns-1 }

// advance 切换到下一栏，必要时开新页。
func (pc *pageCollector) advance() {
	if pc.lastColumn() {
		pc.newPage()
		return
	}
	pc.col++
	pc.cursor = 0
}

func (pc *pageCollector) place(b Block) {
	b.YPt = pc.geo.top + pc.cursor
	col := pc.curr()
	col.Blocks = append(col.Blocks, b)
	pc.cursor += b.HeightPt
	col.HeightPt = pc.cursor
}

// placeChunk 放置段落的 [from, to) 行；from 为 0 时带标题，spacer 为 true 时追加段后间距。
func (pc *pageCollector) placeChunk(sec measuredSection, from, to int, spacer bool) {
	if from == 0 && sec.header != nil {
		pc.place(*sec.header)
	}
	for _, ln := range sec.lines[from:to] {
		for _, b := range ln.blocks {
			pc.place(b)
		}
	}
	if spacer {
		pc.place(Block{Kind: BlockSpacer, HeightPt: spacerPt, Section: sec.index, Line: -1})
	}
}

// breakColumn 处理段后换栏标记：仅当本页还有下一栏且下一段能整段放进去时才换栏。
func (pc *pageCollector) breakColumn(sections []measuredSection, i int) {
	if !sections[i].breakAfter || i+1 >= len(sections) || pc.lastColumn() || pc.fresh() {
		return
	}
	if sections[i+1].heightFrom(0) <= pc.geo.capacity+epsilon {
		pc.advance()
	}
}

// packAtomic 把每个段落整体放入单页的各栏：先放第 0 栏，放不下再换到下一栏，不回头。
// honorBreaks 为 true 时遵守段后换栏标记。
func packAtomic(sections []measuredSection, geo geometry, honorBreaks bool) ([]Column, error) {
	pc := newPageCollector(geo)
	for i, sec := range sections {
		h := sec.heightFrom(0)
		if !pc.fits(h) {
			if pc.lastColumn() {
				return nil, errAtomicOverflow
			}
			pc.advance()
			if !pc.fits(h) {
				return nil, errAtomicOverflow
			}
		}
		pc.placeChunk(sec, 0, len(sec.lines), true)
		if honorBreaks {
			pc.breakColumn(sections, i)
		}
	}
	return pc.pages[0], nil
}

// packSplit 是多页兜底：整段优先，放不下时按行拆分，并避免孤行。
// 每一行输入恰好出现一次且保持原有顺序。
func packSplit(sections []measuredSection, geo geometry, honorBreaks bool) ([][]Column, error) {
	pc := newPageCollector(geo)
	for si, sec := range sections {
		n := len(sec.lines)
		next := 0
		for next < n {
			rest := sec.heightFrom(next)
			if pc.fits(rest) {
				pc.placeChunk(sec, next, n, true)
				break
			}
			if !pc.fresh() && rest <= geo.capacity+epsilon {
				pc.advance()
				pc.placeChunk(sec, next, n, true)
				break
			}

			used := 0.0
			if next == 0 {
				used = sec.headerHeight()
			}
			fit := 0
			for i := next; i < n && used+sec.lines[i].height <= pc.remaining()+epsilon; i++ {
				used += sec.lines[i].height
				fit++
			}
			remaining := n - next

			switch {
			case fit == 0:
				if pc.fresh() {
					return nil, errTooTall
				}
				pc.advance()
				continue
			case fit == remaining:
				// 所有行都放得下，只是段后间距放不下
				pc.placeChunk(sec, next, n, false)
				next = n
				continue
			case fit == 1 && remaining > 1 && !pc.fresh():
				pc.advance()
				continue
			case remaining-fit == 1:
				if fit > 1 {
					fit--
				} else if !pc.fresh() {
					pc.advance()
					continue
				}
			}

			pc.placeChunk(sec, next, next+fit, false)
			next += fit
			pc.advance()
		}
		if honorBreaks {
			pc.breakColumn(sections, si)
		}
	}
	return trimTrailingPage(pc.pages), nil
}

// trimTrailingPage 去掉末尾完全为空的页（最后一次换栏可能恰好开了新页）。
func trimTrailingPage(pages [][]Column) [][]Column {
	for len(pages) > 1 {
		last := pages[len(pages)-1]
		empty := true
		for _, c := range last {
			if len(c.Blocks) > 0 {
				empty = false
				break
			}
		}
		if !empty {
			break
		}
		pages = pages[:len(pages)-1]
	}
	return pages
}
