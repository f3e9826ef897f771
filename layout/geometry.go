package layout

import "math"

// 行距与块高度（pt），与字号 s 成线性关系。
const (
	lineGapPt  = 4
	spacerPt   = 4
	chordGapPt = 2
	epsilon    = 1e-6
)

// lyricRowHeight 计算一行歌词的高度；带和弦时额外加上和弦行。
func lyricRowHeight(size float64, hasChords bool) float64 {
	h := size + lineGapPt
	if hasChords {
		h += size + chordGapPt
	}
	return h
}

// plainRowHeight 用于注释行与器乐行。
func plainRowHeight(size float64) float64 { return size + lineGapPt }

// headerHeight 是段落标题所占高度（标题字号约为正文的 0.85）。
func headerHeight(size float64) float64 {
	return math.Round(0.85*size) + size + lineGapPt
}

// geometry 描述某一栏数下的页面切分结果。
type geometry struct {
	page     PageSize
	margin   Margin
	columns  int
	colW     float64
	gutter   float64
	top      float64 // 栏内容起点（页面坐标）
	capacity float64 // 每栏可用高度
	safety   float64
}

func newGeometry(o Options, columns int) geometry {
	inner := o.Page.WidthPt - o.Margin.Left - o.Margin.Right
	colW := inner
	if columns == 2 {
		colW = (inner - o.GutterPt) / 2
	}
	return geometry{
		page:     o.Page,
		margin:   o.Margin,
		columns:  columns,
		colW:     colW,
		gutter:   o.GutterPt,
		top:      o.Margin.Top + o.HeaderOffsetPt,
		capacity: o.Page.HeightPt - o.Margin.Top - o.Margin.Bottom - o.HeaderOffsetPt,
		safety:   o.Thresholds.RightSafetyPt,
	}
}

// available 是折行与宽度校验使用的有效宽度。
func (g geometry) available() float64 { return g.colW - g.safety }

func (g geometry) columnX(i int) float64 {
	return g.margin.Left + float64(i)*(g.colW+g.gutter)
}

// emptyColumns 创建一页的空栏。
func (g geometry) emptyColumns() []Column {
	cols := make([]Column, g.columns)
	for i := range cols {
		cols[i] = Column{XOriginPt: g.columnX(i), YOriginPt: g.top, WidthPt: g.colW, Blocks: []Block{}}
	}
	return cols
}

func (g geometry) valid() bool { return g.colW > g.safety && g.capacity > 0 }
