package layout

import "fmt"

// 该文件定义规划结果（Plan），供渲染器与调试 JSON 共用。
// 所有坐标单位均为 pt，页面坐标原点在左上角。

// Plan 是被采纳的排版方案，返回后调用方只读。
type Plan struct {
	FontSizePt int      `json:"fontSizePt"`
	Columns    int      `json:"columns"`
	Fallback   bool     `json:"fallback"` // 是否经由多页兜底路径产生
	Score      float64  `json:"score,omitempty"`
	PageSize   PageSize `json:"pageSize"`
	Margin     Margin   `json:"margin"`
	Meta       PlanMeta `json:"meta"`
	Pages      []Page   `json:"pages"`
}

// PlanMeta 记录歌曲元信息，渲染器用它决定 PDF 信息字典等。
type PlanMeta struct {
	Title string `json:"title"`
	Key   string `json:"key"`
	Capo  int    `json:"capo,omitempty"`
}

// PageSize 以 pt 为单位。
type PageSize struct {
	WidthPt  float64 `json:"widthPt"`
	HeightPt float64 `json:"heightPt"`
}

// Margin 以 pt 为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Page 记录一页中的栏以及页眉/页脚文本（已插值）。
type Page struct {
	Number    int      `json:"number"`
	Header    string   `json:"header,omitempty"`
	Subheader string   `json:"subheader,omitempty"`
	Footer    string   `json:"footer,omitempty"`
	Columns   []Column `json:"columns"`
}

// Column 中的块按 YPt 递增排列。
type Column struct {
	XOriginPt float64 `json:"xOriginPt"`
	YOriginPt float64 `json:"yOriginPt"`
	WidthPt   float64 `json:"widthPt"`
	HeightPt  float64 `json:"heightPt"` // 已占用高度
	Blocks    []Block `json:"blocks"`
}

// BlockKind 区分可绘制块的类型。
type BlockKind int

const (
	BlockSectionHeader BlockKind = iota
	BlockTextLine
	BlockComment
	BlockInstrumental
	BlockSpacer
)

func (k BlockKind) String() string {
	switch k {
	case BlockSectionHeader:
		return "sectionHeader"
	case BlockTextLine:
		return "textLine"
	case BlockComment:
		return "comment"
	case BlockInstrumental:
		return "instrumental"
	case BlockSpacer:
		return "spacer"
	default:
		return "unknown"
	}
}

// MarshalText 让调试 JSON 输出可读的类型名。
func (k BlockKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText 读取 MarshalText 写出的类型名。
func (k *BlockKind) UnmarshalText(text []byte) error {
	for c := BlockSectionHeader; c <= BlockSpacer; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("未知的块类型 %q", text)
}

// Block 是带标签的变体，只有 Kind 对应的字段有意义。
// Section/Line/Row 指回输入歌曲中的位置；SectionHeader 与 Spacer 的 Line 为 -1。
type Block struct {
	Kind     BlockKind    `json:"kind"`
	YPt      float64      `json:"yPt"`
	HeightPt float64      `json:"heightPt"`
	Text     string       `json:"text,omitempty"`   // header / lyrics / comment / 器乐行展示文本
	Chords   []ChordGlyph `json:"chords,omitempty"` // textLine
	Tokens   []string     `json:"tokens,omitempty"` // instrumental
	Repeat   int          `json:"repeat,omitempty"` // instrumental，仅最后一行携带
	Section  int          `json:"section"`
	Line     int          `json:"line"`
	Row      int          `json:"row"`
}

// ChordGlyph 的 XPt 相对栏的左边缘。
type ChordGlyph struct {
	Symbol  string  `json:"symbol"`
	XPt     float64 `json:"xPt"`
	WidthPt float64 `json:"widthPt"`
}

// BlockCount 统计指定类型的块数量，主要用于测试与日志。
func (p *Plan) BlockCount(kind BlockKind) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, pg := range p.Pages {
		for _, col := range pg.Columns {
			for _, b := range col.Blocks {
				if b.Kind == kind {
					n++
				}
			}
		}
	}
	return n
}
