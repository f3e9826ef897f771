package layout

import (
	"io"
	"log/slog"
	"sort"
)

// MeasureFunc 返回文本在某一字号下的宽度（pt）。
type MeasureFunc func(text string) float64

// Oracle 负责提供测量函数，由渲染后端或测试桩实现。
// 同一输入必须返回相同宽度，规划结果才可复现。
type Oracle interface {
	LyricMeasurerAt(sizePt float64) MeasureFunc
	ChordMeasurerAt(sizePt float64) MeasureFunc
}

// Options 配置规划阶段的页面几何、搜索空间与日志。
type Options struct {
	FontSizes          []int    // 字号窗口，按降序尝试
	AllowColumns       []int    // 允许的栏数，{1} 或 {1,2}
	PreferColumns      int      // 0 表示无偏好；2 表示优先双栏
	Page               PageSize // 页面尺寸
	Margin             Margin
	GutterPt           float64 // 双栏间距
	HeaderOffsetPt     float64 // 每页顶部为标题区保留的高度
	Thresholds         Thresholds
	Templates          Templates
	IgnoreColumnBreaks bool         // 忽略段落上的换栏标记
	Logger             *slog.Logger // nil 时丢弃日志
	Debug              DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	TraceCandidates bool // 在 Debug 日志中附带每个候选的各栏占用率
}

// Thresholds 是评分与宽度校验用到的经验常数。
// 整体为零值时使用 DefaultThresholds；否则逐字段采用，只有负数字段回落到默认值。
type Thresholds struct {
	NearEmptyColumn       float64 // 双栏第二栏占用率低于此值视为几乎为空
	NearEmptyPenalty      float64
	TooFull               float64 // 任一栏占用率高于此值视为过满
	TooFullPenalty        float64
	SparseSingleColumn    float64 // 单栏占用率低于此值且双栏可行时视为稀疏
	SparseSinglePenalty   float64
	TwoColumnBias         float64
	PreferTwoColumnsBonus float64
	RightSafetyPt         float64
	CollisionPasses       int
}

// Templates 是页眉/页脚的 ${path} 模板。
type Templates struct {
	Title        string // 首页标题
	Subtitle     string // 首页副标题
	Capo         string // capo > 0 时追加到副标题之后
	Continuation string // 后续页面的标题
	Footer       string // 为空表示不输出页脚
}

// Letter 尺寸（pt）。
var Letter = PageSize{WidthPt: 612, HeightPt: 792}

// DefaultThresholds 返回默认阈值。
func DefaultThresholds() Thresholds {
	return Thresholds{
		NearEmptyColumn:       0.18,
		NearEmptyPenalty:      20,
		TooFull:               0.98,
		TooFullPenalty:        5,
		SparseSingleColumn:    0.45,
		SparseSinglePenalty:   2,
		TwoColumnBias:         2,
		PreferTwoColumnsBonus: 3,
		RightSafetyPt:         6,
		CollisionPasses:       10,
	}
}

// DefaultTemplates 返回默认的页眉模板。
func DefaultTemplates() Templates {
	return Templates{
		Title:        "${title}",
		Subtitle:     "Key of ${key}",
		Capo:         ", Capo ${capo}",
		Continuation: "${title} (cont.)",
	}
}

// DefaultOptions 返回 Letter 纸、36pt 边距、字号 16→12、允许单双栏的默认配置。
func DefaultOptions() Options {
	return Options{
		FontSizes:      []int{16, 15, 14, 13, 12},
		AllowColumns:   []int{1, 2},
		Page:           Letter,
		Margin:         Margin{Top: 36, Right: 36, Bottom: 36, Left: 36},
		GutterPt:       18,
		HeaderOffsetPt: 54,
		Thresholds:     DefaultThresholds(),
		Templates:      DefaultTemplates(),
	}
}

// withDefaults 返回补全默认值后的副本，不修改调用方的切片。
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	out := o

	sizes := make([]int, 0, len(o.FontSizes))
	seen := map[int]bool{}
	for _, s := range o.FontSizes {
		if s > 0 && !seen[s] {
			seen[s] = true
			sizes = append(sizes, s)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	if len(sizes) == 0 {
		sizes = def.FontSizes
	}
	out.FontSizes = sizes

	var cols []int
	for _, c := range []int{1, 2} {
		for _, a := range o.AllowColumns {
			if a == c {
				cols = append(cols, c)
				break
			}
		}
	}
	if len(cols) == 0 {
		cols = def.AllowColumns
	}
	out.AllowColumns = cols

	// 未设置页面时整组几何参数取默认值；设置了页面则边距、栏距与标题区按原值使用，0 是合法值。
	if out.Page.WidthPt <= 0 || out.Page.HeightPt <= 0 {
		out.Page = def.Page
		out.Margin = def.Margin
		out.GutterPt = def.GutterPt
		out.HeaderOffsetPt = def.HeaderOffsetPt
	}
	if out.Margin.Top < 0 || out.Margin.Right < 0 || out.Margin.Bottom < 0 || out.Margin.Left < 0 {
		out.Margin = def.Margin
	}
	if out.GutterPt < 0 {
		out.GutterPt = def.GutterPt
	}
	if out.HeaderOffsetPt < 0 {
		out.HeaderOffsetPt = def.HeaderOffsetPt
	}
	out.Thresholds = o.Thresholds.withDefaults()
	out.Templates = o.Templates.withDefaults()
	if out.Logger == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return out
}

func (t Thresholds) withDefaults() Thresholds {
	def := DefaultThresholds()
	if t == (Thresholds{}) {
		return def
	}
	pick := func(v, d float64) float64 {
		if v < 0 {
			return d
		}
		return v
	}
	out := Thresholds{
		NearEmptyColumn:       pick(t.NearEmptyColumn, def.NearEmptyColumn),
		NearEmptyPenalty:      pick(t.NearEmptyPenalty, def.NearEmptyPenalty),
		TooFull:               pick(t.TooFull, def.TooFull),
		TooFullPenalty:        pick(t.TooFullPenalty, def.TooFullPenalty),
		SparseSingleColumn:    pick(t.SparseSingleColumn, def.SparseSingleColumn),
		SparseSinglePenalty:   pick(t.SparseSinglePenalty, def.SparseSinglePenalty),
		TwoColumnBias:         pick(t.TwoColumnBias, def.TwoColumnBias),
		PreferTwoColumnsBonus: pick(t.PreferTwoColumnsBonus, def.PreferTwoColumnsBonus),
		RightSafetyPt:         pick(t.RightSafetyPt, def.RightSafetyPt),
		CollisionPasses:       t.CollisionPasses,
	}
	if out.CollisionPasses < 0 {
		out.CollisionPasses = def.CollisionPasses
	}
	return out
}

func (t Templates) withDefaults() Templates {
	def := DefaultTemplates()
	out := t
	if out.Title == "" {
		out.Title = def.Title
	}
	if out.Subtitle == "" {
		out.Subtitle = def.Subtitle
	}
	if out.Capo == "" {
		out.Capo = def.Capo
	}
	if out.Continuation == "" {
		out.Continuation = def.Continuation
	}
	return out
}

func (o Options) allows(cols int) bool {
	for _, c := range o.AllowColumns {
		if c == cols {
			return true
		}
	}
	return false
}

// minFontSize 返回窗口中的最小字号（窗口已按降序排列）。
func (o Options) minFontSize() int {
	return o.FontSizes[len(o.FontSizes)-1]
}
