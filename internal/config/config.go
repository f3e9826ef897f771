// Package config 读取 YAML 配置并转换为 layout.Options。
//
// 配置按 Defaults → 配置文件 → 命令行参数的顺序叠加（见 Merge），
// 长度字段接受 36pt、0.5in、12.7mm 等带单位写法，裸数字按 pt 处理。
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/songsheet/binding"
	"github.com/ByLCY/songsheet/fonts"
	"github.com/ByLCY/songsheet/layout"
)

// Config 是配置文件的完整结构。
type Config struct {
	Page       Page       `yaml:"page"`
	Layout     Layout     `yaml:"layout"`
	Thresholds Thresholds `yaml:"thresholds"`
	Templates  Templates  `yaml:"templates"`
	Fonts      Fonts      `yaml:"fonts"`
	Render     Render     `yaml:"render"`
	Log        Log        `yaml:"log"`
}

// Page 描述纸张与边距。Width/Height 非空时覆盖 Size 预设。
type Page struct {
	Size         string `yaml:"size"`
	Width        string `yaml:"width"`
	Height       string `yaml:"height"`
	Margin       string `yaml:"margin"` // 1–4 个长度，顺序同 CSS
	Gutter       string `yaml:"gutter"`
	HeaderOffset string `yaml:"headerOffset"`
}

// Layout 控制规划器的搜索空间。
type Layout struct {
	FontSizes          []int `yaml:"fontSizes"`
	Columns            []int `yaml:"columns"`
	PreferColumns      int   `yaml:"preferColumns"`
	IgnoreColumnBreaks bool  `yaml:"ignoreColumnBreaks"`
	TraceCandidates    bool  `yaml:"traceCandidates"`
}

// Thresholds 对应 layout.Thresholds。未出现的字段沿用默认值，写出的 0 按 0 使用。
type Thresholds struct {
	NearEmptyColumn       *float64 `yaml:"nearEmptyColumn"`
	NearEmptyPenalty      *float64 `yaml:"nearEmptyPenalty"`
	TooFull               *float64 `yaml:"tooFull"`
	TooFullPenalty        *float64 `yaml:"tooFullPenalty"`
	SparseSingleColumn    *float64 `yaml:"sparseSingleColumn"`
	SparseSinglePenalty   *float64 `yaml:"sparseSinglePenalty"`
	TwoColumnBias         *float64 `yaml:"twoColumnBias"`
	PreferTwoColumnsBonus *float64 `yaml:"preferTwoColumnsBonus"`
	RightSafety           string   `yaml:"rightSafety"`
	CollisionPasses       *int     `yaml:"collisionPasses"`
}

// Templates 是页眉页脚模板，可引用 title、key、capo、page、pages 与 meta.*。
type Templates struct {
	Title        string `yaml:"title"`
	Subtitle     string `yaml:"subtitle"`
	Capo         string `yaml:"capo"`
	Continuation string `yaml:"continuation"`
	Footer       string `yaml:"footer"`
}

// Fonts 配置渲染字体，来源格式见 fonts.Resolve。
type Fonts struct {
	BaseDir    string `yaml:"baseDir"`
	Lyric      string `yaml:"lyric"`
	Chord      string `yaml:"chord"`
	ChordStyle string `yaml:"chordStyle"`
	NoteStyle  string `yaml:"noteStyle"`
}

// Render 是输出相关设置。
type Render struct {
	Format string  `yaml:"format"` // pdf | jpeg
	DPI    float64 `yaml:"dpi"`
}

// Log 是日志设置。
type Log struct {
	Level string `yaml:"level"`
}

// 纸张预设（pt）。
var presets = map[string]layout.PageSize{
	"letter": layout.Letter,
	"a4":     {WidthPt: 210 * layout.MmToPt, HeightPt: 297 * layout.MmToPt},
	"a5":     {WidthPt: 148 * layout.MmToPt, HeightPt: 210 * layout.MmToPt},
}

// 模板可引用的字段；meta 下的键由歌曲决定，单独校验。
var templateFields = map[string]any{"title": "", "key": "", "capo": "", "page": 1, "pages": 1}

// Defaults 返回与 layout.DefaultOptions 一致的配置。
func Defaults() Config {
	def := layout.DefaultOptions()
	tpl := def.Templates
	return Config{
		Page: Page{
			Size:         "letter",
			Margin:       "36pt",
			Gutter:       "18pt",
			HeaderOffset: "54pt",
		},
		Layout: Layout{
			FontSizes: append([]int(nil), def.FontSizes...),
			Columns:   append([]int(nil), def.AllowColumns...),
		},
		Templates: Templates{
			Title:        tpl.Title,
			Subtitle:     tpl.Subtitle,
			Capo:         tpl.Capo,
			Continuation: tpl.Continuation,
			Footer:       tpl.Footer,
		},
		Fonts:  Fonts{Lyric: fonts.Default, ChordStyle: "bold", NoteStyle: "italic"},
		Render: Render{Format: "pdf", DPI: 150},
		Log:    Log{Level: "info"},
	}
}

// Load 读取配置文件，只返回文件中出现的字段；与默认值叠加请使用 Merge。
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, nil
}

// Parse 解析 YAML，未知字段视为错误。
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Merge 用 over 中的非零字段覆盖 base。
func Merge(base, over Config) Config {
	out := base

	str(&out.Page.Size, over.Page.Size)
	str(&out.Page.Width, over.Page.Width)
	str(&out.Page.Height, over.Page.Height)
	str(&out.Page.Margin, over.Page.Margin)
	str(&out.Page.Gutter, over.Page.Gutter)
	str(&out.Page.HeaderOffset, over.Page.HeaderOffset)

	if len(over.Layout.FontSizes) > 0 {
		out.Layout.FontSizes = append([]int(nil), over.Layout.FontSizes...)
	}
	if len(over.Layout.Columns) > 0 {
		out.Layout.Columns = append([]int(nil), over.Layout.Columns...)
	}
	if over.Layout.PreferColumns != 0 {
		out.Layout.PreferColumns = over.Layout.PreferColumns
	}
	out.Layout.IgnoreColumnBreaks = out.Layout.IgnoreColumnBreaks || over.Layout.IgnoreColumnBreaks
	out.Layout.TraceCandidates = out.Layout.TraceCandidates || over.Layout.TraceCandidates

	t, o := &out.Thresholds, over.Thresholds
	ptr(&t.NearEmptyColumn, o.NearEmptyColumn)
	ptr(&t.NearEmptyPenalty, o.NearEmptyPenalty)
	ptr(&t.TooFull, o.TooFull)
	ptr(&t.TooFullPenalty, o.TooFullPenalty)
	ptr(&t.SparseSingleColumn, o.SparseSingleColumn)
	ptr(&t.SparseSinglePenalty, o.SparseSinglePenalty)
	ptr(&t.TwoColumnBias, o.TwoColumnBias)
	ptr(&t.PreferTwoColumnsBonus, o.PreferTwoColumnsBonus)
	str(&t.RightSafety, o.RightSafety)
	ptr(&t.CollisionPasses, o.CollisionPasses)

	str(&out.Templates.Title, over.Templates.Title)
	str(&out.Templates.Subtitle, over.Templates.Subtitle)
	str(&out.Templates.Capo, over.Templates.Capo)
	str(&out.Templates.Continuation, over.Templates.Continuation)
	str(&out.Templates.Footer, over.Templates.Footer)

	str(&out.Fonts.BaseDir, over.Fonts.BaseDir)
	str(&out.Fonts.Lyric, over.Fonts.Lyric)
	str(&out.Fonts.Chord, over.Fonts.Chord)
	str(&out.Fonts.ChordStyle, over.Fonts.ChordStyle)
	str(&out.Fonts.NoteStyle, over.Fonts.NoteStyle)

	str(&out.Render.Format, over.Render.Format)
	num(&out.Render.DPI, over.Render.DPI)
	str(&out.Log.Level, over.Log.Level)
	return out
}

func str(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func ptr[T any](dst **T, v *T) {
	if v != nil {
		cp := *v
		*dst = &cp
	}
}

func num(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// Options 将配置转换为规划参数；logger 原样传入。
func (c Config) Options(logger *slog.Logger) (layout.Options, error) {
	opts := layout.DefaultOptions()

	page, err := c.pageSize()
	if err != nil {
		return layout.Options{}, err
	}
	opts.Page = page

	if c.Page.Margin != "" {
		m, err := ParseMargin(c.Page.Margin)
		if err != nil {
			return layout.Options{}, err
		}
		opts.Margin = m
	}
	if err := lengthInto(&opts.GutterPt, "page.gutter", c.Page.Gutter); err != nil {
		return layout.Options{}, err
	}
	if err := lengthInto(&opts.HeaderOffsetPt, "page.headerOffset", c.Page.HeaderOffset); err != nil {
		return layout.Options{}, err
	}

	if len(c.Layout.FontSizes) > 0 {
		opts.FontSizes = append([]int(nil), c.Layout.FontSizes...)
	}
	if len(c.Layout.Columns) > 0 {
		for _, n := range c.Layout.Columns {
			if n != 1 && n != 2 {
				return layout.Options{}, fmt.Errorf("layout.columns 只允许 1 或 2，得到 %d", n)
			}
		}
		opts.AllowColumns = append([]int(nil), c.Layout.Columns...)
	}
	switch c.Layout.PreferColumns {
	case 0, 1, 2:
		opts.PreferColumns = c.Layout.PreferColumns
	default:
		return layout.Options{}, fmt.Errorf("layout.preferColumns 只允许 0、1 或 2，得到 %d", c.Layout.PreferColumns)
	}
	opts.IgnoreColumnBreaks = c.Layout.IgnoreColumnBreaks
	opts.Debug.TraceCandidates = c.Layout.TraceCandidates

	th := c.Thresholds
	opts.Thresholds = layout.DefaultThresholds()
	for _, f := range []struct {
		name string
		dst  *float64
		v    *float64
	}{
		{"nearEmptyColumn", &opts.Thresholds.NearEmptyColumn, th.NearEmptyColumn},
		{"nearEmptyPenalty", &opts.Thresholds.NearEmptyPenalty, th.NearEmptyPenalty},
		{"tooFull", &opts.Thresholds.TooFull, th.TooFull},
		{"tooFullPenalty", &opts.Thresholds.TooFullPenalty, th.TooFullPenalty},
		{"sparseSingleColumn", &opts.Thresholds.SparseSingleColumn, th.SparseSingleColumn},
		{"sparseSinglePenalty", &opts.Thresholds.SparseSinglePenalty, th.SparseSinglePenalty},
		{"twoColumnBias", &opts.Thresholds.TwoColumnBias, th.TwoColumnBias},
		{"preferTwoColumnsBonus", &opts.Thresholds.PreferTwoColumnsBonus, th.PreferTwoColumnsBonus},
	} {
		if f.v == nil {
			continue
		}
		if *f.v < 0 {
			return layout.Options{}, fmt.Errorf("thresholds.%s 不能为负数: %g", f.name, *f.v)
		}
		*f.dst = *f.v
	}
	if th.CollisionPasses != nil {
		if *th.CollisionPasses < 0 {
			return layout.Options{}, fmt.Errorf("thresholds.collisionPasses 不能为负数: %d", *th.CollisionPasses)
		}
		opts.Thresholds.CollisionPasses = *th.CollisionPasses
	}
	if err := lengthInto(&opts.Thresholds.RightSafetyPt, "thresholds.rightSafety", th.RightSafety); err != nil {
		return layout.Options{}, err
	}

	tpl, err := c.templates()
	if err != nil {
		return layout.Options{}, err
	}
	opts.Templates = tpl
	opts.Logger = logger
	return opts, nil
}

func (c Config) pageSize() (layout.PageSize, error) {
	name := strings.ToLower(strings.TrimSpace(c.Page.Size))
	if name == "" {
		name = "letter"
	}
	page, ok := presets[name]
	if !ok && (c.Page.Width == "" || c.Page.Height == "") {
		return layout.PageSize{}, fmt.Errorf("未知的纸张尺寸 %q（可选 letter、a4、a5，或同时指定 width/height）", c.Page.Size)
	}
	if err := lengthInto(&page.WidthPt, "page.width", c.Page.Width); err != nil {
		return layout.PageSize{}, err
	}
	if err := lengthInto(&page.HeightPt, "page.height", c.Page.Height); err != nil {
		return layout.PageSize{}, err
	}
	if page.WidthPt <= 0 || page.HeightPt <= 0 {
		return layout.PageSize{}, fmt.Errorf("页面尺寸必须为正数")
	}
	return page, nil
}

func (c Config) templates() (layout.Templates, error) {
	def := layout.DefaultTemplates()
	tpl := layout.Templates{
		Title:        orDefault(c.Templates.Title, def.Title),
		Subtitle:     orDefault(c.Templates.Subtitle, def.Subtitle),
		Capo:         orDefault(c.Templates.Capo, def.Capo),
		Continuation: orDefault(c.Templates.Continuation, def.Continuation),
		Footer:       c.Templates.Footer,
	}
	for name, text := range map[string]string{
		"title": tpl.Title, "subtitle": tpl.Subtitle, "capo": tpl.Capo,
		"continuation": tpl.Continuation, "footer": tpl.Footer,
	} {
		if err := CheckTemplate(text); err != nil {
			return layout.Templates{}, fmt.Errorf("templates.%s: %w", name, err)
		}
	}
	return tpl, nil
}

// CheckTemplate 校验模板只引用已知字段。
func CheckTemplate(text string) error {
	for _, p := range binding.Placeholders(text) {
		if root, rest, nested := strings.Cut(p, "."); root == "meta" {
			if !nested || rest == "" || strings.Contains(rest, ".") {
				return fmt.Errorf("未知的模板字段 ${%s}", p)
			}
			continue
		}
		if !binding.Resolvable(templateFields, p) {
			return fmt.Errorf("未知的模板字段 ${%s}", p)
		}
	}
	return nil
}

// ParseMargin 解析 1–4 个长度的边距写法，顺序同 CSS：上 右 下 左。
func ParseMargin(value string) (layout.Margin, error) {
	parts := strings.Fields(value)
	vals := make([]float64, len(parts))
	for i, p := range parts {
		l, err := layout.ParseLength(p)
		if err != nil {
			return layout.Margin{}, fmt.Errorf("page.margin: %w", err)
		}
		vals[i] = l.ToPT()
	}
	switch len(vals) {
	case 1:
		return layout.Margin{Top: vals[0], Right: vals[0], Bottom: vals[0], Left: vals[0]}, nil
	case 2:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	case 4:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	default:
		return layout.Margin{}, fmt.Errorf("page.margin 需要 1 到 4 个长度，得到 %q", value)
	}
}

// LogLevel 解析日志级别，空值为 info。
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	name := strings.TrimSpace(c.Log.Level)
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("未知的日志级别 %q", name)
	}
	return level, nil
}

func lengthInto(dst *float64, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	l, err := layout.ParseLength(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = l.ToPT()
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
