package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/songsheet/fonts"
	"github.com/ByLCY/songsheet/layout"
	"github.com/ByLCY/songsheet/renderer"
)

const (
	titleSizePt    = 24
	subtitleSizePt = 16
	footerSizePt   = 8
	chordRowGapPt  = 2
	defaultDPI     = 150
	jpegQuality    = 92
	creator        = "songsheet"
)

var (
	inkColor  = canvas.Hex("#000000")
	greyColor = canvas.Hex("#555555")
)

// role 区分歌词字体与和弦字体。
type role string

const (
	roleLyric role = "lyric"
	roleChord role = "chord"
)

// faceStyles 是每个字体族尝试加载的样式。
var faceStyles = []canvas.FontStyle{
	canvas.FontRegular,
	canvas.FontBold,
	canvas.FontItalic,
	canvas.FontBold | canvas.FontItalic,
}

// Renderer draws layout plans via github.com/tdewolff/canvas and doubles as the
// width oracle for the planner, so measured and drawn widths come from the same faces.
type Renderer struct {
	baseDir    string
	fontSpecs  map[role]string
	chordStyle canvas.FontStyle
	noteStyle  canvas.FontStyle

	// injected resources
	fontBlobs map[string][]byte // by unique name

	fontMu       sync.Mutex
	fontFamilies map[role]*fontFamilyEntry
}

var (
	_ renderer.Renderer       = (*Renderer)(nil)
	_ renderer.PageRasterizer = (*Renderer)(nil)
	_ layout.Oracle           = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	styles map[canvas.FontStyle]bool // 实际加载成功的样式
}

// face 返回指定样式的字形；未加载的样式先去掉斜体，再回落到常规。
func (e *fontFamilyEntry) face(sizePt float64, col color.Color, style canvas.FontStyle) *canvas.FontFace {
	if !e.styles[style] {
		if e.styles[style&^canvas.FontItalic] {
			style &^= canvas.FontItalic
		} else {
			style = canvas.FontRegular
		}
	}
	return e.family.Face(sizePt, col, style, canvas.FontNormal)
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir    string
	LyricFont  string              // 字体来源，见 fonts.Resolve；亦可为 built-in:<name>
	ChordFont  string              // 为空时与 LyricFont 相同
	ChordStyle string              // 和弦与器乐行的样式，默认 bold
	NoteStyle  string              // 注释行的样式，默认 italic
	Fonts      map[string]Resource // built-in fonts accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// New creates a renderer and loads both font families up front.
func New(opts Options) (*Renderer, error) {
	lyric := strings.TrimSpace(opts.LyricFont)
	if lyric == "" {
		lyric = fonts.Default
	}
	chord := strings.TrimSpace(opts.ChordFont)
	if chord == "" {
		chord = lyric
	}
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontSpecs:    map[role]string{roleLyric: lyric, roleChord: chord},
		chordStyle:   parseFontStyle(orDefault(opts.ChordStyle, "bold")),
		noteStyle:    parseFontStyle(orDefault(opts.NoteStyle, "italic")),
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[role]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				return nil, fmt.Errorf("读取内置字体 %s 失败: %w", name, err)
			}
			r.fontBlobs[name] = data
		}
	}
	for _, ro := range []role{roleLyric, roleChord} {
		if _, err := r.ensureFontFamily(ro); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LyricMeasurerAt 实现 layout.Oracle，返回歌词字体在 sizePt 下的宽度函数（pt）。
func (r *Renderer) LyricMeasurerAt(sizePt float64) layout.MeasureFunc {
	return r.measurer(roleLyric, sizePt, canvas.FontRegular)
}

// ChordMeasurerAt 实现 layout.Oracle，使用与绘制和弦相同的样式。
func (r *Renderer) ChordMeasurerAt(sizePt float64) layout.MeasureFunc {
	return r.measurer(roleChord, sizePt, r.chordStyle)
}

func (r *Renderer) measurer(ro role, sizePt float64, style canvas.FontStyle) layout.MeasureFunc {
	entry, err := r.ensureFontFamily(ro)
	if err != nil {
		// 字体不可用时任何文本都放不下，规划会以宽度溢出拒绝所有候选
		return func(string) float64 { return math.Inf(1) }
	}
	face := entry.face(sizePt, inkColor, style)
	return func(text string) float64 { return toPt(face.TextWidth(text)) }
}

// Render renders every page of the plan into a PDF byte slice.
func (r *Renderer) Render(plan *layout.Plan) ([]byte, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	wMM, hMM := toMm(plan.PageSize.WidthPt), toMm(plan.PageSize.HeightPt)

	var buf bytes.Buffer
	writer := pdf.New(&buf, wMM, hMM, nil)
	r.applyMeta(writer, plan)
	for i, page := range plan.Pages {
		if i > 0 {
			writer.NewPage(wMM, hMM)
		}
		c := canvas.New(wMM, hMM)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与方案保持左上角为原点

		if err := r.drawPage(ctx, plan, page); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderJPEG rasterizes a single page (0-based) on a white background.
func (r *Renderer) RenderJPEG(plan *layout.Plan, pageIndex int, dpi float64) ([]byte, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= len(plan.Pages) {
		return nil, fmt.Errorf("页码越界: %d（共 %d 页）", pageIndex+1, len(plan.Pages))
	}
	if dpi <= 0 {
		dpi = defaultDPI
	}
	wMM, hMM := toMm(plan.PageSize.WidthPt), toMm(plan.PageSize.HeightPt)

	c := canvas.New(wMM, hMM)
	ctx := canvas.NewContext(c)
	ctx.SetFillColor(canvas.White)
	ctx.DrawPath(0, 0, canvas.Rectangle(wMM, hMM))
	ctx.SetCoordSystem(canvas.CartesianIV)
	if err := r.drawPage(ctx, plan, plan.Pages[pageIndex]); err != nil {
		return nil, err
	}

	img := rasterizer.Draw(c, canvas.DPI(dpi), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("编码 JPEG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func validatePlan(plan *layout.Plan) error {
	if plan == nil {
		return fmt.Errorf("排版方案为空")
	}
	if len(plan.Pages) == 0 {
		return fmt.Errorf("缺少可渲染的页面")
	}
	if plan.PageSize.WidthPt <= 0 || plan.PageSize.HeightPt <= 0 {
		return fmt.Errorf("页面尺寸无效: %gx%g pt", plan.PageSize.WidthPt, plan.PageSize.HeightPt)
	}
	return nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, plan *layout.Plan) {
	if writer == nil {
		return
	}
	subject := plan.Pages[0].Subheader
	keywords := strings.Join(metaKeywords(plan.Meta), ", ")
	writer.SetInfo(plan.Meta.Title, subject, keywords, "", creator)
}

func (r *Renderer) drawPage(ctx *canvas.Context, plan *layout.Plan, page layout.Page) error {
	left, y := plan.Margin.Left, plan.Margin.Top
	if page.Header != "" {
		size := float64(titleSizePt)
		if page.Number > 1 {
			size = subtitleSizePt
		}
		next, err := r.drawText(ctx, roleLyric, page.Header, left, y, size, canvas.FontBold, inkColor, canvas.Left)
		if err != nil {
			return err
		}
		y = next
	}
	if page.Subheader != "" {
		if _, err := r.drawText(ctx, roleLyric, page.Subheader, left, y, subtitleSizePt, canvas.FontItalic, greyColor, canvas.Left); err != nil {
			return err
		}
	}

	size := float64(plan.FontSizePt)
	for _, col := range page.Columns {
		for _, b := range col.Blocks {
			if err := r.drawBlock(ctx, col, b, size); err != nil {
				return err
			}
		}
	}

	if page.Footer != "" {
		fy := plan.PageSize.HeightPt - plan.Margin.Bottom/2 - footerSizePt/2
		if _, err := r.drawText(ctx, roleLyric, page.Footer, plan.PageSize.WidthPt/2, fy, footerSizePt, canvas.FontRegular, greyColor, canvas.Center); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawBlock(ctx *canvas.Context, col layout.Column, b layout.Block, size float64) error {
	x := col.XOriginPt
	switch b.Kind {
	case layout.BlockSectionHeader:
		_, err := r.drawText(ctx, roleLyric, sectionLabel(b.Text), x, b.YPt, headerSize(size), canvas.FontBold, inkColor, canvas.Left)
		return err
	case layout.BlockTextLine:
		lyricY := b.YPt
		if len(b.Chords) > 0 {
			for _, g := range b.Chords {
				if _, err := r.drawText(ctx, roleChord, g.Symbol, x+g.XPt, b.YPt, size, r.chordStyle, inkColor, canvas.Left); err != nil {
					return err
				}
			}
			lyricY += size + chordRowGapPt
		}
		_, err := r.drawText(ctx, roleLyric, b.Text, x, lyricY, size, canvas.FontRegular, inkColor, canvas.Left)
		return err
	case layout.BlockComment:
		_, err := r.drawText(ctx, roleLyric, b.Text, x, b.YPt, size, r.noteStyle, greyColor, canvas.Left)
		return err
	case layout.BlockInstrumental:
		_, err := r.drawText(ctx, roleChord, b.Text, x, b.YPt, size, r.chordStyle, inkColor, canvas.Left)
		return err
	default:
		return nil
	}
}

// drawText 以 (xPt, yPt) 为文本框左上角（居中对齐时为上边中点）绘制一行文本，返回下一行的 y（pt）。
func (r *Renderer) drawText(ctx *canvas.Context, ro role, text string, xPt, yPt, sizePt float64, style canvas.FontStyle, col color.Color, align canvas.TextAlign) (float64, error) {
	entry, err := r.ensureFontFamily(ro)
	if err != nil {
		return yPt, err
	}
	face := entry.face(sizePt, col, style)
	metrics := face.Metrics()
	if strings.TrimSpace(text) != "" {
		line := canvas.NewTextLine(face, text, align)
		ctx.DrawText(toMm(xPt), toMm(yPt)+metrics.Ascent, line)
	}
	return yPt + toPt(metrics.LineHeight), nil
}

func (r *Renderer) ensureFontFamily(ro role) (*fontFamilyEntry, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[ro]; ok {
		return entry, nil
	}
	if r.fontFamilies == nil {
		r.fontFamilies = map[role]*fontFamilyEntry{}
	}
	spec, ok := r.fontSpecs[ro]
	if !ok {
		return nil, fmt.Errorf("未配置%s字体", ro)
	}
	entry, err := r.loadFamily(ro, spec)
	if err != nil {
		return nil, err
	}
	r.fontFamilies[ro] = entry
	return entry, nil
}

func (r *Renderer) loadFamily(ro role, spec string) (*fontFamilyEntry, error) {
	entry := &fontFamilyEntry{
		family: canvas.NewFontFamily("songsheet-" + string(ro)),
		styles: map[canvas.FontStyle]bool{},
	}
	if name, ok := builtinName(spec); ok {
		blob, ok := r.fontBlobs[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
		}
		return entry, entry.loadBytes(blob, spec)
	}

	src, err := fonts.Resolve(spec, r.baseDir)
	if err != nil {
		return nil, err
	}
	if src.IsSystem() {
		for _, style := range faceStyles {
			if err := entry.family.LoadSystemFont(src.System, style); err != nil {
				if style == canvas.FontRegular {
					return nil, fmt.Errorf("加载系统字体 %s 失败: %w", src.System, err)
				}
				continue
			}
			entry.styles[style] = true
		}
		return entry, nil
	}
	data, err := fonts.Load(src)
	if err != nil {
		return nil, err
	}
	return entry, entry.loadBytes(data, src.String())
}

// loadBytes 只注册常规样式，其余样式由 face 回落。
func (e *fontFamilyEntry) loadBytes(data []byte, name string) error {
	if err := e.family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return fmt.Errorf("解析字体 %s 失败: %w", name, err)
	}
	e.styles[canvas.FontRegular] = true
	return nil
}

func builtinName(spec string) (string, bool) {
	for _, prefix := range []string{"built-in:", "builtin:"} {
		if strings.HasPrefix(spec, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(spec, prefix)), true
		}
	}
	return "", false
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(strings.TrimSpace(style))
	result := canvas.FontRegular
	if strings.Contains(s, "bold") || strings.Contains(s, "black") {
		result = canvas.FontBold
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

// sectionLabel 把段落标签格式化为 [LABEL]。
func sectionLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.TrimSuffix(strings.TrimPrefix(label, "["), "]")
	return "[" + strings.ToUpper(strings.TrimSpace(label)) + "]"
}

// headerSize 与规划阶段的段落标题高度保持一致。
func headerSize(size float64) float64 { return math.Round(0.85 * size) }

func metaKeywords(meta layout.PlanMeta) []string {
	var out []string
	if meta.Key != "" {
		out = append(out, "key "+meta.Key)
	}
	if meta.Capo > 0 {
		out = append(out, fmt.Sprintf("capo %d", meta.Capo))
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
