package layout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ByLCY/songsheet/binding"
	"github.com/ByLCY/songsheet/song"
)

// candidate 是某个 (字号, 栏数) 组合下成功排入单页的试算结果。
type candidate struct {
	size    int
	columns int
	geo     geometry
	cols    []Column
	score   float64
}

// Build 为歌曲选择字号与栏数并生成排版方案。
// 先按字号降序寻找单页方案，找到即停止；全部失败时用最小字号多页排版。
// 对相同输入与测量结果，返回的 Plan 完全一致。
func Build(s song.Song, opts Options, oracle Oracle) (*Plan, error) {
	if oracle == nil {
		return nil, errors.New("未提供文本测量后端")
	}
	o := opts.withDefaults()
	log := o.Logger

	log.Debug("layout start", "title", s.Title, "sections", len(s.Sections), "lines", s.LineCount(), "breakColumns", !o.IgnoreColumnBreaks)

	preferTwo := o.allows(2) && (o.PreferColumns == 2 || (o.PreferColumns == 0 && s.RequestedColumns == 2))

	if s.IsEmpty() {
		geo := newGeometry(o, 1)
		log.Info("layout plan accepted", "pt", o.FontSizes[0], "columns", 1, "pages", 1, "empty", true)
		return finish(s, o, o.FontSizes[0], 1, [][]Column{geo.emptyColumns()}, false, 0), nil
	}

	order := []int{1, 2}
	if preferTwo {
		order = []int{2, 1}
	}

	for _, size := range o.FontSizes {
		var found []*candidate
		for _, cols := range order {
			if !o.allows(cols) {
				continue
			}
			c, err := tryAtomic(s, o, oracle, size, cols)
			if err != nil {
				log.Debug("layout candidate", "pt", size, "columns", cols, "ok", false, "reason", reasonOf(err))
				continue
			}
			found = append(found, c)
		}
		if len(found) == 0 {
			continue
		}

		twoFeasible := false
		for _, c := range found {
			if c.columns == 2 {
				twoFeasible = true
			}
		}
		var best *candidate
		for _, c := range found {
			c.score = scoreCandidate(c.size, c.cols, c.geo.capacity, o.Thresholds, preferTwo, twoFeasible)
			attrs := []any{"pt", size, "columns", c.columns, "ok", true, "reason", "", "score", c.score}
			if o.Debug.TraceCandidates {
				attrs = append(attrs, "occupancy", occupancy(c.cols, c.geo.capacity))
			}
			log.Debug("layout candidate", attrs...)
			if best == nil || c.score > best.score {
				best = c
			}
		}
		log.Info("layout plan accepted", "pt", best.size, "columns", best.columns, "pages", 1, "fallback", false, "score", best.score)
		return finish(s, o, best.size, best.columns, [][]Column{best.cols}, false, best.score), nil
	}

	size := o.minFontSize()
	var lastErr error
	lastCols := 1
	for _, cols := range []int{1, 2} {
		if !o.allows(cols) {
			continue
		}
		pages, err := trySplit(s, o, oracle, size, cols)
		if err != nil {
			log.Debug("layout fallback", "pt", size, "columns", cols, "ok", false, "reason", reasonOf(err))
			lastErr, lastCols = err, cols
			continue
		}
		log.Info("layout plan accepted", "pt", size, "columns", cols, "pages", len(pages), "fallback", true)
		return finish(s, o, size, cols, pages, true, 0), nil
	}
	return nil, &PlanError{FontSizePt: size, Columns: lastCols, Reason: reasonOf(lastErr)}
}

func tryAtomic(s song.Song, o Options, oracle Oracle, size, cols int) (*candidate, error) {
	sections, geo, err := measureSong(s, o, oracle, size, cols)
	if err != nil {
		return nil, err
	}
	columns, err := packAtomic(sections, geo, !o.IgnoreColumnBreaks)
	if err != nil {
		return nil, err
	}
	return &candidate{size: size, columns: cols, geo: geo, cols: columns}, nil
}

func trySplit(s song.Song, o Options, oracle Oracle, size, cols int) ([][]Column, error) {
	sections, geo, err := measureSong(s, o, oracle, size, cols)
	if err != nil {
		return nil, err
	}
	return packSplit(sections, geo, !o.IgnoreColumnBreaks)
}

// measureSong 在给定字号与栏数下测量所有非空段落。
func measureSong(s song.Song, o Options, oracle Oracle, size, cols int) ([]measuredSection, geometry, error) {
	geo := newGeometry(o, cols)
	if !geo.valid() {
		return nil, geo, errWidthOverflow
	}
	pt := float64(size)
	m := metrics{
		size:    pt,
		columns: cols,
		avail:   geo.available(),
		lyric:   oracle.LyricMeasurerAt(pt),
		chord:   oracle.ChordMeasurerAt(pt),
		passes:  o.Thresholds.CollisionPasses,
	}
	out := make([]measuredSection, 0, len(s.Sections))
	for i, sec := range s.Sections {
		if len(sec.Lines) == 0 {
			continue
		}
		ms, err := measureSection(sec, i, m)
		if err != nil {
			return nil, geo, err
		}
		out = append(out, ms)
	}
	return out, geo, nil
}

// finish 组装最终 Plan 并填充页眉/页脚文本。
func finish(s song.Song, o Options, size, cols int, pages [][]Column, fallback bool, score float64) *Plan {
	p := &Plan{
		FontSizePt: size,
		Columns:    cols,
		Fallback:   fallback,
		Score:      score,
		PageSize:   o.Page,
		Margin:     o.Margin,
		Meta:       PlanMeta{Title: s.Title, Key: s.Key, Capo: s.Capo},
		Pages:      make([]Page, len(pages)),
	}
	for i, columns := range pages {
		p.Pages[i] = Page{Number: i + 1, Columns: columns}
	}
	applyTemplates(p, s, o.Templates)
	return p
}

func applyTemplates(p *Plan, s song.Song, t Templates) {
	meta := make(map[string]any, len(s.Meta))
	for k, v := range s.Meta {
		meta[k] = v
	}
	for i := range p.Pages {
		data := map[string]any{
			"title": s.Title,
			"key":   s.Key,
			"capo":  s.Capo,
			"page":  i + 1,
			"pages": len(p.Pages),
			"meta":  meta,
		}
		pg := &p.Pages[i]
		if i == 0 {
			pg.Header = binding.Interpolate(t.Title, data)
			pg.Subheader = binding.Interpolate(t.Subtitle, data)
			if s.Capo > 0 {
				pg.Subheader += binding.Interpolate(t.Capo, data)
			}
		} else {
			pg.Header = binding.Interpolate(t.Continuation, data)
		}
		if t.Footer != "" {
			pg.Footer = binding.Interpolate(t.Footer, data)
		}
	}
}

// String 便于日志输出。
func (p *Plan) String() string {
	if p == nil {
		return "<nil plan>"
	}
	return fmt.Sprintf("%dpt/%d栏/%d页", p.FontSizePt, p.Columns, len(p.Pages))
}

var _ slog.LogValuer = (*Plan)(nil)

// LogValue 实现 slog.LogValuer。
func (p *Plan) LogValue() slog.Value {
	if p == nil {
		return slog.StringValue("<nil>")
	}
	return slog.GroupValue(
		slog.Int("pt", p.FontSizePt),
		slog.Int("columns", p.Columns),
		slog.Int("pages", len(p.Pages)),
		slog.Bool("fallback", p.Fallback),
	)
}
