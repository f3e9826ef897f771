package song

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultTitle = "Untitled"
	defaultKey   = "C"
)

// sectionLabelPattern 是兼容规则：无和弦且只包含段落名的歌词行会被提升为段落边界。
var sectionLabelPattern = regexp.MustCompile(`(?i)^(?:verse(?:\s*\d+)?|chorus|bridge|tag|pre[-\s]?chorus|intro|outro|ending|refrain)\s*\d*$`)

var titleCaser = cases.Title(language.Und)

// IsSectionLabel 判断一行纯文本是否为常见段落名（如 "Verse 2"、"Chorus"）。
func IsSectionLabel(text string) bool {
	return sectionLabelPattern.MatchString(strings.TrimSpace(text))
}

// Normalize 将任意已知历史形态转换为规范 Song。
// 无法识别的输入返回空段落的 Song，而不是错误。
func Normalize(in Input) Song {
	switch v := in.(type) {
	case ParsedDoc:
		return fromParsedDoc(v)
	case *ParsedDoc:
		if v != nil {
			return fromParsedDoc(*v)
		}
	case LyricsBlocks:
		return fromLyricsBlocks(v)
	case *LyricsBlocks:
		if v != nil {
			return fromLyricsBlocks(*v)
		}
	case FlatBlocks:
		return fromFlatBlocks(v)
	case *FlatBlocks:
		if v != nil {
			return fromFlatBlocks(*v)
		}
	case ChordPro:
		return fromChordPro(v.Source)
	case *ChordPro:
		if v != nil {
			return fromChordPro(v.Source)
		}
	case Unknown:
		return Song{Title: orDefault(v.Title, defaultTitle), Key: orDefault(v.Key, defaultKey), Sections: []Section{}}
	}
	return Song{Title: defaultTitle, Key: defaultKey, Sections: []Section{}}
}

// rawBlock 是规范化的中间结果，label 为空表示来源未标注段落。
type rawBlock struct {
	label      string
	lines      []Line
	breakAfter bool
}

func fromParsedDoc(doc ParsedDoc) Song {
	out := Song{
		Title: orDefault(doc.Meta.Title, defaultTitle),
		Key:   orDefault(doc.Meta.Key, defaultKey),
		Capo:  doc.Meta.Capo,
		Meta:  copyMeta(doc.Meta.Meta),
	}
	if doc.LayoutHints != nil && (doc.LayoutHints.RequestedColumns == 1 || doc.LayoutHints.RequestedColumns == 2) {
		out.RequestedColumns = doc.LayoutHints.RequestedColumns
	}
	blocks := make([]rawBlock, 0, len(doc.Sections))
	for _, sec := range doc.Sections {
		label := strings.TrimSpace(sec.Label)
		if label == "" && strings.TrimSpace(sec.Kind) != "" {
			label = titleCaser.String(strings.TrimSpace(sec.Kind))
		}
		b := rawBlock{label: label}
		for _, ln := range sec.Lines {
			b.lines = append(b.lines, convertLine(ln.Lyrics, ln.Chords, ln.Comment, ln.Instrumental)...)
		}
		blocks = append(blocks, b)
	}
	if doc.LayoutHints != nil {
		for _, n := range doc.LayoutHints.ColumnBreakAfter {
			if n >= 1 && n <= len(blocks) {
				blocks[n-1].breakAfter = true
			}
		}
	}
	out.Sections = injectSections(blocks)
	return out
}

func fromLyricsBlocks(in LyricsBlocks) Song {
	out := Song{
		Title: orDefault(in.Title, defaultTitle),
		Key:   orDefault(in.Key, orDefault(in.OriginalKey, defaultKey)),
		Capo:  in.Capo,
	}
	blocks := make([]rawBlock, 0, len(in.Blocks))
	for _, lb := range in.Blocks {
		label := strings.TrimSpace(lb.Section)
		b := rawBlock{label: label}
		for _, ln := range lb.Lines {
			text := firstNonEmpty(ln.Plain, ln.Text, ln.Lyrics)
			chords := ln.ChordPositions
			if len(chords) == 0 {
				chords = ln.Chords
			}
			b.lines = append(b.lines, convertLine(text, chords, ln.Comment, ln.Instrumental)...)
		}
		blocks = append(blocks, b)
	}
	out.Sections = injectSections(blocks)
	return out
}

func fromFlatBlocks(in FlatBlocks) Song {
	out := Song{
		Title: orDefault(in.Title, defaultTitle),
		Key:   orDefault(in.Key, orDefault(in.OriginalKey, defaultKey)),
	}
	var blocks []rawBlock
	cur := rawBlock{}
	for _, fb := range in.Blocks {
		switch strings.ToLower(fb.Type) {
		case "section":
			if len(cur.lines) > 0 {
				blocks = append(blocks, cur)
			}
			label := strings.TrimSpace(fb.Header)
			cur = rawBlock{label: label}
		case "line":
			cur.lines = append(cur.lines, convertLine(firstNonEmpty(fb.Lyrics, fb.Text), fb.Chords, "", nil)...)
		}
	}
	if len(cur.lines) > 0 {
		blocks = append(blocks, cur)
	}
	out.Sections = injectSections(blocks)
	return out
}

// convertLine 把一条来源行转换为一到两行：注释在前，其后是器乐行或歌词行。
// 器乐行优先于歌词；只有注释时不再补空歌词行。
func convertLine(text string, chords []Placement, comment string, inst *Instrumental) []Line {
	var out []Line
	if c := strings.TrimSpace(comment); c != "" {
		out = append(out, CommentLine(c))
	}
	if inst != nil {
		tokens := make([]string, 0, len(inst.Chords))
		for _, c := range inst.Chords {
			if c = strings.TrimSpace(c); c != "" {
				tokens = append(tokens, c)
			}
		}
		return append(out, InstrumentalLine(tokens, inst.Repeat))
	}
	if len(out) > 0 && strings.TrimSpace(text) == "" {
		return out
	}
	return append(out, lyricWithPlacements(text, chords))
}

func lyricWithPlacements(text string, chords []Placement) Line {
	n := utf8.RuneCountInString(text)
	marks := make([]ChordMark, 0, len(chords))
	for _, c := range chords {
		idx := c.Index
		if idx < 0 {
			idx = 0
		}
		if idx > n {
			idx = n
		}
		marks = append(marks, ChordMark{Symbol: strings.TrimSpace(c.Sym), CharIndex: idx})
	}
	sort.SliceStable(marks, func(i, j int) bool { return marks[i].CharIndex < marks[j].CharIndex })
	if len(marks) == 0 {
		marks = nil
	}
	return LyricLine(text, marks...)
}

// injectSections 按段落名拆分各块，并丢弃没有行的段落。
// 已标注块的首行若与标签相同则视为重复标题并跳过。
// 块上的换栏标记落在它产生的最后一个非空段落上。
func injectSections(blocks []rawBlock) []Section {
	out := []Section{}
	var cur *Section
	flush := func() {
		if cur != nil && len(cur.Lines) > 0 {
			out = append(out, *cur)
		}
		cur = nil
	}
	for _, b := range blocks {
		cur = &Section{Label: b.label}
		for _, ln := range b.lines {
			if ln.Kind == KindLyric && len(ln.Chords) == 0 && IsSectionLabel(ln.Text) {
				label := strings.TrimSpace(ln.Text)
				if len(cur.Lines) == 0 && strings.EqualFold(label, cur.Label) {
					continue
				}
				flush()
				cur = &Section{Label: label}
				continue
			}
			cur.Lines = append(cur.Lines, ln)
		}
		flush()
		if b.breakAfter && len(out) > 0 {
			out[len(out)-1].BreakAfter = true
		}
	}
	return out
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func copyMeta(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
