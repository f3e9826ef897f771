package song

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ByLCY/songsheet/dsl"
)

var (
	repeatSuffix = regexp.MustCompile(`(?i)^x(\d+)$`)

	shortEnvironments = map[string]string{
		"v": "verse",
		"c": "chorus",
		"b": "bridge",
	}
)

// fromChordPro 把 ChordPro 文本转换为 Song；解析失败时退化为空歌曲。
func fromChordPro(src string) Song {
	sheet, err := dsl.ParseString(src)
	if err != nil {
		return Song{Title: defaultTitle, Key: defaultKey, Sections: []Section{}}
	}
	return fromSheet(sheet)
}

// ReadChordPro 从 r 读取 ChordPro 文本；与 Normalize 不同，语法错误会带位置返回。
func ReadChordPro(r io.Reader) (Song, error) {
	sheet, err := dsl.Parse(r)
	if err != nil {
		return Song{}, fmt.Errorf("解析 ChordPro 失败: %w", err)
	}
	return fromSheet(sheet), nil
}

func fromSheet(sheet *dsl.Sheet) Song {
	out := Song{Title: defaultTitle, Key: defaultKey}
	var (
		blocks []rawBlock
		cur    rawBlock
		inEnv  bool
	)
	flush := func() {
		if len(cur.lines) > 0 {
			blocks = append(blocks, cur)
		}
		cur = rawBlock{}
	}
	// markBreak 把换栏标记挂在当前块上；当前块为空时挂在上一个块上。
	// 环境内的换栏把段落切开，后半段不再重复标签。
	markBreak := func() {
		if len(cur.lines) > 0 {
			cur.breakAfter = true
			flush()
			return
		}
		if len(blocks) > 0 {
			blocks[len(blocks)-1].breakAfter = true
		}
	}

	for _, line := range sheet.Lines {
		if isHashComment(line) {
			continue
		}
		if line.IsBlank() {
			if !inEnv {
				flush()
			}
			continue
		}
		if d := line.OnlyDirective(); d != nil {
			switch {
			case d.Name == "title" || d.Name == "t":
				if d.Value != "" {
					out.Title = d.Value
				}
			case d.Name == "key":
				if d.Value != "" {
					out.Key = d.Value
				}
			case d.Name == "capo":
				if n, err := strconv.Atoi(d.Value); err == nil && n > 0 {
					out.Capo = n
				}
			case d.Name == "columns" || d.Name == "col":
				if n, err := strconv.Atoi(d.Value); err == nil && n > 0 {
					out.RequestedColumns = 1
					if n == 2 {
						out.RequestedColumns = 2
					}
				}
			case d.Name == "column_break" || d.Name == "colb":
				markBreak()
			case d.Name == "comment" || d.Name == "c" || d.Name == "ci" || d.Name == "comment_italic":
				if d.Value != "" {
					cur.lines = append(cur.lines, CommentLine(d.Value))
				}
			case d.Name == "instrumental" || d.Name == "inst":
				if ln, ok := parseInstrumental(d.Value); ok {
					cur.lines = append(cur.lines, ln)
				}
			case isStartDirective(d.Name):
				flush()
				cur = rawBlock{label: environmentLabel(d)}
				inEnv = true
			case isEndDirective(d.Name):
				flush()
				inEnv = false
			case d.Value != "":
				if out.Meta == nil {
					out.Meta = map[string]string{}
				}
				out.Meta[d.Name] = d.Value
			}
			continue
		}

		ln := lyricFromSheetLine(line)
		if len(ln.Chords) == 0 && !inEnv && IsSectionLabel(ln.Text) {
			flush()
			cur = rawBlock{label: titleCaser.String(strings.TrimSpace(ln.Text))}
			continue
		}
		cur.lines = append(cur.lines, ln)
	}
	flush()
	out.Sections = injectSections(blocks)
	return out
}

// lyricFromSheetLine 拼接歌词文本，和弦锚定在其之前已累积文本的 rune 偏移上。
func lyricFromSheetLine(line *dsl.SheetLine) Line {
	var (
		text   strings.Builder
		chords []ChordMark
		offset int
	)
	for _, p := range line.Parts {
		switch {
		case p.Text != nil:
			text.WriteString(*p.Text)
			offset += utf8.RuneCountInString(*p.Text)
		case p.Chord != nil:
			if sym := string(*p.Chord); sym != "" {
				chords = append(chords, ChordMark{Symbol: sym, CharIndex: offset})
			}
		}
	}
	s := strings.TrimRight(text.String(), " \t")
	n := utf8.RuneCountInString(s)
	for i := range chords {
		if chords[i].CharIndex > n {
			chords[i].CharIndex = n
		}
	}
	return LyricLine(s, chords...)
}

// parseInstrumental 解析 "C G D x2" 形式的器乐行，末尾的 xN 表示重复次数。
func parseInstrumental(value string) (Line, bool) {
	fields := strings.Fields(value)
	repeat := 0
	if n := len(fields); n > 0 {
		if m := repeatSuffix.FindStringSubmatch(fields[n-1]); m != nil {
			repeat, _ = strconv.Atoi(m[1])
			fields = fields[:n-1]
		}
	}
	tokens := fields[:0]
	for _, f := range fields {
		if f == "|" || f == "//" {
			continue
		}
		tokens = append(tokens, f)
	}
	if len(tokens) == 0 {
		return Line{}, false
	}
	return InstrumentalLine(tokens, repeat), true
}

func isHashComment(line *dsl.SheetLine) bool {
	if len(line.Parts) == 0 || line.Parts[0].Text == nil {
		return false
	}
	return strings.HasPrefix(strings.TrimLeft(*line.Parts[0].Text, " \t"), "#")
}

func isStartDirective(name string) bool {
	if strings.HasPrefix(name, "start_of_") {
		return true
	}
	_, ok := shortEnvironments[strings.TrimPrefix(name, "so")]
	return strings.HasPrefix(name, "so") && ok
}

func isEndDirective(name string) bool {
	if strings.HasPrefix(name, "end_of_") {
		return true
	}
	_, ok := shortEnvironments[strings.TrimPrefix(name, "eo")]
	return strings.HasPrefix(name, "eo") && ok
}

// environmentLabel 优先使用指令值，否则由环境名推导（start_of_pre_chorus → Pre Chorus）。
func environmentLabel(d *dsl.Directive) string {
	if d.Value != "" {
		return d.Value
	}
	env := strings.TrimPrefix(d.Name, "start_of_")
	if full, ok := shortEnvironments[strings.TrimPrefix(d.Name, "so")]; ok && strings.HasPrefix(d.Name, "so") {
		env = full
	}
	return titleCaser.String(strings.ReplaceAll(env, "_", " "))
}
