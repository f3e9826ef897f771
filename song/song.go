package song

// 该文件定义歌曲的规范模型，布局引擎只接受这一种形态。

// LineKind 区分三种行类型。
type LineKind int

const (
	KindLyric LineKind = iota
	KindComment
	KindInstrumental
)

func (k LineKind) String() string {
	switch k {
	case KindLyric:
		return "lyric"
	case KindComment:
		return "comment"
	case KindInstrumental:
		return "instrumental"
	default:
		return "unknown"
	}
}

// Song 是规范化之后的歌曲，构建完成后视为只读。
type Song struct {
	Title            string            `json:"title"`
	Key              string            `json:"key"`
	Capo             int               `json:"capo,omitempty"`
	RequestedColumns int               `json:"requestedColumns,omitempty"` // 来源文档的分栏提示，0 表示未指定
	Meta             map[string]string `json:"meta,omitempty"`
	Sections         []Section         `json:"sections"`
}

// Section 是排版时不可拆分的最小单元。
// BreakAfter 为 true 时，排版器在该段之后尝试换到下一栏。
type Section struct {
	Label      string `json:"label"`
	Lines      []Line `json:"lines"`
	BreakAfter bool   `json:"breakAfter,omitempty"`
}

// Line 是带标签的变体：歌词行、注释行或器乐行。
// 只有 Kind 对应的字段有意义。
type Line struct {
	Kind   LineKind    `json:"kind"`
	Text   string      `json:"text,omitempty"`   // lyric/comment
	Chords []ChordMark `json:"chords,omitempty"` // lyric
	Tokens []string    `json:"tokens,omitempty"` // instrumental
	Repeat int         `json:"repeat,omitempty"` // instrumental, >1 才有意义
}

// ChordMark 将和弦锚定在未折行歌词的字符（rune）偏移上，而不是像素坐标。
type ChordMark struct {
	Symbol    string `json:"symbol"`
	CharIndex int    `json:"charIndex"`
}

// LyricLine 构造歌词行。
func LyricLine(text string, chords ...ChordMark) Line {
	return Line{Kind: KindLyric, Text: text, Chords: chords}
}

// CommentLine 构造注释行（斜体渲染，不携带和弦）。
func CommentLine(text string) Line {
	return Line{Kind: KindComment, Text: text}
}

// InstrumentalLine 构造只有和弦的器乐行。
func InstrumentalLine(tokens []string, repeat int) Line {
	if repeat < 2 {
		repeat = 0
	}
	return Line{Kind: KindInstrumental, Tokens: tokens, Repeat: repeat}
}

// IsEmpty 表示没有可排版的内容。
func (s Song) IsEmpty() bool { return len(s.Sections) == 0 }

// LineCount 返回所有段落的行数之和。
func (s Song) LineCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Lines)
	}
	return n
}

// MapChords 返回一份副本，其中每个和弦符号都经 fn 改写，字符偏移保持不变。
// 移调函数由调用方在规划之前通过它注入。
func (s Song) MapChords(fn func(symbol string) string) Song {
	if fn == nil {
		return s
	}
	out := s
	out.Sections = make([]Section, len(s.Sections))
	for i, sec := range s.Sections {
		lines := make([]Line, len(sec.Lines))
		for j, ln := range sec.Lines {
			cp := ln
			if len(ln.Chords) > 0 {
				cp.Chords = make([]ChordMark, len(ln.Chords))
				for k, c := range ln.Chords {
					cp.Chords[k] = ChordMark{Symbol: fn(c.Symbol), CharIndex: c.CharIndex}
				}
			}
			if len(ln.Tokens) > 0 {
				cp.Tokens = make([]string, len(ln.Tokens))
				for k, tok := range ln.Tokens {
					cp.Tokens[k] = fn(tok)
				}
			}
			lines[j] = cp
		}
		out.Sections[i] = Section{Label: sec.Label, Lines: lines, BreakAfter: sec.BreakAfter}
	}
	return out
}
