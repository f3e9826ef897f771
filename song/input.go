package song

// Input 是历史上出现过的几种歌曲形态的和类型，由 Normalize 穷举处理。
type Input interface {
	isInput()
}

// Placement 是各历史形态共用的和弦位置记录。
type Placement struct {
	Sym   string `json:"sym"`
	Index int    `json:"index"`
}

// Instrumental 描述纯和弦的器乐行。
type Instrumental struct {
	Chords []string `json:"chords"`
	Repeat int      `json:"repeat,omitempty"`
}

// ParsedDoc 对应解析器输出的 meta+sections 形态。
type ParsedDoc struct {
	Meta        DocMeta         `json:"meta"`
	Sections    []ParsedSection `json:"sections"`
	LayoutHints *LayoutHints    `json:"layoutHints,omitempty"`
}

// DocMeta 保存文档元信息。
type DocMeta struct {
	Title string            `json:"title"`
	Key   string            `json:"key"`
	Capo  int               `json:"capo,omitempty"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// LayoutHints 是作者给出的版式提示。
// ColumnBreakAfter 中的 n 表示在前 n 个段落之后换栏。
type LayoutHints struct {
	RequestedColumns int   `json:"requestedColumns,omitempty"`
	ColumnBreakAfter []int `json:"columnBreakAfter,omitempty"`
}

type ParsedSection struct {
	Kind  string       `json:"kind"`
	Label string       `json:"label,omitempty"`
	Lines []ParsedLine `json:"lines"`
}

type ParsedLine struct {
	Lyrics       string        `json:"lyrics"`
	Chords       []Placement   `json:"chords,omitempty"`
	Comment      string        `json:"comment,omitempty"`
	Instrumental *Instrumental `json:"instrumental,omitempty"`
}

// LyricsBlocks 对应旧版 lyricsBlocks 形态。
type LyricsBlocks struct {
	Title       string        `json:"title"`
	Key         string        `json:"key"`
	OriginalKey string        `json:"originalKey"`
	Capo        int           `json:"capo,omitempty"`
	Blocks      []LyricsBlock `json:"lyricsBlocks"`
}

type LyricsBlock struct {
	Section string       `json:"section,omitempty"`
	Lines   []LegacyLine `json:"lines"`
}

// LegacyLine 兼容 plain/text/lyrics 与 chordPositions/chords 的别名字段。
type LegacyLine struct {
	Plain          string        `json:"plain,omitempty"`
	Text           string        `json:"text,omitempty"`
	Lyrics         string        `json:"lyrics,omitempty"`
	ChordPositions []Placement   `json:"chordPositions,omitempty"`
	Chords         []Placement   `json:"chords,omitempty"`
	Comment        string        `json:"comment,omitempty"`
	Instrumental   *Instrumental `json:"instrumental,omitempty"`
}

// FlatBlocks 对应扁平的 blocks 数组形态（section/line 交替出现）。
type FlatBlocks struct {
	Title       string      `json:"title"`
	Key         string      `json:"key"`
	OriginalKey string      `json:"originalKey"`
	Blocks      []FlatBlock `json:"blocks"`
}

type FlatBlock struct {
	Type   string      `json:"type"` // "section" | "line"
	Header string      `json:"header,omitempty"`
	Lyrics string      `json:"lyrics,omitempty"`
	Text   string      `json:"text,omitempty"`
	Chords []Placement `json:"chords,omitempty"`
}

// ChordPro 是原始 ChordPro 文本。
type ChordPro struct {
	Source string
}

// Unknown 表示无法识别的输入，规范化结果为空段落的 Song。
type Unknown struct {
	Title string
	Key   string
}

func (ParsedDoc) isInput()    {}
func (LyricsBlocks) isInput() {}
func (FlatBlocks) isInput()   {}
func (ChordPro) isInput()     {}
func (Unknown) isInput()      {}
