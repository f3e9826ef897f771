package song

import (
	"encoding/json"
	"strings"
)

// DecodeJSON 根据顶层字段判断 JSON 文档属于哪种历史形态。
// 非法 JSON 或无法匹配时返回 Unknown（尽量保留 title/key）。
func DecodeJSON(data []byte) Input {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Unknown{}
	}

	switch {
	case has(probe, "sections") || has(probe, "meta"):
		var doc ParsedDoc
		if err := json.Unmarshal(data, &doc); err == nil {
			return doc
		}
	case has(probe, "lyricsBlocks"):
		var lb LyricsBlocks
		if err := json.Unmarshal(data, &lb); err == nil {
			return lb
		}
	case isArray(probe["blocks"]):
		var fb FlatBlocks
		if err := json.Unmarshal(data, &fb); err == nil {
			return fb
		}
	case has(probe, "chordpro"):
		var src string
		if err := json.Unmarshal(probe["chordpro"], &src); err == nil {
			return ChordPro{Source: src}
		}
	}

	var head struct {
		Title string `json:"title"`
		Key   string `json:"key"`
	}
	_ = json.Unmarshal(data, &head)
	return Unknown{Title: head.Title, Key: head.Key}
}

func has(m map[string]json.RawMessage, key string) bool {
	raw, ok := m[key]
	return ok && strings.TrimSpace(string(raw)) != "null"
}

func isArray(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "[")
}
