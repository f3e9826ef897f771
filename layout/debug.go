package layout

import (
	"encoding/json"
	"io"
	"os"
)

// WriteDebugJSON 将排版方案输出为 JSON 文件，便于调试或可视化。
func WriteDebugJSON(p *Plan, path string) error {
	if p == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeJSON(f, p)
}

// EncodeJSON 以缩进格式写出排版方案。
func EncodeJSON(w io.Writer, p *Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
