// Package fonts 解析字体来源：相对资源目录的文件路径，或 system:<名称> 形式的系统字体。
package fonts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const systemPrefix = "system:"

// Default 是未配置字体时使用的系统字体名。
const Default = "system:DejaVu Sans"

// ErrSystemFont 表示来源是系统字体，需要由渲染后端按名称加载。
var ErrSystemFont = errors.New("系统字体需由渲染后端按名称加载")

// Source 是解析后的字体来源，Path 与 System 二者之一非空。
type Source struct {
	Path   string
	System string
}

// IsSystem 报告是否为系统字体。
func (s Source) IsSystem() bool { return s.System != "" }

func (s Source) String() string {
	if s.IsSystem() {
		return systemPrefix + s.System
	}
	return s.Path
}

// Resolve 解析字体描述；相对路径基于 baseDir。
func Resolve(spec, baseDir string) (Source, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Source{}, fmt.Errorf("字体来源为空")
	}
	if strings.HasPrefix(spec, systemPrefix) {
		name := strings.TrimSpace(strings.TrimPrefix(spec, systemPrefix))
		if name == "" {
			return Source{}, fmt.Errorf("系统字体名称为空: %q", spec)
		}
		return Source{System: name}, nil
	}
	path := spec
	if !filepath.IsAbs(path) {
		if baseDir == "" {
			return Source{}, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用绝对路径或 system:）", spec)
		}
		path = filepath.Join(baseDir, path)
	}
	return Source{Path: filepath.Clean(path)}, nil
}

// Load 读取文件字体的字节；系统字体返回 ErrSystemFont。
func Load(src Source) ([]byte, error) {
	if src.IsSystem() {
		return nil, ErrSystemFont
	}
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src.Path, err)
	}
	return data, nil
}
