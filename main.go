package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/songsheet/internal/config"
	"github.com/ByLCY/songsheet/layout"
	"github.com/ByLCY/songsheet/measure"
	"github.com/ByLCY/songsheet/renderer"
	canvasrenderer "github.com/ByLCY/songsheet/renderer/canvas"
	"github.com/ByLCY/songsheet/song"
)

// 公共参数。
type globalFlags struct {
	configPath string
	logLevel   string
	lyricFont  string
	chordFont  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "songsheet",
		Short:        "和弦谱排版：选择字号与栏数并输出 PDF 或图片",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML 配置文件路径")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "日志级别：debug、info、warn、error")
	root.PersistentFlags().StringVar(&g.lyricFont, "lyric-font", "", "歌词字体（文件路径或 system:<名称>）")
	root.PersistentFlags().StringVar(&g.chordFont, "chord-font", "", "和弦字体，默认同歌词字体")

	root.AddCommand(newPlanCmd(g), newRenderCmd(g))
	return root
}

func newPlanCmd(g *globalFlags) *cobra.Command {
	var output string
	var fixed bool
	cmd := &cobra.Command{
		Use:   "plan IN",
		Short: "计算排版方案并输出 JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := g.open(cmd, args[0])
			if err != nil {
				return err
			}
			var oracle layout.Oracle = measure.DefaultFixed()
			if !fixed {
				r, err := sess.renderer()
				if err != nil {
					return err
				}
				oracle = r
			}
			plan, err := sess.plan(oracle)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return layout.EncodeJSON(cmd.OutOrStdout(), plan)
			}
			return writePlan(plan, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出路径，默认写到标准输出")
	cmd.Flags().BoolVar(&fixed, "fixed", false, "使用等宽估算代替字体测量")
	return cmd
}

func newRenderCmd(g *globalFlags) *cobra.Command {
	var (
		output   string
		format   string
		page     int
		dpi      float64
		planPath string
	)
	cmd := &cobra.Command{
		Use:   "render IN",
		Short: "排版并渲染为 PDF 或 JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := g.open(cmd, args[0])
			if err != nil {
				return err
			}
			r, err := sess.renderer()
			if err != nil {
				return err
			}
			plan, err := sess.plan(r)
			if err != nil {
				return err
			}
			if planPath != "" {
				if err := writePlan(plan, planPath); err != nil {
					return err
				}
			}

			if format == "" {
				format = sess.cfg.Render.Format
			}
			if dpi <= 0 {
				dpi = sess.cfg.Render.DPI
			}
			format = strings.ToLower(format)
			var data []byte
			switch format {
			case "pdf":
				var out renderer.Renderer = r
				data, err = out.Render(plan)
			case "jpeg", "jpg":
				format = "jpeg"
				var out renderer.PageRasterizer = r
				data, err = out.RenderJPEG(plan, page-1, dpi)
			default:
				return fmt.Errorf("未知的输出格式 %q（可选 pdf、jpeg）", format)
			}
			if err != nil {
				return fmt.Errorf("渲染失败: %w", err)
			}

			if output == "" {
				output = defaultOutput(args[0], format, page, len(plan.Pages))
			}
			if err := writeFile(output, data); err != nil {
				return err
			}
			sess.logger.Info("已生成文件", "path", output, "pages", len(plan.Pages))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出路径，默认与输入同名")
	cmd.Flags().StringVar(&format, "format", "", "输出格式：pdf 或 jpeg")
	cmd.Flags().IntVar(&page, "page", 1, "JPEG 输出的页码（从 1 开始）")
	cmd.Flags().Float64Var(&dpi, "dpi", 0, "JPEG 分辨率")
	cmd.Flags().StringVar(&planPath, "plan-out", "", "同时输出排版方案 JSON 的路径")
	return cmd
}

// session 串联配置、日志与输入歌曲。
type session struct {
	cfg     config.Config
	logger  *slog.Logger
	song    song.Song
	baseDir string
}

func (g *globalFlags) open(cmd *cobra.Command, input string) (*session, error) {
	cfg := config.Defaults()
	if g.configPath != "" {
		file, err := config.Load(g.configPath)
		if err != nil {
			return nil, err
		}
		cfg = config.Merge(cfg, file)
	}
	cfg = config.Merge(cfg, config.Config{
		Fonts: config.Fonts{Lyric: g.lyricFont, Chord: g.chordFont},
		Log:   config.Log{Level: g.logLevel},
	})

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	s, err := readSong(input)
	if err != nil {
		return nil, err
	}
	baseDir := cfg.Fonts.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(input)
	}
	return &session{cfg: cfg, logger: logger, song: s, baseDir: baseDir}, nil
}

func (s *session) renderer() (*canvasrenderer.Renderer, error) {
	r, err := canvasrenderer.New(canvasrenderer.Options{
		BaseDir:    s.baseDir,
		LyricFont:  s.cfg.Fonts.Lyric,
		ChordFont:  s.cfg.Fonts.Chord,
		ChordStyle: s.cfg.Fonts.ChordStyle,
		NoteStyle:  s.cfg.Fonts.NoteStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}
	return r, nil
}

func (s *session) plan(oracle layout.Oracle) (*layout.Plan, error) {
	opts, err := s.cfg.Options(s.logger)
	if err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	cache := measure.NewCache(oracle)
	plan, err := layout.Build(s.song, opts, cache)
	if err != nil {
		var pe *layout.PlanError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("无法排入 %d 栏 %dpt（%s）: %w", pe.Columns, pe.FontSizePt, pe.Reason, err)
		}
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	hits, misses := cache.Stats()
	s.logger.Debug("measure cache", "hits", hits, "misses", misses)
	return plan, nil
}

var chordProExts = map[string]bool{".cho": true, ".chordpro": true, ".chopro": true, ".pro": true, ".crd": true}

// readSong 按扩展名选择输入格式；未知扩展名时按内容判断。
// ChordPro 走严格解析，语法错误带位置报告。
func readSong(path string) (song.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return song.Song{}, fmt.Errorf("无法打开歌曲文件 %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" || (!chordProExts[ext] && json.Valid(data)) {
		return song.Normalize(song.DecodeJSON(data)), nil
	}
	s, err := song.ReadChordPro(bytes.NewReader(data))
	if err != nil {
		return song.Song{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func defaultOutput(input, format string, page, pages int) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if format == "jpeg" && pages > 1 {
		return fmt.Sprintf("%s-%d.jpg", base, page)
	}
	if format == "jpeg" {
		return base + ".jpg"
	}
	return base + ".pdf"
}

func writePlan(plan *layout.Plan, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(plan, path); err != nil {
		return fmt.Errorf("输出排版方案 JSON 失败: %w", err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}
