package renderer

import "github.com/ByLCY/songsheet/layout"

// Renderer 将排版方案输出为最终文件，例如 PDF。
// 渲染器只按方案中的坐标绘制，不做任何排版决策。
type Renderer interface {
	Render(plan *layout.Plan) ([]byte, error)
}

// PageRasterizer 将方案中的单页栅格化为图像字节。
type PageRasterizer interface {
	RenderJPEG(plan *layout.Plan, pageIndex int, dpi float64) ([]byte, error)
}
