package layout

import (
	"errors"
	"fmt"
)

// ErrNoFeasiblePlan 表示连最小字号下的单栏与双栏兜底都无法排下。
// 调用方应放宽约束（更小的字号、更窄的边距），而不是原样重试。
var ErrNoFeasiblePlan = errors.New("无可行的排版方案")

// 候选内部错误，只用于推进搜索，不会返回给调用方。
var (
	errWidthOverflow  = errors.New("宽度超出栏宽安全边界")
	errTooTall        = errors.New("单个元素高于整栏")
	errAtomicOverflow = errors.New("整段无法放入剩余栏")
)

// PlanError 记录最后一次兜底尝试失败的原因，可通过 errors.Is 判断 ErrNoFeasiblePlan。
type PlanError struct {
	FontSizePt int
	Columns    int
	Reason     string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("%v（字号 %dpt，%d 栏）: %s", ErrNoFeasiblePlan, e.FontSizePt, e.Columns, e.Reason)
}

func (e *PlanError) Unwrap() error { return ErrNoFeasiblePlan }

// reasonOf 把内部错误归类为日志中的简短原因。
func reasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errWidthOverflow):
		return "width-overflow"
	case errors.Is(err, errTooTall):
		return "too-tall"
	case errors.Is(err, errAtomicOverflow):
		return "no-fit"
	default:
		return err.Error()
	}
}
