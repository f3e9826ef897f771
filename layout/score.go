package layout

import "math"

// occupancy 返回各栏已用高度占容量的比例。
func occupancy(cols []Column, capacity float64) []float64 {
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = c.HeightPt / capacity
	}
	return out
}

// scoreCandidate 对单页候选打分：字号优先，其次是双栏平衡度，再扣除占用率惩罚与栏数偏置。
// twoColumnFeasible 仅影响单栏候选的稀疏惩罚。
func scoreCandidate(size int, cols []Column, capacity float64, t Thresholds, preferTwo, twoColumnFeasible bool) float64 {
	occ := occupancy(cols, capacity)
	balance := 1.0
	if len(cols) == 2 {
		balance = 1 - math.Abs(cols[0].HeightPt-cols[1].HeightPt)/capacity
	}

	penalty := 0.0
	if len(cols) == 2 && occ[1] < t.NearEmptyColumn {
		penalty += t.NearEmptyPenalty
	}
	for _, o := range occ {
		if o > t.TooFull {
			penalty += t.TooFullPenalty
			break
		}
	}
	if len(cols) == 1 && occ[0] < t.SparseSingleColumn && twoColumnFeasible {
		penalty += t.SparseSinglePenalty
	}

	score := float64(size)*100 + balance*10 - penalty
	if len(cols) == 2 {
		if preferTwo {
			score += t.PreferTwoColumnsBonus
		} else {
			score -= t.TwoColumnBias
		}
	}
	return score
}
