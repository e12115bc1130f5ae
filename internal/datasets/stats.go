package datasets

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/itembank/backend/internal/irt"
	"github.com/itembank/backend/internal/models"
)

// Classical summaries over the raw matrix. These describe the data
// itself and take no position on any fitted model.

// ItemStats reports, per item, the number of persons who answered it,
// the proportion correct among them, and the item-total correlation.
// Discrimination is left nil when it is undefined: fewer than two
// answers, or no variance in either the item or the total scores.
func ItemStats(data irt.Matrix) []models.ItemStat {
	persons, items := data.Dims()
	totals := rawScores(data)

	stats := make([]models.ItemStat, items)
	for j := 0; j < items; j++ {
		var scores, sums []float64
		correct := 0
		for i := 0; i < persons; i++ {
			cell := data[i][j]
			if cell == irt.Missing {
				continue
			}
			if cell == irt.Correct {
				correct++
			}
			scores = append(scores, float64(cell))
			sums = append(sums, totals[i])
		}

		st := models.ItemStat{ItemIndex: j, Answered: len(scores)}
		if len(scores) > 0 {
			st.PValue = float64(correct) / float64(len(scores))
		}
		if len(scores) >= 2 {
			if r := stat.Correlation(scores, sums, nil); !math.IsNaN(r) {
				st.Discrimination = &r
			}
		}
		stats[j] = st
	}
	return stats
}

// PersonScores reports each person's answered count and raw sum score.
func PersonScores(data irt.Matrix) []models.PersonScore {
	scores := make([]models.PersonScore, len(data))
	for i, row := range data {
		ps := models.PersonScore{PersonIndex: i}
		for _, cell := range row {
			if cell == irt.Missing {
				continue
			}
			ps.Answered++
			if cell == irt.Correct {
				ps.RawScore++
			}
		}
		scores[i] = ps
	}
	return scores
}

// CronbachAlpha estimates internal consistency over the rows with no
// missing cells. It returns nil when the estimate is undefined: fewer
// than two items, fewer than two complete rows, or zero variance in
// the total scores. The item and total variances enter only as a
// ratio, so the sample divisor in stat.Variance cancels. The result
// is clamped to [0, 1].
func CronbachAlpha(data irt.Matrix) *float64 {
	_, items := data.Dims()
	if items < 2 {
		return nil
	}

	cols := make([][]float64, items)
	var totals []float64
	for _, row := range data {
		complete := true
		for _, cell := range row {
			if cell == irt.Missing {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		total := 0.0
		for j, cell := range row {
			cols[j] = append(cols[j], float64(cell))
			total += float64(cell)
		}
		totals = append(totals, total)
	}
	if len(totals) < 2 {
		return nil
	}

	totalVar := stat.Variance(totals, nil)
	if totalVar == 0 {
		return nil
	}

	itemVarSum := 0.0
	for _, col := range cols {
		itemVarSum += stat.Variance(col, nil)
	}

	k := float64(items)
	alpha := (k / (k - 1)) * (1 - itemVarSum/totalVar)
	alpha = math.Max(0, math.Min(1, alpha))
	return &alpha
}

// rawScores sums each person's correct responses across all items
// they answered.
func rawScores(data irt.Matrix) []float64 {
	scores := make([]float64, len(data))
	for i, row := range data {
		for _, cell := range row {
			if cell == irt.Correct {
				scores[i]++
			}
		}
	}
	return scores
}
