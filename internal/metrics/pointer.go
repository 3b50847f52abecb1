package metrics

import (
	"math"

	"keytrace/internal/models"
)

const (
	keyAverageVelocity     = "average_velocity"
	keyVelocityVariability = "velocity_variability"
	keyPathEfficiency      = "path_efficiency"
	keyOvershootRate       = "overshoot_rate"
)

var pointerKeys = []string{keyAverageVelocity, keyVelocityVariability, keyPathEfficiency, keyOvershootRate}

const (
	minSegmentPx     = 1.0     // shorter steps are jitter
	minDirectPx      = 10.0    // approaches shorter than this have no meaningful efficiency
	maxVelocityPxS   = 10000.0 // faster samples are tracking glitches
	overshootScalePx = 50.0
	overshootMargin  = 1.1
	minOvershootPath = 5
)

// approach is the run of moves that ended in a click. The click location is the target.
type approach struct {
	moves []models.PointerEvent
	click models.PointerEvent
}

// pointerMetrics derives movement quality from one task's pointer events.
func pointerMetrics(events []models.PointerEvent) Set {
	events = sortedPointer(events)

	var moves []models.PointerEvent
	var approaches []approach
	var pending []models.PointerEvent
	for _, e := range events {
		switch e.Kind {
		case models.PointerMove:
			moves = append(moves, e)
			pending = append(pending, e)
		case models.PointerClick:
			approaches = append(approaches, approach{moves: pending, click: e})
			pending = nil
		}
	}

	velocities := velocitySamples(moves)
	return Set{
		keyAverageVelocity:     averageVelocity(velocities),
		keyVelocityVariability: velocityVariability(velocities),
		keyPathEfficiency:      pathEfficiency(approaches),
		keyOvershootRate:       overshootRate(approaches),
	}
}

// velocitySamples recomputes px/s between consecutive moves, skipping jitter and glitches.
func velocitySamples(moves []models.PointerEvent) []float64 {
	var out []float64
	for i := 1; i < len(moves); i++ {
		dt := moves[i].Timestamp.Sub(moves[i-1].Timestamp) / 1000
		if dt <= 0 {
			continue
		}
		d := distance(moves[i-1].X, moves[i-1].Y, moves[i].X, moves[i].Y)
		if d < minSegmentPx {
			continue
		}
		if v := d / dt; v < maxVelocityPxS {
			out = append(out, v)
		}
	}
	return out
}

// averageVelocity is a 5% trimmed mean once there are more than ten samples.
func averageVelocity(velocities []float64) MetricResult {
	if len(velocities) == 0 {
		return notCalculated(0)
	}
	if len(velocities) > 10 {
		velocities = trimmed(velocities, 0.05)
	}
	return calculated(mean(velocities), len(velocities))
}

func velocityVariability(velocities []float64) MetricResult {
	if len(velocities) < 3 {
		return notCalculated(len(velocities))
	}
	if len(velocities) > 10 {
		// Keep the IQR-filtered set only if it retains most samples.
		if kept := iqrFilter(velocities); len(kept) > len(velocities)/2 {
			velocities = kept
		}
	}
	avg := mean(velocities)
	return calculated(coefficientOfVariation(velocities, avg), len(velocities))
}

// pathEfficiency is the straight-line distance over the travelled distance for each
// approach, averaged. 1 means a perfectly direct path.
func pathEfficiency(approaches []approach) MetricResult {
	var total float64
	count := 0
	for _, a := range approaches {
		if len(a.moves) < 2 {
			continue
		}
		start := a.moves[0]
		direct := distance(start.X, start.Y, a.click.X, a.click.Y)
		if direct < minDirectPx {
			continue
		}

		travelled := 0.0
		lastX, lastY := start.X, start.Y
		for _, m := range a.moves[1:] {
			if d := distance(lastX, lastY, m.X, m.Y); d > minSegmentPx {
				travelled += d
				lastX, lastY = m.X, m.Y
			}
		}
		if d := distance(lastX, lastY, a.click.X, a.click.Y); d > minSegmentPx {
			travelled += d
		}
		if travelled <= 0 {
			continue
		}

		total += math.Min(direct/travelled, 1)
		count++
	}
	if count == 0 {
		return notCalculated(0)
	}
	return calculated(total/float64(count), count)
}

// overshootRate scores approaches where the pointer came close to the click point, moved
// away again, and had to come back. The score grows with the distance of the excursion.
func overshootRate(approaches []approach) MetricResult {
	var total float64
	count := 0
	for _, a := range approaches {
		if len(a.moves) < minOvershootPath {
			continue
		}

		closest, closestIdx := -1.0, -1
		for i, m := range a.moves {
			d := distance(m.X, m.Y, a.click.X, a.click.Y)
			if closest < 0 || d < closest {
				closest, closestIdx = d, i
			}
		}

		score := 0.0
		if closestIdx > 0 && closestIdx < len(a.moves)-1 {
			farthest := 0.0
			for _, m := range a.moves[closestIdx+1:] {
				farthest = math.Max(farthest, distance(m.X, m.Y, a.click.X, a.click.Y))
			}
			if farthest > closest*overshootMargin {
				score = math.Min(1, (farthest-closest)/overshootScalePx)
			}
		}

		total += score
		count++
	}
	if count == 0 {
		return notCalculated(0)
	}
	return calculated(total/float64(count), count)
}
