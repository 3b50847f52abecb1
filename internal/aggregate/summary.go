package aggregate

import (
	"keytrace/internal/metrics"
	"keytrace/internal/models"
)

// KeyPattern is one completed key press in a summary series.
type KeyPattern struct {
	Timestamp  models.Millis `json:"timestamp"`
	DwellTime  float64       `json:"dwellTime"`
	FlightTime float64       `json:"flightTime"`
}

// PointerMovement is one pointer move in a summary series.
type PointerMovement struct {
	Timestamp    models.Millis `json:"timestamp"`
	Speed        float64       `json:"speed"`
	Acceleration float64       `json:"acceleration"`
}

// Summary is the per-task view of a session's telemetry.
type Summary struct {
	TaskType          models.TaskType   `json:"taskType"`
	CompletionTime    int64             `json:"completionTime"`
	KeystrokeCount    int               `json:"keystrokeCount"`
	PointerEventCount int               `json:"pointerEventCount"`
	KeystrokePatterns []KeyPattern      `json:"keystrokePatterns"`
	PointerMovements  []PointerMovement `json:"pointerMovements"`
	AvgDwellTime      float64           `json:"avgDwellTime"`
	AvgFlightTime     float64           `json:"avgFlightTime"`
	AvgSpeed          float64           `json:"avgSpeed"`
	AvgAcceleration   float64           `json:"avgAcceleration"`
	Metrics           metrics.Set       `json:"metrics"`
}

// Empty reports whether the summary has no series data to plot.
func (s Summary) Empty() bool {
	return len(s.KeystrokePatterns) == 0 && len(s.PointerMovements) == 0
}

// Select picks one task's summary. ok is false when there is nothing for that task yet,
// which is different from a summary whose series are empty.
func Select(summaries map[models.TaskType]Summary, taskType models.TaskType) (Summary, bool) {
	s, ok := summaries[taskType]
	return s, ok
}

type partition struct {
	keys    []models.KeyEvent
	pointer []models.PointerEvent
}

// Build computes one summary per reported task type. Events are partitioned by their
// recorded task type and keep the order they were fetched in. Task types with no data
// still get a zero-valued summary.
// KeystrokePatterns and AvgDwellTime cover completed presses (key-up records) only, while
// KeystrokeCount counts every key record; PointerMovements likewise holds move records only.
func Build(completions []models.TaskCompletion, keys []models.KeyEvent, pointer []models.PointerEvent) map[models.TaskType]Summary {
	parts := make(map[models.TaskType]*partition, len(models.SummaryTaskTypes))
	for _, t := range models.SummaryTaskTypes {
		parts[t] = &partition{}
	}
	for _, e := range keys {
		if p, ok := parts[e.TaskType]; ok {
			p.keys = append(p.keys, e)
		}
	}
	for _, e := range pointer {
		if p, ok := parts[e.TaskType]; ok {
			p.pointer = append(p.pointer, e)
		}
	}

	durations := make(map[models.TaskType]int64, len(completions))
	for _, c := range completions {
		if _, seen := durations[c.TaskType]; !seen {
			durations[c.TaskType] = c.Duration
		}
	}

	out := make(map[models.TaskType]Summary, len(parts))
	for t, p := range parts {
		out[t] = summarize(t, durations[t], p)
	}
	return out
}

func summarize(taskType models.TaskType, completion int64, p *partition) Summary {
	s := Summary{
		TaskType:          taskType,
		CompletionTime:    completion,
		KeystrokeCount:    len(p.keys),
		PointerEventCount: len(p.pointer),
		KeystrokePatterns: []KeyPattern{},
		PointerMovements:  []PointerMovement{},
		Metrics:           metrics.Calculate(p.keys, p.pointer),
	}

	var dwell, flight float64
	for _, e := range p.keys {
		if e.Kind != models.KeyUp {
			continue
		}
		kp := KeyPattern{
			Timestamp:  e.Timestamp,
			DwellTime:  models.ValueOr(e.DwellTime, 0),
			FlightTime: models.ValueOr(e.FlightTime, 0),
		}
		dwell += kp.DwellTime
		flight += kp.FlightTime
		s.KeystrokePatterns = append(s.KeystrokePatterns, kp)
	}

	var speed, accel float64
	for _, e := range p.pointer {
		if e.Kind != models.PointerMove {
			continue
		}
		pm := PointerMovement{
			Timestamp:    e.Timestamp,
			Speed:        models.ValueOr(e.Speed, 0),
			Acceleration: models.ValueOr(e.Acceleration, 0),
		}
		speed += pm.Speed
		accel += pm.Acceleration
		s.PointerMovements = append(s.PointerMovements, pm)
	}

	s.AvgDwellTime = average(dwell, len(s.KeystrokePatterns))
	s.AvgFlightTime = average(flight, len(s.KeystrokePatterns))
	s.AvgSpeed = average(speed, len(s.PointerMovements))
	s.AvgAcceleration = average(accel, len(s.PointerMovements))
	return s
}

// average is 0 for an empty series.
func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
