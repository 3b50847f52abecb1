package metrics

import (
	"sort"

	"keytrace/internal/models"
)

// MetricResult is one behavioral metric. Calculated is false when the task did not produce
// enough samples for a meaningful value.
type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// Set maps metric keys (e.g. "typing_speed") to results.
type Set map[string]MetricResult

// Keys lists every metric Calculate reports, keyboard first.
var Keys = append(append([]string{}, keyboardKeys...), pointerKeys...)

// Calculate derives the keyboard and pointer metrics for one task's events. Every key in
// Keys is present in the result; missing data shows up as Calculated=false.
func Calculate(keys []models.KeyEvent, pointer []models.PointerEvent) Set {
	set := keyboardMetrics(keys)
	for k, v := range pointerMetrics(pointer) {
		set[k] = v
	}
	return set
}

func notCalculated(sampleSize int) MetricResult {
	return MetricResult{SampleSize: sampleSize}
}

func calculated(value float64, sampleSize int) MetricResult {
	return MetricResult{Value: value, Calculated: true, SampleSize: sampleSize}
}

func sortedKeys(events []models.KeyEvent) []models.KeyEvent {
	out := make([]models.KeyEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func sortedPointer(events []models.PointerEvent) []models.PointerEvent {
	out := make([]models.PointerEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}
