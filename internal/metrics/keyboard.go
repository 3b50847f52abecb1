package metrics

import (
	"math"

	"keytrace/internal/models"
)

const (
	keyTypingSpeed          = "typing_speed"
	keyInterKeyInterval     = "average_inter_key_interval"
	keyRhythmVariability    = "typing_rhythm_variability"
	keyHoldTime             = "average_key_hold_time"
	keyPressVariability     = "key_press_variability"
	keyCorrectionRate       = "correction_rate"
	keyImmediateCorrections = "immediate_correction_tendency"
	keyPauseRate            = "pause_rate"
	keyDeepPauseRate        = "deep_thinking_pause_rate"
	keyFluency              = "keyboard_fluency"
)

var keyboardKeys = []string{
	keyTypingSpeed, keyInterKeyInterval, keyRhythmVariability, keyHoldTime, keyPressVariability,
	keyCorrectionRate, keyImmediateCorrections, keyPauseRate, keyDeepPauseRate, keyFluency,
}

const (
	minHoldMs      = 20.0
	maxHoldMs      = 1000.0
	minPauseMs     = 1000.0
	deepPauseMs    = 5000.0
	pauseFactor    = 3.0
	fluencyTypical = 5.0 // chars/s that counts as full speed in the fluency score
)

func isContentKey(key string) bool {
	return len([]rune(key)) == 1 || key == "Space" || key == "Enter"
}

func isCorrectionKey(key string) bool {
	return key == "Backspace" || key == "Delete"
}

// keyboardMetrics derives typing behavior from one task's key events.
func keyboardMetrics(events []models.KeyEvent) Set {
	set := make(Set, len(keyboardKeys))
	for _, k := range keyboardKeys {
		set[k] = notCalculated(0)
	}
	set[keyTypingSpeed] = notCalculated(len(events))

	if len(events) < 3 {
		return set
	}

	events = sortedKeys(events)
	var downs []models.KeyEvent
	for _, e := range events {
		if e.Kind == models.KeyDown {
			downs = append(downs, e)
		}
	}

	typingSpeed(set, downs)
	intervals := make([]float64, 0, len(downs))
	for i := 1; i < len(downs); i++ {
		intervals = append(intervals, downs[i].Timestamp.Sub(downs[i-1].Timestamp))
	}
	rhythm(set, intervals)
	pauses(set, intervals)
	holdTimes(set, events)
	corrections(set, downs)
	fluency(set)

	return set
}

// typingSpeed is content characters per second between the first and last key-down.
func typingSpeed(set Set, downs []models.KeyEvent) {
	if len(downs) < 5 {
		return
	}
	content := 0
	for _, e := range downs {
		if isContentKey(e.Key) {
			content++
		}
	}
	seconds := downs[len(downs)-1].Timestamp.Sub(downs[0].Timestamp) / 1000
	if seconds > 0 && content > 0 {
		set[keyTypingSpeed] = calculated(float64(content)/seconds, content)
	}
}

// rhythm averages inter-key intervals after discarding anything beyond 1.5x the 95th percentile.
func rhythm(set Set, intervals []float64) {
	if len(intervals) < 3 {
		return
	}
	kept := capAtPercentile(intervals, 0.95, 1.5)
	if len(kept) < 3 {
		return
	}
	avg := mean(kept)
	set[keyInterKeyInterval] = calculated(avg, len(kept))
	set[keyRhythmVariability] = calculated(coefficientOfVariation(kept, avg), len(kept))
}

func pauses(set Set, intervals []float64) {
	if len(intervals) < 5 {
		return
	}
	threshold := math.Max(mean(intervals)*pauseFactor, minPauseMs)
	var pauseCount, deepCount int
	for _, iv := range intervals {
		if iv <= threshold {
			continue
		}
		pauseCount++
		if iv > deepPauseMs {
			deepCount++
		}
	}
	n := float64(len(intervals))
	set[keyPauseRate] = calculated(float64(pauseCount)/n, len(intervals))
	set[keyDeepPauseRate] = calculated(float64(deepCount)/n, len(intervals))
}

// holdTimes uses the dwell recorded on key-up records, limited to plausible presses.
func holdTimes(set Set, events []models.KeyEvent) {
	var holds []float64
	for _, e := range events {
		if e.Kind != models.KeyUp || e.DwellTime == nil {
			continue
		}
		if d := *e.DwellTime; d >= minHoldMs && d <= maxHoldMs {
			holds = append(holds, d)
		}
	}
	if len(holds) < 5 {
		return
	}
	kept := iqrFilter(holds)
	if len(kept) < 5 {
		return
	}
	avg := mean(kept)
	set[keyHoldTime] = calculated(avg, len(kept))
	set[keyPressVariability] = calculated(coefficientOfVariation(kept, avg), len(kept))
}

// corrections counts Backspace/Delete against content keys. A correction within three
// key-downs of the previous one counts as immediate.
func corrections(set Set, downs []models.KeyEvent) {
	if len(downs) < 5 {
		return
	}
	var correctionCount, immediate, chars int
	last := -1
	for i, e := range downs {
		switch {
		case isCorrectionKey(e.Key):
			correctionCount++
			if last >= 0 && i-last <= 3 {
				immediate++
			}
			last = i
		case isContentKey(e.Key):
			chars++
		}
	}
	if chars < 3 {
		return
	}
	set[keyCorrectionRate] = calculated(float64(correctionCount)/float64(chars), chars)
	if correctionCount > 0 {
		set[keyImmediateCorrections] = calculated(float64(immediate)/float64(correctionCount), correctionCount)
	}
}

// fluency blends speed, rhythm consistency and correction quality into a 0-100 score.
func fluency(set Set) {
	speed, interval, variability := set[keyTypingSpeed], set[keyInterKeyInterval], set[keyRhythmVariability]
	if !speed.Calculated || !interval.Calculated || !variability.Calculated {
		return
	}
	consistency := 1 / (1 + variability.Value)
	quality := 1.0
	if c := set[keyCorrectionRate]; c.Calculated {
		quality = 1 / (1 + c.Value)
	}
	score := 100 * ((speed.Value/fluencyTypical)*0.4 + consistency*0.4 + quality*0.2)
	set[keyFluency] = calculated(math.Min(score, 100), speed.SampleSize)
}
