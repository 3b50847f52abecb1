package metrics

import (
	"testing"

	"keytrace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func down(ts int64, key string) models.KeyEvent {
	return models.KeyEvent{Timestamp: models.Millis(ts), Key: key, Kind: models.KeyDown}
}

func up(ts int64, key string, dwell float64) models.KeyEvent {
	return models.KeyEvent{Timestamp: models.Millis(ts), Key: key, Kind: models.KeyUp, DwellTime: models.Float(dwell)}
}

func move(ts int64, x, y float64) models.PointerEvent {
	return models.PointerEvent{Timestamp: models.Millis(ts), X: x, Y: y, Kind: models.PointerMove}
}

func click(ts int64, x, y float64) models.PointerEvent {
	return models.PointerEvent{Timestamp: models.Millis(ts), X: x, Y: y, Kind: models.PointerClick}
}

func TestCalculate_ReportsEveryKeyWithoutData(t *testing.T) {
	set := Calculate(nil, nil)
	require.Len(t, set, len(Keys))
	for _, k := range Keys {
		assert.False(t, set[k].Calculated, k)
	}
}

func TestKeyboard_SteadyTyping(t *testing.T) {
	var events []models.KeyEvent
	for i := 0; i < 10; i++ {
		key := string(rune('a' + i))
		events = append(events, down(int64(i*200), key), up(int64(i*200+100), key, 100))
	}

	set := keyboardMetrics(events)

	require.True(t, set[keyTypingSpeed].Calculated)
	assert.InDelta(t, 10/1.8, set[keyTypingSpeed].Value, 1e-9)
	assert.InDelta(t, 200, set[keyInterKeyInterval].Value, 1e-9)
	assert.InDelta(t, 0, set[keyRhythmVariability].Value, 1e-9)
	assert.InDelta(t, 100, set[keyHoldTime].Value, 1e-9)
	assert.Equal(t, 10, set[keyHoldTime].SampleSize)
	assert.InDelta(t, 0, set[keyPauseRate].Value, 1e-9)
	assert.InDelta(t, 0, set[keyCorrectionRate].Value, 1e-9)
	assert.False(t, set[keyImmediateCorrections].Calculated, "no corrections, no tendency")
	assert.Equal(t, 100.0, set[keyFluency].Value, "fluency is capped")
}

func TestKeyboard_Corrections(t *testing.T) {
	keys := []string{"a", "b", "Backspace", "c", "Backspace", "d", "e"}
	var events []models.KeyEvent
	for i, k := range keys {
		events = append(events, down(int64(i*150), k))
	}

	set := keyboardMetrics(events)

	assert.InDelta(t, 0.4, set[keyCorrectionRate].Value, 1e-9)
	assert.Equal(t, 5, set[keyCorrectionRate].SampleSize)
	assert.InDelta(t, 0.5, set[keyImmediateCorrections].Value, 1e-9)
}

func TestKeyboard_Pauses(t *testing.T) {
	stamps := []int64{0, 100, 200, 300, 400, 6400, 6500}
	var events []models.KeyEvent
	for _, ts := range stamps {
		events = append(events, down(ts, "x"))
	}

	set := keyboardMetrics(events)

	assert.InDelta(t, 1.0/6, set[keyPauseRate].Value, 1e-9)
	assert.InDelta(t, 1.0/6, set[keyDeepPauseRate].Value, 1e-9)
}

func TestKeyboard_IgnoresImplausibleHolds(t *testing.T) {
	events := []models.KeyEvent{
		up(100, "a", 5), up(200, "b", 5000), up(300, "c", 80), up(400, "d", 0),
	}
	set := keyboardMetrics(events)
	assert.False(t, set[keyHoldTime].Calculated)
}

func TestPointer_SteadyVelocity(t *testing.T) {
	var events []models.PointerEvent
	for i := 10; i >= 0; i-- {
		events = append(events, move(int64(i*10), float64(i*10), 0))
	}

	set := pointerMetrics(events)

	require.True(t, set[keyAverageVelocity].Calculated)
	assert.InDelta(t, 1000, set[keyAverageVelocity].Value, 1e-6)
	assert.InDelta(t, 0, set[keyVelocityVariability].Value, 1e-9)
	assert.False(t, set[keyPathEfficiency].Calculated, "no clicks, no approaches")
}

func TestPointer_PathEfficiency(t *testing.T) {
	events := []models.PointerEvent{
		move(0, 0, 0), move(10, 50, 0), move(20, 100, 0), click(30, 100, 0),
		move(100, 0, 0), move(110, 0, 100), move(120, 100, 100), click(130, 100, 0),
	}

	set := pointerMetrics(events)

	require.True(t, set[keyPathEfficiency].Calculated)
	assert.Equal(t, 2, set[keyPathEfficiency].SampleSize)
	assert.InDelta(t, (1+1.0/3)/2, set[keyPathEfficiency].Value, 1e-9)
}

func TestPointer_Overshoot(t *testing.T) {
	events := []models.PointerEvent{
		// passes through the target, overshoots by 60px, comes back
		move(0, 0, 0), move(10, 50, 0), move(20, 100, 0), move(30, 160, 0), move(40, 140, 0), move(50, 110, 0),
		click(60, 100, 0),
		// direct approach
		move(100, 0, 50), move(110, 20, 50), move(120, 40, 50), move(130, 60, 50), move(140, 80, 50),
		click(150, 80, 50),
	}

	set := pointerMetrics(events)

	require.True(t, set[keyOvershootRate].Calculated)
	assert.Equal(t, 2, set[keyOvershootRate].SampleSize)
	assert.InDelta(t, 0.5, set[keyOvershootRate].Value, 1e-9)
}
