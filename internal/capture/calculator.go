package capture

import (
	"math"

	"keytrace/internal/models"
)

// KeyTiming is the derived timing of one completed key press.
type KeyTiming struct {
	Dwell  float64
	Flight float64
	// Paired is false when the key-up had no preceding key-down for the same key on this screen.
	Paired bool
}

type keyDown struct {
	at     models.Millis
	flight float64
}

// KeyTracker holds the rolling state needed for dwell and flight times.
// Presses are paired per key, so overlapping keystrokes (rollover) each keep their own down time.
// The zero value is ready to use and represents a fresh screen.
type KeyTracker struct {
	downs map[string]keyDown

	lastUpAt models.Millis
	hasUp    bool
}

// Down registers a key-down and returns its flight time: the gap since the previous key-up
// of any key, or 0 for the first keystroke on the screen. A repeated down for a held key
// replaces the earlier one.
func (k *KeyTracker) Down(key string, ts models.Millis) float64 {
	flight := 0.0
	if k.hasUp {
		flight = math.Max(0, ts.Sub(k.lastUpAt))
	}
	if k.downs == nil {
		k.downs = make(map[string]keyDown)
	}
	k.downs[key] = keyDown{at: ts, flight: flight}
	return flight
}

// Up registers a key-up. The key-down of the same key is consumed, so a second key-up
// without a new key-down is unpaired and reports zero dwell.
func (k *KeyTracker) Up(key string, ts models.Millis) KeyTiming {
	var timing KeyTiming
	if down, ok := k.downs[key]; ok {
		timing = KeyTiming{
			Dwell:  math.Max(0, ts.Sub(down.at)),
			Flight: down.flight,
			Paired: true,
		}
		delete(k.downs, key)
	}
	k.lastUpAt = ts
	k.hasUp = true
	return timing
}

// Motion is the kinematics of one pointer move.
type Motion struct {
	Speed        float64 // px/ms
	Acceleration float64 // px/ms²
}

// PointerTracker holds the last pointer position and speed.
// The zero value is ready to use and represents a fresh screen.
type PointerTracker struct {
	lastX, lastY float64
	lastAt       models.Millis
	hasPosition  bool

	lastSpeed float64
	hasSpeed  bool
}

// Move registers a pointer move. It returns ok=false when no time has elapsed since the
// previous move (or the clock went backwards); such moves are dropped and leave the
// tracker untouched.
func (p *PointerTracker) Move(x, y float64, ts models.Millis) (Motion, bool) {
	if !p.hasPosition {
		p.lastX, p.lastY, p.lastAt = x, y, ts
		p.hasPosition = true
		return Motion{}, true
	}

	elapsed := ts.Sub(p.lastAt)
	if elapsed <= 0 {
		return Motion{}, false
	}

	speed := math.Hypot(x-p.lastX, y-p.lastY) / elapsed
	acceleration := 0.0
	if p.hasSpeed {
		acceleration = (speed - p.lastSpeed) / elapsed
	}

	p.lastX, p.lastY, p.lastAt = x, y, ts
	p.lastSpeed = speed
	p.hasSpeed = true

	return Motion{Speed: speed, Acceleration: acceleration}, true
}
