package models

import (
	"fmt"
	"strings"
)

type KeyKind string

const (
	KeyDown KeyKind = "down"
	KeyUp   KeyKind = "up"
)

// ParseKeyKind accepts both the stored form ("down") and DOM event names ("keydown").
func ParseKeyKind(s string) (KeyKind, error) {
	switch strings.ToLower(s) {
	case "down", "keydown":
		return KeyDown, nil
	case "up", "keyup":
		return KeyUp, nil
	}
	return "", fmt.Errorf("unknown key event kind %q", s)
}

type PointerKind string

const (
	PointerMove  PointerKind = "move"
	PointerClick PointerKind = "click"
)

// ParsePointerKind accepts both the stored form ("move") and DOM event names ("mousemove").
func ParsePointerKind(s string) (PointerKind, error) {
	switch strings.ToLower(s) {
	case "move", "mousemove", "pointermove":
		return PointerMove, nil
	case "click", "mouseclick", "pointerclick":
		return PointerClick, nil
	}
	return "", fmt.Errorf("unknown pointer event kind %q", s)
}

// KeyEvent is one recorded physical key transition.
// DwellTime and FlightTime are only set on key-up records.
type KeyEvent struct {
	SessionID  string   `json:"sessionId"`
	Timestamp  Millis   `json:"timestamp"`
	Key        string   `json:"key"`
	Kind       KeyKind  `json:"eventType"`
	DwellTime  *float64 `json:"dwellTime,omitempty"`
	FlightTime *float64 `json:"flightTime,omitempty"`
	TaskType   TaskType `json:"taskType"`
}

// PointerEvent is one recorded pointer move or click.
// Speed (px/ms) and Acceleration (px/ms²) are only set on move records.
type PointerEvent struct {
	SessionID    string      `json:"sessionId"`
	Timestamp    Millis      `json:"timestamp"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	Kind         PointerKind `json:"eventType"`
	Speed        *float64    `json:"speed,omitempty"`
	Acceleration *float64    `json:"acceleration,omitempty"`
	TaskType     TaskType    `json:"taskType"`
}

// TaskCompletion records how long a session took to satisfy a task's completion predicate.
type TaskCompletion struct {
	SessionID string   `json:"sessionId"`
	TaskType  TaskType `json:"taskType"`
	Duration  int64    `json:"duration"`
}

// Float returns a pointer to v, for the optional metric fields.
func Float(v float64) *float64 {
	return &v
}

// ValueOr dereferences p, falling back to def when p is nil.
func ValueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
