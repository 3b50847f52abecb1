package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSession is returned when a capture or aggregation call is made without a session id.
	ErrMissingSession = errors.New("missing session id")
	// ErrUnknownTaskType is returned when a task type string is outside the closed enumeration.
	ErrUnknownTaskType = errors.New("unknown task type")
)

// TaskType is the screen/activity context under which an event was captured.
type TaskType string

const (
	TaskLogin       TaskType = "login"
	TaskForm        TaskType = "form"
	TaskInteractive TaskType = "interactive"
	TaskBrowsing    TaskType = "browsing"
)

// routePriority is the order in which route substrings are matched. Login must win over
// form, form over interactive, interactive over browsing.
var routePriority = []TaskType{TaskLogin, TaskForm, TaskInteractive, TaskBrowsing}

// SummaryTaskTypes lists the task types the dashboard reports on, in display order.
var SummaryTaskTypes = []TaskType{TaskForm, TaskInteractive, TaskBrowsing}

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskLogin, TaskForm, TaskInteractive, TaskBrowsing:
		return true
	}
	return false
}

func (t TaskType) String() string {
	return string(t)
}

// ParseTaskType converts a string to a TaskType, case-insensitively.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTaskType, s)
	}
	return t, nil
}

// TaskTypeFromPath infers the task type from a route path by substring match.
// Unmatched paths default to form.
func TaskTypeFromPath(path string) TaskType {
	for _, t := range routePriority {
		if strings.Contains(path, string(t)) {
			return t
		}
	}
	return TaskForm
}
