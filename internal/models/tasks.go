package models

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Screen is one step of the task flow shown to a participant.
type Screen struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Route       string   `yaml:"route" json:"route"`
	TaskType    TaskType `yaml:"task_type,omitempty" json:"taskType,omitempty"`
	Next        string   `yaml:"next,omitempty" json:"next,omitempty"`
}

// TaskCatalog holds the ordered screens of the task flow.
type TaskCatalog struct {
	Screens []Screen `yaml:"screens" json:"screens"`
}

// DefaultTaskCatalog mirrors the standard flow: welcome, profile, then the three tasks and the dashboard.
func DefaultTaskCatalog() *TaskCatalog {
	return &TaskCatalog{Screens: []Screen{
		{ID: "welcome", Title: "Welcome", Route: "/", Next: "/profile"},
		{ID: "login", Title: "Sign in", Route: "/login", TaskType: TaskLogin, Next: "/profile"},
		{ID: "profile", Title: "Profile setup", Route: "/profile", Next: "/form"},
		{ID: "form", Title: "Form task", Route: "/form", TaskType: TaskForm, Next: "/interactive"},
		{ID: "interactive", Title: "Interactive task", Route: "/interactive", TaskType: TaskInteractive, Next: "/browsing"},
		{ID: "browsing", Title: "Browsing task", Route: "/browsing", TaskType: TaskBrowsing, Next: "/dashboard"},
		{ID: "dashboard", Title: "Dashboard", Route: "/dashboard"},
	}}
}

// LoadTaskCatalog reads and parses a task catalog YAML file.
func LoadTaskCatalog(path string) (*TaskCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task catalog: %w", err)
	}

	var catalog TaskCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task catalog YAML: %w", err)
	}

	for _, s := range catalog.Screens {
		if s.TaskType != "" && !s.TaskType.Valid() {
			return nil, fmt.Errorf("screen %q: %w: %q", s.ID, ErrUnknownTaskType, s.TaskType)
		}
	}

	return &catalog, nil
}

// Resolve returns the task type for a route. Screens with an explicit task type
// take precedence; anything else falls back to substring inference.
func (c *TaskCatalog) Resolve(route string) TaskType {
	if c != nil {
		trimmed := strings.TrimRight(route, "/")
		for _, s := range c.Screens {
			if s.TaskType != "" && strings.TrimRight(s.Route, "/") == trimmed {
				return s.TaskType
			}
		}
	}
	return TaskTypeFromPath(route)
}
