package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskTypeFromPath(t *testing.T) {
	tests := []struct {
		path string
		want TaskType
	}{
		{"/login", TaskLogin},
		{"/form", TaskForm},
		{"/interactive", TaskInteractive},
		{"/browsing", TaskBrowsing},
		{"/", TaskForm},
		{"/dashboard", TaskForm},
		// login beats every other match
		{"/login/form", TaskLogin},
		{"/browsing/form", TaskForm},
		{"/browsing/interactive", TaskInteractive},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, TaskTypeFromPath(tt.path))
		})
	}
}

func TestParseTaskType(t *testing.T) {
	got, err := ParseTaskType(" Browsing ")
	require.NoError(t, err)
	assert.Equal(t, TaskBrowsing, got)

	_, err = ParseTaskType("checkout")
	require.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestParseKinds(t *testing.T) {
	k, err := ParseKeyKind("keydown")
	require.NoError(t, err)
	assert.Equal(t, KeyDown, k)

	k, err = ParseKeyKind("up")
	require.NoError(t, err)
	assert.Equal(t, KeyUp, k)

	_, err = ParseKeyKind("keypress")
	assert.Error(t, err)

	p, err := ParsePointerKind("mousemove")
	require.NoError(t, err)
	assert.Equal(t, PointerMove, p)

	_, err = ParsePointerKind("wheel")
	assert.Error(t, err)
}
