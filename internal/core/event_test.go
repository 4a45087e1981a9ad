package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  Kind
	}{
		{"OPEN GYM", KindOpen},
		{"open mat", KindOpen},
		{"Reopening ceremony", KindOpen},
		{"Beginner Lesson", KindLesson},
		{"LESSON: footwork", KindLesson},
		{"Open Lesson", KindOpen},
		{"Staff meeting", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTitle(tt.title))
		})
	}
}

func TestIsQualifying(t *testing.T) {
	assert.True(t, IsQualifying("Open Gym"))
	assert.False(t, IsQualifying("Private lesson"))
}

func TestEventValidAndInProgress(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	ev := NewEvent("1", "OPEN", start, start.Add(90*time.Minute))

	assert.True(t, ev.Valid())
	assert.Equal(t, KindOpen, ev.Kind)
	assert.Equal(t, 90*time.Minute, ev.Duration())
	assert.True(t, ev.InProgress(start))
	assert.True(t, ev.InProgress(start.Add(time.Hour)))
	assert.False(t, ev.InProgress(start.Add(90*time.Minute)))

	backwards := NewEvent("2", "OPEN", start, start)
	assert.False(t, backwards.Valid())
}

func TestEventIn(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	start := time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC)
	ev := NewEvent("1", "OPEN", start, start.Add(time.Hour))

	local := ev.In(tokyo)
	assert.Equal(t, 9, local.Start.Hour())
	assert.True(t, local.Start.Equal(ev.Start))

	allDay := NewEvent("2", "Holiday", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	allDay.IsAllDay = true
	moved := allDay.In(tokyo)
	assert.Equal(t, 19, moved.Start.Day())
	assert.Equal(t, 0, moved.Start.Hour())
	assert.Equal(t, tokyo, moved.Start.Location())

	assert.Equal(t, ev, ev.In(nil))
}
