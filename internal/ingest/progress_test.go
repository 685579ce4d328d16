package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressEvent struct {
	current int
	total   int
	message string
}

func TestProgressReporterCountMilestones(t *testing.T) {
	var events []progressEvent
	r := NewProgressReporter(func(current, total int, message string) {
		events = append(events, progressEvent{current, total, message})
	}, 100, 0)

	for i := 1; i <= 350; i++ {
		r.Report(i, 0, "parsing")
	}

	require.Len(t, events, 3)
	assert.Equal(t, 100, events[0].current)
	assert.Equal(t, 200, events[1].current)
	assert.Equal(t, 300, events[2].current)
}

func TestProgressReporterTimeMilestones(t *testing.T) {
	var events []progressEvent
	r := NewProgressReporter(func(current, total int, message string) {
		events = append(events, progressEvent{current, total, message})
	}, 0, 10*time.Millisecond)

	r.Report(1, 0, "early")
	require.Len(t, events, 1, "first report fires immediately")

	r.Report(2, 0, "suppressed")
	require.Len(t, events, 1)

	time.Sleep(15 * time.Millisecond)
	r.Report(3, 0, "after interval")
	require.Len(t, events, 2)
	assert.Equal(t, 3, events[1].current)
}

func TestProgressReporterMilestoneAlwaysFires(t *testing.T) {
	var events []progressEvent
	r := NewProgressReporter(func(current, total int, message string) {
		events = append(events, progressEvent{current, total, message})
	}, 1000, time.Hour)

	r.Milestone(0, 0, "Connecting")
	r.Milestone(5, 5, "Done")

	require.Len(t, events, 2)
	assert.Equal(t, "Connecting", events[0].message)
	assert.Equal(t, 5, events[1].total)
}

func TestProgressReporterNilCallback(t *testing.T) {
	r := NewProgressReporter(nil, 100, time.Second)
	r.Report(1, 0, "x")
	r.Milestone(1, 1, "x")

	var nilReporter *ProgressReporter
	nilReporter.Report(1, 0, "x")
	nilReporter.Milestone(1, 1, "x")
}
