package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_NextRun(t *testing.T) {
	s := &Scheduler{hour: 6, minute: 30}

	loc := time.UTC
	before := time.Date(2026, 9, 1, 5, 0, 0, 0, loc)
	next := s.nextRun(before)
	require.Equal(t, time.Date(2026, 9, 1, 6, 30, 0, 0, loc), next)

	after := time.Date(2026, 9, 1, 7, 0, 0, 0, loc)
	next = s.nextRun(after)
	require.Equal(t, time.Date(2026, 9, 2, 6, 30, 0, 0, loc), next)

	exact := time.Date(2026, 9, 1, 6, 30, 0, 0, loc)
	next = s.nextRun(exact)
	require.Equal(t, time.Date(2026, 9, 2, 6, 30, 0, 0, loc), next)
}
