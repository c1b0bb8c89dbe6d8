package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackfillStatusPoolWeights(t *testing.T) {
	counts := map[string]int{}
	for _, status := range BackfillStatusPool {
		counts[status]++
	}
	assert.Equal(t, 4, counts[AttendancePresent])
	assert.Equal(t, 1, counts[AttendanceAbsent])
	assert.Equal(t, 1, counts[AttendanceLate])
	assert.Equal(t, 1, counts[AttendanceExcused])
}

func TestBackfillOffsetsInsideTrailingWindow(t *testing.T) {
	assert.Len(t, BackfillOffsets, 9)
	for _, offset := range BackfillOffsets {
		assert.Greater(t, offset, 0)
		assert.LessOrEqual(t, offset, 30)
	}
}

func TestPickBackfillStatusDrawsFromPool(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	valid := map[string]bool{
		AttendancePresent: true,
		AttendanceAbsent:  true,
		AttendanceLate:    true,
		AttendanceExcused: true,
	}
	for i := 0; i < 100; i++ {
		assert.True(t, valid[PickBackfillStatus(rng)])
	}
}

func TestBackfillNote(t *testing.T) {
	assert.Equal(t, "Arrived 10 minutes late", BackfillNote(AttendanceLate))
	assert.Equal(t, "Absence excused by parent note", BackfillNote(AttendanceExcused))
	assert.Equal(t, "", BackfillNote(AttendancePresent))
	assert.Equal(t, "", BackfillNote(AttendanceAbsent))
}
