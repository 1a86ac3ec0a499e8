package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.Local)
}

func Test_WithinWorkingHours_InclusiveBoundaries(t *testing.T) {
	assert.True(t, WithinWorkingHours("06:00", "18:00", at(6, 0)))
	assert.True(t, WithinWorkingHours("06:00", "18:00", at(18, 0)))
	assert.True(t, WithinWorkingHours("06:00", "18:00", at(12, 30)))
	assert.False(t, WithinWorkingHours("06:00", "18:00", at(23, 0)))
	assert.False(t, WithinWorkingHours("06:00", "18:00", at(5, 59)))
}

func Test_WithinWorkingHours_OvernightRange(t *testing.T) {
	assert.True(t, WithinWorkingHours("22:00", "06:00", at(23, 30)))
	assert.True(t, WithinWorkingHours("22:00", "06:00", at(3, 0)))
	assert.False(t, WithinWorkingHours("22:00", "06:00", at(12, 0)))
}

func Test_WithinWorkingHours_MidnightEndMeansEndOfDay(t *testing.T) {
	assert.True(t, WithinWorkingHours("06:00", "00:00", at(23, 59)))
	assert.True(t, WithinWorkingHours("06:00", "00:00", at(6, 0)))
	assert.False(t, WithinWorkingHours("06:00", "00:00", at(3, 0)))
}

func Test_WithinWorkingHours_FullDayAndUnset(t *testing.T) {
	assert.True(t, WithinWorkingHours("00:00", "00:00", at(4, 15)))
	assert.True(t, WithinWorkingHours("", "", at(4, 15)))
	assert.True(t, WithinWorkingHours("06:00", "", at(4, 15)))
}
