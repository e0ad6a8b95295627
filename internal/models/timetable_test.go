package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekSerializesAllSevenDays(t *testing.T) {
	raw, err := json.Marshal(NewWeek())
	require.NoError(t, err)

	var decoded map[string][]ClassSession
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 7)
	for _, day := range Weekdays {
		sessions, ok := decoded[day]
		require.True(t, ok, day)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)
	}
}

func TestWeekSessionsAccessors(t *testing.T) {
	week := NewWeek()
	session := ClassSession{ID: "c1", Subject: "Physics"}

	week.SetSessions("Wednesday", []ClassSession{session})
	got := week.Sessions("Wednesday")
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)

	assert.Nil(t, week.Sessions("Funday"))
}

func TestScheduleEnsureWeek(t *testing.T) {
	var schedule Schedule

	schedule.EnsureWeek(2)
	require.Len(t, schedule, 3)
	for _, week := range schedule {
		assert.NotNil(t, week.Monday)
		assert.NotNil(t, week.Sunday)
	}

	// already large enough, no growth
	schedule.EnsureWeek(1)
	assert.Len(t, schedule, 3)
}

func TestScheduleValueScanRoundTrip(t *testing.T) {
	schedule := Schedule{NewWeek()}
	schedule[0].Monday = []ClassSession{{
		ID:        "c1",
		Subject:   "Maths",
		StartTime: "09:00",
		EndTime:   "10:00",
		Type:      ClassTypeLecture,
		Status:    ClassStatusScheduled,
	}}

	value, err := schedule.Value()
	require.NoError(t, err)

	var decoded Schedule
	require.NoError(t, decoded.Scan(value))
	require.Len(t, decoded, 1)
	require.Len(t, decoded[0].Monday, 1)
	assert.Equal(t, "Maths", decoded[0].Monday[0].Subject)

	var fromNil Schedule
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)

	require.Error(t, fromNil.Scan(42))
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, ClassTypeLab.Valid())
	assert.False(t, ClassType("Workshop").Valid())

	assert.True(t, ClassStatusRescheduled.Valid())
	assert.False(t, ClassStatus("done").Valid())

	assert.True(t, IsWeekday("Sunday"))
	assert.False(t, IsWeekday("sunday"))
}
