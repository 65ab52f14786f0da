// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("time zone database missing %s: %v", name, err)
	}
	return loc
}

func TestBuild_Berlin(t *testing.T) {
	berlin := mustZone(t, "Europe/Berlin")
	// 2025-03-14 13:05:09.250 UTC is 14:05 in Berlin (CET, UTC+1).
	now := time.Date(2025, time.March, 14, 13, 5, 9, 250_000_000, time.UTC)

	env := Build(now, berlin)

	assert.Equal(t, "2025-03-14", env.CurrentDate)
	assert.Equal(t, "14:05", env.CurrentTime24h)
	assert.Equal(t, "2:05 PM", env.CurrentTime12h)
	assert.Equal(t, "Friday", env.DayOfWeek)
	assert.Equal(t, "March", env.MonthName)
	assert.Equal(t, "Friday, March 14, 2025 at 02:05 PM", env.FullDatetime)
	assert.Equal(t, "Europe/Berlin", env.Timezone)
	assert.Equal(t, "2025-03-14T13:05:09.250Z", env.ISOTimestamp)
	assert.Equal(t, now.Unix(), env.UnixTimestamp)
}

func TestBuild_LocalDateDiffersFromUTC(t *testing.T) {
	tokyo := mustZone(t, "Asia/Tokyo")
	now := time.Date(2024, time.December, 31, 20, 30, 0, 0, time.UTC)

	env := Build(now, tokyo)

	assert.Equal(t, "2025-01-01", env.CurrentDate)
	assert.Equal(t, "05:30", env.CurrentTime24h)
	assert.Equal(t, "5:30 AM", env.CurrentTime12h)
	assert.Equal(t, "Wednesday", env.DayOfWeek)
	assert.Equal(t, "January", env.MonthName)
	assert.Equal(t, "2024-12-31T20:30:00.000Z", env.ISOTimestamp)
}

func TestBuild_Midnight12h(t *testing.T) {
	now := time.Date(2026, time.July, 4, 0, 7, 0, 0, time.UTC)
	env := Build(now, time.UTC)
	assert.Equal(t, "12:07 AM", env.CurrentTime12h)
	assert.Equal(t, "00:07", env.CurrentTime24h)
	assert.Equal(t, "Saturday, July 4, 2026 at 12:07 AM", env.FullDatetime)
}

func TestBuild_IsPure(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	now := time.Date(2025, time.November, 2, 6, 30, 0, 0, time.UTC)

	first := Build(now, ny)
	Build(now.Add(time.Hour), time.UTC)
	second := Build(now, ny)

	assert.Equal(t, first, second)
}

func TestBuild_NilZoneIsUTC(t *testing.T) {
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	env := Build(now, nil)
	assert.Equal(t, "UTC", env.Timezone)
	assert.Equal(t, "12:00", env.CurrentTime24h)
}

func TestEnvelope_JSONFieldNames(t *testing.T) {
	env := Build(time.Unix(1_700_000_000, 0), time.UTC)
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{
		"current_date", "current_time_24h", "current_time_12h", "day_of_week",
		"month_name", "full_datetime", "timezone", "iso_timestamp", "unix_timestamp",
	} {
		assert.Contains(t, fields, key)
	}
	assert.EqualValues(t, 1_700_000_000, fields["unix_timestamp"])
}

func TestZoneName_NamedLocation(t *testing.T) {
	berlin := mustZone(t, "Europe/Berlin")
	assert.Equal(t, "Europe/Berlin", ZoneName(berlin))
	assert.Equal(t, "UTC", ZoneName(nil))
}

func TestHostZone_FromTZ(t *testing.T) {
	mustZone(t, "Asia/Kolkata")
	t.Setenv("TZ", "Asia/Kolkata")
	assert.Equal(t, "Asia/Kolkata", HostZone().String())
}

func TestHostZone_EmptyTZIsUTC(t *testing.T) {
	t.Setenv("TZ", "")
	assert.Equal(t, "UTC", hostZoneName())
	assert.Equal(t, "UTC", HostZone().String())
}
