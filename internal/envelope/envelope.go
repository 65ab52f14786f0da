// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package envelope builds the wall-clock snapshot attached to every chat
// request so the backend can reason about "now" without trusting its own
// clock or locale.
package envelope

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Layouts used for the envelope fields. Go's time package formats month and
// weekday names in English regardless of the host locale.
const (
	dateLayout     = "2006-01-02"
	time24Layout   = "15:04"
	time12Layout   = "3:04 PM"
	fullLayout     = "Monday, January 2, 2006 at 03:04 PM"
	isoUTCLayout   = "2006-01-02T15:04:05.000Z"
	fallbackZoneID = "UTC"
)

// Envelope is the datetime context sent with a turn.
type Envelope struct {
	CurrentDate    string `json:"current_date"`
	CurrentTime24h string `json:"current_time_24h"`
	CurrentTime12h string `json:"current_time_12h"`
	DayOfWeek      string `json:"day_of_week"`
	MonthName      string `json:"month_name"`
	FullDatetime   string `json:"full_datetime"`
	Timezone       string `json:"timezone"`
	ISOTimestamp   string `json:"iso_timestamp"`
	UnixTimestamp  int64  `json:"unix_timestamp"`
}

// Build returns the envelope for the instant now as seen from loc.
// It is a pure function of its arguments; a nil loc means UTC.
func Build(now time.Time, loc *time.Location) Envelope {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	return Envelope{
		CurrentDate:    local.Format(dateLayout),
		CurrentTime24h: local.Format(time24Layout),
		CurrentTime12h: local.Format(time12Layout),
		DayOfWeek:      local.Weekday().String(),
		MonthName:      local.Month().String(),
		FullDatetime:   local.Format(fullLayout),
		Timezone:       ZoneName(loc),
		ISOTimestamp:   now.UTC().Format(isoUTCLayout),
		UnixTimestamp:  now.Unix(),
	}
}

// ZoneName returns the IANA identifier for loc. time.Local reports itself as
// "Local", so it is resolved against the host configuration instead.
func ZoneName(loc *time.Location) string {
	if loc == nil {
		return fallbackZoneID
	}
	if loc != time.Local {
		return loc.String()
	}
	if name := hostZoneName(); name != "" {
		return name
	}
	return fallbackZoneID
}

// HostZone returns the host's time zone as a named location. When the host
// zone cannot be named, UTC is returned so that the Timezone field and the
// local fields always agree.
func HostZone() *time.Location {
	name := hostZoneName()
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// hostZoneName resolves the IANA name of the host zone from $TZ or the
// /etc/localtime symlink. An empty $TZ means UTC.
func hostZoneName() string {
	if tz, ok := os.LookupEnv("TZ"); ok {
		tz = strings.TrimPrefix(tz, ":")
		if tz == "" {
			return "UTC"
		}
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}

	target, err := filepath.EvalSymlinks("/etc/localtime")
	if err != nil {
		return ""
	}
	const marker = "zoneinfo/"
	idx := strings.LastIndex(target, marker)
	if idx < 0 {
		return ""
	}
	name := target[idx+len(marker):]
	if _, err := time.LoadLocation(name); err != nil {
		return ""
	}
	return name
}
