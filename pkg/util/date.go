package util

import (
    "strconv"
    "strings"
    "time"
)

// DateOnly is the calendar-date layout used across market payloads.
const DateOnly = "2006-01-02"

// ParseRangeDays parses a history range like "30d" or "90d" into a day count.
// Returns def for empty or malformed input.
func ParseRangeDays(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
    if err != nil || v <= 0 {
        return def
    }
    return v
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// Midnight truncates t to the start of its calendar day in UTC.
func Midnight(t time.Time) time.Time {
    t = t.UTC()
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysAfter returns the calendar day n days after t, at midnight UTC.
func DaysAfter(t time.Time, n int) time.Time {
    return Midnight(t).AddDate(0, 0, n)
}
