package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseDuration converts an ISO-8601 duration ("PT1H30M", "P1DT2H") to a
// time.Duration. Returns false for anything it can't parse.
func ParseDuration(value string) (time.Duration, bool) {
	m := isoDurationPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(value)))
	if m == nil || value == "" {
		return 0, false
	}

	var d time.Duration
	if m[1] != "" {
		days, _ := strconv.Atoi(m[1])
		d += time.Duration(days) * 24 * time.Hour
	}
	if m[2] != "" {
		h, _ := strconv.Atoi(m[2])
		d += time.Duration(h) * time.Hour
	}
	if m[3] != "" {
		mins, _ := strconv.Atoi(m[3])
		d += time.Duration(mins) * time.Minute
	}
	if m[4] != "" {
		secs, _ := strconv.ParseFloat(m[4], 64)
		d += time.Duration(secs * float64(time.Second))
	}
	return d, true
}

// FormatDuration renders an ISO-8601 duration as "1h 30m". Unparseable input
// is returned as-is; zero durations render as "".
func FormatDuration(value string) string {
	d, ok := ParseDuration(value)
	if !ok {
		return value
	}
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	return strings.Join(parts, " ")
}
