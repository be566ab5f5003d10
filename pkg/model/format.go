package model

import "fmt"

// FormatDuration renders a second count the way the CLI and diagnostics
// show elapsed time: "45s" under a minute, "5m" / "5m 30s" under an
// hour, "2h 15m" beyond that. Fractional seconds are truncated.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)

	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	if s < 3600 {
		m := s / 60
		rem := s % 60
		if rem > 0 {
			return fmt.Sprintf("%dm %ds", m, rem)
		}
		return fmt.Sprintf("%dm", m)
	}
	h := s / 3600
	m := (s % 3600) / 60
	return fmt.Sprintf("%dh %dm", h, m)
}
