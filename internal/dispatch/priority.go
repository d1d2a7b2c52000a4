package dispatch

import "github.com/pkg/errors"

// Priority is a validated worker-goroutine scheduling priority. The Go
// runtime scheduler does not expose portable OS thread priorities, so
// unlike the original (which silently clamped requested values to a
// platform-specific safe range), this module validates the requested
// value against an explicit, documented range and rejects anything
// outside it — resolving SPEC_FULL.md §9 Open Question 3 in favor of
// validation over silent clamping.
type Priority int

const (
	PriorityMin Priority = -2
	PriorityMax Priority = 2

	// PriorityNormal is the default: no adjustment is requested.
	PriorityNormal Priority = 0
)

// ValidatePriority reports whether p falls within the allowed range.
func ValidatePriority(p Priority) error {
	if p < PriorityMin || p > PriorityMax {
		return errors.Errorf("dispatch: priority %d out of range [%d, %d]", p, PriorityMin, PriorityMax)
	}
	return nil
}
