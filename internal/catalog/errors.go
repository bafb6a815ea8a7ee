package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects a request before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers absent or foreign destinations and records.
	ErrNotFound = errors.New("not found")
	// ErrForbidden rejects a removal outside the caller's remote tree.
	ErrForbidden = errors.New("forbidden")
	// ErrTransfer marks a failed remote placement; the pipeline has
	// already compensated when it surfaces.
	ErrTransfer = errors.New("remote transfer failed")
	// ErrPersistence marks a failed record insert after placement; the
	// remote file and the reservation are already rolled back.
	ErrPersistence = errors.New("persistence failed")
)

// QuotaBreakdown is the structured payload of a quota rejection.
type QuotaBreakdown struct {
	RequiredMB   int64   `json:"required_mb"`
	AvailableMB  int64   `json:"available_mb"`
	TotalMB      int64   `json:"total_mb"`
	UsedMB       int64   `json:"used_mb"`
	UsagePercent float64 `json:"usage_percent"`
}

// QuotaExceededError is returned when a reservation does not fit the
// destination. No remote or persistence side effect precedes it.
type QuotaExceededError struct {
	Breakdown QuotaBreakdown
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: required %d MB, available %d MB of %d MB",
		e.Breakdown.RequiredMB, e.Breakdown.AvailableMB, e.Breakdown.TotalMB)
}
