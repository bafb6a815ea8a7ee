package catalog

import (
	"context"
	"fmt"
)

const bytesPerMB = 1 << 20

// SpaceMB converts a byte size into the whole megabytes a reservation
// consumes, rounding up.
func SpaceMB(sizeBytes int64) int64 {
	if sizeBytes <= 0 {
		return 0
	}
	return (sizeBytes + bytesPerMB - 1) / bytesPerMB
}

// Ledger tracks per-destination storage capacity. It owns every mutation
// of a destination's used-capacity counter; the atomicity of a single
// reservation lives in the repository's conditional update.
type Ledger struct {
	destinations DestinationRepository
}

// NewLedger constructs a quota ledger over the destination repository.
func NewLedger(destinations DestinationRepository) *Ledger {
	return &Ledger{destinations: destinations}
}

// Reserve charges the destination for sizeBytes, returning the space
// consumed in MB. A reservation that does not fit yields a
// *QuotaExceededError carrying the usage breakdown and leaves the
// counter untouched.
func (l *Ledger) Reserve(ctx context.Context, dest *Destination, sizeBytes int64) (int64, error) {
	spaceMB := SpaceMB(sizeBytes)

	ok, err := l.destinations.TryReserve(ctx, dest.ID, spaceMB)
	if err != nil {
		return 0, err
	}
	if !ok {
		// Re-read for an up-to-date breakdown: the snapshot we were
		// handed may predate a concurrent reservation.
		fresh, err := l.destinations.GetForAccount(ctx, dest.ID, dest.AccountID)
		if err != nil {
			fresh = dest
		}
		return 0, &QuotaExceededError{Breakdown: breakdown(fresh, spaceMB)}
	}
	return spaceMB, nil
}

// Release returns sizeBytes worth of reservation to the destination.
func (l *Ledger) Release(ctx context.Context, destinationID string, sizeBytes int64) error {
	spaceMB := SpaceMB(sizeBytes)
	if spaceMB == 0 {
		return nil
	}
	if err := l.destinations.Release(ctx, destinationID, spaceMB); err != nil {
		return fmt.Errorf("release %d MB on %s: %w", spaceMB, destinationID, err)
	}
	return nil
}

func breakdown(d *Destination, requiredMB int64) QuotaBreakdown {
	b := QuotaBreakdown{
		RequiredMB:  requiredMB,
		AvailableMB: d.AvailableMB(),
		TotalMB:     d.CapacityMB,
		UsedMB:      d.UsedMB,
	}
	if d.CapacityMB > 0 {
		b.UsagePercent = float64(d.UsedMB) / float64(d.CapacityMB) * 100
	}
	return b
}
