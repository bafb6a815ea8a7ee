package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpaceMBRoundsUp(t *testing.T) {
	assert.Equal(t, int64(0), SpaceMB(0))
	assert.Equal(t, int64(1), SpaceMB(1))
	assert.Equal(t, int64(1), SpaceMB(1<<20))
	assert.Equal(t, int64(2), SpaceMB(1<<20+1))
	assert.Equal(t, int64(6), SpaceMB(6291456))
}

func TestReserveRejectsWhenFull(t *testing.T) {
	repo := &fakeDestRepo{dest: &Destination{
		ID: "d1", AccountID: "a1", CapacityMB: 1000, UsedMB: 995,
	}}
	ledger := NewLedger(repo)

	// 6 MB against 5 MB of headroom: 995+6 > 1000.
	_, err := ledger.Reserve(context.Background(), repo.dest, 6291456)

	var quotaErr *QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, int64(6), quotaErr.Breakdown.RequiredMB)
	assert.Equal(t, int64(5), quotaErr.Breakdown.AvailableMB)
	assert.Equal(t, int64(1000), quotaErr.Breakdown.TotalMB)
	assert.Equal(t, int64(995), quotaErr.Breakdown.UsedMB)
	assert.InDelta(t, 99.5, quotaErr.Breakdown.UsagePercent, 0.01)

	assert.Equal(t, int64(995), repo.usedMB())
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	repo := &fakeDestRepo{dest: &Destination{
		ID: "d1", AccountID: "a1", CapacityMB: 1000, UsedMB: 100,
	}}
	ledger := NewLedger(repo)

	size := int64(42 << 20)
	spaceMB, err := ledger.Reserve(context.Background(), repo.dest, size)
	require.NoError(t, err)
	assert.Equal(t, int64(42), spaceMB)
	assert.Equal(t, int64(142), repo.usedMB())

	require.NoError(t, ledger.Release(context.Background(), "d1", size))
	assert.Equal(t, int64(100), repo.usedMB())
}

func TestReleaseFloorsAtZero(t *testing.T) {
	repo := &fakeDestRepo{dest: &Destination{
		ID: "d1", AccountID: "a1", CapacityMB: 1000, UsedMB: 3,
	}}
	ledger := NewLedger(repo)

	require.NoError(t, ledger.Release(context.Background(), "d1", 10<<20))
	assert.Equal(t, int64(0), repo.usedMB())
}

func TestReserveZeroSizeIsFree(t *testing.T) {
	repo := &fakeDestRepo{dest: &Destination{
		ID: "d1", AccountID: "a1", CapacityMB: 10, UsedMB: 10,
	}}
	ledger := NewLedger(repo)

	spaceMB, err := ledger.Reserve(context.Background(), repo.dest, 0)
	require.NoError(t, err)
	assert.Zero(t, spaceMB)
}
