package catalog

import (
	"context"
	"os"
	"sync"

	"github.com/your-org/streamvault/internal/media"
)

type fakeDestRepo struct {
	mu   sync.Mutex
	dest *Destination

	reserveCalls int
	releaseCalls int

	getHook func(ctx context.Context)
}

func (f *fakeDestRepo) GetForAccount(ctx context.Context, id, accountID string) (*Destination, error) {
	if f.getHook != nil {
		f.getHook(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dest == nil || f.dest.ID != id || f.dest.AccountID != accountID {
		return nil, ErrNotFound
	}
	cp := *f.dest
	return &cp, nil
}

func (f *fakeDestRepo) TryReserve(ctx context.Context, id string, spaceMB int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserveCalls++
	if f.dest == nil || f.dest.ID != id {
		return false, nil
	}
	if f.dest.UsedMB+spaceMB > f.dest.CapacityMB {
		return false, nil
	}
	f.dest.UsedMB += spaceMB
	return true, nil
}

func (f *fakeDestRepo) Release(ctx context.Context, id string, spaceMB int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
	if f.dest != nil && f.dest.ID == id {
		f.dest.UsedMB -= spaceMB
		if f.dest.UsedMB < 0 {
			f.dest.UsedMB = 0
		}
	}
	return nil
}

func (f *fakeDestRepo) usedMB() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dest.UsedMB
}

type fakeVideoRepo struct {
	mu        sync.Mutex
	videos    map[string]*Video
	insertErr error
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: map[string]*Video{}}
}

func (f *fakeVideoRepo) Insert(ctx context.Context, v *Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *v
	f.videos[v.ID] = &cp
	return nil
}

func (f *fakeVideoRepo) GetForAccount(ctx context.Context, id, accountID string) (*Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok || v.AccountID != accountID {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVideoRepo) ListByDestination(ctx context.Context, destinationID string) ([]*Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Video
	for _, v := range f.videos {
		if v.DestinationID == destinationID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeVideoRepo) ListByAccount(ctx context.Context, accountID string) ([]*Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Video
	for _, v := range f.videos {
		if v.AccountID == accountID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeVideoRepo) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.videos[id]; !ok {
		return false, nil
	}
	delete(f.videos, id)
	return true, nil
}

func (f *fakeVideoRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.videos)
}

type fakeRemote struct {
	mu sync.Mutex

	mkdirs   []string
	puts     map[string]string
	contents map[string][]byte
	deletes  []string

	putErr    error
	deleteErr error
	statErr   error
	statSize  int64
	statSizes map[string]int64
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{puts: map[string]string{}, contents: map[string][]byte{}}
}

func (f *fakeRemote) MkdirAll(ctx context.Context, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mkdirs = append(f.mkdirs, dir)
	return nil
}

func (f *fakeRemote) Put(ctx context.Context, remotePath, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts[remotePath] = localPath
	if data, err := os.ReadFile(localPath); err == nil {
		f.contents[remotePath] = data
	}
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, remotePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, remotePath)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.puts, remotePath)
	return nil
}

// Stat mimics the real host: a deleted path no longer stats.
func (f *fakeRemote) Stat(ctx context.Context, remotePath string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statErr != nil {
		return 0, f.statErr
	}
	for _, d := range f.deletes {
		if d == remotePath {
			return 0, os.ErrNotExist
		}
	}
	if f.statSizes != nil {
		size, ok := f.statSizes[remotePath]
		if !ok {
			return 0, os.ErrNotExist
		}
		return size, nil
	}
	return f.statSize, nil
}

func (f *fakeRemote) Close() error { return nil }

func (f *fakeRemote) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

func (f *fakeRemote) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

type fakeProber struct {
	result media.ProbeResult
	err    error
}

func (f *fakeProber) Probe(ctx context.Context, path string) (media.ProbeResult, error) {
	return f.result, f.err
}

type fakeManifest struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeManifest) Refresh(ctx context.Context, account Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) PublishEvent(ctx context.Context, eventType string, key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}
