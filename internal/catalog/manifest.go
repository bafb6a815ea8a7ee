package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/streamvault/pkg/storage/remote"
)

// ManifestRefresher regenerates the per-account playback manifest after a
// catalog change. The pipeline invokes it and moves on; a refresh failure
// never affects the outcome of the ingestion or removal that triggered it.
type ManifestRefresher interface {
	Refresh(ctx context.Context, account Account) error
}

// PlaylistRefresher renders the account's records into an m3u8 playlist
// and places it next to the media on the streaming host.
type PlaylistRefresher struct {
	videos    VideoRepository
	remote    remote.Client
	publisher EventPublisher
	paths     PathBuilder
	logger    *zap.Logger
}

// NewPlaylistRefresher constructs a PlaylistRefresher.
func NewPlaylistRefresher(videos VideoRepository, rc remote.Client, publisher EventPublisher, paths PathBuilder, logger *zap.Logger) *PlaylistRefresher {
	return &PlaylistRefresher{
		videos:    videos,
		remote:    rc,
		publisher: publisher,
		paths:     paths,
		logger:    logger.Named("manifest"),
	}
}

// Refresh rebuilds and uploads the manifest, then emits a refresh event.
func (r *PlaylistRefresher) Refresh(ctx context.Context, account Account) error {
	videos, err := r.videos.ListByAccount(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("list account videos: %w", err)
	}

	doc := renderPlaylist(videos)

	tmp, err := os.CreateTemp("", "streamvault-manifest-*.m3u8")
	if err != nil {
		return fmt.Errorf("create manifest temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}

	manifestPath := r.paths.Manifest(account.Login)
	if err := r.remote.MkdirAll(ctx, r.paths.AccountDir(account.Login)); err != nil {
		return fmt.Errorf("ensure account dir: %w", err)
	}
	if err := r.remote.Put(ctx, manifestPath, tmp.Name()); err != nil {
		return fmt.Errorf("upload manifest: %w", err)
	}

	event := ManifestEvent{
		AccountID:    account.ID,
		AccountLogin: account.Login,
		ManifestPath: manifestPath,
		Entries:      len(videos),
		OccurredAt:   time.Now().UTC(),
	}
	if err := publishEvent(ctx, r.publisher, EventManifestRefreshed, account.ID, event); err != nil {
		// The manifest itself is already in place.
		r.logger.Warn("publish manifest event failed", zap.Error(err))
	}

	r.logger.Info("manifest refreshed",
		zap.String("account", account.Login),
		zap.Int("entries", len(videos)))
	return nil
}

func renderPlaylist(videos []*Video) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, v := range videos {
		fmt.Fprintf(&b, "#EXTINF:%d,%s\n", v.DurationS, v.Name)
		b.WriteString(v.RelativePath)
		b.WriteByte('\n')
	}
	return b.String()
}
