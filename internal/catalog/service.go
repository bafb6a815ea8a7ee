package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/streamvault/internal/media"
	"github.com/your-org/streamvault/pkg/storage/remote"
)

// allowedExtensions is the set of container extensions accepted for
// ingestion. Anything else is rejected before any side effect.
var allowedExtensions = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".mkv": {}, ".3gp": {}, ".3g2": {}, ".ts": {},
	".mpg": {}, ".mpeg": {}, ".ogv": {}, ".m4v": {}, ".asf": {},
}

// Prober is the media inspection surface the pipeline consumes.
type Prober interface {
	Probe(ctx context.Context, path string) (media.ProbeResult, error)
}

// Service drives the ingestion and removal pipelines over the injected
// collaborators. Each request runs one synchronous pipeline instance;
// the quota ledger is the only cross-request serialization point.
type Service struct {
	destinations DestinationRepository
	videos       VideoRepository
	quota        *Ledger
	prober       Prober
	remote       remote.Client
	manifest     ManifestRefresher
	publisher    EventPublisher
	paths        PathBuilder

	transferTimeout time.Duration
	logger          *zap.Logger
	tracer          trace.Tracer
}

type Params struct {
	Destinations DestinationRepository
	Videos       VideoRepository
	Quota        *Ledger
	Prober       Prober
	Remote       remote.Client
	Manifest     ManifestRefresher
	Publisher    EventPublisher
	Paths        PathBuilder

	TransferTimeout time.Duration
	Logger          *zap.Logger
}

// NewService constructs the catalog Service.
func NewService(p Params) *Service {
	return &Service{
		destinations:    p.Destinations,
		videos:          p.Videos,
		quota:           p.Quota,
		prober:          p.Prober,
		remote:          p.Remote,
		manifest:        p.Manifest,
		publisher:       p.Publisher,
		paths:           p.Paths,
		transferTimeout: p.TransferTimeout,
		logger:          p.Logger.Named("catalog"),
		tracer:          otel.Tracer("streamvault/catalog"),
	}
}

// Upload is the transient asset handed to Ingest. The service owns the
// temp file from this point on and removes it on every exit path.
type Upload struct {
	TempPath string
	Filename string
	Size     int64
	MIME     string
}

// IngestResult is the outcome of a completed ingestion.
type IngestResult struct {
	Video   *Video
	Verdict media.Verdict
	Probe   media.ProbeResult
	SpaceMB int64
}

// Ingest runs the full create pipeline: validate, probe, classify,
// reserve quota, place remotely, persist, refresh manifest. Compensations
// for completed stages run in reverse order on any failure, so a failed
// ingestion leaves no temp file, no orphaned remote file and no dangling
// reservation.
func (s *Service) Ingest(ctx context.Context, account Account, destinationID string, up Upload) (*IngestResult, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ingest",
		trace.WithAttributes(
			attribute.String("account.login", account.Login),
			attribute.String("destination.id", destinationID),
			attribute.Int64("upload.size_bytes", up.Size),
		))
	defer span.End()

	comps := newCompensations(s.logger)
	comps.push("remove temp asset", func(ctx context.Context) error {
		return removeTemp(up.TempPath)
	})

	ext := strings.ToLower(filepath.Ext(up.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		comps.run(ctx)
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrValidation, ext)
	}
	if destinationID == "" {
		comps.run(ctx)
		return nil, fmt.Errorf("%w: destination is required", ErrValidation)
	}

	probe := s.probe(ctx, up.TempPath)
	verdict := media.Classify(probe, ext, account.BitrateCeilingKbps)

	dest, err := s.destinations.GetForAccount(ctx, destinationID, account.ID)
	if err != nil {
		comps.run(ctx)
		return nil, err
	}

	spaceMB, err := s.quota.Reserve(ctx, dest, up.Size)
	if err != nil {
		comps.run(ctx)
		return nil, err
	}
	comps.push("release quota reservation", func(ctx context.Context) error {
		return s.quota.Release(ctx, dest.ID, up.Size)
	})

	filename := uuid.NewString() + ext
	remotePath, err := s.place(ctx, account, dest, filename, up.TempPath)
	if err != nil {
		comps.run(ctx)
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	comps.push("delete remote file", func(ctx context.Context) error {
		return s.remote.Delete(ctx, remotePath)
	})

	// The asset now lives remotely; the local copy is done for.
	if err := removeTemp(up.TempPath); err != nil {
		s.logger.Warn("remove temp asset failed", zap.String("path", up.TempPath), zap.Error(err))
	}

	video := &Video{
		ID:            uuid.NewString(),
		Name:          up.Filename,
		RelativePath:  s.paths.RelativeFile(account.Login, dest.Name, filename),
		RemotePath:    remotePath,
		DurationS:     probe.DurationS,
		SizeBytes:     up.Size,
		AccountID:     account.ID,
		DestinationID: dest.ID,
		BitrateKbps:   probe.BitrateKbps,
		Format:        probe.Format,
		Codec:         probe.Codec,
		Width:         probe.Width,
		Height:        probe.Height,
		IsMP4:         verdict.IsMP4,
		Compatible:    verdict.Status() == media.StatusCompatible,
	}
	if video.Codec == "" {
		video.Codec = media.UnknownCodec
	}

	if err := s.videos.Insert(ctx, video); err != nil {
		comps.run(ctx)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.queueManifestRefresh(account)
	s.publishVideoEvent(ctx, EventVideoIngested, account, video, string(verdict.Status()))

	s.logger.Info("video ingested",
		zap.String("video_id", video.ID),
		zap.String("account", account.Login),
		zap.String("destination", dest.Name),
		zap.Int64("size_bytes", up.Size),
		zap.String("status", string(verdict.Status())))

	return &IngestResult{Video: video, Verdict: verdict, Probe: probe, SpaceMB: spaceMB}, nil
}

// probe degrades gracefully: inspection failure is logged and ingestion
// continues with fallback metadata.
func (s *Service) probe(ctx context.Context, path string) media.ProbeResult {
	ctx, span := s.tracer.Start(ctx, "catalog.probe")
	defer span.End()

	probe, err := s.prober.Probe(ctx, path)
	if err != nil {
		s.logger.Warn("probe failed, continuing with defaults", zap.String("path", path), zap.Error(err))
		return media.FallbackResult()
	}
	return probe
}

func (s *Service) place(ctx context.Context, account Account, dest *Destination, filename, localPath string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.place")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()

	dir := s.paths.DestinationDir(account.Login, dest.Name)
	if err := s.remote.MkdirAll(ctx, dir); err != nil {
		return "", fmt.Errorf("ensure remote dir %s: %w", dir, err)
	}

	remotePath := s.paths.RemoteFile(account.Login, dest.Name, filename)
	if err := s.remote.Put(ctx, remotePath, localPath); err != nil {
		return "", err
	}
	return remotePath, nil
}

// ListEntry pairs a stored record with its compatibility re-derived at
// read time; stored flags are not trusted.
type ListEntry struct {
	Video   *Video
	Verdict media.Verdict
	Status  media.CompatStatus
}

// List returns every record of the destination, scoped to the account.
func (s *Service) List(ctx context.Context, account Account, destinationID string) ([]ListEntry, error) {
	if destinationID == "" {
		return nil, fmt.Errorf("%w: destination is required", ErrValidation)
	}

	dest, err := s.destinations.GetForAccount(ctx, destinationID, account.ID)
	if err != nil {
		return nil, err
	}

	videos, err := s.videos.ListByDestination(ctx, dest.ID)
	if err != nil {
		return nil, err
	}

	entries := make([]ListEntry, 0, len(videos))
	for _, v := range videos {
		probe := media.ProbeResult{Codec: v.Codec, BitrateKbps: v.BitrateKbps}
		verdict := media.Classify(probe, filepath.Ext(v.RelativePath), account.BitrateCeilingKbps)
		entries = append(entries, ListEntry{
			Video:   v,
			Verdict: verdict,
			Status:  verdict.StrictStatus(),
		})
	}
	return entries, nil
}

// Remove runs the inverse pipeline. The remote delete is best-effort:
// an unreachable streaming host must not permanently block the catalog.
func (s *Service) Remove(ctx context.Context, account Account, videoID string) error {
	ctx, span := s.tracer.Start(ctx, "catalog.remove",
		trace.WithAttributes(attribute.String("video.id", videoID)))
	defer span.End()

	video, err := s.videos.GetForAccount(ctx, videoID, account.ID)
	if err != nil {
		return err
	}

	if !strings.Contains(video.RemotePath, "/"+account.Login+"/") {
		return fmt.Errorf("%w: remote path outside account tree", ErrForbidden)
	}

	// Old records predate size bookkeeping; fall back to a live stat,
	// checking the legacy tree for records that predate the current
	// layout as well. The stat has to happen before the remote delete,
	// since afterwards there is no file left to measure.
	size := video.SizeBytes
	if size == 0 {
		if statSize, statErr := s.remote.Stat(ctx, video.RemotePath); statErr == nil {
			size = statSize
		} else if legacySize, legacyErr := s.remote.Stat(ctx, s.paths.LegacyFile(video.RelativePath)); legacyErr == nil {
			size = legacySize
		} else {
			s.logger.Warn("stat fallback failed, skipping quota release",
				zap.String("remote_path", video.RemotePath), zap.Error(statErr))
		}
	}

	if err := s.remote.Delete(ctx, video.RemotePath); err != nil {
		s.logger.Warn("remote delete failed, removing record anyway",
			zap.String("video_id", video.ID),
			zap.String("remote_path", video.RemotePath),
			zap.Error(err))
	}

	deleted, err := s.videos.Delete(ctx, video.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !deleted {
		return ErrNotFound
	}

	if size > 0 {
		if err := s.quota.Release(ctx, video.DestinationID, size); err != nil {
			s.logger.Error("quota release failed", zap.String("video_id", video.ID), zap.Error(err))
		}
	}

	s.queueManifestRefresh(account)
	s.publishVideoEvent(ctx, EventVideoRemoved, account, video, "")

	s.logger.Info("video removed",
		zap.String("video_id", video.ID),
		zap.String("account", account.Login))
	return nil
}

// queueManifestRefresh triggers the manifest regeneration without tying
// it to the request's outcome or lifetime.
func (s *Service) queueManifestRefresh(account Account) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.manifest.Refresh(ctx, account); err != nil {
			s.logger.Warn("manifest refresh failed",
				zap.String("account", account.Login), zap.Error(err))
		}
	}()
}

func (s *Service) publishVideoEvent(ctx context.Context, eventType string, account Account, video *Video, status string) {
	event := VideoEvent{
		VideoID:       video.ID,
		AccountID:     account.ID,
		AccountLogin:  account.Login,
		DestinationID: video.DestinationID,
		RemotePath:    video.RemotePath,
		SizeBytes:     video.SizeBytes,
		Status:        status,
		OccurredAt:    time.Now().UTC(),
	}
	if err := publishEvent(ctx, s.publisher, eventType, video.ID, event); err != nil {
		s.logger.Warn("publish catalog event failed",
			zap.String("event_type", eventType), zap.Error(err))
	}
}

// compensations is the rollback list attached to one pipeline instance.
// Actions run in reverse push order; their failures are logged, never
// re-thrown.
type compensations struct {
	logger  *zap.Logger
	actions []compensation
}

type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

func newCompensations(logger *zap.Logger) *compensations {
	return &compensations{logger: logger}
}

func (c *compensations) push(name string, fn func(ctx context.Context) error) {
	c.actions = append(c.actions, compensation{name: name, fn: fn})
}

// run executes the pending compensations LIFO. The context is detached
// from the request's cancellation so a client disconnect cannot starve
// its own cleanup.
func (c *compensations) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()

	for i := len(c.actions) - 1; i >= 0; i-- {
		act := c.actions[i]
		if err := act.fn(ctx); err != nil {
			c.logger.Error("compensation failed", zap.String("action", act.name), zap.Error(err))
		}
	}
	c.actions = nil
}

// removeTemp tolerates an already-gone file: the success path deletes the
// asset before the compensation list unwinds.
func removeTemp(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
