package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/your-org/streamvault/internal/media"
)

// HTTPHandler exposes the catalog REST endpoints. Authentication happens
// upstream; the gateway forwards the account identity in headers.
type HTTPHandler struct {
	service            *Service
	logger             *zap.Logger
	maxSizeBytes       int64
	formMemBytes       int64
	defaultBitrateKbps int64
	tempDir            string
	router             chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes.
func NewHTTPHandler(service *Service, logger *zap.Logger, maxSizeBytes, formMemBytes, defaultBitrateKbps int64, tempDir string) *HTTPHandler {
	if defaultBitrateKbps <= 0 {
		defaultBitrateKbps = media.DefaultBitrateCeilingKbps
	}
	h := &HTTPHandler{
		service:            service,
		logger:             logger.Named("http"),
		maxSizeBytes:       maxSizeBytes,
		formMemBytes:       formMemBytes,
		defaultBitrateKbps: defaultBitrateKbps,
		tempDir:            tempDir,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api/v1/videos", func(r chi.Router) {
		r.Use(h.accountContext)
		r.With(middleware.Timeout(2*time.Minute)).Get("/", h.handleList)
		r.With(middleware.Timeout(2*time.Minute)).Delete("/{id}", h.handleRemove)
		// A multi-gigabyte transfer outlives any sane middleware deadline;
		// the upload route is bounded by the server write timeout instead.
		r.Post("/", h.handleCreate)
	})

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

type accountKey struct{}

// accountContext builds the Account value once at the boundary from the
// gateway headers. Pipeline stages never reconstruct identity ad hoc.
func (h *HTTPHandler) accountContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Account-Id")
		login := r.Header.Get("X-Account-Login")
		if id == "" || login == "" {
			writeError(w, http.StatusUnauthorized, "missing account identity")
			return
		}

		account := Account{ID: id, Login: login}
		if raw := r.Header.Get("X-Bitrate-Limit"); raw != "" {
			if kbps, err := strconv.ParseInt(raw, 10, 64); err == nil && kbps > 0 {
				account.BitrateCeilingKbps = kbps
			}
		}
		if account.BitrateCeilingKbps <= 0 {
			account.BitrateCeilingKbps = h.defaultBitrateKbps
		}

		ctx := context.WithValue(r.Context(), accountKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountFrom(ctx context.Context) Account {
	account, _ := ctx.Value(accountKey{}).(Account)
	return account
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type videoResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RelativePath string `json:"relative_path"`
	RemotePath   string `json:"remote_path"`
	DurationS    int64  `json:"duration"`
	SizeBytes    int64  `json:"size_bytes"`
	BitrateKbps  int64  `json:"bitrate_kbps"`
	Format       string `json:"format"`
	Codec        string `json:"codec"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	IsMP4        bool   `json:"is_mp4"`
	Status       string `json:"status"`
	StatusColor  string `json:"status_color"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())

	if r.ContentLength > 0 && r.ContentLength > h.maxSizeBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeBytes)

	if err := r.ParseMultipartForm(h.formMemBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "video field is required")
		return
	}
	defer file.Close()

	destinationID := r.FormValue("folder_id")
	if destinationID == "" {
		writeError(w, http.StatusBadRequest, "folder_id is required")
		return
	}

	tempPath, err := h.spool(file)
	if err != nil {
		h.logger.Error("spool upload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}

	result, err := h.service.Ingest(r.Context(), account, destinationID, Upload{
		TempPath: tempPath,
		Filename: header.Filename,
		Size:     header.Size,
		MIME:     header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.writeServiceError(w, err, "ingest failed")
		return
	}

	status := result.Verdict.Status()
	resp := struct {
		videoResponse
		SpaceMB int64 `json:"space_mb"`
	}{
		videoResponse: toVideoResponse(result.Video, string(status), status.Color()),
		SpaceMB:       result.SpaceMB,
	}
	writeJSON(w, http.StatusCreated, resp)
}

// spool copies the multipart part onto disk; the service owns the file
// from here on.
func (h *HTTPHandler) spool(src io.Reader) (string, error) {
	tmp, err := os.CreateTemp(h.tempDir, "streamvault-upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", err
	}
	return tmp.Name(), nil
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())

	entries, err := h.service.List(r.Context(), account, r.URL.Query().Get("folder_id"))
	if err != nil {
		h.writeServiceError(w, err, "list failed")
		return
	}

	videos := make([]videoResponse, 0, len(entries))
	for _, e := range entries {
		videos = append(videos, toVideoResponse(e.Video, string(e.Status), e.Status.Color()))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"videos":        videos,
		"bitrate_limit": account.BitrateCeilingKbps,
	})
}

func (h *HTTPHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())

	if err := h.service.Remove(r.Context(), account, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "remove failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "removed",
	})
}

func toVideoResponse(v *Video, status, color string) videoResponse {
	resp := videoResponse{
		ID:           v.ID,
		Name:         v.Name,
		RelativePath: v.RelativePath,
		RemotePath:   v.RemotePath,
		DurationS:    v.DurationS,
		SizeBytes:    v.SizeBytes,
		BitrateKbps:  v.BitrateKbps,
		Format:       v.Format,
		Codec:        v.Codec,
		Width:        v.Width,
		Height:       v.Height,
		IsMP4:        v.IsMP4,
		Status:       status,
		StatusColor:  color,
	}
	if !v.CreatedAt.IsZero() {
		resp.CreatedAt = v.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	var quotaErr *QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "quota exceeded",
			"quota": quotaErr.Breakdown,
		})
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		h.logger.Error(msg, zap.Error(err))
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
