package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ProbeResult holds the technical metadata extracted from a media file.
// The zero value (plus UnknownCodec) is what the pipeline falls back to
// when probing fails: ingestion never aborts on a probe error.
type ProbeResult struct {
	DurationS   int64
	Format      string
	Codec       string
	BitrateKbps int64
	Width       int
	Height      int
}

// UnknownCodec marks a record whose codec could not be determined.
const UnknownCodec = "unknown"

// FallbackResult is the ProbeResult persisted when inspection fails.
func FallbackResult() ProbeResult {
	return ProbeResult{Codec: UnknownCodec}
}

// Prober invokes ffprobe on local files.
type Prober struct {
	bin     string
	timeout time.Duration
	runner  Runner
}

// NewProber constructs a Prober for the given ffprobe binary.
func NewProber(bin string, timeout time.Duration, runner Runner) *Prober {
	return &Prober{bin: bin, timeout: timeout, runner: runner}
}

type ffprobeDocument struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width,omitempty"`
		Height    int    `json:"height,omitempty"`
		BitRate   string `json:"bit_rate,omitempty"`
		Duration  string `json:"duration,omitempty"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// Probe runs ffprobe against the file at path under the configured timeout.
// A missing or zero container bitrate falls back to the primary video
// stream's bitrate.
func (p *Prober) Probe(ctx context.Context, path string) (ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	out, err := p.runner.Run(ctx, p.bin, args...)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe: %w", err)
	}

	var doc ffprobeDocument
	if err := json.Unmarshal(out, &doc); err != nil {
		return ProbeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	res := ProbeResult{
		Format: doc.Format.FormatName,
		Codec:  UnknownCodec,
	}

	if sec, err := strconv.ParseFloat(doc.Format.Duration, 64); err == nil && sec > 0 {
		res.DurationS = int64(sec)
	}
	res.BitrateKbps = parseBitrateKbps(doc.Format.BitRate)

	for _, stream := range doc.Streams {
		if stream.CodecType != "video" {
			continue
		}
		res.Codec = stream.CodecName
		res.Width = stream.Width
		res.Height = stream.Height
		if res.BitrateKbps == 0 {
			res.BitrateKbps = parseBitrateKbps(stream.BitRate)
		}
		if res.DurationS == 0 {
			if sec, err := strconv.ParseFloat(stream.Duration, 64); err == nil && sec > 0 {
				res.DurationS = int64(sec)
			}
		}
		break
	}

	return res, nil
}

// parseBitrateKbps converts ffprobe's bits-per-second string to kbps.
func parseBitrateKbps(raw string) int64 {
	bps, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || bps <= 0 {
		return 0
	}
	return bps / 1000
}
