package media

import "strings"

// CompatStatus classifies whether a file can stream without transcoding.
type CompatStatus string

const (
	StatusCompatible      CompatStatus = "compatible"
	StatusNeedsConversion CompatStatus = "needs_conversion"
	StatusBitrateHigh     CompatStatus = "bitrate_high"
)

// DefaultBitrateCeilingKbps applies when the account carries no configured
// ceiling of its own.
const DefaultBitrateCeilingKbps = 2500

// streamableCodecs are the codecs the streaming engine plays natively.
var streamableCodecs = map[string]struct{}{
	"h264": {},
	"h265": {},
	"hevc": {},
}

// streamableFormats are the container extensions the engine plays natively.
var streamableFormats = map[string]struct{}{
	"mp4": {},
}

// Verdict is the deterministic compatibility classification of one file.
type Verdict struct {
	IsMP4               bool
	CodecCompatible     bool
	FormatCompatible    bool
	BitrateExceedsLimit bool
}

// Classify derives a Verdict from probed metadata, the file extension
// (with or without leading dot) and the account's bitrate ceiling in kbps.
// A ceiling <= 0 falls back to DefaultBitrateCeilingKbps.
func Classify(probe ProbeResult, ext string, ceilingKbps int64) Verdict {
	if ceilingKbps <= 0 {
		ceilingKbps = DefaultBitrateCeilingKbps
	}

	norm := strings.ToLower(strings.TrimPrefix(ext, "."))
	_, codecOK := streamableCodecs[strings.ToLower(probe.Codec)]
	_, formatOK := streamableFormats[norm]

	return Verdict{
		IsMP4:               norm == "mp4",
		CodecCompatible:     codecOK,
		FormatCompatible:    formatOK,
		BitrateExceedsLimit: probe.BitrateKbps > ceilingKbps,
	}
}

// NeedsConversion is the container+codec predicate used when answering an
// upload. NeedsConversionStrict additionally requires a streamable
// container format; it is what the listing endpoint re-derives. The two
// are kept as distinct predicates deliberately: the platform has always
// answered uploads without the format check, and readings of stored
// records with it.
func (v Verdict) NeedsConversion() bool {
	return !v.IsMP4 || !v.CodecCompatible
}

func (v Verdict) NeedsConversionStrict() bool {
	return !v.IsMP4 || !v.CodecCompatible || !v.FormatCompatible
}

// Status resolves the final upload-path status. A conversion requirement
// always overrides a bitrate violation.
func (v Verdict) Status() CompatStatus {
	switch {
	case v.NeedsConversion():
		return StatusNeedsConversion
	case v.BitrateExceedsLimit:
		return StatusBitrateHigh
	default:
		return StatusCompatible
	}
}

// StrictStatus resolves the status the listing endpoint reports.
func (v Verdict) StrictStatus() CompatStatus {
	switch {
	case v.NeedsConversionStrict():
		return StatusNeedsConversion
	case v.BitrateExceedsLimit:
		return StatusBitrateHigh
	default:
		return StatusCompatible
	}
}

// Color maps a status onto the traffic-light color the UI renders.
func (s CompatStatus) Color() string {
	switch s {
	case StatusCompatible:
		return "green"
	case StatusBitrateHigh:
		return "orange"
	default:
		return "red"
	}
}
