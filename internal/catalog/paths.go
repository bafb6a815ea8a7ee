package catalog

import (
	"path"
	"strings"
)

// PathBuilder derives every remote and relative path used by the pipeline
// from one canonical root. Invariants: forward-slash separators, cleaned
// segments, and relative paths never start with a slash.
type PathBuilder struct {
	root       string
	legacyRoot string
}

// NewPathBuilder normalizes the storage roots once.
func NewPathBuilder(root, legacyRoot string) PathBuilder {
	return PathBuilder{
		root:       "/" + trimSlashes(root),
		legacyRoot: "/" + trimSlashes(legacyRoot),
	}
}

func trimSlashes(s string) string {
	return strings.Trim(path.Clean(strings.ReplaceAll(s, "\\", "/")), "/")
}

// AccountDir is the account's directory on the streaming host.
func (b PathBuilder) AccountDir(login string) string {
	return path.Join(b.root, trimSlashes(login))
}

// DestinationDir is the directory files of one destination land in.
func (b PathBuilder) DestinationDir(login, destination string) string {
	return path.Join(b.AccountDir(login), trimSlashes(destination))
}

// RemoteFile is the absolute path of a placed file.
func (b PathBuilder) RemoteFile(login, destination, filename string) string {
	return path.Join(b.DestinationDir(login, destination), trimSlashes(filename))
}

// RelativeFile is the path of a placed file relative to the storage root,
// without a leading slash.
func (b PathBuilder) RelativeFile(login, destination, filename string) string {
	return strings.TrimPrefix(b.RemoteFile(login, destination, filename), b.root+"/")
}

// Manifest is the absolute path of the account's playback manifest.
func (b PathBuilder) Manifest(login string) string {
	return path.Join(b.AccountDir(login), "playlist.m3u8")
}

// LegacyFile mirrors a relative path under the legacy root. Used only for
// read-only existence checks against hosts that predate the current layout.
func (b PathBuilder) LegacyFile(relative string) string {
	return path.Join(b.legacyRoot, trimSlashes(relative))
}
