package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathBuilderCanonicalLayout(t *testing.T) {
	b := NewPathBuilder("/home/streaming", "/usr/local/streaming")

	assert.Equal(t, "/home/streaming/alice", b.AccountDir("alice"))
	assert.Equal(t, "/home/streaming/alice/movies", b.DestinationDir("alice", "movies"))
	assert.Equal(t, "/home/streaming/alice/movies/a.mp4", b.RemoteFile("alice", "movies", "a.mp4"))
	assert.Equal(t, "/home/streaming/alice/playlist.m3u8", b.Manifest("alice"))
}

func TestPathBuilderRelativeHasNoLeadingSlash(t *testing.T) {
	b := NewPathBuilder("/home/streaming", "/usr/local/streaming")

	rel := b.RelativeFile("alice", "movies", "a.mp4")
	assert.Equal(t, "alice/movies/a.mp4", rel)
	assert.False(t, strings.HasPrefix(rel, "/"))
}

func TestPathBuilderNormalizesSloppyInput(t *testing.T) {
	b := NewPathBuilder("home/streaming/", "/usr/local/streaming//")

	assert.Equal(t, "/home/streaming/alice/movies/a.mp4", b.RemoteFile("/alice/", "movies/", "a.mp4"))
	assert.Equal(t, "/usr/local/streaming/alice/movies/a.mp4", b.LegacyFile("alice/movies/a.mp4"))
}

func TestPathBuilderForwardSlashesOnly(t *testing.T) {
	b := NewPathBuilder("\\home\\streaming", "/usr/local/streaming")

	got := b.RemoteFile("alice", "movies", "a.mp4")
	assert.NotContains(t, got, "\\")
	assert.Equal(t, "/home/streaming/alice/movies/a.mp4", got)
}
