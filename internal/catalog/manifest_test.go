package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPlaylistRefresherUploadsManifest(t *testing.T) {
	videos := newFakeVideoRepo()
	videos.videos["v1"] = &Video{
		ID: "v1", Name: "intro.mp4", RelativePath: "alice/movies/intro.mp4",
		DurationS: 90, AccountID: "a1",
	}
	videos.videos["v2"] = &Video{
		ID: "v2", Name: "outro.mp4", RelativePath: "alice/movies/outro.mp4",
		DurationS: 45, AccountID: "a1",
	}
	videos.videos["other"] = &Video{
		ID: "other", Name: "theirs.mp4", RelativePath: "bob/misc/theirs.mp4",
		AccountID: "b1",
	}

	rc := newFakeRemote()
	publisher := &fakePublisher{}
	paths := NewPathBuilder("/home/streaming", "/usr/local/streaming")
	r := NewPlaylistRefresher(videos, rc, publisher, paths, zap.NewNop())

	require.NoError(t, r.Refresh(context.Background(), Account{ID: "a1", Login: "alice"}))

	doc, ok := rc.contents["/home/streaming/alice/playlist.m3u8"]
	require.True(t, ok, "manifest must land at the account root")

	text := string(doc)
	assert.Contains(t, text, "#EXTM3U\n")
	assert.Contains(t, text, "#EXTINF:90,intro.mp4\nalice/movies/intro.mp4\n")
	assert.Contains(t, text, "#EXTINF:45,outro.mp4\nalice/movies/outro.mp4\n")
	assert.NotContains(t, text, "theirs.mp4")

	assert.Contains(t, publisher.events, EventManifestRefreshed)
}

func TestRenderPlaylistEmptyCatalog(t *testing.T) {
	assert.Equal(t, "#EXTM3U\n", renderPlaylist(nil))
}
