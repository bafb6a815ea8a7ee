package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out  []byte
	err  error
	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return f.out, f.err
}

const probeDoc = `{
	"streams": [
		{"codec_type": "audio", "codec_name": "aac"},
		{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "bit_rate": "2100000"}
	],
	"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "734.500000", "bit_rate": "2400000"}
}`

func TestProbeParsesFormatSection(t *testing.T) {
	runner := &fakeRunner{out: []byte(probeDoc)}
	p := NewProber("ffprobe", time.Second, runner)

	res, err := p.Probe(context.Background(), "/tmp/in.mp4")
	require.NoError(t, err)

	assert.Equal(t, int64(734), res.DurationS)
	assert.Equal(t, "mov,mp4,m4a,3gp,3g2,mj2", res.Format)
	assert.Equal(t, "h264", res.Codec)
	assert.Equal(t, int64(2400), res.BitrateKbps)
	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 1080, res.Height)

	assert.Equal(t, "ffprobe", runner.name)
	assert.Contains(t, runner.args, "-show_streams")
	assert.Equal(t, "/tmp/in.mp4", runner.args[len(runner.args)-1])
}

func TestProbeFallsBackToStreamBitrate(t *testing.T) {
	doc := `{
		"streams": [{"codec_type": "video", "codec_name": "hevc", "bit_rate": "1500000", "duration": "60.2"}],
		"format": {"format_name": "matroska,webm"}
	}`
	p := NewProber("ffprobe", time.Second, &fakeRunner{out: []byte(doc)})

	res, err := p.Probe(context.Background(), "x.mkv")
	require.NoError(t, err)

	assert.Equal(t, int64(1500), res.BitrateKbps)
	assert.Equal(t, int64(60), res.DurationS)
}

func TestProbeNoVideoStream(t *testing.T) {
	doc := `{"streams": [{"codec_type": "audio", "codec_name": "mp3"}], "format": {"format_name": "mp3"}}`
	p := NewProber("ffprobe", time.Second, &fakeRunner{out: []byte(doc)})

	res, err := p.Probe(context.Background(), "x.mp3")
	require.NoError(t, err)

	assert.Equal(t, UnknownCodec, res.Codec)
	assert.Zero(t, res.Width)
}

func TestProbeRunFailure(t *testing.T) {
	p := NewProber("ffprobe", time.Second, &fakeRunner{err: errors.New("exit status 1")})

	_, err := p.Probe(context.Background(), "broken.avi")
	assert.Error(t, err)
}

func TestProbeParseFailure(t *testing.T) {
	p := NewProber("ffprobe", time.Second, &fakeRunner{out: []byte("not json")})

	_, err := p.Probe(context.Background(), "broken.avi")
	assert.Error(t, err)
}

func TestFallbackResult(t *testing.T) {
	res := FallbackResult()

	assert.Equal(t, UnknownCodec, res.Codec)
	assert.Zero(t, res.DurationS)
	assert.Zero(t, res.BitrateKbps)
}
