package clips

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/keagan/scriptreel/internal/assets"
	"github.com/keagan/scriptreel/internal/ffmpeg"
	"github.com/keagan/scriptreel/pkg/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	source   time.Duration
	probeErr error
	trimErr  error
	trims    []ffmpeg.TrimOptions
}

func (f *fakeMedia) ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return &ffmpeg.VideoInfo{FilePath: path, Duration: f.source, Width: 1920, Height: 1080}, nil
}

func (f *fakeMedia) Trim(ctx context.Context, input string, opts ffmpeg.TrimOptions) error {
	f.trims = append(f.trims, opts)
	if f.trimErr != nil {
		return f.trimErr
	}
	return os.WriteFile(opts.Output, []byte("trimmed"), 0644)
}

func payloadServer(t *testing.T, payload []byte, chunked bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp4" {
			http.NotFound(w, r)
			return
		}
		if chunked {
			// Flushing before the body is complete forces chunked encoding
			half := len(payload) / 2
			_, _ = w.Write(payload[:half])
			w.(http.Flusher).Flush()
			_, _ = w.Write(payload[half:])
			return
		}
		http.ServeContent(w, r, "clip.mp4", time.Time{}, bytes.NewReader(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClipLength(t *testing.T) {
	tests := []struct {
		name   string
		target time.Duration
		source time.Duration
		want   time.Duration
	}{
		{"source longer", 8 * time.Second, 30 * time.Second, 8 * time.Second},
		{"source shorter", 12 * time.Second, 5 * time.Second, 5 * time.Second},
		{"equal", 5 * time.Second, 5 * time.Second, 5 * time.Second},
		{"unknown source", 6 * time.Second, 0, 6 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClipLength(tt.target, tt.source))
		})
	}
}

func TestManagerKeepsSceneOrder(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(&Clip{ID: "a", Scene: 1, Path: "/w/scene_001.mp4", Duration: 2 * time.Second}))
	require.NoError(t, m.Add(&Clip{ID: "b", Scene: 3, Path: "/w/scene_003.mp4", Duration: 3 * time.Second}))

	assert.Error(t, m.Add(&Clip{ID: "c", Scene: 2}))
	assert.Error(t, m.Add(nil))

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"/w/scene_001.mp4", "/w/scene_003.mp4"}, m.Paths())
	assert.Equal(t, 5*time.Second, m.TotalDuration())
}

func TestScenePath(t *testing.T) {
	assert.Equal(t, filepath.Join("w", "scene_007.mp4"), ScenePath("w", 7))
	assert.Equal(t, filepath.Join("w", "42.mp4"), SourcePath("w", &assets.Asset{ID: "42"}))
}

func TestDownloadReportsProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 5*chunkSize+100)
	srv := payloadServer(t, payload, false)

	m := NewMaterializer(zerolog.Nop(), &fakeMedia{}, Options{})
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	var fractions []float64
	n, err := m.Download(context.Background(), srv.URL+"/clip.mp4", dest, func(f float64) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NotEmpty(t, fractions)
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
	for _, f := range fractions {
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestDownloadWithoutLengthSkipsProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("y"), 3*chunkSize)
	srv := payloadServer(t, payload, true)

	m := NewMaterializer(zerolog.Nop(), &fakeMedia{}, Options{})
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	calls := 0
	n, err := m.Download(context.Background(), srv.URL+"/clip.mp4", dest, func(float64) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Zero(t, calls)
}

func TestDownloadNotFound(t *testing.T) {
	srv := payloadServer(t, []byte("data"), false)
	m := NewMaterializer(zerolog.Nop(), &fakeMedia{}, Options{})
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	_, err := m.Download(context.Background(), srv.URL+"/missing.mp4", dest, nil)
	assert.ErrorIs(t, err, ErrDownload)
	assert.False(t, util.FileExists(dest))
}

func TestDownloadStalledBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write(bytes.Repeat([]byte("s"), 10))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	m := NewMaterializer(zerolog.Nop(), &fakeMedia{}, Options{Timeout: 200 * time.Millisecond})
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	start := time.Now()
	_, err := m.Download(context.Background(), srv.URL+"/clip.mp4", dest, nil)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrDownload)
	assert.ErrorIs(t, err, errStalled)
	assert.Less(t, elapsed, 2*time.Second)
	assert.False(t, util.FileExists(dest))
}

func TestDownloadStalledHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	m := NewMaterializer(zerolog.Nop(), &fakeMedia{}, Options{Timeout: 200 * time.Millisecond})

	start := time.Now()
	_, err := m.Download(context.Background(), srv.URL+"/clip.mp4", filepath.Join(t.TempDir(), "clip.mp4"), nil)
	assert.ErrorIs(t, err, errStalled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDownloadSlowButSteady(t *testing.T) {
	payload := bytes.Repeat([]byte("k"), 5*100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 5; i++ {
			_, _ = w.Write(payload[i*100 : (i+1)*100])
			w.(http.Flusher).Flush()
			time.Sleep(100 * time.Millisecond)
		}
	}))
	t.Cleanup(srv.Close)

	// The whole body takes longer than the timeout, but no gap does
	m := NewMaterializer(zerolog.Nop(), &fakeMedia{}, Options{Timeout: 300 * time.Millisecond})
	dest := filepath.Join(t.TempDir(), "clip.mp4")

	n, err := m.Download(context.Background(), srv.URL+"/clip.mp4", dest, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
}

func TestDownloadCanceled(t *testing.T) {
	srv := payloadServer(t, []byte("data"), false)
	m := NewMaterializer(zerolog.Nop(), &fakeMedia{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Download(ctx, srv.URL+"/clip.mp4", filepath.Join(t.TempDir(), "clip.mp4"), nil)
	assert.ErrorIs(t, err, ErrDownload)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, errStalled)
}

func TestMaterialize(t *testing.T) {
	payload := bytes.Repeat([]byte("z"), 2*chunkSize)
	srv := payloadServer(t, payload, false)
	dir := t.TempDir()

	var counted int64
	media := &fakeMedia{source: 5 * time.Second}
	m := NewMaterializer(zerolog.Nop(), media, Options{
		Preset:  "fast",
		CRF:     20,
		OnBytes: func(n int64) { counted += n },
	})
	asset := &assets.Asset{ID: "123", Query: "cat", Link: srv.URL + "/clip.mp4"}

	clip, err := m.Materialize(context.Background(), 2, asset, 12*time.Second, dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "123", clip.ID)
	assert.Equal(t, 2, clip.Scene)
	assert.Equal(t, ScenePath(dir, 2), clip.Path)
	assert.Equal(t, 5*time.Second, clip.Duration)
	assert.Equal(t, asset.Link, clip.SourceURL)
	assert.Equal(t, "cat", clip.Metadata["query"])
	assert.Equal(t, int64(len(payload)), counted)

	require.Len(t, media.trims, 1)
	assert.Equal(t, 5*time.Second, media.trims[0].Duration)
	assert.Equal(t, "fast", media.trims[0].Preset)
	assert.Equal(t, 20, media.trims[0].CRF)

	assert.True(t, util.FileExists(clip.Path))
	assert.False(t, util.FileExists(SourcePath(dir, asset)))
}

func TestMaterializeErrors(t *testing.T) {
	srv := payloadServer(t, []byte("video"), false)

	tests := []struct {
		name  string
		media *fakeMedia
		link  string
		want  error
	}{
		{"download", &fakeMedia{source: time.Second}, srv.URL + "/missing.mp4", ErrDownload},
		{"probe", &fakeMedia{probeErr: errors.New("moov atom not found")}, srv.URL + "/clip.mp4", ErrTrim},
		{"trim", &fakeMedia{source: time.Second, trimErr: errors.New("exit status 1")}, srv.URL + "/clip.mp4", ErrTrim},
		{"no link", &fakeMedia{}, "", ErrDownload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaterializer(zerolog.Nop(), tt.media, Options{})
			asset := &assets.Asset{ID: "9", Link: tt.link}
			clip, err := m.Materialize(context.Background(), 1, asset, 4*time.Second, t.TempDir(), nil)
			assert.Nil(t, clip)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
