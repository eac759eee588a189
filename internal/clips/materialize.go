package clips

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/keagan/scriptreel/internal/assets"
	"github.com/keagan/scriptreel/internal/ffmpeg"
	"github.com/keagan/scriptreel/pkg/util"
	"github.com/rs/zerolog"
)

var (
	// ErrDownload covers failed or non-2xx downloads
	ErrDownload = errors.New("clip download failed")
	// ErrTrim covers probe and trim failures on a downloaded file
	ErrTrim = errors.New("clip trim failed")

	errStalled = errors.New("download stalled")
)

const (
	chunkSize = 8192
	// DefaultTimeout bounds connecting, waiting for headers and every gap
	// between body reads
	DefaultTimeout = 20 * time.Second
)

// ProgressFunc receives the downloaded fraction in [0, 1]
type ProgressFunc func(fraction float64)

// Media is the subset of the ffmpeg executor the materializer needs
type Media interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	Trim(ctx context.Context, input string, opts ffmpeg.TrimOptions) error
}

// Options configures a Materializer
type Options struct {
	Preset     string
	CRF        int
	Timeout    time.Duration
	HTTPClient *http.Client
	// OnBytes is told how many bytes each download wrote
	OnBytes func(n int64)
}

// Materializer downloads an asset and cuts it to the scene length
type Materializer struct {
	logger zerolog.Logger
	media  Media
	http   *http.Client
	opts   Options
}

// NewMaterializer creates a materializer
func NewMaterializer(logger zerolog.Logger, media Media, opts Options) *Materializer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = newDownloadClient(opts.Timeout)
	}
	return &Materializer{
		logger: logger.With().Str("component", "clips").Logger(),
		media:  media,
		http:   client,
		opts:   opts,
	}
}

// newDownloadClient bounds dialing and the TLS handshake. The wait for
// headers and body is bounded per download by Download's idle timer.
func newDownloadClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// ClipLength is the trim length for a scene: the target, shortened to the
// source when the source is known and shorter
func ClipLength(target, source time.Duration) time.Duration {
	if source > 0 && source < target {
		return source
	}
	return target
}

// SourcePath is where the raw download for asset lands in dir
func SourcePath(dir string, asset *assets.Asset) string {
	return filepath.Join(dir, asset.ID+".mp4")
}

// ScenePath is where the trimmed clip for scene lands in dir
func ScenePath(dir string, scene int) string {
	return filepath.Join(dir, fmt.Sprintf("scene_%03d.mp4", scene))
}

// Materialize downloads asset into dir and trims it to target
func (m *Materializer) Materialize(ctx context.Context, scene int, asset *assets.Asset, target time.Duration, dir string, progress ProgressFunc) (*Clip, error) {
	if asset == nil || asset.Link == "" {
		return nil, fmt.Errorf("%w: asset has no link", ErrDownload)
	}
	if target <= 0 {
		return nil, fmt.Errorf("%w: invalid target %v", ErrTrim, target)
	}

	src := SourcePath(dir, asset)
	written, err := m.Download(ctx, asset.Link, src, progress)
	if err != nil {
		return nil, err
	}
	defer util.CleanupFiles(src)

	info, err := m.media.ProbeVideo(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrim, err)
	}

	length := ClipLength(target, info.Duration)
	out := ScenePath(dir, scene)

	if err := m.media.Trim(ctx, src, ffmpeg.TrimOptions{
		Duration: length,
		Output:   out,
		Preset:   m.opts.Preset,
		CRF:      m.opts.CRF,
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrim, err)
	}

	m.logger.Info().
		Int("scene", scene).
		Str("asset", asset.ID).
		Int64("bytes", written).
		Dur("source", info.Duration).
		Dur("length", length).
		Msg("clip ready")

	return &Clip{
		ID:        asset.ID,
		Scene:     scene,
		Path:      out,
		Duration:  length,
		SourceURL: asset.Link,
		Metadata: map[string]interface{}{
			"query":           asset.Query,
			"target":          target.Seconds(),
			"source_duration": info.Duration.Seconds(),
			"width":           info.Width,
			"height":          info.Height,
		},
	}, nil
}

// Download streams link into dest and returns the byte count. The request is
// abandoned once the server goes Timeout without sending anything. progress
// is only called when the server announces a Content-Length.
func (m *Materializer) Download(ctx context.Context, link, dest string, progress ProgressFunc) (int64, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	idle := time.AfterFunc(m.opts.Timeout, func() { cancel(errStalled) })
	defer idle.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return 0, m.downloadErr(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	pw := &progressWriter{w: f, total: resp.ContentLength}
	if resp.ContentLength > 0 {
		pw.progress = progress
	}

	body := &idleReader{r: resp.Body, timer: idle, timeout: m.opts.Timeout}
	n, copyErr := io.CopyBuffer(pw, body, make([]byte, chunkSize))
	closeErr := f.Close()
	if m.opts.OnBytes != nil && n > 0 {
		m.opts.OnBytes(n)
	}
	if copyErr != nil {
		util.CleanupFiles(dest)
		return n, m.downloadErr(ctx, copyErr)
	}
	if closeErr != nil {
		util.CleanupFiles(dest)
		return n, fmt.Errorf("%w: %w", ErrDownload, closeErr)
	}

	m.logger.Debug().Str("dest", dest).Int64("bytes", n).Msg("download complete")
	return n, nil
}

// downloadErr wraps err in ErrDownload, naming the idle timeout when that is
// what ended the request
func (m *Materializer) downloadErr(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), errStalled) {
		return fmt.Errorf("%w: no data for %v: %w", ErrDownload, m.opts.Timeout, errStalled)
	}
	return fmt.Errorf("%w: %w", ErrDownload, err)
}

// idleReader pushes the idle deadline back after every read
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

// progressWriter reports the written fraction after each chunk. It does not
// implement io.ReaderFrom so io.CopyBuffer keeps to the chunk buffer.
type progressWriter struct {
	w        io.Writer
	total    int64
	written  int64
	last     float64
	progress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.progress != nil && p.total > 0 {
		frac := float64(p.written) / float64(p.total)
		if frac > 1 {
			frac = 1
		}
		if frac >= p.last {
			p.last = frac
			p.progress(frac)
		}
	}
	return n, err
}
