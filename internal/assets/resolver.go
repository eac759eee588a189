// Package assets turns a search query into a downloadable stock clip.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/keagan/scriptreel/internal/pexels"
	"github.com/rs/zerolog"
)

var (
	// ErrMissingCredential means no provider API key is configured
	ErrMissingCredential = errors.New("provider credential missing")
	// ErrNoResults means the provider returned zero videos for the query
	ErrNoResults = errors.New("no video found for query")
	// ErrNoUsableLink means the chosen video has no file with a download link
	ErrNoUsableLink = errors.New("video has no usable file link")
	// ErrTransport covers network failures, non-2xx answers and undecodable bodies
	ErrTransport = errors.New("provider request failed")
)

// QualityHD is the provider label for high definition renditions
const QualityHD = "hd"

// Asset is a resolved provider clip ready for download
type Asset struct {
	// Provider id, used to name the downloaded file
	ID string
	// Query that found it
	Query string
	Link  string
	// Provider reported length in seconds, 0 when unknown
	Duration int
	Width    int
	Height   int
	Quality  string
}

// Searcher runs a provider search
type Searcher interface {
	HasCredential() bool
	Search(ctx context.Context, query string, perPage int) (*pexels.SearchResponse, error)
}

// Options configures a Resolver
type Options struct {
	PerPage int
	// Prefer "hd" renditions when the video offers any
	HDOnly bool
}

// Resolver picks one downloadable file per query
type Resolver struct {
	logger   zerolog.Logger
	searcher Searcher
	opts     Options
}

// NewResolver creates a resolver
func NewResolver(logger zerolog.Logger, searcher Searcher, opts Options) *Resolver {
	if opts.PerPage <= 0 {
		opts.PerPage = 1
	}
	return &Resolver{
		logger:   logger.With().Str("component", "assets").Logger(),
		searcher: searcher,
		opts:     opts,
	}
}

// Resolve finds the first video for query and selects its best file
func (r *Resolver) Resolve(ctx context.Context, query string) (*Asset, error) {
	if r.searcher == nil || !r.searcher.HasCredential() {
		return nil, ErrMissingCredential
	}

	resp, err := r.searcher.Search(ctx, query, r.opts.PerPage)
	if err != nil {
		if errors.Is(err, pexels.ErrNoAPIKey) {
			return nil, ErrMissingCredential
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if resp == nil || len(resp.Videos) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoResults, query)
	}

	video := resp.Videos[0]
	file, ok := SelectFile(video.VideoFiles, r.opts.HDOnly)
	if !ok {
		return nil, fmt.Errorf("%w: video %d", ErrNoUsableLink, video.ID)
	}

	asset := &Asset{
		ID:       strconv.FormatInt(video.ID, 10),
		Query:    query,
		Link:     file.Link,
		Duration: video.Duration,
		Width:    file.Width,
		Height:   file.Height,
		Quality:  file.Quality,
	}

	r.logger.Debug().
		Str("query", query).
		Str("asset", asset.ID).
		Int("height", asset.Height).
		Str("quality", asset.Quality).
		Msg("asset resolved")

	return asset, nil
}

// SelectFile orders files by height, tallest first, keeps only "hd" files
// when hdOnly is set and at least one exists, and returns the first. The
// chosen file must carry a link.
func SelectFile(files []pexels.VideoFile, hdOnly bool) (pexels.VideoFile, bool) {
	if len(files) == 0 {
		return pexels.VideoFile{}, false
	}

	sorted := make([]pexels.VideoFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Height > sorted[j].Height
	})

	candidates := sorted
	if hdOnly {
		var hd []pexels.VideoFile
		for _, f := range sorted {
			if f.Quality == QualityHD {
				hd = append(hd, f)
			}
		}
		if len(hd) > 0 {
			candidates = hd
		}
	}

	best := candidates[0]
	if best.Link == "" {
		return pexels.VideoFile{}, false
	}
	return best, true
}
