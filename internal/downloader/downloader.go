package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Microck/FrameScribe/internal/pipeline"
)

// Metadata describes a remote video before download.
type Metadata struct {
	ID        string
	Title     string
	Duration  time.Duration
	Extractor string
}

// Request describes one download.
type Request struct {
	URL              string
	Dir              string
	SubtitleLanguage string
}

// Media lists the files a download produced. SubtitlePath is empty when no
// subtitle track was available.
type Media struct {
	VideoPath        string
	SubtitlePath     string
	SubtitleLanguage string
}

// Fetcher is implemented by each download backend.
type Fetcher interface {
	Probe(ctx context.Context, rawURL string) (Metadata, error)
	Fetch(ctx context.Context, req Request) (Media, error)
}

const stageName = "downloading"

// videoExtensions is the discovery preference order for downloaded files.
var videoExtensions = []string{".mp4", ".mkv", ".webm", ".flv", ".avi", ".mov"}

var subtitleExtensions = []string{".srt", ".vtt", ".ass", ".ssa", ".ttml"}

// ValidateURL checks that value is an http(s) URL with a host. A missing
// scheme is treated as https.
func ValidateURL(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", pipeline.Wrap(pipeline.ErrInvalidURL, "input", "url", "empty url", nil)
	}
	if !strings.Contains(value, "://") {
		value = "https://" + value
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", pipeline.Wrap(pipeline.ErrInvalidURL, "input", "url", "parse", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", pipeline.Wrap(pipeline.ErrInvalidURL, "input", "url", fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
	host := parsed.Hostname()
	if host == "" || (!strings.Contains(host, ".") && host != "localhost") {
		return "", pipeline.Wrap(pipeline.ErrInvalidURL, "input", "url", fmt.Sprintf("invalid host %q", parsed.Host), nil)
	}
	return parsed.String(), nil
}

// findVideo returns the downloaded video in dir whose name starts with stem,
// honoring the extension preference order.
func findVideo(dir, stem string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list download dir: %w", err)
	}
	best := ""
	bestRank := len(videoExtensions)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), stem+".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		rank := slices.Index(videoExtensions, ext)
		if rank < 0 || rank >= bestRank {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		best = filepath.Join(dir, entry.Name())
		bestRank = rank
	}
	if best == "" {
		return "", errors.New("no video file found after download")
	}
	return best, nil
}

// findSubtitle returns the subtitle file named stem.<lang>.<ext> in dir and its
// language. Files for the requested language win over other languages.
func findSubtitle(dir, stem, lang string) (string, string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}
	type candidate struct {
		path string
		lang string
		rank int
	}
	var found []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, stem+".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		rank := slices.Index(subtitleExtensions, ext)
		if rank < 0 {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(name, stem+"."), filepath.Ext(name))
		if !strings.EqualFold(middle, lang) && !strings.HasPrefix(strings.ToLower(middle), strings.ToLower(lang)+"-") {
			rank += len(subtitleExtensions)
		}
		found = append(found, candidate{path: filepath.Join(dir, name), lang: middle, rank: rank})
	}
	if len(found) == 0 {
		return "", ""
	}
	slices.SortFunc(found, func(a, b candidate) int {
		if a.rank != b.rank {
			return a.rank - b.rank
		}
		return strings.Compare(a.path, b.path)
	})
	return found[0].path, found[0].lang
}
