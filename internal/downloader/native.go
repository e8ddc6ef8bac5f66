package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
)

// Native downloads YouTube videos without external binaries. Only progressive
// (muxed audio+video) mp4 formats are considered so no ffmpeg merge is needed.
type Native struct {
	client youtube.Client
	http   *http.Client
	logger *slog.Logger
}

// NewNative constructs the pure-Go backend.
func NewNative(httpClient *http.Client, logger *slog.Logger) *Native {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Native{
		client: youtube.Client{HTTPClient: httpClient},
		http:   httpClient,
		logger: logging.NewComponentLogger(logger, "youtube"),
	}
}

// Probe fetches title and duration.
func (n *Native) Probe(ctx context.Context, rawURL string) (Metadata, error) {
	video, err := n.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return Metadata{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "video info", "", err)
	}
	return Metadata{
		ID:        video.ID,
		Title:     strings.TrimSpace(video.Title),
		Duration:  video.Duration,
		Extractor: "youtube",
	}, nil
}

// Fetch streams the best progressive mp4 and the preferred caption track.
func (n *Native) Fetch(ctx context.Context, req Request) (Media, error) {
	if strings.TrimSpace(req.Dir) == "" {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "fetch", "destination directory required", nil)
	}
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "fetch", "create destination", err)
	}

	video, err := n.client.GetVideoContext(ctx, req.URL)
	if err != nil {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "video info", "", err)
	}
	format := pickFormat(video.Formats)
	if format == nil {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "select format", "no progressive mp4 stream with audio", nil)
	}

	stream, _, err := n.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "open stream", "", err)
	}
	defer stream.Close()

	videoPath := filepath.Join(req.Dir, videoStem+".mp4")
	if err := writeStream(videoPath, stream); err != nil {
		return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "write video", "", err)
	}
	n.logger.Info("video downloaded",
		logging.String("video_file", videoPath),
		logging.String("quality", format.QualityLabel),
	)

	media := Media{VideoPath: videoPath}
	lang := strings.TrimSpace(req.SubtitleLanguage)
	if lang == "" {
		lang = "en"
	}
	track := pickCaption(video.CaptionTracks, lang)
	if track == nil {
		n.logger.Info("no caption track available", logging.String("language", lang))
		return media, nil
	}
	subPath := filepath.Join(req.Dir, fmt.Sprintf("%s.%s.vtt", subtitleStem, track.LanguageCode))
	if err := n.fetchCaption(ctx, track.BaseURL, subPath); err != nil {
		if ctx.Err() != nil {
			return Media{}, pipeline.Wrap(pipeline.ErrDownload, stageName, "subtitles", "", ctx.Err())
		}
		logging.WarnWithContext(n.logger, "caption download failed", "subtitle_download_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "transcript will be omitted"),
		)
		return media, nil
	}
	media.SubtitlePath = subPath
	media.SubtitleLanguage = track.LanguageCode
	return media, nil
}

func (n *Native) fetchCaption(ctx context.Context, baseURL, dst string) error {
	if strings.TrimSpace(baseURL) == "" {
		return errors.New("caption track has no url")
	}
	captionURL := baseURL
	if !strings.Contains(captionURL, "fmt=") {
		captionURL += "&fmt=vtt"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, captionURL, nil)
	if err != nil {
		return fmt.Errorf("build caption request: %w", err)
	}
	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch caption: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch caption: unexpected status %s", resp.Status)
	}
	return writeStream(dst, resp.Body)
}

// pickFormat returns the tallest progressive mp4 format with audio, breaking
// ties on bitrate.
func pickFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "video/mp4") || f.AudioChannels == 0 {
			continue
		}
		if best == nil || f.Height > best.Height || (f.Height == best.Height && f.Bitrate > best.Bitrate) {
			best = f
		}
	}
	return best
}

// pickCaption prefers a manual track in lang, then an auto-generated ("asr")
// track in lang. Regional variants (en-US for en) are accepted.
func pickCaption(tracks []youtube.CaptionTrack, lang string) *youtube.CaptionTrack {
	matches := func(code string) bool {
		code = strings.ToLower(code)
		want := strings.ToLower(lang)
		return code == want || strings.HasPrefix(code, want+"-")
	}
	var auto *youtube.CaptionTrack
	for i := range tracks {
		track := &tracks[i]
		if !matches(track.LanguageCode) {
			continue
		}
		if track.Kind != "asr" {
			return track
		}
		if auto == nil {
			auto = track
		}
	}
	return auto
}

func writeStream(path string, r io.Reader) error {
	tmp := path + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

var _ Fetcher = (*Native)(nil)
