package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
	"github.com/Microck/FrameScribe/internal/timecode"
)

func init() {
	// pdfcpu otherwise creates a config directory under the user's home.
	model.ConfigPath = "disable"
}

const (
	stageName       = "building pdf"
	captionHeightMM = 8.0
	captionGapMM    = 1.5
	captionFontSize = 11
)

// Layout controls page geometry.
type Layout struct {
	PageSize    string
	Orientation string
	MarginMM    float64
	Title       string
}

// Result describes a written document.
type Result struct {
	Path  string
	Pages int
	Size  int64
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) { a.logger = logging.NewComponentLogger(logger, "pdf") }
}

// WithWorkDir sets where the temporary document is rendered. It must be on
// the same filesystem as the destination.
func WithWorkDir(dir string) Option {
	return func(a *Assembler) { a.workDir = strings.TrimSpace(dir) }
}

// WithStreamCompression toggles deflate compression of page content streams.
func WithStreamCompression(enabled bool) Option {
	return func(a *Assembler) { a.compressStreams = enabled }
}

// Assembler renders frame records into a PDF.
type Assembler struct {
	layout          Layout
	workDir         string
	compressStreams bool
	logger          *slog.Logger
}

// NewAssembler constructs an assembler with the given layout.
func NewAssembler(layout Layout, opts ...Option) *Assembler {
	if strings.TrimSpace(layout.PageSize) == "" {
		layout.PageSize = "A4"
	}
	if layout.Orientation != "P" {
		layout.Orientation = "L"
	}
	if layout.MarginMM < 0 {
		layout.MarginMM = 0
	}
	a := &Assembler{
		layout:          layout,
		compressStreams: true,
		logger:          logging.NewComponentLogger(nil, "pdf"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build writes one captioned page per record to dst. Records must already be
// in timestamp order.
func (a *Assembler) Build(ctx context.Context, records []frames.Record, dst string) (Result, error) {
	if len(records) == 0 {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "", "no frames to lay out", nil)
	}
	tmpDir := a.workDir
	if tmpDir == "" {
		tmpDir = filepath.Dir(dst)
	}
	tmp, err := os.CreateTemp(tmpDir, ".framescribe-*.pdf")
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "create temp file", "", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpPath)
		}
	}()

	doc, err := a.render(ctx, records)
	if err != nil {
		return Result{}, err
	}
	if err := doc.OutputFileAndClose(tmpPath); err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "write", "", err)
	}

	pages, err := api.PageCountFile(tmpPath)
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "verify", "", err)
	}
	if pages != len(records) {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "verify", fmt.Sprintf("document has %d pages for %d frames", pages, len(records)), nil)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "rename", "", err)
	}
	keep = true

	info, err := os.Stat(dst)
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "stat", "", err)
	}
	a.logger.Info("pdf written",
		logging.String("pdf_file", dst),
		logging.Int("page_count", pages),
		logging.Int64("size_bytes", info.Size()),
	)
	return Result{Path: dst, Pages: pages, Size: info.Size()}, nil
}

func (a *Assembler) render(ctx context.Context, records []frames.Record) (*fpdf.Fpdf, error) {
	doc := fpdf.New(a.layout.Orientation, "mm", a.layout.PageSize, "")
	if err := doc.Error(); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "layout", a.layout.PageSize, err)
	}
	doc.SetCompression(a.compressStreams)
	doc.SetCreator("FrameScribe", true)
	if a.layout.Title != "" {
		doc.SetTitle(a.layout.Title, true)
	}
	margin := a.layout.MarginMM
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont("Helvetica", "", captionFontSize)

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.addPage(doc, record); err != nil {
			return nil, pipeline.Wrap(pipeline.ErrPDFGeneration, stageName, "add page", filepath.Base(record.Path), err)
		}
	}
	return doc, nil
}

func (a *Assembler) addPage(doc *fpdf.Fpdf, record frames.Record) error {
	if _, err := os.Stat(record.Path); err != nil {
		return err
	}
	opts := fpdf.ImageOptions{ImageType: imageType(record.Path)}
	info := doc.RegisterImageOptions(record.Path, opts)
	if err := doc.Error(); err != nil {
		return err
	}
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return fmt.Errorf("image has no dimensions")
	}

	doc.AddPage()
	pageW, pageH := doc.GetPageSize()
	margin := a.layout.MarginMM
	box := Fit(info.Width(), info.Height(), pageW-2*margin, pageH-2*margin-captionHeightMM-captionGapMM)
	x := (pageW - box.W) / 2
	y := margin + (pageH-2*margin-captionHeightMM-captionGapMM-box.H)/2

	doc.ImageOptions(record.Path, x, y, box.W, box.H, false, opts, 0, "")
	doc.SetXY(x, y+box.H+captionGapMM)
	doc.CellFormat(box.W, captionHeightMM, timecode.Caption(record.Timestamp), "", 0, "C", false, 0, "")
	return doc.Error()
}

// Box is a width/height pair in page units.
type Box struct {
	W, H float64
}

// Fit scales (w, h) to the largest size inside (maxW, maxH) that keeps the
// aspect ratio.
func Fit(w, h, maxW, maxH float64) Box {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return Box{}
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return Box{W: w * scale, H: h * scale}
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".gif":
		return "GIF"
	default:
		return "JPG"
	}
}
