package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/Microck/FrameScribe/internal/frames"
	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
)

func writeFrames(t *testing.T, dir string, count int) []frames.Record {
	t.Helper()
	records := make([]frames.Record, 0, count)
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.jpg", i+1))
		img := imaging.New(160, 90, color.NRGBA{R: uint8(40 * i), G: 120, B: 200, A: 255})
		if err := imaging.Save(img, path, imaging.JPEGQuality(80)); err != nil {
			t.Fatalf("save frame: %v", err)
		}
		records = append(records, frames.Record{Index: i + 1, Timestamp: time.Duration(2*i) * time.Second, Path: path})
	}
	return records
}

func TestBuildOnePagePerFrameWithCaptionsInOrder(t *testing.T) {
	work := t.TempDir()
	out := t.TempDir()
	records := writeFrames(t, work, 5)
	dst := filepath.Join(out, "Title_frames.pdf")

	assembler := NewAssembler(Layout{PageSize: "A4", Orientation: "L", MarginMM: 10, Title: "Title"},
		WithWorkDir(work),
		WithStreamCompression(false),
		WithLogger(logging.NewNop()),
	)
	result, err := assembler.Build(context.Background(), records, dst)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if result.Pages != 5 || result.Path != dst || result.Size <= 0 {
		t.Fatalf("unexpected result %#v", result)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	last := -1
	for i := 0; i < 5; i++ {
		caption := fmt.Sprintf("(00:00:%02d.000)Tj", 2*i)
		idx := bytes.Index(data, []byte(caption))
		if idx < 0 {
			t.Fatalf("caption %q missing", caption)
		}
		if idx <= last {
			t.Fatalf("caption %q out of order", caption)
		}
		last = idx
	}
	leftovers, _ := filepath.Glob(filepath.Join(work, ".framescribe-*.pdf"))
	if len(leftovers) != 0 {
		t.Fatalf("temp document left behind: %v", leftovers)
	}
}

func TestBuildWithoutFramesFails(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "x.pdf")
	_, err := NewAssembler(Layout{}).Build(context.Background(), nil, dst)
	if !errors.Is(err, pipeline.ErrPDFGeneration) {
		t.Fatalf("expected ErrPDFGeneration, got %v", err)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Fatal("no document should be written")
	}
}

func TestBuildWithUnreadableImageLeavesNothing(t *testing.T) {
	out := t.TempDir()
	records := writeFrames(t, t.TempDir(), 2)
	if err := os.WriteFile(records[1].Path, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatalf("corrupt frame: %v", err)
	}
	dst := filepath.Join(out, "x.pdf")

	_, err := NewAssembler(Layout{}).Build(context.Background(), records, dst)
	if !errors.Is(err, pipeline.ErrPDFGeneration) {
		t.Fatalf("expected ErrPDFGeneration, got %v", err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Fatalf("output folder should be empty, found %d entries", len(entries))
	}
}

func TestBuildRejectsUnknownPageSize(t *testing.T) {
	records := writeFrames(t, t.TempDir(), 1)
	_, err := NewAssembler(Layout{PageSize: "B7"}).Build(context.Background(), records, filepath.Join(t.TempDir(), "x.pdf"))
	if !errors.Is(err, pipeline.ErrPDFGeneration) {
		t.Fatalf("expected ErrPDFGeneration, got %v", err)
	}
}

func TestFitPreservesAspectRatio(t *testing.T) {
	box := Fit(1920, 1080, 277, 181.5)
	if math.Abs(box.W/box.H-1920.0/1080.0) > 1e-9 {
		t.Fatalf("aspect ratio changed: %v", box)
	}
	if box.W > 277+1e-9 || box.H > 181.5+1e-9 {
		t.Fatalf("box exceeds bounds: %v", box)
	}
	if math.Abs(box.W-277) > 1e-9 && math.Abs(box.H-181.5) > 1e-9 {
		t.Fatalf("box should touch one edge: %v", box)
	}
	if Fit(0, 10, 10, 10) != (Box{}) {
		t.Fatal("expected empty box for zero width")
	}
}
