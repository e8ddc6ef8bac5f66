package desktop

import (
	"context"
	"errors"
	"testing"
)

func TestCommandFor(t *testing.T) {
	cases := map[string]string{"darwin": "open", "windows": "explorer", "linux": "xdg-open", "freebsd": "xdg-open"}
	for goos, want := range cases {
		if got := commandFor(goos); got != want {
			t.Fatalf("commandFor(%q) = %q, want %q", goos, got, want)
		}
	}
}

func TestRevealRunsCommandWithDirectory(t *testing.T) {
	var gotName string
	var gotArgs []string
	opener := NewOpener("my-browser", func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})
	if err := opener.Reveal(context.Background(), "/out/Title"); err != nil {
		t.Fatalf("Reveal returned error: %v", err)
	}
	if gotName != "my-browser" || len(gotArgs) != 1 || gotArgs[0] != "/out/Title" {
		t.Fatalf("unexpected invocation %q %v", gotName, gotArgs)
	}
}

func TestRevealWrapsFailure(t *testing.T) {
	boom := errors.New("no display")
	opener := NewOpener("", func(context.Context, string, ...string) error { return boom })
	if err := opener.Reveal(context.Background(), "/x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := opener.Reveal(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRevealSkipsLaunchWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opener := NewOpener("/nonexistent/browser", nil)
	if err := opener.Reveal(ctx, "/out/Title"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
