package util

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"
	"time"
)

func requireSh(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
}

func TestRunCapturesLines(t *testing.T) {
	requireSh(t)

	var lines []string
	res, err := Run(context.Background(), CmdSpec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo one; echo two >&2; echo three"},
		Line: func(s string) { lines = append(lines, s) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Code != 0 {
		t.Errorf("Code = %d, want 0", res.Code)
	}
	// stderr is folded into the same stream
	seen := map[string]bool{}
	for _, l := range lines {
		seen[l] = true
	}
	for _, want := range []string{"one", "two", "three"} {
		if !seen[want] {
			t.Errorf("missing line %q in %v", want, lines)
		}
	}
	if len(res.Lines) != len(lines) {
		t.Errorf("retained tail %d lines, streamed %d", len(res.Lines), len(lines))
	}
}

func TestRunNonZeroExit(t *testing.T) {
	requireSh(t)

	res, err := Run(context.Background(), CmdSpec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo boom; exit 3"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrCancelled) {
		t.Error("plain failure must not look like cancellation")
	}
	if res.Code != 3 {
		t.Errorf("Code = %d, want 3", res.Code)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), CmdSpec{Path: "/nonexistent/definitely-not-a-binary"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestRunCancellationCheckpoint(t *testing.T) {
	requireSh(t)

	token := &CancelToken{}
	var count int
	start := time.Now()

	// Emits a line every 100ms forever; cancel after the third line.
	_, err := Run(context.Background(), CmdSpec{
		Path: "/bin/sh",
		Args: []string{"-c", "i=0; while true; do echo line$i; i=$((i+1)); sleep 0.1; done"},
		Line: func(string) {
			count++
			if count == 3 {
				token.Cancel()
			}
		},
		Cancel:      token,
		GracePeriod: time.Second,
	})

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
	// Cancellation takes effect at the next line checkpoint, so at most one
	// extra line is observed after the third.
	if count > 4 {
		t.Errorf("callback saw %d lines after cancellation at 3", count)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v, process likely not terminated", elapsed)
	}
}

func TestRunCancellationWithoutFurtherOutput(t *testing.T) {
	requireSh(t)

	// A silent process never reaches a line checkpoint, so cancellation
	// arrives as a context kill. The result must still be ErrCancelled,
	// not a generic non-zero exit.
	token := &CancelToken{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		time.Sleep(200 * time.Millisecond)
		token.Cancel()
		cancel()
	}()

	_, err := Run(ctx, CmdSpec{
		Path:   "/bin/sh",
		Args:   []string{"-c", "sleep 5"},
		Cancel: token,
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
}

func TestCancelToken(t *testing.T) {
	var nilToken *CancelToken
	if nilToken.Cancelled() {
		t.Error("nil token must not report cancelled")
	}
	nilToken.Cancel() // must not panic

	token := &CancelToken{}
	if token.Cancelled() {
		t.Error("fresh token must not report cancelled")
	}
	token.Cancel()
	token.Cancel()
	if !token.Cancelled() {
		t.Error("token should report cancelled")
	}
}

func TestQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"", "''"},
		{"has space", "'has space'"},
		{"it's", `'it'\''s'`},
	}
	for _, tc := range tests {
		if got := quote(tc.in); got != tc.want {
			t.Errorf("quote(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
