package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeStub(t *testing.T, dir, name, body string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), mode); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func TestFindInPathPrefersEarlierDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	first := t.TempDir()
	second := t.TempDir()
	writeStub(t, first, "tool.bat", "#!/bin/sh\nexit 0\n", 0o755)
	writeStub(t, second, "tool", "#!/bin/sh\nexit 0\n", 0o755)
	t.Setenv("PATH", first+string(os.PathListSeparator)+second)

	got, ok := FindInPath([]string{"tool", "tool.bat"})
	if !ok {
		t.Fatal("expected a match")
	}
	if got != filepath.Join(first, "tool.bat") {
		t.Fatalf("expected candidate from first PATH entry, got %s", got)
	}
}

func TestFindAllInPathListsEveryMatchInOrder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	first := t.TempDir()
	second := t.TempDir()
	writeStub(t, first, "tool", "#!/bin/sh\nexit 1\n", 0o755)
	writeStub(t, second, "tool", "#!/bin/sh\nexit 0\n", 0o755)
	t.Setenv("PATH", first+string(os.PathListSeparator)+second+string(os.PathListSeparator)+first)

	got := FindAllInPath([]string{"tool"})
	want := []string{filepath.Join(first, "tool"), filepath.Join(second, "tool")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("FindAllInPath = %v, want %v", got, want)
	}
}

func TestFindInPathSkipsNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are ignored on windows")
	}
	dir := t.TempDir()
	writeStub(t, dir, "tool", "#!/bin/sh\nexit 0\n", 0o644)
	if err := os.Mkdir(filepath.Join(dir, "dirtool"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Setenv("PATH", dir)

	if _, ok := FindInPath([]string{"tool", "dirtool", "absent"}); ok {
		t.Fatal("expected no executable match")
	}
}

func TestVerifyRunnable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	dir := t.TempDir()
	good := writeStub(t, dir, "good", "#!/bin/sh\n[ \"$1\" = \"--version\" ] || exit 3\necho 2025.01.01\n", 0o755)
	bad := writeStub(t, dir, "bad", "#!/bin/sh\necho broken >&2\nexit 1\n", 0o755)
	slow := writeStub(t, dir, "slow", "#!/bin/sh\nexec sleep 5\n", 0o755)

	if err := VerifyRunnable(context.Background(), good, time.Second, "--version"); err != nil {
		t.Fatalf("expected good stub to verify: %v", err)
	}
	if err := VerifyRunnable(context.Background(), good, time.Second, "-version"); !errors.Is(err, ErrNotRunnable) {
		t.Fatalf("expected wrong flag to fail, got %v", err)
	}
	err := VerifyRunnable(context.Background(), bad, time.Second, "--version")
	if !errors.Is(err, ErrNotRunnable) {
		t.Fatalf("expected ErrNotRunnable, got %v", err)
	}
	if err := VerifyRunnable(context.Background(), slow, 100*time.Millisecond); err == nil {
		t.Fatal("expected timeout to fail verification")
	}
	if err := VerifyRunnable(context.Background(), filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected missing binary to fail")
	}
}

func TestIsExecutableFile(t *testing.T) {
	dir := t.TempDir()
	exe := writeStub(t, dir, "exe", "#!/bin/sh\n", 0o755)
	if !IsExecutableFile(exe) {
		t.Fatal("expected executable file")
	}
	if IsExecutableFile(dir) {
		t.Fatal("directories are not executable files")
	}
	if IsExecutableFile("") {
		t.Fatal("empty path is not executable")
	}
	if runtime.GOOS != "windows" {
		plain := writeStub(t, dir, "plain", "data", 0o644)
		if IsExecutableFile(plain) {
			t.Fatal("expected plain file without exec bits to be rejected")
		}
	}
}

func TestExecutableName(t *testing.T) {
	got := ExecutableName("yt-dlp")
	if runtime.GOOS == "windows" {
		if got != "yt-dlp.exe" {
			t.Fatalf("unexpected windows name %q", got)
		}
		return
	}
	if got != "yt-dlp" {
		t.Fatalf("unexpected name %q", got)
	}
}
