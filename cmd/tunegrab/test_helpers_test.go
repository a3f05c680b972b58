package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tunegrab/internal/config"
	"tunegrab/internal/testsupport"
)

// fakeYTDLP answers searches with one result and "downloads" by writing a
// small MP3 into the --output directory and printing the extraction line.
const fakeYTDLP = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --dump-json)
      echo '{"id":"abcdefghijk","title":"Artist - Song (Official Video)","uploader":"ArtistVEVO","duration":215,"thumbnail":"https://i.ytimg.com/vi/abcdefghijk/hq.jpg"}'
      exit 0
      ;;
    --output)
      out="$2"
      shift
      ;;
  esac
  shift
done
if [ -n "$out" ]; then
  dir=$(dirname "$out")
  file="$dir/Artist - Song (Official Video) [abcdefghijk].mp3"
  printf '\377\373\220\144' > "$file"
  echo "[download]  50.0% of 3.00MiB"
  echo "[download] 100.0% of 3.00MiB"
  echo "[ExtractAudio] Destination: $file"
fi
exit 0
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TUNEGRAB_NTFY_TOPIC", "")
	t.Setenv("NO_COLOR", "1")

	testsupport.WriteScript(t, cfg.Tools.YTDLPBinary, fakeYTDLP)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(homeDir, ".config", "tunegrab", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
