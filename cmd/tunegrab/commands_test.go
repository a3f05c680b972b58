package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tunegrab/internal/history"
	"tunegrab/internal/metadata"
	"tunegrab/internal/tagger"
	"tunegrab/internal/testsupport"
	"tunegrab/internal/ytdlp"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.DownloadDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestFetchDownloadsTagsAndRecords(t *testing.T) {
	env := setupCLITestEnv(t)

	out, stderr, err := runCLI(t, []string{"fetch", "https://youtu.be/abcdefghijk", "--json", "--album", "Singles"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v\nstderr: %s", err, stderr)
	}

	var batch struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
		Results   []struct {
			VideoID  string         `json:"video_id"`
			Path     string         `json:"path"`
			Metadata metadata.Track `json:"metadata"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &batch); err != nil {
		t.Fatalf("decode batch json: %v\n%s", err, out)
	}
	if batch.Succeeded != 1 || batch.Failed != 0 || len(batch.Results) != 1 {
		t.Fatalf("unexpected batch %+v", batch)
	}
	want := filepath.Join(env.cfg.Paths.DownloadDir, "Artist - Song.mp3")
	if batch.Results[0].Path != want {
		t.Fatalf("expected %s, got %s", want, batch.Results[0].Path)
	}

	tags, err := tagger.Read(want)
	if err != nil {
		t.Fatalf("read tags: %v", err)
	}
	if tags.Artist != "Artist" || tags.Title != "Song" || tags.Album != "Singles" {
		t.Fatalf("unexpected tags %+v", tags)
	}

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var records []history.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0].VideoID != "abcdefghijk" || records[0].Path != want {
		t.Fatalf("unexpected history %+v", records)
	}

	out, _, err = runCLI(t, []string{"history", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Removed 1 history records")
}

func TestFetchSearchRendersTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, stderr, err := runCLI(t, []string{"fetch", "artist song", "--no-history"}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v\nstderr: %s", err, stderr)
	}
	requireContains(t, out, "1 succeeded, 0 failed")
	requireContains(t, out, "Artist - Song.mp3")
	requireContains(t, stderr, "saved")

	if _, err := os.Stat(env.cfg.HistoryPath()); err == nil {
		store := testsupport.MustOpenHistory(t, env.cfg)
		records, err := store.List(t.Context(), 0)
		if err != nil {
			t.Fatalf("list history: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("expected --no-history to skip recording, got %+v", records)
		}
	}
}

func TestFetchRequiresInput(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"fetch"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "nothing to fetch") {
		t.Fatalf("expected nothing-to-fetch error, got %v", err)
	}
	_, _, err = runCLI(t, []string{"fetch", "song", "--mode", "loud"}, env.configPath)
	if err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestImportDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	csvPath := filepath.Join(env.baseDir, "playlist.csv")
	content := "Track Name,Artist Name(s),Album Name,Album Release Date\n" +
		"One More Time,Daft Punk,Discovery,2001-03-12\n" +
		",,Nothing,\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"import", csvPath, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("import --dry-run: %v", err)
	}
	requireContains(t, out, "Daft Punk One More Time")
	requireContains(t, out, "2 rows: 1 importable, 1 skipped")
	requireContains(t, out, "Row 3")
}

func TestHeadersCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "playlist.csv")
	if err := os.WriteFile(csvPath, []byte("\ufefftrack name,ARTIST NAME(S),Popularity\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NO_COLOR", "1")

	out, _, err := runCLI(t, []string{"headers", csvPath}, "")
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	requireContains(t, out, "Track Name:")
	requireContains(t, out, "[OK] found")
	requireContains(t, out, "[WARN] missing")

	noQuery := filepath.Join(dir, "albums.csv")
	if err := os.WriteFile(noQuery, []byte("Album Name\nDiscovery\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"headers", noQuery}, ""); err == nil {
		t.Fatal("expected error when no query columns exist")
	}
}

func TestSearchCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, stderr, err := runCLI(t, []string{"search", "artist", "song", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v\nstderr: %s", err, stderr)
	}
	var info ytdlp.VideoInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode search: %v\n%s", err, out)
	}
	if info.ID != "abcdefghijk" || info.Uploader != "ArtistVEVO" || info.DurationSeconds != 215 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestInspectCommand(t *testing.T) {
	path := testsupport.WriteFakeMP3(t, filepath.Join(t.TempDir(), "song.mp3"))
	if err := tagger.Tag(path, metadata.Track{Title: "Song", Artist: "Artist", Year: "1999"}); err != nil {
		t.Fatalf("tag: %v", err)
	}
	out, _, err := runCLI(t, []string{"inspect", path, "--json"}, "")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var track metadata.Track
	if err := json.Unmarshal([]byte(out), &track); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if track.Title != "Song" || track.Artist != "Artist" || track.Year != "1999" {
		t.Fatalf("unexpected track %+v", track)
	}

	if _, _, err := runCLI(t, []string{"inspect", filepath.Join(t.TempDir(), "missing.mp3")}, ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

const fakeFFmpeg = `#!/bin/sh
[ "$1" = "-version" ] && exit 0
in="$2"
for last; do :; done
[ -f "$in" ] || { echo "$in: No such file or directory" >&2; exit 1; }
cp "$in" "$last"
`

func TestConvertCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteScript(t, env.cfg.Tools.FFmpegBinary, fakeFFmpeg)
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.webm")
	if err := os.WriteFile(input, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"convert", input}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := filepath.Join(dir, "clip.mp3")
	requireContains(t, out, "Converted "+want)
	if data, err := os.ReadFile(want); err != nil || string(data) != "audio" {
		t.Fatalf("expected converted file, got %q (%v)", data, err)
	}

	explicit := filepath.Join(dir, "out", "named.mp3")
	if _, _, err := runCLI(t, []string{"convert", input, explicit}, env.configPath); err != nil {
		t.Fatalf("convert with output: %v", err)
	}
	if _, err := os.Stat(explicit); err != nil {
		t.Fatalf("expected explicit output: %v", err)
	}

	if _, _, err := runCLI(t, []string{"convert", filepath.Join(dir, "missing.webm")}, env.configPath); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestToolsStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"tools", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("tools status: %v", err)
	}
	requireContains(t, out, "== Tools ==")
	requireContains(t, out, "ffmpeg:")
	requireContains(t, out, "(configured)")
	requireContains(t, out, "Download directory:")
}

func TestToolsInstallUsesConfiguredBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"tools", "install", "yt-dlp"}, env.configPath)
	if err != nil {
		t.Fatalf("tools install: %v", err)
	}
	requireContains(t, out, env.cfg.Tools.YTDLPBinary)

	if _, _, err := runCLI(t, []string{"tools", "install", "ffprobe"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestTestNotify(t *testing.T) {
	var gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify without topic: %v", err)
	}
	requireContains(t, out, "Notifications disabled")

	env.cfg.Notifications.NtfyTopic = srv.URL
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if gotTitle != "tunegrab - Test" {
		t.Fatalf("unexpected title %q", gotTitle)
	}
}
