package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tunegrab/internal/history"
	"tunegrab/internal/metadata"
	"tunegrab/internal/tagger"
	"tunegrab/internal/testsupport"
	"tunegrab/internal/toolprov"
	"tunegrab/internal/ytdlp"
)

type fakeTools struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeTools) EnsureAll(ctx context.Context, onStatus toolprov.StatusFunc) (map[string]toolprov.Location, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if onStatus != nil {
		onStatus(toolprov.StatusEvent{Tool: "yt-dlp", Status: toolprov.StatusAlreadyInstalled, Message: "ok"})
	}
	return map[string]toolprov.Location{
		"ffmpeg": {Path: "/bin/ffmpeg", Source: toolprov.SourceSystem},
		"yt-dlp": {Path: "/bin/yt-dlp", Source: toolprov.SourceSystem},
	}, nil
}

// fakeClient resolves searches from a map and "downloads" by writing a fake
// MP3 named the way yt-dlp's output template would.
type fakeClient struct {
	titles      map[string]string // video id -> title
	search      map[string]string // query -> video id
	searchErr   error
	downloadErr error
	delay       time.Duration
	ext         string // defaults to .mp3

	mu         sync.Mutex
	ffmpegSeen []string
}

func (f *fakeClient) Search(ctx context.Context, query string) (*ytdlp.VideoInfo, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	id, ok := f.search[query]
	if !ok {
		return nil, nil
	}
	return &ytdlp.VideoInfo{ID: id, Title: f.titles[id], URL: ytdlp.WatchURL(id)}, nil
}

func (f *fakeClient) Download(ctx context.Context, videoID, outputDir, ffmpegLocation string, onProgress ytdlp.ProgressFunc) (string, error) {
	f.mu.Lock()
	f.ffmpegSeen = append(f.ffmpegSeen, ffmpegLocation)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	onProgress(0, "starting")
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	title, ok := f.titles[videoID]
	if !ok {
		return "", fmt.Errorf("%w: unknown video %s", ytdlp.ErrDownload, videoID)
	}
	ext := f.ext
	if ext == "" {
		ext = ".mp3"
	}
	path := filepath.Join(outputDir, fmt.Sprintf("%s [%s]%s", title, videoID, ext))
	if err := os.WriteFile(path, append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 256)...), 0o644); err != nil {
		return "", err
	}
	onProgress(90, "processing")
	onProgress(100, "complete")
	return path, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []history.Record
}

func (f *fakeRecorder) Add(ctx context.Context, rec history.Record) (history.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, rec)
	return rec, nil
}

func newTestAcquirer(t *testing.T, tools ToolProvider, client VideoClient, opts ...Option) (*Acquirer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "music")
	acq, err := New(tools, func(string) (VideoClient, error) { return client, nil }, dir, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(acq.Close)
	return acq, dir
}

func drain(acq *Acquirer) []Event {
	var events []Event
	for {
		select {
		case ev := <-acq.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestAcquireSearchSanitizesInfersAndTags(t *testing.T) {
	client := &fakeClient{
		titles: map[string]string{"dQw4w9WgXcQ": "Rick Astley - Never Gonna Give You Up (Official Video)"},
		search: map[string]string{"rick astley official audio": "dQw4w9WgXcQ"},
	}
	recorder := &fakeRecorder{}
	acq, dir := newTestAcquirer(t, &fakeTools{}, client, WithRecorder(recorder))

	req := ProcessInput("rick astley", ModeOfficial).Items[0]
	res, err := acq.Acquire(context.Background(), req)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	wantPath := filepath.Join(dir, "Rick Astley - Never Gonna Give You Up.mp3")
	if res.Path != wantPath {
		t.Fatalf("expected %s, got %s", wantPath, res.Path)
	}
	if _, err := os.Stat(filepath.Join(dir, "Rick Astley - Never Gonna Give You Up (Official Video) [dQw4w9WgXcQ].mp3")); !os.IsNotExist(err) {
		t.Fatalf("expected original file to be renamed, stat err %v", err)
	}

	tags, err := tagger.Read(res.Path)
	if err != nil {
		t.Fatalf("tagger.Read: %v", err)
	}
	if tags.Artist != "Rick Astley" || tags.Title != "Never Gonna Give You Up" {
		t.Fatalf("unexpected inferred tags %+v", tags)
	}
	if tags.Comment != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("expected watch URL comment, got %q", tags.Comment)
	}
	if client.ffmpegSeen[0] != "/bin/ffmpeg" {
		t.Fatalf("expected ffmpeg location to be passed, got %v", client.ffmpegSeen)
	}

	if len(recorder.records) != 1 || recorder.records[0].VideoID != "dQw4w9WgXcQ" || recorder.records[0].Path != wantPath {
		t.Fatalf("unexpected history records %+v", recorder.records)
	}
	if recorder.records[0].RequestID != req.ID {
		t.Fatalf("expected request id %s in history, got %s", req.ID, recorder.records[0].RequestID)
	}

	events := drain(acq)
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	for _, ev := range events {
		if ev.RequestID != req.ID {
			t.Fatalf("event without correlation id: %+v", ev)
		}
	}
	if events[0].Kind != EventToolStatus {
		t.Fatalf("expected tool status first, got %+v", events[0])
	}
	last := events[len(events)-1]
	if last.Kind != EventCompleted || last.Path != wantPath {
		t.Fatalf("expected completed event last, got %+v", last)
	}
}

func TestAcquireCallerMetadataWins(t *testing.T) {
	client := &fakeClient{titles: map[string]string{"abcdefghijk": "Wrong Artist - Wrong Title"}}
	acq, _ := newTestAcquirer(t, &fakeTools{}, client)

	req := Request{
		Type:     InputURL,
		VideoID:  "abcdefghijk",
		Metadata: metadata.Track{Artist: "Right Artist", Album: "Album", Year: "2020"},
	}
	res, err := acq.Acquire(context.Background(), req)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if res.RequestID == "" {
		t.Fatal("expected generated request id")
	}
	if res.Metadata.Artist != "Right Artist" || res.Metadata.Title != "Wrong Title" || res.Metadata.Album != "Album" {
		t.Fatalf("unexpected merged metadata %+v", res.Metadata)
	}
	tags, err := tagger.Read(res.Path)
	if err != nil {
		t.Fatalf("tagger.Read: %v", err)
	}
	if tags.Artist != "Right Artist" || tags.Year != "2020" {
		t.Fatalf("unexpected tags %+v", tags)
	}
}

func TestAcquireReportsFailingStage(t *testing.T) {
	tests := []struct {
		name   string
		tools  *fakeTools
		client *fakeClient
		req    Request
		stage  string
		target error
	}{
		{
			name:   "provision",
			tools:  &fakeTools{err: toolprov.ErrNotFound},
			client: &fakeClient{},
			req:    Request{Type: InputURL, VideoID: "abcdefghijk"},
			stage:  StageProvision,
			target: toolprov.ErrNotFound,
		},
		{
			name:   "no search results",
			tools:  &fakeTools{},
			client: &fakeClient{},
			req:    Request{Type: InputSearch, Query: "nothing official audio"},
			stage:  StageResolve,
			target: ErrNoResults,
		},
		{
			name:   "search error",
			tools:  &fakeTools{},
			client: &fakeClient{searchErr: ytdlp.ErrSearch},
			req:    Request{Type: InputSearch, Query: "q"},
			stage:  StageResolve,
			target: ytdlp.ErrSearch,
		},
		{
			name:   "download error",
			tools:  &fakeTools{},
			client: &fakeClient{downloadErr: ytdlp.ErrPathRecovery},
			req:    Request{Type: InputURL, VideoID: "abcdefghijk"},
			stage:  StageDownload,
			target: ytdlp.ErrPathRecovery,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			acq, _ := newTestAcquirer(t, tc.tools, tc.client)
			res, err := acq.Acquire(context.Background(), tc.req)
			var stageErr *StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("expected *StageError, got %T %v", err, err)
			}
			if stageErr.Stage != tc.stage || res.Stage != tc.stage {
				t.Fatalf("expected stage %s, got %s / %s", tc.stage, stageErr.Stage, res.Stage)
			}
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v in chain, got %v", tc.target, err)
			}
			if res.OK() || res.Error == "" || res.Category == "" {
				t.Fatalf("expected failed result with error fields, got %+v", res)
			}
			events := drain(acq)
			if last := events[len(events)-1]; last.Kind != EventFailed || last.Stage != tc.stage {
				t.Fatalf("expected failed event, got %+v", last)
			}
		})
	}
}

func TestAcquireTagFailure(t *testing.T) {
	client := &fakeClient{titles: map[string]string{"abcdefghijk": "Song"}}
	acq, _ := newTestAcquirer(t, &fakeTools{}, client, WithTagFunc(func(string, metadata.Track) error {
		return tagger.ErrWrite
	}))
	_, err := acq.Acquire(context.Background(), Request{Type: InputURL, VideoID: "abcdefghijk"})
	if stage, ok := FailedStage(err); !ok || stage != StageTag {
		t.Fatalf("expected tag stage failure, got %v", err)
	}
}

func TestSanitizeDownloadCollision(t *testing.T) {
	dir := t.TempDir()
	source := testsupport.WriteFakeMP3(t, filepath.Join(dir, "Song (Official Video) [abcdefghijk].mp3"))
	existing := testsupport.WriteFakeMP3(t, filepath.Join(dir, "Song.mp3"))

	path, stem, err := sanitizeDownload(source, "abcdefghijk")
	if !errors.Is(err, ErrRenameCollision) {
		t.Fatalf("expected ErrRenameCollision, got %v", err)
	}
	if path != source || stem != "Song" {
		t.Fatalf("unexpected path/stem %s / %s", path, stem)
	}
	for _, p := range []string{source, existing} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s untouched: %v", p, err)
		}
	}
}

func TestSanitizeDownloadStripsOnlyExactIDSuffix(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		id    string
		want  string
		moved bool
	}{
		{"id suffix", "Artist - Song [a-b_c-d_e-f].mp3", "a-b_c-d_e-f", "Artist - Song", true},
		{"other bracket kept", "Artist - Song [Mono] [abcdefghijk].mp3", "abcdefghijk", "Artist - Song [Mono]", true},
		{"id not at end", "[abcdefghijk] Intro.mp3", "abcdefghijk", "[abcdefghijk] Intro", false},
		{"already clean", "Artist - Song.mp3", "abcdefghijk", "Artist - Song", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			source := testsupport.WriteFakeMP3(t, filepath.Join(dir, tc.file))
			path, stem, err := sanitizeDownload(source, tc.id)
			if err != nil {
				t.Fatalf("sanitizeDownload returned error: %v", err)
			}
			if stem != tc.want {
				t.Fatalf("stem = %q, want %q", stem, tc.want)
			}
			if (path != source) != tc.moved {
				t.Fatalf("moved=%v, want %v (path %s)", path != source, tc.moved, path)
			}
			if !strings.HasSuffix(path, tc.want+".mp3") {
				t.Fatalf("unexpected final path %s", path)
			}
		})
	}
}

func TestEventsNeverBlock(t *testing.T) {
	client := &fakeClient{titles: map[string]string{"abcdefghijk": "Song"}}
	acq, _ := newTestAcquirer(t, &fakeTools{}, client, WithEventBuffer(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = acq.Acquire(context.Background(), Request{Type: InputURL, VideoID: "abcdefghijk"})
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Acquire blocked on a full event buffer")
	}
	if acq.DroppedEvents() == 0 {
		t.Fatal("expected dropped events to be counted")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	acq, _ := newTestAcquirer(t, &fakeTools{}, &fakeClient{})
	acq.Close()
	acq.Close()
	if _, ok := <-acq.Events(); ok {
		t.Fatal("expected closed channel")
	}
	acq.events.emit(Event{Kind: EventProgress})
}

func TestNewValidatesArguments(t *testing.T) {
	factory := func(string) (VideoClient, error) { return &fakeClient{}, nil }
	if _, err := New(nil, factory, "/tmp/x"); err == nil {
		t.Fatal("expected error without tools")
	}
	if _, err := New(&fakeTools{}, nil, "/tmp/x"); err == nil {
		t.Fatal("expected error without factory")
	}
	if _, err := New(&fakeTools{}, factory, " "); err == nil {
		t.Fatal("expected error without output dir")
	}
}

// fakeTranscoder "converts" by writing a fake MP3 at the output path.
type fakeTranscoder struct {
	err     error
	binary  string
	outputs []string
}

func (f *fakeTranscoder) factory(binary string) (Transcoder, error) {
	f.binary = binary
	return f, nil
}

func (f *fakeTranscoder) Convert(ctx context.Context, input, output string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.outputs = append(f.outputs, output)
	if err := os.WriteFile(output, append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 256)...), 0o644); err != nil {
		return "", err
	}
	return output, nil
}

func TestAcquireConvertsNonMP3Download(t *testing.T) {
	client := &fakeClient{titles: map[string]string{"abcdefghijk": "Artist - Song (Audio)"}, ext: ".webm"}
	transcoder := &fakeTranscoder{}
	acq, dir := newTestAcquirer(t, &fakeTools{}, client, WithTranscoder(transcoder.factory))

	res, err := acq.Acquire(context.Background(), Request{Type: InputURL, VideoID: "abcdefghijk"})
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	want := filepath.Join(dir, "Artist - Song.mp3")
	if res.Path != want {
		t.Fatalf("expected %s, got %s", want, res.Path)
	}
	if transcoder.binary != "/bin/ffmpeg" {
		t.Fatalf("expected located ffmpeg, got %q", transcoder.binary)
	}
	if _, err := os.Stat(filepath.Join(dir, "Artist - Song (Audio) [abcdefghijk].webm")); !os.IsNotExist(err) {
		t.Fatalf("expected source removed after conversion, stat err %v", err)
	}
	if tags, err := tagger.Read(res.Path); err != nil || tags.Artist != "Artist" {
		t.Fatalf("expected tagged mp3, got %+v (%v)", tags, err)
	}
}

func TestAcquireSkipsConvertForMP3(t *testing.T) {
	client := &fakeClient{titles: map[string]string{"abcdefghijk": "Artist - Song"}}
	transcoder := &fakeTranscoder{}
	acq, _ := newTestAcquirer(t, &fakeTools{}, client, WithTranscoder(transcoder.factory))
	if _, err := acq.Acquire(context.Background(), Request{Type: InputURL, VideoID: "abcdefghijk"}); err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if len(transcoder.outputs) != 0 {
		t.Fatalf("mp3 download must not be converted, got %v", transcoder.outputs)
	}
}

func TestAcquireConvertFailures(t *testing.T) {
	t.Run("no transcoder", func(t *testing.T) {
		client := &fakeClient{titles: map[string]string{"abcdefghijk": "Song"}, ext: ".m4a"}
		acq, _ := newTestAcquirer(t, &fakeTools{}, client)
		res, err := acq.Acquire(context.Background(), Request{Type: InputURL, VideoID: "abcdefghijk"})
		if res.Stage != StageConvert || !errors.Is(err, ErrNoTranscoder) {
			t.Fatalf("expected convert failure, got %q %v", res.Stage, err)
		}
	})
	t.Run("ffmpeg error keeps source and frees target", func(t *testing.T) {
		client := &fakeClient{titles: map[string]string{"abcdefghijk": "Song"}, ext: ".m4a"}
		transcoder := &fakeTranscoder{err: errors.New("exit status 1")}
		acq, dir := newTestAcquirer(t, &fakeTools{}, client, WithTranscoder(transcoder.factory))
		res, err := acq.Acquire(context.Background(), Request{Type: InputURL, VideoID: "abcdefghijk"})
		if res.Stage != StageConvert || err == nil {
			t.Fatalf("expected convert failure, got %q %v", res.Stage, err)
		}
		if _, err := os.Stat(filepath.Join(dir, "Song [abcdefghijk].m4a")); err != nil {
			t.Fatalf("expected source kept: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "Song [abcdefghijk].mp3")); !os.IsNotExist(err) {
			t.Fatalf("expected no leftover target, stat err %v", err)
		}
	})
	t.Run("target taken", func(t *testing.T) {
		client := &fakeClient{titles: map[string]string{"abcdefghijk": "Song"}, ext: ".m4a"}
		transcoder := &fakeTranscoder{}
		acq, dir := newTestAcquirer(t, &fakeTools{}, client, WithTranscoder(transcoder.factory))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		taken := testsupport.WriteFakeMP3(t, filepath.Join(dir, "Song [abcdefghijk].mp3"))
		res, err := acq.Acquire(context.Background(), Request{Type: InputURL, VideoID: "abcdefghijk"})
		if res.Stage != StageConvert || !errors.Is(err, ErrRenameCollision) {
			t.Fatalf("expected collision, got %q %v", res.Stage, err)
		}
		if len(transcoder.outputs) != 0 {
			t.Fatalf("transcoder must not run over %s", taken)
		}
	})
}
