package tagger_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"tunegrab/internal/metadata"
	"tunegrab/internal/tagger"
)

// fakeMP3 writes a few bytes of frame-sync noise; the tagger never decodes audio.
func fakeMP3(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	body := append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 412)...)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write mp3: %v", err)
	}
	return path
}

func TestTagRoundTrip(t *testing.T) {
	path := fakeMP3(t, "song.mp3")
	want := metadata.Track{
		Title:       "Never Gonna Give You Up",
		Artist:      "Rick Astley",
		Album:       "Whenever You Need Somebody",
		Year:        "1987",
		Genre:       "Pop",
		TrackNumber: "1/10",
		AlbumArtist: "Rick Astley",
		Comment:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	if err := tagger.Tag(path, want); err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}
	got, err := tagger.Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch\n got %+v\nwant %+v", got, want)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tag.Close()
	if tag.Version() != 4 {
		t.Fatalf("expected ID3v2.4, got %d", tag.Version())
	}
	for _, id := range []string{"TDRC", "TDOR"} {
		if got := tag.GetTextFrame(id).Text; got != "1987" {
			t.Fatalf("expected %s 1987, got %q", id, got)
		}
	}
	if tag.GetTextFrame("TYER").Text != "" {
		t.Fatal("expected no TYER frame in a v2.4 tag")
	}
	comments := tag.GetFrames(tag.CommonID("Comments"))
	if len(comments) != 1 {
		t.Fatalf("expected one comment frame, got %d", len(comments))
	}
	comment := comments[0].(id3v2.CommentFrame)
	if comment.Language != "eng" || comment.Description != "Downloaded from YouTube" {
		t.Fatalf("unexpected comment frame %+v", comment)
	}
}

func TestTagReplacesExistingFramesAndOmitsAbsentFields(t *testing.T) {
	path := fakeMP3(t, "song.mp3")
	if err := tagger.Tag(path, metadata.Track{Title: "Old", Artist: "Old Artist", Album: "Old Album", Genre: "Rock"}); err != nil {
		t.Fatalf("first Tag: %v", err)
	}
	if err := tagger.Tag(path, metadata.Track{Title: "New", Year: "sometime"}); err != nil {
		t.Fatalf("second Tag: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tag.Close()
	if tag.Title() != "New" {
		t.Fatalf("expected title New, got %q", tag.Title())
	}
	for _, id := range []string{"TPE1", "TALB", "TCON", "TDRC", "TDOR", "TRCK", "TPE2", "COMM"} {
		if frames := tag.GetFrames(id); len(frames) != 0 {
			t.Fatalf("expected no %s frame, got %d", id, len(frames))
		}
	}
}

func TestTagAcceptsUppercaseExtension(t *testing.T) {
	path := fakeMP3(t, "SONG.MP3")
	if err := tagger.Tag(path, metadata.Track{Title: "Loud"}); err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}
}

func TestTagErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.mp3")
	if err := tagger.Tag(missing, metadata.Track{Title: "x"}); !errors.Is(err, tagger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	wav := filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := tagger.Tag(wav, metadata.Track{Title: "x"}); !errors.Is(err, tagger.ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
	data, err := os.ReadFile(wav)
	if err != nil || string(data) != "RIFF" {
		t.Fatalf("wrong-type file must be untouched, got %q (%v)", data, err)
	}
}
