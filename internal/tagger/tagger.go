package tagger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"tunegrab/internal/metadata"
	"tunegrab/internal/services"
)

const (
	frameRecordingTime = "TDRC"
	frameOriginalYear  = "TDOR"
	frameTrackNumber   = "TRCK"
	frameAlbumArtist   = "TPE2"
	commentLanguage    = "eng"
	commentDesc        = "Downloaded from YouTube"
)

var (
	// ErrNotFound means the file to tag does not exist.
	ErrNotFound = fmt.Errorf("%w: file not found", services.ErrFileSystem)
	// ErrWrongType means the file is not an MP3.
	ErrWrongType = fmt.Errorf("%w: only .mp3 files can be tagged", services.ErrInputValidation)
	// ErrWrite covers failures opening, encoding or saving the tag.
	ErrWrite = fmt.Errorf("%w: write tags", services.ErrFileSystem)
)

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: stat %s: %v", ErrWrite, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrWrongType, path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return fmt.Errorf("%w: %s", ErrWrongType, path)
	}
	return nil
}

// Tag replaces every frame in the file's tag with the values in track.
// Empty fields produce no frame; the year is written only when numeric.
func Tag(path string, track metadata.Track) error {
	if err := checkFile(path); err != nil {
		return err
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrWrite, path, err)
	}
	defer tag.Close()

	tag.DeleteAllFrames()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	track = track.Normalized()
	if track.Title != "" {
		tag.SetTitle(track.Title)
	}
	if track.Artist != "" {
		tag.SetArtist(track.Artist)
	}
	if track.Album != "" {
		tag.SetAlbum(track.Album)
	}
	if year, ok := track.YearNumber(); ok {
		value := strconv.Itoa(year)
		tag.AddTextFrame(frameRecordingTime, id3v2.EncodingUTF8, value)
		tag.AddTextFrame(frameOriginalYear, id3v2.EncodingUTF8, value)
	}
	if track.Genre != "" {
		tag.SetGenre(track.Genre)
	}
	if track.TrackNumber != "" {
		tag.AddTextFrame(frameTrackNumber, id3v2.EncodingUTF8, track.TrackNumber)
	}
	if track.AlbumArtist != "" {
		tag.AddTextFrame(frameAlbumArtist, id3v2.EncodingUTF8, track.AlbumArtist)
	}
	if track.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    commentLanguage,
			Description: commentDesc,
			Text:        track.Comment,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrWrite, path, err)
	}
	return nil
}

// Read returns the text frames Tag writes.
func Read(path string) (metadata.Track, error) {
	if err := checkFile(path); err != nil {
		return metadata.Track{}, err
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return metadata.Track{}, fmt.Errorf("%w: open %s: %v", ErrWrite, path, err)
	}
	defer tag.Close()

	track := metadata.Track{
		Title:       tag.Title(),
		Artist:      tag.Artist(),
		Album:       tag.Album(),
		Year:        tag.GetTextFrame(frameRecordingTime).Text,
		Genre:       tag.Genre(),
		TrackNumber: tag.GetTextFrame(frameTrackNumber).Text,
		AlbumArtist: tag.GetTextFrame(frameAlbumArtist).Text,
	}
	for _, frame := range tag.GetFrames(tag.CommonID("Comments")) {
		if comment, ok := frame.(id3v2.CommentFrame); ok {
			track.Comment = comment.Text
			break
		}
	}
	return track.Normalized(), nil
}
