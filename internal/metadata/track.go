package metadata

import (
	"strconv"
	"strings"
)

// Track holds the descriptive tags written into a downloaded file. Empty
// strings mean absent.
type Track struct {
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Year        string `json:"year,omitempty"`
	Genre       string `json:"genre,omitempty"`
	TrackNumber string `json:"track_number,omitempty"`
	AlbumArtist string `json:"album_artist,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// FillMissing copies fields from other into t only where t has no value.
// Fields the caller already supplied are never replaced.
func (t *Track) FillMissing(other Track) {
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
			*dst = src
		}
	}
	fill(&t.Title, other.Title)
	fill(&t.Artist, other.Artist)
	fill(&t.Album, other.Album)
	fill(&t.Year, other.Year)
	fill(&t.Genre, other.Genre)
	fill(&t.TrackNumber, other.TrackNumber)
	fill(&t.AlbumArtist, other.AlbumArtist)
	fill(&t.Comment, other.Comment)
}

// Normalized returns a copy with surrounding whitespace removed from every field.
func (t Track) Normalized() Track {
	return Track{
		Title:       strings.TrimSpace(t.Title),
		Artist:      strings.TrimSpace(t.Artist),
		Album:       strings.TrimSpace(t.Album),
		Year:        strings.TrimSpace(t.Year),
		Genre:       strings.TrimSpace(t.Genre),
		TrackNumber: strings.TrimSpace(t.TrackNumber),
		AlbumArtist: strings.TrimSpace(t.AlbumArtist),
		Comment:     strings.TrimSpace(t.Comment),
	}
}

// IsEmpty reports whether no field carries a value.
func (t Track) IsEmpty() bool {
	return t.Normalized() == Track{}
}

// YearNumber returns the year as an integer when it parses as one.
func (t Track) YearNumber() (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(t.Year))
	if err != nil {
		return 0, false
	}
	return year, true
}

// YearFromDate extracts a leading four-digit year from dates such as
// "2019-04-12" or "2019". Returns "" when the prefix is not numeric.
func YearFromDate(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	prefix := date[:4]
	if _, err := strconv.Atoi(prefix); err != nil {
		return ""
	}
	return prefix
}
