package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"tunegrab/internal/metadata"
	"tunegrab/internal/services"
)

// Metadata holds the recognized column values of one row. Empty strings mean
// the column was absent or blank.
type Metadata struct {
	ArtistNames      string `json:"artist_names,omitempty"`
	TrackName        string `json:"track_name,omitempty"`
	AlbumName        string `json:"album_name,omitempty"`
	ArtistGenres     string `json:"artist_genres,omitempty"`
	AlbumReleaseDate string `json:"album_release_date,omitempty"`
	BPMTempo         string `json:"bpm_tempo,omitempty"`
}

// Entry is one importable row.
type Entry struct {
	// RowNumber is the 1-based file row; the first data row is 2.
	RowNumber   int      `json:"row_number"`
	Metadata    Metadata `json:"metadata"`
	SearchQuery string   `json:"search_query"`
}

// Result summarizes an import. TotalCount always equals
// len(Entries)+len(Errors).
type Result struct {
	Entries      []Entry  `json:"tracks"`
	TotalCount   int      `json:"total_count"`
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors"`
}

// Options tunes the tabular reader.
type Options struct {
	// StrictQuotes rejects bare or unbalanced quotes as row errors instead of
	// reading them literally.
	StrictQuotes bool
}

// Track converts the entry into tags for the acquired file. The year is the
// leading four digits of the release date.
func (e Entry) Track() metadata.Track {
	return metadata.Track{
		Title:  e.Metadata.TrackName,
		Artist: e.Metadata.ArtistNames,
		Album:  e.Metadata.AlbumName,
		Genre:  e.Metadata.ArtistGenres,
		Year:   metadata.YearFromDate(e.Metadata.AlbumReleaseDate),
	}
}

// ParseFile opens path and parses it.
func ParseFile(path string, opts Options) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFileSystem, "import", "open csv", path, err)
	}
	defer file.Close()
	return Parse(file, opts)
}

// Parse reads a header row followed by data rows. Only a failure to read the
// header row is returned as an error; row failures are collected in Result.
func Parse(r io.Reader, opts Options) (Result, error) {
	reader := newReader(r, opts)
	result := Result{Entries: []Entry{}, Errors: []string{}}

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return result, nil
	}
	if err != nil {
		return Result{}, services.Wrap(services.ErrInputValidation, "import", "read headers", "failed to read CSV headers", err)
	}
	headers = append([]string(nil), headers...)
	columns := resolveColumns(headers)

	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err == nil {
			err = validateUTF8(record)
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to parse CSV record: %v", row, err))
			continue
		}

		meta := Metadata{
			ArtistNames:      columns.value(record, HeaderArtistNames),
			TrackName:        columns.value(record, HeaderTrackName),
			AlbumName:        columns.value(record, HeaderAlbumName),
			ArtistGenres:     columns.value(record, HeaderArtistGenres),
			AlbumReleaseDate: columns.value(record, HeaderAlbumReleaseDate),
			BPMTempo:         columns.value(record, HeaderBPMTempo),
		}
		query, ok := searchQuery(meta)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Missing both '%s' and '%s' - cannot create search query", row, HeaderArtistNames, HeaderTrackName))
			continue
		}
		result.Entries = append(result.Entries, Entry{RowNumber: row, Metadata: meta, SearchQuery: query})
	}

	result.SuccessCount = len(result.Entries)
	result.ErrorCount = len(result.Errors)
	result.TotalCount = result.SuccessCount + result.ErrorCount
	return result, nil
}

// ValidateHeaders reports which canonical headers the input provides, in
// canonical order.
func ValidateHeaders(r io.Reader) ([]string, error) {
	reader := newReader(r, Options{})
	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrInputValidation, "import", "read headers", "failed to read CSV headers", err)
	}
	found := make([]string, 0, len(CanonicalHeaders))
	for _, canonical := range CanonicalHeaders {
		if findColumn(headers, canonical) >= 0 {
			found = append(found, canonical)
		}
	}
	return found, nil
}

// newReader decodes a leading byte-order mark (UTF-8 or UTF-16) so
// spreadsheet exports parse like plain UTF-8 files.
func newReader(r io.Reader, opts Options) *csv.Reader {
	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = !opts.StrictQuotes
	return reader
}

func validateUTF8(record []string) error {
	for idx, value := range record {
		if !utf8.ValidString(value) {
			return fmt.Errorf("invalid UTF-8 in field %d", idx+1)
		}
	}
	return nil
}

func searchQuery(meta Metadata) (string, bool) {
	switch {
	case meta.ArtistNames != "" && meta.TrackName != "":
		return meta.ArtistNames + " - " + meta.TrackName, true
	case meta.ArtistNames != "":
		return meta.ArtistNames, true
	case meta.TrackName != "":
		return meta.TrackName, true
	default:
		return "", false
	}
}
