package csvimport

import "strings"

// Canonical column names recognized in an import file.
const (
	HeaderArtistNames      = "Artist Name(s)"
	HeaderTrackName        = "Track Name"
	HeaderAlbumName        = "Album Name"
	HeaderArtistGenres     = "Artist Genres"
	HeaderAlbumReleaseDate = "Album Release Date"
	HeaderBPMTempo         = "BPM/Tempo"
)

// CanonicalHeaders lists the recognized columns in reporting order.
var CanonicalHeaders = []string{
	HeaderArtistNames,
	HeaderTrackName,
	HeaderAlbumName,
	HeaderArtistGenres,
	HeaderAlbumReleaseDate,
	HeaderBPMTempo,
}

var headerReplacer = strings.NewReplacer(
	" ", "_",
	"-", "_",
	"/", "_",
	"(", "",
	")", "",
	"[", "",
	"]", "",
	`"`, "",
)

func normalizeHeader(header string) string {
	return headerReplacer.Replace(strings.ToLower(header))
}

// findColumn returns the index of the first header that matches canonical,
// either exactly or by substring containment in either direction after
// normalization. Headers that normalize to nothing never match.
func findColumn(headers []string, canonical string) int {
	target := normalizeHeader(canonical)
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if normalized == "" {
			continue
		}
		if normalized == target || strings.Contains(normalized, target) || strings.Contains(target, normalized) {
			return idx
		}
	}
	return -1
}

// columnMap resolves every canonical header against the input header row.
type columnMap map[string]int

func resolveColumns(headers []string) columnMap {
	columns := make(columnMap, len(CanonicalHeaders))
	for _, canonical := range CanonicalHeaders {
		columns[canonical] = findColumn(headers, canonical)
	}
	return columns
}

func (c columnMap) value(record []string, canonical string) string {
	idx, ok := c[canonical]
	if !ok || idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
