package csvimport

import "testing"

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Artist Name(s)":     "artist_names",
		"BPM/Tempo":          "bpm_tempo",
		"Album-Release Date": "album_release_date",
		`"Track [Name]"`:     "track_name",
	}
	for input, want := range tests {
		if got := normalizeHeader(input); got != want {
			t.Fatalf("normalizeHeader(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFindColumn(t *testing.T) {
	headers := []string{"", "Spotify ID", "Artist", "Track Name"}
	if idx := findColumn(headers, HeaderArtistNames); idx != 2 {
		t.Fatalf("expected Artist at 2, got %d", idx)
	}
	if idx := findColumn(headers, HeaderTrackName); idx != 3 {
		t.Fatalf("expected Track Name at 3, got %d", idx)
	}
	if idx := findColumn(headers, HeaderBPMTempo); idx != -1 {
		t.Fatalf("expected no BPM column, got %d", idx)
	}
}
