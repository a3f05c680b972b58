package ytdlp

import "testing"

func TestPatternResolverOrder(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
		ok     bool
	}{
		{
			name:   "extract audio",
			output: "[youtube] x\n[ExtractAudio] Destination: /m/Song [abc].mp3\n",
			want:   "/m/Song [abc].mp3",
			ok:     true,
		},
		{
			name:   "merger quoted",
			output: "[Merger] Merging formats into \"/m/Song.mp3\"\n",
			want:   "/m/Song.mp3",
			ok:     true,
		},
		{
			name:   "info fallback",
			output: "[info] /m/Already There.mp3 has already been downloaded\n",
			want:   "/m/Already There.mp3",
			ok:     true,
		},
		{
			name:   "extract audio wins over earlier info line",
			output: "[info] /m/first.mp3\n[ExtractAudio] Destination: /m/second.mp3\n",
			want:   "/m/second.mp3",
			ok:     true,
		},
		{
			name:   "no mp3 lines",
			output: "[download] Destination: /m/Song.webm\n",
			ok:     false,
		},
	}
	resolver := DefaultResolver()
	for _, tt := range tests {
		got, ok := resolver.Resolve(tt.output)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("%s: Resolve = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
