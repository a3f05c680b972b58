package textutil

import "testing"

func TestMatchScore(t *testing.T) {
	if got := MatchScore("", "anything"); got != 0 {
		t.Fatalf("empty query score = %v", got)
	}
	if got := MatchScore("Daft Punk - One More Time", "Daft Punk - One More Time (Official Video)"); got != 1 {
		t.Fatalf("decorated exact match score = %v, want 1", got)
	}
	close := MatchScore("daft punk one more time", "Daft Punk – One More Time [Live]")
	far := MatchScore("daft punk one more time", "Cooking pasta tutorial")
	if close <= far {
		t.Fatalf("expected close match %v to exceed unrelated %v", close, far)
	}
	if close < 0.8 {
		t.Fatalf("expected close match to score highly, got %v", close)
	}
}
