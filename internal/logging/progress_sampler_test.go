package logging

import "testing"

func TestProgressSamplerDefaults(t *testing.T) {
	for _, size := range []float64{0, -3} {
		if s := NewProgressSampler(size); s.bucketSize != 10 || s.lastBucket != -1 {
			t.Fatalf("NewProgressSampler(%v) = %+v", size, s)
		}
	}
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(50, "download") {
		t.Fatal("nil sampler should always log")
	}
	nilSampler.Reset()
}

func TestProgressSamplerSequence(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		percent float64
		phase   string
		want    bool
	}{
		{0, "download", true},
		{4.5, "download", false},
		{10, "download", true},
		{19.9, "download", false},
		{55, "download", true},
		{-1, "download", false},
		{100, "download", true},
		{130, "download", false},
		{0, "convert", true},
		{-1, "finalize", true},
		{-1, "finalize", false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.phase); got != step.want {
			t.Fatalf("step %d (%v%% %s): got %v want %v", i, step.percent, step.phase, got, step.want)
		}
	}
}

func TestProgressSamplerTrimsPhaseAndResets(t *testing.T) {
	s := NewProgressSampler(25)
	s.ShouldLog(60, "  download  ")
	if s.lastPhase != "download" {
		t.Fatalf("lastPhase = %q, want trimmed", s.lastPhase)
	}
	if s.ShouldLog(70, "download") {
		t.Fatal("70% should share the 50% bucket")
	}
	s.Reset()
	if s.lastPhase != "" || s.lastBucket != -1 {
		t.Fatalf("unexpected state after reset: %+v", s)
	}
	if !s.ShouldLog(60, "download") {
		t.Fatal("should log after reset")
	}
}
