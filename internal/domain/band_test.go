package domain

import "testing"

func TestBandFor(t *testing.T) {
	tests := []struct {
		score int
		want  Band
	}{
		{0, BandInitial},
		{19, BandInitial},
		{20, BandBeginner},
		{49, BandBeginner},
		{50, BandIntermediate},
		{79, BandIntermediate},
		{80, BandAdvanced},
		{100, BandAdvanced},
	}
	for _, tt := range tests {
		if got := BandFor(tt.score); got != tt.want {
			t.Errorf("BandFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestBandLabels(t *testing.T) {
	want := map[Band]string{
		BandInitial:      "Inicial",
		BandBeginner:     "Principiante",
		BandIntermediate: "Intermedio",
		BandAdvanced:     "Avanzado",
	}
	for band, label := range want {
		if band.Label() != label {
			t.Errorf("Expected label %q for %s, got %q", label, band, band.Label())
		}
	}
}
