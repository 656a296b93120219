package curriculum

import (
	"errors"
	"strings"
	"testing"

	"github.com/ashureev/tutorcito/internal/domain"
)

func TestEmbeddedCurriculumIsComplete(t *testing.T) {
	t.Parallel()

	c, err := Parse(contentYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, topic := range domain.AllTopics() {
		content, err := c.Topic(topic)
		if err != nil {
			t.Fatalf("Topic(%s) failed: %v", topic, err)
		}
		if len(content.Plan) != 4 {
			t.Errorf("Expected 4 plan steps for %s, got %d", topic, len(content.Plan))
		}
	}
}

func TestParseRejectsIncompleteContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"missing topic", "topics:\n  html:\n    name: HTML\n"},
		{"unknown topic", "topics:\n  go:\n    name: Go\n"},
		{"bad yaml", "topics: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestParseRejectsMissingBand(t *testing.T) {
	t.Parallel()

	broken := strings.Replace(string(contentYAML), "      initial:\n        - Conceptos fundamentales en desarrollo\n", "", 1)
	if broken == string(contentYAML) {
		t.Fatal("Fixture replacement did not apply")
	}
	if _, err := Parse([]byte(broken)); err == nil {
		t.Error("Expected error for missing band")
	}
}

func TestDetailBands(t *testing.T) {
	t.Parallel()

	c := Default()
	tests := []struct {
		topic     domain.Topic
		score     int
		band      domain.Band
		strengths int
		firstWeak string
	}{
		{domain.TopicHTML, 25, domain.BandBeginner, 1, "Formularios complejos"},
		{domain.TopicCSS, 80, domain.BandAdvanced, 3, "CSS-in-JS y metodologías avanzadas"},
		{domain.TopicJS, 10, domain.BandInitial, 1, "Estructuras de control"},
		{domain.TopicJS, 50, domain.BandIntermediate, 2, "Async/await"},
	}
	for _, tt := range tests {
		d, err := c.Detail(tt.topic, tt.score)
		if err != nil {
			t.Fatalf("Detail failed: %v", err)
		}
		if d.Band != tt.band {
			t.Errorf("%s@%d: expected band %s, got %s", tt.topic, tt.score, tt.band, d.Band)
		}
		if len(d.Strengths) != tt.strengths {
			t.Errorf("%s@%d: expected %d strengths, got %d", tt.topic, tt.score, tt.strengths, len(d.Strengths))
		}
		if d.Weaknesses[0] != tt.firstWeak {
			t.Errorf("%s@%d: expected first weakness %q, got %q", tt.topic, tt.score, tt.firstWeak, d.Weaknesses[0])
		}
		if len(d.Plan) != 4 {
			t.Errorf("Expected 4 plan steps, got %d", len(d.Plan))
		}
	}
}

func TestDetailTip(t *testing.T) {
	t.Parallel()

	d, err := Default().Detail(domain.TopicJS, 0)
	if err != nil {
		t.Fatalf("Detail failed: %v", err)
	}
	want := "Tip: Practica 30 minutos diarios para ver mejoras significativas en JavaScript"
	if d.Tip != want {
		t.Errorf("Expected %q, got %q", want, d.Tip)
	}
}

func TestDetailUnknownTopic(t *testing.T) {
	t.Parallel()

	if _, err := Default().Detail(domain.Topic(9), 10); !errors.Is(err, domain.ErrUnknownTopic) {
		t.Errorf("Expected ErrUnknownTopic, got %v", err)
	}
}

func TestDashboardInitialProgress(t *testing.T) {
	t.Parallel()

	d, err := Default().Dashboard("ana", domain.InitialProgress())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if d.Strongest.Topic != domain.TopicHTML {
		t.Errorf("Expected html strongest, got %s", d.Strongest.Topic)
	}
	if d.Weakest.Topic != domain.TopicJS {
		t.Errorf("Expected js weakest, got %s", d.Weakest.Topic)
	}
	if len(d.Plan) != 3 || d.Plan[0] != "Practica manipulación del DOM y eventos" {
		t.Errorf("Unexpected plan: %v", d.Plan)
	}
	if d.Greeting != "¡Hola, ana! 👋" {
		t.Errorf("Unexpected greeting %q", d.Greeting)
	}
	if len(d.Cards) != 3 || d.Cards[0].Topic != domain.TopicHTML || d.Cards[2].Topic != domain.TopicJS {
		t.Errorf("Expected cards in topic order, got %+v", d.Cards)
	}
}

func TestDashboardTies(t *testing.T) {
	t.Parallel()

	d, err := Default().Dashboard("ana", domain.Progress{40, 40, 40})
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if d.Strongest.Topic != domain.TopicHTML {
		t.Errorf("Expected html strongest on tie, got %s", d.Strongest.Topic)
	}
	if d.Weakest.Topic != domain.TopicJS {
		t.Errorf("Expected js weakest on tie, got %s", d.Weakest.Topic)
	}

	d, err = Default().Dashboard("ana", domain.Progress{90, 10, 10})
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if d.Weakest.Topic != domain.TopicJS {
		t.Errorf("Expected last tied topic as weakest, got %s", d.Weakest.Topic)
	}
}
