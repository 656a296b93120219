// Package curriculum holds the static learning content behind the dashboard
// and topic detail views.
package curriculum

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/ashureev/tutorcito/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

// dashboardPlanSteps is how many plan steps the dashboard shows for the
// weakest topic. The detail view shows the full plan.
const dashboardPlanSteps = 3

// TopicContent is the static content for one topic.
type TopicContent struct {
	Name        string              `yaml:"name"`
	Icon        string              `yaml:"icon"`
	Description string              `yaml:"description"`
	Strengths   map[string][]string `yaml:"strengths"`
	Weaknesses  map[string][]string `yaml:"weaknesses"`
	Plan        []string            `yaml:"plan"`
}

// Catalog is the full curriculum keyed by topic.
type Catalog struct {
	topics map[domain.Topic]TopicContent
}

type document struct {
	Topics map[string]TopicContent `yaml:"topics"`
}

// Parse decodes and validates curriculum YAML. Every topic must define a
// name, a plan of at least dashboardPlanSteps steps, and strengths and
// weaknesses for every band.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}

	c := &Catalog{topics: make(map[domain.Topic]TopicContent, len(doc.Topics))}
	for key, content := range doc.Topics {
		topic, err := domain.ParseTopic(key)
		if err != nil {
			return nil, fmt.Errorf("curriculum: %w", err)
		}
		c.topics[topic] = content
	}

	for _, topic := range domain.AllTopics() {
		content, ok := c.topics[topic]
		if !ok {
			return nil, fmt.Errorf("curriculum: topic %s missing", topic)
		}
		if content.Name == "" {
			return nil, fmt.Errorf("curriculum: topic %s has no name", topic)
		}
		if len(content.Plan) < dashboardPlanSteps {
			return nil, fmt.Errorf("curriculum: topic %s plan has %d steps, need %d", topic, len(content.Plan), dashboardPlanSteps)
		}
		for _, band := range domain.AllBands() {
			if len(content.Strengths[band.String()]) == 0 {
				return nil, fmt.Errorf("curriculum: topic %s has no strengths for %s", topic, band)
			}
			if len(content.Weaknesses[band.String()]) == 0 {
				return nil, fmt.Errorf("curriculum: topic %s has no weaknesses for %s", topic, band)
			}
		}
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded curriculum. It panics if the embedded asset is
// invalid, which the package tests guard against.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(contentYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Topic returns the content for t.
func (c *Catalog) Topic(t domain.Topic) (TopicContent, error) {
	content, ok := c.topics[t]
	if !ok {
		return TopicContent{}, fmt.Errorf("%w: %d", domain.ErrUnknownTopic, int(t))
	}
	return content, nil
}

// TopicDetail is the detail view for one topic at a given score.
type TopicDetail struct {
	Topic       domain.Topic `json:"topic"`
	Name        string       `json:"name"`
	Icon        string       `json:"icon"`
	Description string       `json:"description"`
	Score       int          `json:"score"`
	Band        domain.Band  `json:"band"`
	BandLabel   string       `json:"band_label"`
	Strengths   []string     `json:"strengths"`
	Weaknesses  []string     `json:"weaknesses"`
	Plan        []string     `json:"plan"`
	Tip         string       `json:"tip"`
}

// Detail builds the detail view for topic at score.
func (c *Catalog) Detail(topic domain.Topic, score int) (TopicDetail, error) {
	content, err := c.Topic(topic)
	if err != nil {
		return TopicDetail{}, err
	}
	band := domain.BandFor(score)
	return TopicDetail{
		Topic:       topic,
		Name:        content.Name,
		Icon:        content.Icon,
		Description: content.Description,
		Score:       score,
		Band:        band,
		BandLabel:   band.Label(),
		Strengths:   slices.Clone(content.Strengths[band.String()]),
		Weaknesses:  slices.Clone(content.Weaknesses[band.String()]),
		Plan:        slices.Clone(content.Plan),
		Tip:         fmt.Sprintf("Tip: Practica 30 minutos diarios para ver mejoras significativas en %s", content.Name),
	}, nil
}

// TopicCard is one row of the dashboard.
type TopicCard struct {
	Topic       domain.Topic `json:"topic"`
	Name        string       `json:"name"`
	Icon        string       `json:"icon"`
	Description string       `json:"description"`
	Score       int          `json:"score"`
	Band        domain.Band  `json:"band"`
	BandLabel   string       `json:"band_label"`
}

// Dashboard is the overview of a learner's progress.
type Dashboard struct {
	Greeting  string      `json:"greeting"`
	Cards     []TopicCard `json:"cards"`
	Strongest TopicCard   `json:"strongest"`
	Weakest   TopicCard   `json:"weakest"`
	Plan      []string    `json:"plan"`
}

// Dashboard builds the dashboard for name. Topics are ranked by score,
// highest first, keeping the html, css, js order for ties; the strongest is
// the first of that ranking and the weakest the last.
func (c *Catalog) Dashboard(name string, progress domain.Progress) (Dashboard, error) {
	cards := make([]TopicCard, 0, len(domain.AllTopics()))
	for _, topic := range domain.AllTopics() {
		content, err := c.Topic(topic)
		if err != nil {
			return Dashboard{}, err
		}
		score := progress.Score(topic)
		band := domain.BandFor(score)
		cards = append(cards, TopicCard{
			Topic:       topic,
			Name:        content.Name,
			Icon:        content.Icon,
			Description: content.Description,
			Score:       score,
			Band:        band,
			BandLabel:   band.Label(),
		})
	}

	ranked := slices.Clone(cards)
	slices.SortStableFunc(ranked, func(a, b TopicCard) int {
		return b.Score - a.Score
	})
	strongest := ranked[0]
	weakest := ranked[len(ranked)-1]

	plan := c.topics[weakest.Topic].Plan[:dashboardPlanSteps]
	return Dashboard{
		Greeting:  fmt.Sprintf("¡Hola, %s! 👋", name),
		Cards:     cards,
		Strongest: strongest,
		Weakest:   weakest,
		Plan:      slices.Clone(plan),
	}, nil
}
