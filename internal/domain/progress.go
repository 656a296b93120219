package domain

import (
	"encoding/json"
	"fmt"
)

// Score bounds for every topic.
const (
	MinScore = 0
	MaxScore = 100
)

// Progress holds one bounded score per topic. It is a value type: every
// mutation returns a new Progress and leaves the receiver untouched.
type Progress [topicCount]int

// InitialProgress returns the scores a fresh session starts with.
func InitialProgress() Progress {
	return Progress{
		TopicHTML: 25,
		TopicCSS:  15,
		TopicJS:   10,
	}
}

// Score returns the current score for a topic. Unknown topics score zero.
func (p Progress) Score(t Topic) int {
	if !t.Valid() {
		return 0
	}
	return p[t]
}

// Apply adds points to a topic, clamps the result to [MinScore, MaxScore] and
// returns the updated progress together with the new score.
func (p Progress) Apply(t Topic, points int) (Progress, int) {
	if !t.Valid() {
		return p, 0
	}
	p[t] = addClamped(p[t], points)
	return p, p[t]
}

// ApplyAll applies every delta in topic order.
func (p Progress) ApplyAll(deltas Deltas) Progress {
	for _, t := range AllTopics() {
		if points, ok := deltas[t]; ok {
			p, _ = p.Apply(t, points)
		}
	}
	return p
}

// Map returns the scores keyed by topic key, the shape the API renders.
func (p Progress) Map() map[string]int {
	out := make(map[string]int, topicCount)
	for _, t := range AllTopics() {
		out[t.String()] = p[t]
	}
	return out
}

// MarshalJSON renders progress as {"html":25,"css":15,"js":10}.
func (p Progress) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// UnmarshalJSON parses the MarshalJSON shape. Missing topics score zero and
// out-of-range scores are clamped.
func (p *Progress) UnmarshalJSON(b []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode progress: %w", err)
	}
	var out Progress
	for key, score := range raw {
		t, err := ParseTopic(key)
		if err != nil {
			return err
		}
		out[t] = clamp(score)
	}
	*p = out
	return nil
}

// addClamped saturates before adding so deltas near the int limits cannot
// wrap around.
func addClamped(score, points int) int {
	switch {
	case points > MaxScore-score:
		return MaxScore
	case points < MinScore-score:
		return MinScore
	}
	return clamp(score + points)
}

func clamp(score int) int {
	if score > MaxScore {
		return MaxScore
	}
	if score < MinScore {
		return MinScore
	}
	return score
}

// Deltas maps topics to the points a reply earns.
type Deltas map[Topic]int

// Tracker is a mutable holder around Progress for single-owner callers such as
// the terminal client. It is not safe for concurrent use.
type Tracker struct {
	state Progress
}

// NewTracker returns a tracker seeded with InitialProgress.
func NewTracker() *Tracker {
	return &Tracker{state: InitialProgress()}
}

// ApplyDelta adds points to a topic and returns the clamped new score.
func (t *Tracker) ApplyDelta(topic Topic, points int) int {
	var score int
	t.state, score = t.state.Apply(topic, points)
	return score
}

// GetScore returns the current score for a topic.
func (t *Tracker) GetScore(topic Topic) int {
	return t.state.Score(topic)
}

// Snapshot returns a copy of the tracked progress.
func (t *Tracker) Snapshot() Progress {
	return t.state
}

// Reset restores the initial scores.
func (t *Tracker) Reset() {
	t.state = InitialProgress()
}
