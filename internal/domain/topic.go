// Package domain contains core domain types for the tutor application.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTopic is returned when a string does not name a tracked topic.
var ErrUnknownTopic = errors.New("unknown topic")

// Topic is one of the three tracked subjects.
type Topic int

const (
	TopicHTML Topic = iota
	TopicCSS
	TopicJS

	topicCount = 3
)

var topicKeys = [topicCount]string{"html", "css", "js"}

var topicNames = [topicCount]string{"HTML", "CSS", "JavaScript"}

// AllTopics returns every topic in display order.
func AllTopics() []Topic {
	return []Topic{TopicHTML, TopicCSS, TopicJS}
}

// ParseTopic converts a key such as "html" into a Topic. Matching ignores case
// and surrounding whitespace.
func ParseTopic(s string) (Topic, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, k := range topicKeys {
		if k == key {
			return Topic(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTopic, s)
}

// Valid reports whether t is one of the tracked topics.
func (t Topic) Valid() bool {
	return t >= 0 && t < topicCount
}

// String returns the lowercase key ("html", "css", "js").
func (t Topic) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Topic(%d)", int(t))
	}
	return topicKeys[t]
}

// DisplayName returns the human-facing name ("HTML", "CSS", "JavaScript").
func (t Topic) DisplayName() string {
	if !t.Valid() {
		return t.String()
	}
	return topicNames[t]
}

// MarshalText encodes the topic as its key.
func (t Topic) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTopic, int(t))
	}
	return []byte(topicKeys[t]), nil
}

// UnmarshalText decodes a topic key.
func (t *Topic) UnmarshalText(b []byte) error {
	parsed, err := ParseTopic(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// JoinTopics renders topics as a comma separated list of keys.
func JoinTopics(topics []Topic) string {
	keys := make([]string, 0, len(topics))
	for _, t := range topics {
		keys = append(keys, t.String())
	}
	return strings.Join(keys, ",")
}

// SplitTopics parses the output of JoinTopics.
func SplitTopics(s string) ([]Topic, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	topics := make([]Topic, 0, len(parts))
	for _, p := range parts {
		t, err := ParseTopic(p)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, nil
}
