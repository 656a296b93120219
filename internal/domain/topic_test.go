package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTopic(t *testing.T) {
	for _, in := range []string{"html", "HTML", " css ", "Js"} {
		if _, err := ParseTopic(in); err != nil {
			t.Errorf("ParseTopic(%q) failed: %v", in, err)
		}
	}
	if _, err := ParseTopic("javascript"); !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("Expected ErrUnknownTopic, got %v", err)
	}
}

func TestTopicsRoundTripThroughJoin(t *testing.T) {
	joined := JoinTopics(AllTopics())
	if joined != "html,css,js" {
		t.Fatalf("unexpected join: %q", joined)
	}
	topics, err := SplitTopics(joined)
	if err != nil {
		t.Fatalf("SplitTopics failed: %v", err)
	}
	if len(topics) != 3 || topics[2] != TopicJS {
		t.Errorf("unexpected topics: %v", topics)
	}
	empty, err := SplitTopics("")
	if err != nil || empty != nil {
		t.Errorf("Expected nil topics for empty string, got %v, %v", empty, err)
	}
}

func TestMessageTopicsMarshalAsKeys(t *testing.T) {
	data, err := json.Marshal(struct {
		Topics []Topic `json:"topics"`
	}{Topics: []Topic{TopicCSS, TopicJS}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"topics":["css","js"]}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}
