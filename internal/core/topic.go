package core

import (
	"fmt"
	"strings"
)

// Topic is a podcast segment. The declaration order is significant: keyword
// classification breaks ties in favour of the earlier topic.
type Topic int

const (
	TopicWorldPolitics Topic = iota
	TopicUSPolitics
	TopicIndianPolitics
	TopicTech
	TopicEntertainment
	TopicProductManagement
	TopicCrossFit
	TopicFormula1
	TopicArsenal
	TopicIndianCricket
	TopicBadminton
	TopicSports
	TopicSeattle
	TopicOther
)

var topicNames = [...]string{
	TopicWorldPolitics:     "World Politics",
	TopicUSPolitics:        "US Politics",
	TopicIndianPolitics:    "Indian Politics",
	TopicTech:              "Latest in Tech",
	TopicEntertainment:     "Entertainment",
	TopicProductManagement: "Product Management",
	TopicCrossFit:          "CrossFit",
	TopicFormula1:          "Formula 1",
	TopicArsenal:           "Arsenal",
	TopicIndianCricket:     "Indian Cricket",
	TopicBadminton:         "Badminton",
	TopicSports:            "Sports",
	TopicSeattle:           "Seattle",
	TopicOther:             "Other",
}

// AllTopics returns every topic in declaration order.
func AllTopics() []Topic {
	topics := make([]Topic, 0, len(topicNames))
	for i := range topicNames {
		topics = append(topics, Topic(i))
	}
	return topics
}

// String returns the display name of the topic.
func (t Topic) String() string {
	if t < 0 || int(t) >= len(topicNames) {
		return fmt.Sprintf("Topic(%d)", int(t))
	}
	return topicNames[t]
}

// Valid reports whether t is a declared topic.
func (t Topic) Valid() bool {
	return t >= 0 && int(t) < len(topicNames)
}

// ParseTopic resolves a display name, case-insensitively.
func ParseTopic(name string) (Topic, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i, n := range topicNames {
		if strings.ToLower(n) == needle {
			return Topic(i), nil
		}
	}
	return TopicOther, fmt.Errorf("unknown topic %q", name)
}

// MarshalText encodes the topic as its display name.
func (t Topic) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid topic %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a display name.
func (t *Topic) UnmarshalText(text []byte) error {
	parsed, err := ParseTopic(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
