package core

import "fmt"

// Segment is one topic slot in a show's running order.
type Segment struct {
	Topic   Topic `json:"topic" yaml:"topic"`
	Minutes int   `json:"minutes" yaml:"minutes"`
}

// Show is a podcast format: which topics it covers, in what order, for how long.
type Show struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Segments    []Segment `json:"segments" yaml:"segments"`
}

// Segment returns the slot for topic, if the show carries it.
func (s Show) Segment(topic Topic) (Segment, bool) {
	for _, seg := range s.Segments {
		if seg.Topic == topic {
			return seg, true
		}
	}
	return Segment{}, false
}

// TotalMinutes sums the nominal segment durations.
func (s Show) TotalMinutes() int {
	total := 0
	for _, seg := range s.Segments {
		total += seg.Minutes
	}
	return total
}

// Validate checks that the show is usable by the compiler.
func (s Show) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("show id is required")
	}
	if len(s.Segments) == 0 {
		return fmt.Errorf("show %s has no segments", s.ID)
	}
	seen := make(map[Topic]bool, len(s.Segments))
	for _, seg := range s.Segments {
		if !seg.Topic.Valid() {
			return fmt.Errorf("show %s: invalid topic %d", s.ID, int(seg.Topic))
		}
		if seen[seg.Topic] {
			return fmt.Errorf("show %s: duplicate segment %s", s.ID, seg.Topic)
		}
		if seg.Minutes <= 0 {
			return fmt.Errorf("show %s: segment %s must have positive minutes", s.ID, seg.Topic)
		}
		seen[seg.Topic] = true
	}
	return nil
}

// DefaultShow is the built-in daily briefing format.
func DefaultShow() Show {
	return Show{
		ID:          "hootline",
		Name:        "The Hootline",
		Description: "A daily half-hour briefing built from the morning's newsletters.",
		Segments: []Segment{
			{Topic: TopicTech, Minutes: 5},
			{Topic: TopicProductManagement, Minutes: 4},
			{Topic: TopicWorldPolitics, Minutes: 4},
			{Topic: TopicUSPolitics, Minutes: 3},
			{Topic: TopicIndianPolitics, Minutes: 3},
			{Topic: TopicCrossFit, Minutes: 2},
			{Topic: TopicEntertainment, Minutes: 3},
			{Topic: TopicFormula1, Minutes: 2},
			{Topic: TopicArsenal, Minutes: 1},
			{Topic: TopicIndianCricket, Minutes: 1},
			{Topic: TopicBadminton, Minutes: 1},
			{Topic: TopicSports, Minutes: 1},
			{Topic: TopicSeattle, Minutes: 1},
			{Topic: TopicOther, Minutes: 1},
		},
	}
}
