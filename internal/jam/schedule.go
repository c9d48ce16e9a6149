// Package jam loads and validates the conference data set: speakers,
// talks, schedule, ticket products, and the photo gallery.
package jam

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// ScheduleItem is one slot in the conference schedule.
type ScheduleItem struct {
	Time        string `yaml:"time" json:"time"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Speaker     string `yaml:"speaker" json:"speaker"`
}

func (s ScheduleItem) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Time, validation.Required),
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.Description, validation.Required),
		validation.Field(&s.Speaker, validation.Required),
	)
}

// ParseScheduleItems decodes and validates the schedule YAML. The
// document must be an array; any element missing a required field
// rejects the whole document.
func ParseScheduleItems(data []byte) ([]ScheduleItem, error) {
	var probe any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}
	if _, ok := probe.([]any); !ok {
		return nil, fmt.Errorf("schedule must be an array, got %T", probe)
	}

	var items []ScheduleItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("schedule item %d invalid: %w", i, err)
		}
	}
	return items, nil
}

// Speaker is one conference speaker from the speakers YAML.
type Speaker struct {
	Name    string `yaml:"name" json:"name"`
	Slug    string `yaml:"slug" json:"slug"`
	Title   string `yaml:"title" json:"title"`
	ImgURL  string `yaml:"imgUrl" json:"imgUrl"`
	Bio     string `yaml:"bio" json:"bio"`
	Twitter string `yaml:"twitter,omitempty" json:"twitter,omitempty"`
}

func (s Speaker) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Slug, validation.Required),
		validation.Field(&s.Bio, validation.Required),
	)
}

// Talk is one accepted talk, referencing its speaker by slug.
type Talk struct {
	Title       string `yaml:"title" json:"title"`
	SpeakerSlug string `yaml:"speaker" json:"speaker"`
	Description string `yaml:"description" json:"description"` // markdown
}

func (t Talk) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.SpeakerSlug, validation.Required),
		validation.Field(&t.Description, validation.Required),
	)
}

// ParseSpeakers decodes and validates the speakers YAML.
func ParseSpeakers(data []byte) ([]Speaker, error) {
	var speakers []Speaker
	if err := yaml.Unmarshal(data, &speakers); err != nil {
		return nil, fmt.Errorf("failed to parse speakers: %w", err)
	}
	for i, s := range speakers {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("speaker %d invalid: %w", i, err)
		}
	}
	return speakers, nil
}

// ParseTalks decodes and validates the talks YAML.
func ParseTalks(data []byte) ([]Talk, error) {
	var talks []Talk
	if err := yaml.Unmarshal(data, &talks); err != nil {
		return nil, fmt.Errorf("failed to parse talks: %w", err)
	}
	for i, t := range talks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("talk %d invalid: %w", i, err)
		}
	}
	return talks, nil
}
