package jam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/remixweb/site/internal/cache"
	"github.com/remixweb/site/internal/markdown"
)

// Lineup is the merged conference data served to the lineup and
// schedule pages. Talk descriptions arrive as rendered HTML.
type Lineup struct {
	Speakers []Speaker      `json:"speakers"`
	Talks    []RenderedTalk `json:"talks"`
	Schedule []ScheduleItem `json:"schedule"`
}

// RenderedTalk is a talk joined to its speaker with the description
// rendered to HTML.
type RenderedTalk struct {
	Title           string  `json:"title"`
	Speaker         Speaker `json:"speaker"`
	DescriptionHTML string  `json:"descriptionHtml"`
}

// Service loads, merges, and caches the conference data set from YAML
// files on disk.
type Service struct {
	dataDir  string
	renderer *markdown.Renderer
	lineup   *cache.TTL[*Lineup]
}

const lineupCacheKey = "lineup"

// NewService creates a jam data service reading from dataDir.
func NewService(dataDir string, renderer *markdown.Renderer, stats cache.Stats, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		dataDir:  dataDir,
		renderer: renderer,
		lineup:   cache.New[*Lineup]("jam_lineup", 1, ttl, stats),
	}
}

// Lineup returns the merged speaker/talk/schedule data, loading and
// validating the YAML files on a cache miss. Any invalid file fails the
// whole load.
func (s *Service) Lineup(ctx context.Context) (*Lineup, error) {
	return s.lineup.GetOrCompute(ctx, lineupCacheKey, func(ctx context.Context) (*Lineup, error) {
		return s.load()
	})
}

func (s *Service) load() (*Lineup, error) {
	speakersRaw, err := os.ReadFile(filepath.Join(s.dataDir, "speakers.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read speakers data: %w", err)
	}
	talksRaw, err := os.ReadFile(filepath.Join(s.dataDir, "talks.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read talks data: %w", err)
	}
	scheduleRaw, err := os.ReadFile(filepath.Join(s.dataDir, "schedule.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule data: %w", err)
	}

	speakers, err := ParseSpeakers(speakersRaw)
	if err != nil {
		return nil, err
	}
	talks, err := ParseTalks(talksRaw)
	if err != nil {
		return nil, err
	}
	schedule, err := ParseScheduleItems(scheduleRaw)
	if err != nil {
		return nil, err
	}

	bySlug := make(map[string]Speaker, len(speakers))
	for _, sp := range speakers {
		bySlug[sp.Slug] = sp
	}

	rendered := make([]RenderedTalk, 0, len(talks))
	for _, talk := range talks {
		speaker, ok := bySlug[talk.SpeakerSlug]
		if !ok {
			return nil, fmt.Errorf("talk %q references unknown speaker %q", talk.Title, talk.SpeakerSlug)
		}
		html, err := s.renderer.Render([]byte(talk.Description))
		if err != nil {
			return nil, fmt.Errorf("failed to render talk %q: %w", talk.Title, err)
		}
		rendered = append(rendered, RenderedTalk{Title: talk.Title, Speaker: speaker, DescriptionHTML: html})
	}

	return &Lineup{Speakers: speakers, Talks: rendered, Schedule: schedule}, nil
}
