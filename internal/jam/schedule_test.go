package jam

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validSchedule = `
- time: "9:00"
  title: Doors open
  description: Coffee and badges.
  speaker: staff
- time: "10:00"
  title: Keynote
  description: Opening keynote.
  speaker: jane-doe
`

func TestParseScheduleItems_ValidDocument(t *testing.T) {
	items, err := ParseScheduleItems([]byte(validSchedule))
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Keynote", items[1].Title)
	require.Equal(t, "jane-doe", items[1].Speaker)
}

func TestParseScheduleItems_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"not an array": `
time: "9:00"
title: Doors open
description: Coffee.
speaker: staff
`,
		"missing description": `
- time: "9:00"
  title: Doors open
  speaker: staff
`,
		"missing speaker": `
- time: "9:00"
  title: Doors open
  description: Coffee.
`,
		"missing time": `
- title: Doors open
  description: Coffee.
  speaker: staff
`,
		"scalar document": `just a string`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScheduleItems([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestParseSpeakers_RequiresNameSlugAndBio(t *testing.T) {
	valid := `
- name: Jane Doe
  slug: jane-doe
  title: Staff Engineer
  imgUrl: https://example.com/jane.jpg
  bio: Builds things.
`
	speakers, err := ParseSpeakers([]byte(valid))
	require.NoError(t, err)
	require.Len(t, speakers, 1)
	require.Equal(t, "jane-doe", speakers[0].Slug)

	_, err = ParseSpeakers([]byte(`
- name: Jane Doe
  title: Staff Engineer
`))
	require.Error(t, err)
}

func TestParseTalks_RequiresSpeakerReference(t *testing.T) {
	talks, err := ParseTalks([]byte(`
- title: Shipping Fast
  speaker: jane-doe
  description: How we ship.
`))
	require.NoError(t, err)
	require.Len(t, talks, 1)
	require.Equal(t, "jane-doe", talks[0].SpeakerSlug)

	_, err = ParseTalks([]byte(`
- title: Shipping Fast
  description: How we ship.
`))
	require.Error(t, err)
}
