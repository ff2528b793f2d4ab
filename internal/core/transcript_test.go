package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patientsim/pkg"
)

func TestTranscriptAppendAndOrder(t *testing.T) {
	tr := NewTranscript()
	tr.Append(pkg.SpeakerUser, "Hej Mogens")
	tr.Append(pkg.SpeakerPersona, "Hvad vil du?")
	tr.Append(pkg.SpeakerUser, "Jeg vil gerne tale om dit blodsukker")

	assert.Equal(t, 3, tr.Len())

	history := tr.History()
	require.Len(t, history, 3)
	assert.Equal(t, "Hej Mogens", history[0].Text)
	assert.Equal(t, "Jeg vil gerne tale om dit blodsukker", history[2].Text)

	display := tr.DisplayList()
	require.Len(t, display, 3)
	assert.Equal(t, "Jeg vil gerne tale om dit blodsukker", display[0].Text, "display order is most recent first")
	assert.Equal(t, "Hej Mogens", display[2].Text)
}

func TestTranscriptLastN(t *testing.T) {
	tr := NewTranscript()
	for _, text := range []string{"a", "b", "c", "d"} {
		tr.Append(pkg.SpeakerUser, text)
	}

	last := tr.LastN(2)
	require.Len(t, last, 2)
	assert.Equal(t, "c", last[0].Text)
	assert.Equal(t, "d", last[1].Text)

	assert.Len(t, tr.LastN(10), 4, "asking for more than exists returns everything")
	assert.Empty(t, tr.LastN(0))
}

func TestLastUnannotatedUserUtterance(t *testing.T) {
	tr := NewTranscript()
	assert.Nil(t, tr.LastUnannotatedUserUtterance(), "empty transcript has no candidate")

	first := tr.Append(pkg.SpeakerUser, "første")
	tr.Append(pkg.SpeakerPersona, "svar")
	second := tr.Append(pkg.SpeakerUser, "anden")

	assert.Same(t, second, tr.LastUnannotatedUserUtterance(), "reverse scan finds the latest")

	second.Feedback = &pkg.Feedback{Score: 7}
	assert.Same(t, first, tr.LastUnannotatedUserUtterance(), "annotated entries are skipped")

	first.Feedback = &pkg.Feedback{Score: 4}
	assert.Nil(t, tr.LastUnannotatedUserUtterance())
}

func TestHistoryIsACopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(pkg.SpeakerUser, "original")

	history := tr.History()
	history[0].Text = "ændret"

	assert.Equal(t, "original", tr.History()[0].Text)
}
