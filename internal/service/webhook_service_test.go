package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavenote-dev/community-api/internal/dto"
	"github.com/wavenote-dev/community-api/pkg/config"
)

func TestWebhookBuildPayload(t *testing.T) {
	notifier := NewWebhookNotifier(config.WebhookConfig{Enabled: true, URL: "http://hook.local"}, "https://maps.example.com", nil)

	event := dto.StatusChangeEvent{
		SetID:     100,
		SetTitle:  "Artist - Title",
		ActorID:   5,
		ActorName: "reviewer",
		Difficulties: []dto.DifficultyOutcome{
			{Name: "Easy", Status: "Approved"},
			{Name: "Hard", Status: "Approved"},
		},
	}

	payload := notifier.buildPayload(event)
	require.Len(t, payload.Embeds, 1)
	embed := payload.Embeds[0]

	assert.Equal(t, "Artist - Title", embed.Title)
	assert.Equal(t, "https://maps.example.com/s/100", embed.URL)
	assert.Equal(t, statusEmbedColor, embed.Color)
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "https://maps.example.com/mt/100", embed.Thumbnail.URL)

	require.NotNil(t, embed.Author)
	assert.Equal(t, "reviewer updated a beatmap", embed.Author.Name)
	assert.Equal(t, "https://maps.example.com/u/5", embed.Author.URL)
	assert.Equal(t, "https://maps.example.com/a/5", embed.Author.IconURL)

	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "Easy", embed.Fields[0].Name)
	assert.Equal(t, "Approved", embed.Fields[0].Value)
	assert.True(t, embed.Fields[0].Inline)
}

func TestWebhookDisabledNotifyIsNoop(t *testing.T) {
	notifier := NewWebhookNotifier(config.WebhookConfig{Enabled: false}, "https://maps.example.com", nil)

	// Queue is never started; a non-noop enqueue would log a warning but the
	// call must not panic or block.
	notifier.NotifyStatusChange(dto.StatusChangeEvent{SetID: 1})
	notifier.Start(nil)
	notifier.Stop()
}
