package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wavenote-dev/community-api/internal/dto"
	"github.com/wavenote-dev/community-api/pkg/config"
	"github.com/wavenote-dev/community-api/pkg/jobs"
)

const statusEmbedColor = 0x009ed9

type webhookImage struct {
	URL string `json:"url"`
}

type webhookAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookEmbed struct {
	Title     string         `json:"title"`
	URL       string         `json:"url,omitempty"`
	Color     int            `json:"color"`
	Thumbnail *webhookImage  `json:"thumbnail,omitempty"`
	Author    *webhookAuthor `json:"author,omitempty"`
	Fields    []webhookField `json:"fields,omitempty"`
}

type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

// WebhookNotifier turns committed status transitions into embed payloads and
// delivers them out-of-band through a worker queue. Delivery failures are
// logged and never surfaced to the transition.
type WebhookNotifier struct {
	cfg     config.WebhookConfig
	baseURL string
	client  *http.Client
	queue   *jobs.Queue
	logger  *zap.Logger
	metrics *MetricsService
}

// NewWebhookNotifier constructs the notifier.
func NewWebhookNotifier(cfg config.WebhookConfig, baseURL string, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &WebhookNotifier{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
	n.queue = jobs.NewQueue("status-webhooks", n.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return n
}

// UseMetrics attaches delivery outcome counters. Optional.
func (n *WebhookNotifier) UseMetrics(metrics *MetricsService) {
	n.metrics = metrics
}

// Start launches the delivery workers.
func (n *WebhookNotifier) Start(ctx context.Context) {
	if !n.cfg.Enabled {
		return
	}
	n.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (n *WebhookNotifier) Stop() {
	if !n.cfg.Enabled {
		return
	}
	n.queue.Stop()
}

// NotifyStatusChange implements StatusNotifier.
func (n *WebhookNotifier) NotifyStatusChange(event dto.StatusChangeEvent) {
	if !n.cfg.Enabled || n.cfg.URL == "" {
		return
	}
	job := jobs.Job{
		ID:      fmt.Sprintf("status-%d-%d", event.SetID, time.Now().UnixNano()),
		Type:    "status_change",
		Payload: event,
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("failed to enqueue status webhook", zap.Int("set_id", event.SetID), zap.Error(err))
	}
}

func (n *WebhookNotifier) deliver(ctx context.Context, job jobs.Job) error {
	if err := n.send(ctx, job); err != nil {
		n.metrics.ObserveWebhookDelivery("failure")
		return err
	}
	n.metrics.ObserveWebhookDelivery("success")
	return nil
}

func (n *WebhookNotifier) send(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(dto.StatusChangeEvent)
	if !ok {
		return fmt.Errorf("unexpected webhook payload type %T", job.Payload)
	}

	body, err := json.Marshal(n.buildPayload(event))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (n *WebhookNotifier) buildPayload(event dto.StatusChangeEvent) webhookPayload {
	embed := webhookEmbed{
		Title:     event.SetTitle,
		URL:       fmt.Sprintf("%s/s/%d", n.baseURL, event.SetID),
		Color:     statusEmbedColor,
		Thumbnail: &webhookImage{URL: fmt.Sprintf("%s/mt/%d", n.baseURL, event.SetID)},
		Author: &webhookAuthor{
			Name:    fmt.Sprintf("%s updated a beatmap", event.ActorName),
			URL:     fmt.Sprintf("%s/u/%d", n.baseURL, event.ActorID),
			IconURL: fmt.Sprintf("%s/a/%d", n.baseURL, event.ActorID),
		},
	}
	for _, difficulty := range event.Difficulties {
		embed.Fields = append(embed.Fields, webhookField{
			Name:   difficulty.Name,
			Value:  difficulty.Status,
			Inline: true,
		})
	}
	return webhookPayload{Embeds: []webhookEmbed{embed}}
}
