package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"coffee-analysis/domain/ports"
	"coffee-analysis/pkg/config"
	"coffee-analysis/pkg/logger"
)

// DiscordNotifier delivers failure alerts to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	enabled    bool
	httpClient *http.Client
}

func NewDiscordNotifier(cfg config.AlertConfig) ports.NotifierPort {
	return &DiscordNotifier{
		webhookURL: cfg.DiscordWebhook,
		enabled:    cfg.Enabled && cfg.DiscordWebhook != "",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *DiscordNotifier) IsEnabled() bool {
	return n.enabled
}

// SendJobFailedAlert posts one message per terminally failed job. Alert
// delivery is best effort and never blocks job handling.
func (n *DiscordNotifier) SendJobFailedAlert(ctx context.Context, alert *ports.FailureAlert) error {
	if !n.enabled {
		return nil
	}

	content := fmt.Sprintf(
		"🚨 **Prediction job failed**\n"+
			"Request: `%s`\n"+
			"Image: `%s`\n"+
			"Worker: %s\n"+
			"Error: %s\n"+
			"Failed at: %s",
		alert.RequestID,
		alert.ImageRef,
		alert.WorkerID,
		alert.Error,
		alert.FailedAt,
	)

	payload := map[string]any{"content": content}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send Discord alert", "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.ErrorContext(ctx, "Discord webhook error", "status", resp.StatusCode)
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}

	logger.InfoContext(ctx, "Discord alert sent", "request_id", alert.RequestID)
	return nil
}
