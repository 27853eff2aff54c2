package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"os/exec"
	"strings"
	"time"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
)

// Dispatcher executes one configured action per fired event. Every
// failure is isolated to its own action: the caller logs it and moves
// on to the next action in order.
type Dispatcher struct {
	client *http.Client
	log    logger.Logger
}

func NewDispatcher(log logger.Logger) *Dispatcher {
	return &Dispatcher{
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, action domain.AlertAction, event *domain.AlertEvent) error {
	switch action.Type {
	case domain.ActionNotification:
		return d.notification(event)
	case domain.ActionWebhook:
		return d.webhook(ctx, action.Config, event)
	case domain.ActionCommand:
		return d.command(ctx, action.Config, event)
	case domain.ActionSound:
		return d.sound(ctx, action.Config)
	case domain.ActionEmail:
		return d.email(action.Config, event)
	}
	return fmt.Errorf("unknown action type %q", action.Type)
}

func (d *Dispatcher) notification(event *domain.AlertEvent) error {
	d.log.Warn("ALERT",
		"alert", event.AlertName,
		"path", event.SensorPath,
		"value", event.Value,
		"threshold", event.Threshold,
		"condition", event.Condition,
	)
	return nil
}

func (d *Dispatcher) webhook(ctx context.Context, config map[string]string, event *domain.AlertEvent) error {
	url := config["url"]
	if url == "" {
		return fmt.Errorf("webhook action has no url")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// command runs a user-configured shell command with the event fields
// exported in its environment.
func (d *Dispatcher) command(ctx context.Context, config map[string]string, event *domain.AlertEvent) error {
	line := config["command"]
	if line == "" {
		return fmt.Errorf("command action has no command")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", line)
	cmd.Env = append(cmd.Environ(),
		"ALERT_NAME="+event.AlertName,
		"ALERT_PATH="+event.SensorPath,
		fmt.Sprintf("ALERT_VALUE=%g", event.Value),
		fmt.Sprintf("ALERT_THRESHOLD=%g", event.Threshold),
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *Dispatcher) sound(ctx context.Context, config map[string]string) error {
	file := config["file"]
	if file == "" {
		return fmt.Errorf("sound action has no file")
	}

	player := config["player"]
	if player == "" {
		player = "aplay"
	}

	if err := exec.CommandContext(ctx, player, file).Run(); err != nil {
		return fmt.Errorf("sound playback failed: %w", err)
	}
	return nil
}

func (d *Dispatcher) email(config map[string]string, event *domain.AlertEvent) error {
	host := config["host"]
	to := config["to"]
	from := config["from"]
	if host == "" || to == "" || from == "" {
		return fmt.Errorf("email action requires host, from, and to")
	}

	port := config["port"]
	if port == "" {
		port = "587"
	}

	var auth smtp.Auth
	if user := config["username"]; user != "" {
		auth = smtp.PlainAuth("", user, config["password"], host)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: [cascade] %s\r\n\r\n%s on %s: value %g crossed threshold %g (%s) at %s\r\n",
		from, to, event.AlertName,
		event.AlertName, event.SensorPath, event.Value, event.Threshold, event.Condition,
		event.Timestamp.Format(time.RFC3339),
	)

	if err := smtp.SendMail(host+":"+port, auth, from, strings.Split(to, ","), []byte(msg)); err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}
