package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/quantivue/backend/configs"
	"github.com/quantivue/backend/internal/transfer"
)

// N8nGateway is the outbound adapter for the workflow-automation engine.
// TriggerPublish fires the publish webhook; the engine reports results
// back through the per-post callback URL included in the payload.
type N8nGateway interface {
	TriggerPublish(ctx context.Context, payload *transfer.TriggerPayload) error
	ImportWorkflow(ctx context.Context, name string, workflow map[string]json.RawMessage) (*ImportedWorkflow, error)
	Ping(ctx context.Context) error
}

type ImportedWorkflow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"n8nUrl"`
}

type n8nGateway struct {
	cfg    config.Config
	client *http.Client
}

func NewN8nGateway(cfg config.Config) N8nGateway {
	return &n8nGateway{
		cfg: cfg,
		// Outbound calls must not hang a request goroutine indefinitely.
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *n8nGateway) TriggerPublish(ctx context.Context, payload *transfer.TriggerPayload) error {
	payload.CallbackURL = fmt.Sprintf("%s/api/posts/%d/webhook-status", g.cfg.BackendURL, payload.PostID)

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.N8nWebhookURL, bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("n8n webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("n8n webhook failed: %s", resp.Status)
	}

	return nil
}

// login authenticates against the engine's REST API. Different engine
// versions expect the credential under different field names, so the
// username form is tried first and the email form second.
func (g *n8nGateway) login(ctx context.Context) (string, error) {
	for _, field := range []string{"username", "email"} {
		cookie, err := g.tryLogin(ctx, field)
		if err == nil && cookie != "" {
			return cookie, nil
		}
		if err != nil {
			slog.Info(fmt.Sprintf("n8n login with %s field failed: %v", field, err))
		}
	}
	return "", errors.New("n8n authentication failed: wrong username or password")
}

func (g *n8nGateway) tryLogin(ctx context.Context, field string) (string, error) {
	body, err := json.Marshal(map[string]string{
		field:      g.cfg.N8nEmail,
		"password": g.cfg.N8nPassword,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.N8nBaseURL+"/rest/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	for _, c := range resp.Cookies() {
		if strings.HasPrefix(c.Name, "n8n") {
			return c.Name + "=" + c.Value, nil
		}
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err == nil && loginResp.Token != "" {
		return "n8n-auth=" + loginResp.Token, nil
	}

	return "", errors.New("no session cookie in login response")
}

func (g *n8nGateway) ImportWorkflow(ctx context.Context, name string, workflow map[string]json.RawMessage) (*ImportedWorkflow, error) {
	cookie, err := g.login(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"name":        name,
		"nodes":       rawOrDefault(workflow, "nodes", "[]"),
		"connections": rawOrDefault(workflow, "connections", "{}"),
		"settings":    rawOrDefault(workflow, "settings", "{}"),
		"staticData":  rawOrDefault(workflow, "staticData", "null"),
		"tags":        rawOrDefault(workflow, "tags", "[]"),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.N8nBaseURL+"/rest/workflows", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookie)

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("workflow import failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var imported struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&imported); err != nil {
		return nil, err
	}

	return &ImportedWorkflow{
		ID:   imported.ID,
		Name: imported.Name,
		URL:  fmt.Sprintf("%s/workflow/%s", g.cfg.N8nBaseURL, imported.ID),
	}, nil
}

func (g *n8nGateway) Ping(ctx context.Context) error {
	_, err := g.login(ctx)
	return err
}

func rawOrDefault(workflow map[string]json.RawMessage, key, fallback string) json.RawMessage {
	if v, ok := workflow[key]; ok && len(v) > 0 {
		return v
	}
	return json.RawMessage(fallback)
}
