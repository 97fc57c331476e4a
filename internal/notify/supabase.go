package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leaguevote/pkg/logger"
)

// SupabaseFunctionSender posts messages to a Supabase edge function
type SupabaseFunctionSender struct {
	baseURL    string
	anonKey    string
	function   string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewSupabaseFunctionSender(baseURL, anonKey, function string, log *logger.Logger) *SupabaseFunctionSender {
	if log == nil {
		log = logger.NewNop()
	}
	return &SupabaseFunctionSender{
		baseURL:  strings.TrimRight(baseURL, "/"),
		anonKey:  anonKey,
		function: function,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log,
	}
}

func (s *SupabaseFunctionSender) Send(ctx context.Context, msg Message) error {
	jsonBody, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/functions/v1/%s", s.baseURL, s.function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.anonKey))
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Supabase function: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Supabase function returned status %d: %s", resp.StatusCode, string(body))
	}

	s.logger.WithFields(map[string]interface{}{
		"function": s.function,
		"template": msg.Template,
	}).Debug("Supabase function accepted notification")

	return nil
}

// LogSender only logs; used when no Supabase project is configured
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogSender{logger: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.WithFields(map[string]interface{}{
		"template": msg.Template,
		"data":     msg.Data,
	}).Info("Notification (log only)")
	return nil
}
