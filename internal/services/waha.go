package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"listify_echo/internal/config"
)

// WahaService talks to a WAHA (WhatsApp HTTP API) instance
type WahaService struct {
	cfg    config.WahaConfig
	client *http.Client
	// pause between the steps of SendMessage
	delay func(time.Duration)
}

func NewWahaService(cfg config.WahaConfig) *WahaService {
	if cfg.Session == "" {
		cfg.Session = "default"
	}
	return &WahaService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		delay:  time.Sleep,
	}
}

func (s *WahaService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(s.cfg.BaseURL, "/")+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (s *WahaService) chatAction(endpoint, chatID string) error {
	return s.makeRequest(http.MethodPost, endpoint, map[string]string{
		"chatId":  chatID,
		"session": s.cfg.Session,
	})
}

func (s *WahaService) sendText(chatID, text string) error {
	return s.makeRequest(http.MethodPost, "/api/sendText", map[string]string{
		"chatId":  chatID,
		"text":    text,
		"session": s.cfg.Session,
	})
}

// NormalizeChatID appends the personal chat suffix and replaces a leading 0
// with countryCode. Group ids are returned unchanged.
func NormalizeChatID(chatID, countryCode string) string {
	chatID = strings.TrimSpace(chatID)

	if strings.HasSuffix(chatID, "@g.us") {
		return chatID
	}

	chatID = strings.TrimPrefix(strings.TrimSuffix(chatID, "@c.us"), "+")

	if countryCode != "" && strings.HasPrefix(chatID, "0") {
		chatID = countryCode + strings.TrimPrefix(chatID, "0")
	}

	return chatID + "@c.us"
}

// SendMessage mimics a human sender: seen, typing, stop typing, then the text
func (s *WahaService) SendMessage(chatID, text string) error {
	chatID = NormalizeChatID(chatID, s.cfg.CountryCode)

	if err := s.chatAction("/api/sendSeen", chatID); err != nil {
		return fmt.Errorf("failed to send seen: %w", err)
	}
	s.delay(100 * time.Millisecond)

	if err := s.chatAction("/api/startTyping", chatID); err != nil {
		return fmt.Errorf("failed to start typing: %w", err)
	}
	s.delay(150 * time.Millisecond)

	if err := s.chatAction("/api/stopTyping", chatID); err != nil {
		return fmt.Errorf("failed to stop typing: %w", err)
	}
	s.delay(50 * time.Millisecond)

	if err := s.sendText(chatID, text); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}

	return nil
}
