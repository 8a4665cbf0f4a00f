package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
)

const (
	DefaultPostmarkBaseURL = "https://api.postmarkapp.com"
	defaultPostmarkTimeout = 10 * time.Second
	postmarkTokenHeader    = "X-Postmark-Server-Token"
)

var ErrDelivery = errors.New("email: delivery failed")

// PostmarkSender sends through the Postmark HTTP API.
type PostmarkSender struct {
	BaseURL     string
	ServerToken string
	From        string
	Stream      string // message stream, "outbound" when empty
	Client      *http.Client
}

// NewPostmarkSender validates its inputs and returns a sender with a bounded
// HTTP client.
func NewPostmarkSender(baseURL, serverToken, from string, timeout time.Duration) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, errors.New("email: postmark server token is required")
	}
	if from == "" {
		return nil, errors.New("email: postmark sender address is required")
	}
	if baseURL == "" {
		baseURL = DefaultPostmarkBaseURL
	}
	if timeout <= 0 {
		timeout = defaultPostmarkTimeout
	}

	return &PostmarkSender{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		ServerToken: serverToken,
		From:        from,
		Client:      &http.Client{Timeout: timeout},
	}, nil
}

type postmarkMessage struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
	MessageID string `json:"MessageID"`
}

func (s *PostmarkSender) Send(ctx context.Context, to domain.Email, subject, body string) error {
	stream := s.Stream
	if stream == "" {
		stream = "outbound"
	}

	payload, err := json.Marshal(postmarkMessage{
		From:          s.From,
		To:            to.String(),
		Subject:       subject,
		TextBody:      body,
		MessageStream: stream,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(postmarkTokenHeader, s.ServerToken)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out postmarkResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: decode response (status %d): %w", ErrDelivery, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || out.ErrorCode != 0 {
		return fmt.Errorf("%w: status %d, postmark error %d: %s", ErrDelivery, resp.StatusCode, out.ErrorCode, out.Message)
	}
	return nil
}
