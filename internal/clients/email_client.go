package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/shopops/payment-reaper/pkg/errors"
	"github.com/shopops/payment-reaper/pkg/logger"
	"github.com/shopops/payment-reaper/pkg/retry"
)

// EmailClient sends email through the outbound notification gateway
type EmailClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig *retry.RetryConfig
}

// emailRequest is the gateway's email payload
type emailRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body,omitempty"`
}

// gatewayResponse is the common response shape of both gateway endpoints
type gatewayResponse struct {
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

// NewEmailClient creates a new EmailClient
func NewEmailClient(baseURL, apiKey string, logger logger.Logger) *EmailClient {
	return &EmailClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		retryConfig: &retry.RetryConfig{
			MaxAttempts: 3,
			BackoffStrategy: &retry.ExponentialBackoff{
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      1.5,
				JitterFactor:    0.2,
			},
			Logger: logger,
			RetryableErrors: []error{
				errors.ErrTimeout,
				errors.ErrTemporaryFailure,
				errors.ErrServiceUnavailable,
			},
		},
	}
}

// SendEmail delivers an email best-effort, retrying transient gateway
// failures
func (c *EmailClient) SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	url := fmt.Sprintf("%s/api/v1/messages/email", c.baseURL)

	request := &emailRequest{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	retryFunc := func() error {
		return postGatewayRequest(ctx, c.httpClient, url, c.apiKey, request)
	}

	err := retry.Retry(ctx, retryFunc, c.retryConfig)

	if err != nil {
		c.logger.Error("Failed to send email after retries", "error", err, "to", to)
		return err
	}

	return nil
}

// postGatewayRequest posts a JSON payload to a gateway endpoint and
// classifies failures so the retry loop only repeats transient ones
func postGatewayRequest(ctx context.Context, client *http.Client, url, apiKey string, payload interface{}) error {
	reqBody, err := json.Marshal(payload)

	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))

	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to create request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)

	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return errors.NewTimeoutError("gateway request timed out")
		}
		return errors.NewTemporaryError(fmt.Sprintf("failed to send request: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to read response body: %v", err))
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout {
			return errors.NewTimeoutError("gateway request timed out")
		}

		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusInternalServerError {
			return errors.NewTemporaryError(fmt.Sprintf("gateway error: %d", resp.StatusCode))
		}

		return errors.NewPermanentError(fmt.Sprintf("gateway rejected message: %d", resp.StatusCode))
	}

	response := &gatewayResponse{}

	if err := json.Unmarshal(body, response); err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to parse response: %v", err))
	}

	if response.Error != "" {
		if response.Code == "TIMEOUT" {
			return errors.NewTimeoutError(response.Error)
		}
		return errors.NewTemporaryError(response.Error)
	}

	return nil
}
