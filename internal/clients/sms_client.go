package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopops/payment-reaper/pkg/errors"
	"github.com/shopops/payment-reaper/pkg/logger"
	"github.com/shopops/payment-reaper/pkg/retry"
)

// SMSClient sends text messages through the outbound notification gateway
type SMSClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig *retry.RetryConfig
}

// smsRequest is the gateway's SMS payload
type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// NewSMSClient creates a new SMSClient
func NewSMSClient(baseURL, apiKey string, logger logger.Logger) *SMSClient {
	return &SMSClient{
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

// SendSMS delivers a text message best-effort, retrying transient gateway
// failures
func (c *SMSClient) SendSMS(ctx context.Context, to, message string) error {
	url := fmt.Sprintf("%s/api/v1/messages/sms", c.baseURL)

	request := &smsRequest{
		To:      to,
		Message: message,
	}

	retryFunc := func() error {
		return postGatewayRequest(ctx, c.httpClient, url, c.apiKey, request)
	}

	err := retry.Retry(ctx, retryFunc, c.retryConfig)

	if err != nil {
		c.logger.Error("Failed to send SMS after retries", "error", err, "to", to)
		return err
	}

	return nil
}
