package form

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"pocketly/internal/i18n"
)

// SubscribePath is the intake endpoint relative to the site root.
const SubscribePath = "/api/waitlist"

// Response is the raw answer of the intake endpoint.
type Response struct {
	Status int
	Body   []byte
}

// Transport posts one subscription.
type Transport interface {
	PostSubscription(ctx context.Context, email string) (*Response, error)
}

// HTTPTransport talks to the intake endpoint with resty. It never retries.
type HTTPTransport struct {
	client *resty.Client
}

type TransportOption func(*resty.Client)

// WithLanguage sends lang as Accept-Language so server messages come back in it.
func WithLanguage(lang i18n.Lang) TransportOption {
	return func(c *resty.Client) {
		c.SetHeader("Accept-Language", string(lang))
	}
}

func WithTimeout(d time.Duration) TransportOption {
	return func(c *resty.Client) {
		c.SetTimeout(d)
	}
}

// NewHTTPTransport targets the site at baseURL, for example https://pocketly.app.
func NewHTTPTransport(baseURL string, opts ...TransportOption) *HTTPTransport {
	client := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(client)
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) PostSubscription(ctx context.Context, email string) (*Response, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		Post(SubscribePath)
	if err != nil {
		return nil, err
	}
	return &Response{Status: resp.StatusCode(), Body: resp.Body()}, nil
}
