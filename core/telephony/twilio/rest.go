package twilio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultAPIBaseURL = "https://api.twilio.com/2010-04-01"

// RESTClient controls live calls through the REST API.
type RESTClient struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
}

type RESTOption func(*RESTClient)

func WithBaseURL(baseURL string) RESTOption {
	return func(c *RESTClient) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) RESTOption {
	return func(c *RESTClient) {
		c.httpClient = client
	}
}

func NewRESTClient(accountSID, authToken string, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    DefaultAPIBaseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EndCall completes a live call.
func (c *RESTClient) EndCall(ctx context.Context, callSID string) error {
	ctx, span := tracer.Start(ctx, "end call")
	defer span.End()
	span.SetAttributes(attribute.String("call.sid", callSID))

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.accountSID), url.PathEscape(callSID))
	form := url.Values{"Status": {"completed"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		err = fmt.Errorf("failed to create end call request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to end call: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err = fmt.Errorf("failed to end call: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
