package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Page is one raw page of the cursor paginated portal API. Items are kept
// as raw JSON; parsing into records happens during normalization and the
// page itself is discarded right after.
type Page struct {
	Count int64             `json:"count"`
	Next  *string           `json:"next"`
	Items []json.RawMessage `json:"items"`
}

func (p *Page) NextCursor() string {
	if p.Next == nil {
		return ""
	}
	return *p.Next
}

// PortalClient is the transport capability the engine is built on. It fetches
// a single page and reports failures using the shared error taxonomy:
// transient errors are safe to retry with the same cursor, everything else
// is terminal.
type PortalClient interface {
	FetchPage(ctx context.Context, entityType, cursor string, parameters ...RequestDecoratorFunc) (*Page, error)
}

func Debug(enabled string) func(*portalClient) {
	return func(c *portalClient) {
		c.debug = (enabled == "true")
	}
}

func UserAgent(agent string) func(*portalClient) {
	return func(c *portalClient) {
		c.userAgent = agent
	}
}

func APIToken(token string) func(*portalClient) {
	return func(c *portalClient) {
		c.token = token
	}
}

func New(portalURL string, options ...func(*portalClient)) PortalClient {
	c := &portalClient{
		baseURL:   portalURL,
		userAgent: "holofood-go",
	}

	for _, option := range options {
		option(c)
	}

	return c
}

const (
	TraceAttributeEntityType string = "entity-type"
	TraceAttributeCursor     string = "cursor"
)

var tracer = otel.Tracer("holofood-portal-client")

type portalClient struct {
	baseURL   string
	userAgent string
	token     string
	debug     bool
}

func (c portalClient) FetchPage(ctx context.Context, entityType, cursor string, parameters ...RequestDecoratorFunc) (*Page, error) {
	var err error

	ctx, span := tracer.Start(ctx, "fetch-page",
		trace.WithAttributes(attribute.String(TraceAttributeEntityType, entityType)),
		trace.WithAttributes(attribute.String(TraceAttributeCursor, cursor)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	params := make([]string, 0, 5)
	for _, rdf := range parameters {
		params = rdf(params)
	}
	if cursor != "" {
		params = append(params, "cursor="+cursor)
	}

	urlparams := ""
	if len(params) > 0 {
		urlparams = "?" + strings.Join(params, "&")
	}

	response, responseBody, err := c.callPortal(
		ctx, http.MethodGet, c.baseURL+"/api/"+entityType+urlparams,
	)

	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		if response.StatusCode >= http.StatusBadRequest {
			err = errors.NewErrorFromProblemReport(response.StatusCode, responseBody)
			return nil, err
		}

		err = fmt.Errorf("unexpected response code %d (%w)", response.StatusCode, errors.ErrInternal)
		return nil, err
	}

	page := &Page{}
	err = json.Unmarshal(responseBody, page)
	if err != nil {
		if c.debug && len(responseBody) < 1000 {
			err = fmt.Errorf("unmarshaling of %s failed with err %s", string(responseBody), err.Error())
		}

		return nil, err
	}

	return page, nil
}

func (c portalClient) callPortal(ctx context.Context, method, endpoint string) (*http.Response, []byte, error) {
	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	req.Header.Add("Accept", "application/json")
	req.Header.Add("User-Agent", c.userAgent)

	if c.token != "" {
		req.Header.Add("Authorization", "Bearer "+c.token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		// network level failures, timeouts included, are retryable
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrTransient)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrTransient)
	}

	if c.debug && resp.StatusCode >= http.StatusBadRequest {
		reqbytes, _ := httputil.DumpRequest(req, false)
		respbytes, _ := httputil.DumpResponse(resp, false)

		log := logging.GetFromContext(ctx)
		log.Error("request failed", "request", string(reqbytes), "response", string(respbytes))
	}

	return resp, respBody, nil
}
