package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
)

// DefaultHTTPTimeout bounds every request to the Calendar API.
const DefaultHTTPTimeout = 30 * time.Second

const serviceName = "calendar"

// ClientOptions configures NewClient.
type ClientOptions struct {
	// TokenSource authorizes requests. Required unless HTTPClient is set.
	TokenSource oauth2.TokenSource

	// HTTPClient replaces the oauth2 client entirely. Mostly useful in tests.
	HTTPClient *http.Client

	// HTTPTimeout bounds each request. Defaults to DefaultHTTPTimeout.
	HTTPTimeout time.Duration

	// Endpoint overrides the API base URL.
	Endpoint string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client is a Service backed by the Google Calendar v3 API.
type Client struct {
	svc     *gcal.Service
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a Calendar client.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		if opts.TokenSource == nil {
			return nil, fmt.Errorf("token source cannot be nil")
		}
		// Force HTTP/1.1 by disabling HTTP/2
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, opts.TokenSource),
				Base:   &http.Transport{ForceAttemptHTTP2: false},
			},
		}
	} else if httpClient.Timeout == 0 {
		c := *httpClient
		c.Timeout = timeout
		httpClient = &c
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		svc:     svc,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// List lists events in a calendar within a time range, following page
// tokens until the results run out or q.MaxResults events are collected.
func (c *Client) List(ctx context.Context, calendarID string, q ListQuery) (_ []Event, err error) {
	ctx, done := c.observe(ctx, "list", calendarID)
	defer func() { done(err) }()

	call := c.svc.Events.List(calendarID).Context(ctx)
	if !q.TimeMin.IsZero() {
		call = call.TimeMin(q.TimeMin.Format(time.RFC3339))
	}
	if !q.TimeMax.IsZero() {
		call = call.TimeMax(q.TimeMax.Format(time.RFC3339))
	}
	if q.SingleEvents {
		call = call.SingleEvents(true)
		if q.OrderByStart {
			call = call.OrderBy("startTime")
		}
	}
	if q.MaxResults > 0 {
		call = call.MaxResults(q.MaxResults)
	}
	if q.Query != "" {
		call = call.Q(q.Query)
	}

	events := []Event{}
	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			events = append(events, fromAPI(item))
			if q.MaxResults > 0 && int64(len(events)) >= q.MaxResults {
				return errEnoughEvents
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEnoughEvents) {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// errEnoughEvents stops paging once ListQuery.MaxResults events are collected.
var errEnoughEvents = errors.New("enough events")

// Insert creates an event.
func (c *Client) Insert(ctx context.Context, calendarID string, ev Event) (_ *Event, err error) {
	ctx, done := c.observe(ctx, "create", calendarID)
	defer func() { done(err) }()

	created, err := c.svc.Events.Insert(calendarID, toAPI(ev)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	out := fromAPI(created)
	return &out, nil
}

// Update replaces the fields of ev that are set on the stored event.
// The event is fetched first so attendees, reminders and other fields this
// package does not model are sent back unchanged.
func (c *Client) Update(ctx context.Context, calendarID, eventID string, ev Event) (_ *Event, err error) {
	ctx, done := c.observe(ctx, "update", calendarID)
	defer func() { done(err) }()

	existing, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	if ev.Summary != "" {
		existing.Summary = ev.Summary
	}
	if ev.Description != "" {
		existing.Description = ev.Description
	}
	if ev.Location != "" {
		existing.Location = ev.Location
	}
	if t := toAPITime(ev.Start); t != nil {
		existing.Start = t
	}
	if t := toAPITime(ev.End); t != nil {
		existing.End = t
	}
	if len(ev.Recurrence) > 0 {
		existing.Recurrence = ev.Recurrence
	}

	updated, err := c.svc.Events.Update(calendarID, eventID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	out := fromAPI(updated)
	return &out, nil
}

// Delete deletes an event.
func (c *Client) Delete(ctx context.Context, calendarID, eventID string) (err error) {
	ctx, done := c.observe(ctx, "delete", calendarID)
	defer func() { done(err) }()

	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// observe starts a client span and returns a callback that records the
// operation outcome.
func (c *Client) observe(ctx context.Context, operation, calendarID string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, serviceName, operation)
	start := time.Now()

	return ctx, func(err error) {
		defer span.End()

		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			c.logger.Debug("google api call failed",
				logging.Operation(serviceName+"."+operation),
				logging.Calendar(calendarID),
				slog.Int("http_status", StatusCode(err)),
				logging.Err(err))
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		if c.metrics != nil {
			c.metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, time.Since(start))
		}
	}
}

// StatusCode extracts the HTTP status of a Google API error, or 0.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
