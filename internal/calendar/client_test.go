package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type apiRecorder struct {
	requests []*http.Request
	bodies   []map[string]any
}

func newTestClient(t *testing.T, handler func(rec *apiRecorder) http.HandlerFunc) (*Client, *apiRecorder) {
	t.Helper()
	rec := &apiRecorder{}
	srv := httptest.NewServer(handler(rec))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), ClientOptions{
		HTTPClient: srv.Client(),
		Endpoint:   srv.URL + "/",
	})
	require.NoError(t, err)
	return c, rec
}

func (r *apiRecorder) record(req *http.Request) {
	r.requests = append(r.requests, req)
	var body map[string]any
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&body)
	}
	r.bodies = append(r.bodies, body)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), ClientOptions{})
	assert.Error(t, err)

	c, err := NewClient(context.Background(), ClientOptions{
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"}),
	})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestClient_List(t *testing.T) {
	c, rec := newTestClient(t, func(rec *apiRecorder) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[
				{"id":"e1","summary":"Standup","start":{"dateTime":"2025-06-01T09:00:00Z"},"end":{"dateTime":"2025-06-01T09:15:00Z"}},
				{"id":"e2","start":{"date":"2025-06-01"},"end":{"date":"2025-06-02"}}
			]}`))
		}
	})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events, err := c.List(context.Background(), "primary", ListQuery{
		TimeMin:      start,
		TimeMax:      start.AddDate(0, 0, 1),
		SingleEvents: true,
		OrderByStart: true,
		MaxResults:   5,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, "", events[1].Summary)
	assert.True(t, events[1].Start.IsAllDay())

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.True(t, strings.HasSuffix(req.URL.Path, "/calendars/primary/events"), req.URL.Path)
	q := req.URL.Query()
	assert.Equal(t, "2025-06-01T00:00:00Z", q.Get("timeMin"))
	assert.Equal(t, "2025-06-02T00:00:00Z", q.Get("timeMax"))
	assert.Equal(t, "true", q.Get("singleEvents"))
	assert.Equal(t, "startTime", q.Get("orderBy"))
	assert.Equal(t, "5", q.Get("maxResults"))
}

func pagedEventsHandler(rec *apiRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			_, _ = w.Write([]byte(`{"nextPageToken":"page-2","items":[
				{"id":"e1","summary":"Standup","start":{"dateTime":"2025-06-01T09:00:00Z"},"end":{"dateTime":"2025-06-01T09:15:00Z"}},
				{"id":"e2","summary":"Review","start":{"dateTime":"2025-06-01T11:00:00Z"},"end":{"dateTime":"2025-06-01T12:00:00Z"}}
			]}`))
		case "page-2":
			_, _ = w.Write([]byte(`{"items":[
				{"id":"e3","summary":"Retro","start":{"dateTime":"2025-06-01T16:00:00Z"},"end":{"dateTime":"2025-06-01T17:00:00Z"}}
			]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func TestClient_ListFollowsPages(t *testing.T) {
	c, rec := newTestClient(t, pagedEventsHandler)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events, err := c.List(context.Background(), "primary", ListQuery{
		TimeMin:      start,
		TimeMax:      start.AddDate(0, 0, 1),
		SingleEvents: true,
		OrderByStart: true,
	})
	require.NoError(t, err)

	var titles []string
	for _, ev := range events {
		titles = append(titles, ev.Summary)
	}
	assert.Equal(t, []string{"Standup", "Review", "Retro"}, titles)

	require.Len(t, rec.requests, 2)
	assert.Equal(t, "", rec.requests[0].URL.Query().Get("pageToken"))
	assert.Equal(t, "page-2", rec.requests[1].URL.Query().Get("pageToken"))
	assert.Equal(t, "2025-06-01T00:00:00Z", rec.requests[1].URL.Query().Get("timeMin"))
}

func TestClient_ListStopsAtMaxResults(t *testing.T) {
	c, rec := newTestClient(t, pagedEventsHandler)

	events, err := c.List(context.Background(), "primary", ListQuery{MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Len(t, rec.requests, 1)
}

func TestClient_Insert(t *testing.T) {
	c, rec := newTestClient(t, func(rec *apiRecorder) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"new1","summary":"Review","start":{"dateTime":"2025-06-01T15:00:00-05:00","timeZone":"America/Chicago"},"end":{"dateTime":"2025-06-01T16:00:00-05:00","timeZone":"America/Chicago"}}`))
		}
	})

	created, err := c.Insert(context.Background(), "primary", Event{
		Summary: "Review",
		Start:   EventTime{DateTime: "2025-06-01T15:00:00-05:00", TimeZone: "America/Chicago"},
		End:     EventTime{DateTime: "2025-06-01T16:00:00-05:00", TimeZone: "America/Chicago"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new1", created.ID)

	require.Len(t, rec.requests, 1)
	assert.Equal(t, http.MethodPost, rec.requests[0].Method)
	body := rec.bodies[0]
	assert.Equal(t, "Review", body["summary"])
	start := body["start"].(map[string]any)
	assert.Equal(t, "America/Chicago", start["timeZone"])
}

func TestClient_UpdatePreservesUnmanagedFields(t *testing.T) {
	c, rec := newTestClient(t, func(rec *apiRecorder) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			w.Header().Set("Content-Type", "application/json")
			switch r.Method {
			case http.MethodGet:
				_, _ = w.Write([]byte(`{"id":"e1","summary":"Review","attendees":[{"email":"a@example.com"}],"start":{"dateTime":"2025-06-01T15:00:00Z"},"end":{"dateTime":"2025-06-01T16:00:00Z"}}`))
			case http.MethodPut:
				_, _ = w.Write([]byte(`{"id":"e1","summary":"Review","start":{"dateTime":"2025-06-01T17:00:00Z"},"end":{"dateTime":"2025-06-01T18:00:00Z"}}`))
			}
		}
	})

	updated, err := c.Update(context.Background(), "primary", "e1", Event{
		Start: EventTime{DateTime: "2025-06-01T17:00:00Z", TimeZone: "UTC"},
		End:   EventTime{DateTime: "2025-06-01T18:00:00Z", TimeZone: "UTC"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T17:00:00Z", updated.Start.DateTime)

	require.Len(t, rec.requests, 2)
	assert.Equal(t, http.MethodGet, rec.requests[0].Method)
	assert.Equal(t, http.MethodPut, rec.requests[1].Method)

	put := rec.bodies[1]
	assert.Equal(t, "Review", put["summary"])
	assert.Len(t, put["attendees"], 1)
	assert.Equal(t, "2025-06-01T17:00:00Z", put["start"].(map[string]any)["dateTime"])
}

func TestClient_DeleteNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(rec *apiRecorder) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rec.record(r)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
		}
	})

	err := c.Delete(context.Background(), "primary", "gone")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.True(t, IsNotFound(err))
}

func TestClient_HonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(context.Background(), ClientOptions{
		HTTPClient:  &http.Client{},
		HTTPTimeout: 50 * time.Millisecond,
		Endpoint:    srv.URL + "/",
	})
	require.NoError(t, err)

	_, err = c.List(context.Background(), "primary", ListQuery{})
	assert.Error(t, err)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 0, StatusCode(assert.AnError))
}
