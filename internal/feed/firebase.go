package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmaxmax/go-sse"
)

// FirebaseSource reads collections from a Firebase Realtime Database using
// its REST streaming protocol (server-sent events).
type FirebaseSource struct {
	baseURL    string
	auth       string
	httpClient *http.Client
}

// NewFirebaseSource creates a source for the database at baseURL. auth is
// an optional database secret or ID token appended as the auth parameter.
func NewFirebaseSource(baseURL, auth string) *FirebaseSource {
	return &FirebaseSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		// No client timeout: streams stay open for the life of the
		// dashboard and are bounded by their context instead.
		httpClient: &http.Client{},
	}
}

// collectionURL returns the REST URL for a collection.
func (f *FirebaseSource) collectionURL(c Collection) string {
	u := f.baseURL + "/" + url.PathEscape(string(c)) + ".json"
	if f.auth != "" {
		u += "?auth=" + url.QueryEscape(f.auth)
	}
	return u
}

// Fetch performs a one-shot GET of the collection.
func (f *FirebaseSource) Fetch(ctx context.Context, c Collection) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.collectionURL(c), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c, err)
	}
	if err := checkStatus(c, resp.StatusCode, body); err != nil {
		return nil, err
	}

	return json.RawMessage(body), nil
}

// Stream opens an event stream for the collection and calls fn for every
// put and patch event. Keep-alives are swallowed; cancel and auth_revoked
// end the stream with an error.
func (f *FirebaseSource) Stream(ctx context.Context, c Collection, fn func(Event) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.collectionURL(c), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("opening stream %s: %w", c, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return checkStatus(c, resp.StatusCode, body)
	}

	err = readEvents(resp.Body, func(name, data string) error {
		return f.dispatch(c, name, data, fn)
	})
	if ctx.Err() != nil {
		return nil
	}
	if err == nil {
		return fmt.Errorf("stream %s closed by server", c)
	}
	return err
}

// dispatch converts a raw server-sent event into an Event.
func (f *FirebaseSource) dispatch(c Collection, name, data string, fn func(Event) error) error {
	switch name {
	case "keep-alive":
		return nil
	case "cancel":
		return fmt.Errorf("stream %s cancelled by server: %s", c, data)
	case "auth_revoked":
		return &AuthError{Collection: c, Message: "credential revoked"}
	case "put", "patch":
		var payload struct {
			Path string          `json:"path"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return fmt.Errorf("decoding %s event on %s: %w", name, c, err)
		}
		return fn(Event{Name: name, Path: payload.Path, Data: payload.Data})
	default:
		return nil
	}
}

// maxEventSize bounds a single event. Snapshots of whole collections
// arrive as one put event, so this is generous.
const maxEventSize = 32 << 20

// readEvents parses a text/event-stream body and calls fn once per event.
// It returns nil at EOF.
func readEvents(r io.Reader, fn func(name, data string) error) error {
	for ev, err := range sse.Read(r, &sse.ReadConfig{MaxEventSize: maxEventSize}) {
		if err != nil {
			return fmt.Errorf("reading event stream: %w", err)
		}
		if err := fn(ev.Type, ev.Data); err != nil {
			return err
		}
	}
	return nil
}

// checkStatus maps HTTP error statuses to errors.
func checkStatus(c Collection, status int, body []byte) error {
	if status/100 == 2 {
		return nil
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{Collection: c, Message: msg}
	}
	return fmt.Errorf("%s: HTTP %d: %s", c, status, msg)
}
