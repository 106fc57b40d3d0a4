// internal/mgmt/client.go
package mgmt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/tamzrod/vhostsync/internal/snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxReasonBytes caps how much of an error body is kept as the failure reason.
const maxReasonBytes = 64 << 10

// Ref names one virtual host under its parent node.
type Ref struct {
	Node string
	Host string
}

func (r Ref) String() string { return r.Node + "/" + r.Host }

// Config is the minimal config the management client needs.
type Config struct {
	BaseURL  string // e.g. http://broker:8080/api/latest
	Username string
	Password string
	Timeout  time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client talks to the broker management HTTP API for virtual hosts.
// It keeps no per-host state.
type Client struct {
	base string
	user string
	pass string
	http *http.Client
}

// New creates a management client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("mgmt: base url required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, err
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		user: cfg.Username,
		pass: cfg.Password,
		http: hc,
	}, nil
}

// HostURL returns the escaped resource URL of one virtual host.
func (c *Client) HostURL(ref Ref) string {
	return c.base + "/virtualhost/" + url.PathEscape(ref.Node) + "/" + url.PathEscape(ref.Host)
}

// ChildURL returns the escaped URL of one queue or exchange of a host.
// kind is the API category, e.g. "queue" or "exchange".
func (c *Client) ChildURL(kind string, ref Ref, name string) string {
	return c.base + "/" + kind + "/" + url.PathEscape(ref.Node) + "/" + url.PathEscape(ref.Host) + "/" + url.PathEscape(name)
}

// ---- reads ----

// Fetch reads the current snapshot of a host.
// An empty result yields snapshot.Default built from prev.
func (c *Client) Fetch(ctx context.Context, ref Ref, prev *snapshot.Snapshot) (snapshot.Snapshot, error) {
	body, err := c.get(ctx, c.HostURL(ref))
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	s, found, err := Decode(body)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	if !found {
		return snapshot.Default(ref.Host, prev), nil
	}
	return s, nil
}

// FetchActuals reads the host's configured (not effective) attribute values.
// It returns nil when the host does not exist.
func (c *Client) FetchActuals(ctx context.Context, ref Ref) (map[string]any, error) {
	body, err := c.get(ctx, c.HostURL(ref)+"?actuals=true")
	if err != nil {
		return nil, err
	}
	return decodeAttributes(body)
}

// Export streams the host's initial configuration into w.
func (c *Client) Export(ctx context.Context, ref Ref, w io.Writer) (int64, error) {
	q := url.Values{}
	q.Set("extractInitialConfig", "true")
	q.Set("contentDispositionAttachmentFilename", ref.Host+".json")
	u := c.HostURL(ref) + "?" + q.Encode()

	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

// ---- writes ----

// Update sends a partial update; fields not present keep their server value.
func (c *Client) Update(ctx context.Context, ref Ref, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPut, c.HostURL(ref), payload)
}

// Start requests the ACTIVE state.
func (c *Client) Start(ctx context.Context, ref Ref) error {
	return c.setDesiredState(ctx, ref, snapshot.StateActive)
}

// Stop requests the STOPPED state.
func (c *Client) Stop(ctx context.Context, ref Ref) error {
	return c.setDesiredState(ctx, ref, snapshot.StateStopped)
}

// Delete removes the host.
func (c *Client) Delete(ctx context.Context, ref Ref) error {
	return c.send(ctx, http.MethodDelete, c.HostURL(ref), nil)
}

// DeleteQueue removes one queue of the host.
func (c *Client) DeleteQueue(ctx context.Context, ref Ref, name string) error {
	return c.deleteChild(ctx, "queue", ref, name)
}

// DeleteExchange removes one exchange of the host.
func (c *Client) DeleteExchange(ctx context.Context, ref Ref, name string) error {
	return c.deleteChild(ctx, "exchange", ref, name)
}

func (c *Client) deleteChild(ctx context.Context, kind string, ref Ref, name string) error {
	if name == "" {
		return fmt.Errorf("mgmt: %s name required", kind)
	}
	return c.send(ctx, http.MethodDelete, c.ChildURL(kind, ref, name), nil)
}

func (c *Client) setDesiredState(ctx context.Context, ref Ref, st snapshot.LifecycleState) error {
	return c.Update(ctx, ref, map[string]any{"desiredState": string(st)})
}

// ---- transport ----

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: http.MethodGet, URL: u, Err: err}
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, method, u string, payload []byte) error {
	resp, err := c.do(ctx, method, u, payload)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// do issues one request and converts transport errors and non-2xx
// responses into *RequestError. On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, method, u string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Method: method, URL: u, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		reason, _ := io.ReadAll(io.LimitReader(resp.Body, maxReasonBytes))
		return nil, &RequestError{
			Method:     method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Reason:     string(reason),
		}
	}

	return resp, nil
}
