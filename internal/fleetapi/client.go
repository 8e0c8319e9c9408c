// Package fleetapi is the HTTP client for the fleet service REST API.
package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/fleetdesk/internal/model"
	"github.com/erazemk/fleetdesk/internal/submit"
)

// Errors returned before or instead of a backend response.
var (
	ErrUnauthorized   = errors.New("not signed in")
	ErrSessionExpired = errors.New("session expired, sign in again")
)

// APIError is a non-2xx response. Fields holds per-field messages keyed by
// wire name, e.g. works[0][duration_hours].
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api: %d %s", e.StatusCode, msg)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("api: %d %s (%s)", e.StatusCode, msg, strings.Join(parts, "; "))
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// Client talks to one backend.
type Client struct {
	base    *url.URL
	session *Session
	http    *http.Client
	now     func() time.Time
}

// New returns a client for the API rooted at baseURL (e.g.
// http://localhost:8080/api/).
func New(baseURL string, session *Session) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if session == nil {
		session = &Session{}
	}
	return &Client{
		base:    u,
		session: session,
		http:    &http.Client{Timeout: DefaultTimeout},
		now:     time.Now,
	}, nil
}

// SetTimeout bounds each request; zero means no limit.
func (c *Client) SetTimeout(d time.Duration) {
	c.http.Timeout = d
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	var resp struct {
		Access string `json:"access"`
	}
	if err := c.send(ctx, http.MethodPost, "token/", nil, bytes.NewReader(body), "application/json", false, &resp); err != nil {
		return err
	}
	if err := c.session.Set(resp.Access); err != nil {
		return err
	}
	slog.Info("signed in", "user", username, "expires", c.session.Expires())
	return nil
}

// ListClients returns all clients.
func (c *Client) ListClients(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	if err := c.get(ctx, "clients/", nil, &clients); err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return clients, nil
}

// ListTrucks returns the trucks owned by a client.
func (c *Client) ListTrucks(ctx context.Context, clientID int64) ([]model.Truck, error) {
	q := url.Values{"client": {strconv.FormatInt(clientID, 10)}}
	var trucks []model.Truck
	if err := c.get(ctx, "trucks/", q, &trucks); err != nil {
		return nil, fmt.Errorf("listing trucks: %w", err)
	}
	return trucks, nil
}

// ListWorkCategories returns the priced work catalog.
func (c *Client) ListWorkCategories(ctx context.Context) ([]model.WorkCategory, error) {
	var cats []model.WorkCategory
	if err := c.get(ctx, "work-categories/", nil, &cats); err != nil {
		return nil, fmt.Errorf("listing work categories: %w", err)
	}
	return cats, nil
}

// ListOrders returns order summaries, newest first.
func (c *Client) ListOrders(ctx context.Context) ([]model.OrderSummary, error) {
	var orders []model.OrderSummary
	if err := c.get(ctx, "orders/", nil, &orders); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one order with nested references.
func (c *Client) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	var o model.Order
	if err := c.get(ctx, orderPath(id), nil, &o); err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return &o, nil
}

// CreateOrder posts a new order.
func (c *Client) CreateOrder(ctx context.Context, p *submit.Payload) (*model.Order, error) {
	o, err := c.sendPayload(ctx, http.MethodPost, "orders/", p)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return o, nil
}

// UpdateOrder patches an existing order.
func (c *Client) UpdateOrder(ctx context.Context, id int64, p *submit.Payload) (*model.Order, error) {
	o, err := c.sendPayload(ctx, http.MethodPatch, orderPath(id), p)
	if err != nil {
		return nil, fmt.Errorf("updating order %d: %w", id, err)
	}
	return o, nil
}

// CreateClient adds a client.
func (c *Client) CreateClient(ctx context.Context, in model.Client) (*model.Client, error) {
	var out model.Client
	if err := c.postJSON(ctx, "clients/", in, &out); err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return &out, nil
}

// CreateTruck adds a truck.
func (c *Client) CreateTruck(ctx context.Context, in model.Truck) (*model.Truck, error) {
	var out model.Truck
	if err := c.postJSON(ctx, "trucks/", in, &out); err != nil {
		return nil, fmt.Errorf("creating truck: %w", err)
	}
	return &out, nil
}

// CreateWorkCategory adds a category with its work items.
func (c *Client) CreateWorkCategory(ctx context.Context, in model.WorkCategory) (*model.WorkCategory, error) {
	var out model.WorkCategory
	if err := c.postJSON(ctx, "work-categories/", in, &out); err != nil {
		return nil, fmt.Errorf("creating work category: %w", err)
	}
	return &out, nil
}

func orderPath(id int64) string {
	return "orders/" + strconv.FormatInt(id, 10) + "/"
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, q, nil, "", true, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.send(ctx, http.MethodPost, path, nil, bytes.NewReader(body), "application/json", true, out)
}

func (c *Client) sendPayload(ctx context.Context, method, path string, p *submit.Payload) (*model.Order, error) {
	var buf bytes.Buffer
	contentType, err := p.Encode(&buf)
	if err != nil {
		return nil, err
	}
	var o model.Order
	if err := c.send(ctx, method, path, nil, &buf, contentType, true, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string, authed bool, out any) error {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		token, err := c.session.bearer(c.now())
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	slog.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, strings.TrimSpace(string(data)))
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error
		apiErr.Fields = body.Fields
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
