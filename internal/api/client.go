package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the fassr HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	stream    *http.Client
	userAgent string
	token     string
}

const (
	defaultAPIURL    = "http://127.0.0.1:8080"
	defaultUserAgent = "fassr/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for apiURL. A non-empty token is sent as a
// bearer credential on every request.
func NewClient(apiURL, token string) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		// The event stream stays open indefinitely; only the context ends it.
		stream:    &http.Client{},
		userAgent: defaultUserAgent,
		token:     strings.TrimSpace(token),
	}, nil
}

// FetchCategories retrieves every category.
func (c *Client) FetchCategories(ctx context.Context) ([]Category, error) {
	var payload []Category
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/categories"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SaveCategory creates the category when it has no id, updates it otherwise.
func (c *Client) SaveCategory(ctx context.Context, category Category) (Category, error) {
	method := http.MethodPost
	if category.ID != 0 {
		method = http.MethodPut
	}
	category.ClientKey = ""
	var saved Category
	if err := c.do(ctx, method, &url.URL{Path: "/api/categories"}, category, &saved); err != nil {
		return Category{}, err
	}
	return saved, nil
}

// DeleteCategory removes a category. The server cascades to its meals.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.deleteByID(ctx, "/api/categories", id)
}

// FetchMeals retrieves meals. A zero query returns the full list wrapped in
// a single page.
func (c *Client) FetchMeals(ctx context.Context, query MealQuery) (MealPage, error) {
	if query.IsZero() {
		var list []Meal
		if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/meals"}, nil, &list); err != nil {
			return MealPage{}, err
		}
		return MealPage{Items: list, Pagination: NewPagination(len(list), 1, len(list))}, nil
	}
	values := url.Values{}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.CategoryID > 0 {
		values.Set("categoryId", strconv.FormatInt(query.CategoryID, 10))
	}
	if query.Active != nil {
		values.Set("active", strconv.FormatBool(*query.Active))
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		values.Set("search", search)
	}
	var payload MealPage
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/meals", RawQuery: values.Encode()}, nil, &payload); err != nil {
		return MealPage{}, err
	}
	return payload, nil
}

// SaveMeal creates the meal when it has no id, updates it otherwise.
func (c *Client) SaveMeal(ctx context.Context, meal Meal) (Meal, error) {
	method := http.MethodPost
	if meal.ID != 0 {
		method = http.MethodPut
	}
	meal.ClientKey = ""
	var saved Meal
	if err := c.do(ctx, method, &url.URL{Path: "/api/meals"}, meal, &saved); err != nil {
		return Meal{}, err
	}
	return saved, nil
}

// DeleteMeal removes a meal.
func (c *Client) DeleteMeal(ctx context.Context, id int64) error {
	return c.deleteByID(ctx, "/api/meals", id)
}

// FetchSettings retrieves the restaurant settings.
func (c *Client) FetchSettings(ctx context.Context) (Settings, error) {
	var payload Settings
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/settings"}, nil, &payload); err != nil {
		return Settings{}, err
	}
	return payload, nil
}

// SaveSettings sends a (possibly partial) settings record and returns the
// merged result.
func (c *Client) SaveSettings(ctx context.Context, settings Settings) (Settings, error) {
	var saved Settings
	if err := c.do(ctx, http.MethodPut, &url.URL{Path: "/api/settings"}, settings, &saved); err != nil {
		return Settings{}, err
	}
	return saved, nil
}

// FetchOrders retrieves one page of orders.
func (c *Client) FetchOrders(ctx context.Context, query OrderQuery) (OrderPage, error) {
	values := url.Values{}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		values.Set("search", search)
	}
	if query.Status != "" {
		values.Set("status", string(query.Status))
	}
	var payload OrderPage
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/orders", RawQuery: values.Encode()}, nil, &payload); err != nil {
		return OrderPage{}, err
	}
	return payload, nil
}

// CreateOrder submits a new order and returns the persisted record.
func (c *Client) CreateOrder(ctx context.Context, order Order) (Order, error) {
	order.ID = 0
	order.ClientKey = ""
	order.CompletedAt = nil
	var saved Order
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: "/api/orders"}, order, &saved); err != nil {
		return Order{}, err
	}
	return saved, nil
}

// UpdateOrder changes status and rating fields of an order.
func (c *Client) UpdateOrder(ctx context.Context, update StatusUpdate) (Order, error) {
	if update.ID <= 0 {
		return Order{}, fmt.Errorf("order id required")
	}
	var saved Order
	if err := c.do(ctx, http.MethodPut, &url.URL{Path: "/api/orders"}, update, &saved); err != nil {
		return Order{}, err
	}
	return saved, nil
}

// DeleteOrder removes an order.
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.deleteByID(ctx, "/api/orders", id)
}

// FetchAnalytics retrieves the dashboard figures.
func (c *Client) FetchAnalytics(ctx context.Context) (Analytics, error) {
	var payload Analytics
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/api/analytics"}, nil, &payload); err != nil {
		return Analytics{}, err
	}
	return payload, nil
}

// OpenStream connects to the update stream. The caller owns the returned
// body and must close it.
func (c *Client) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	rel := &url.URL{Path: "/api/updates"}
	req, err := c.newRequest(ctx, http.MethodGet, rel, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "GET " + rel.Path, Err: err}
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, statusError(http.MethodGet, rel.Path, resp)
	}
	return resp.Body, nil
}

func (c *Client) deleteByID(ctx context.Context, path string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("id required")
	}
	values := url.Values{}
	values.Set("id", strconv.FormatInt(id, 10))
	var payload struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodDelete, &url.URL{Path: path, RawQuery: values.Encode()}, nil, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return &StatusError{Method: http.MethodDelete, Path: path, Code: http.StatusOK, Message: "delete not confirmed"}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, rel *url.URL, body any) (*http.Request, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	req, err := c.newRequest(ctx, method, rel, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + rel.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(method, rel.Path, resp)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &payload)
	return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: payload.Error}
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
