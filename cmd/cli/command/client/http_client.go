package client

// http_client.go talks to the comic API on behalf of the CLI.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"comichub/internal/catalog"
	"comichub/internal/history"
	"comichub/internal/microservices/http-api/dto"
	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/service"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type SearchResponse struct {
	Result        catalog.Result `json:"result"`
	Sort          int            `json:"sort"`
	SortOptions   []string       `json:"sort_options"`
	Status        string         `json:"status"`
	StatusOptions []string       `json:"status_options"`
}

type UserList struct {
	Data       []dto.UserResponse `json:"data"`
	Pagination dto.Pagination     `json:"pagination"`
}

// HTTPClient is a thin JSON client for /api/v1.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
	deviceID   string
}

func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

func (c *HTTPClient) SetDeviceID(id string) {
	c.deviceID = id
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Auth

func (c *HTTPClient) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", dto.RefreshTokenRequest{RefreshToken: refreshToken}, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Comics

type SearchParams struct {
	Keyword  string
	Category string
	Status   string
	Sort     int
	Page     int
}

func (p SearchParams) encode() string {
	v := url.Values{}
	if p.Keyword != "" {
		v.Set("keyword", p.Keyword)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Sort > 0 {
		v.Set("sort", strconv.Itoa(p.Sort))
	}
	if p.Page > 1 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v.Encode()
}

func (c *HTTPClient) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.do(ctx, http.MethodGet, "/comics/search?"+p.encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Comic(ctx context.Context, slug string) (*service.ComicDetail, error) {
	var out service.ComicDetail
	if err := c.do(ctx, http.MethodGet, "/comics/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Chapter(ctx context.Context, slug, chapter string) (*service.ChapterView, error) {
	var out service.ChapterView
	path := "/comics/" + url.PathEscape(slug) + "/chapters/" + url.PathEscape(chapter)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RecordRead(ctx context.Context, slug, chapter string) (*history.Item, error) {
	var out history.Item
	path := "/comics/" + url.PathEscape(slug) + "/chapters/" + url.PathEscape(chapter) + "/read"
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History. account selects the signed-in history instead of the device one.

func historyPath(account bool) string {
	if account {
		return "/history"
	}
	return "/history/device"
}

func (c *HTTPClient) History(ctx context.Context, account bool, page int) (*service.HistoryPage, error) {
	var out service.HistoryPage
	if err := c.do(ctx, http.MethodGet, historyPath(account)+"?page="+strconv.Itoa(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RemoveHistory(ctx context.Context, account bool, slug string) error {
	return c.do(ctx, http.MethodDelete, historyPath(account)+"/"+url.PathEscape(slug), nil, nil)
}

func (c *HTTPClient) SyncHistory(ctx context.Context) (int, error) {
	var out struct {
		Merged int `json:"merged"`
	}
	if err := c.do(ctx, http.MethodPost, "/history/sync", nil, &out); err != nil {
		return 0, err
	}
	return out.Merged, nil
}

// Follows

func (c *HTTPClient) Follows(ctx context.Context, page int) (*service.FollowPage, error) {
	var out service.FollowPage
	if err := c.do(ctx, http.MethodGet, "/follows?page="+strconv.Itoa(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Follow(ctx context.Context, slug string) (*models.Follow, error) {
	var out models.Follow
	if err := c.do(ctx, http.MethodPost, "/follows/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Unfollow(ctx context.Context, slug string) error {
	return c.do(ctx, http.MethodDelete, "/follows/"+url.PathEscape(slug), nil, nil)
}

// Admin

func (c *HTTPClient) Stats(ctx context.Context) (*service.DashboardStats, error) {
	var out service.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Users(ctx context.Context, page int) (*UserList, error) {
	var out UserList
	if err := c.do(ctx, http.MethodGet, "/admin/users?page="+strconv.Itoa(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUserStatus sets status, or toggles it when status is empty.
func (c *HTTPClient) SetUserStatus(ctx context.Context, userID, status string) (*dto.UserResponse, error) {
	var body any
	if status != "" {
		body = dto.SetStatusRequest{Status: status}
	}
	var out dto.UserResponse
	if err := c.do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(userID)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
