// Package getdiced is a client for the get-diced.com card catalogue and
// shared-list service.
package getdiced

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
)

// DefaultBaseURL is the public service root. Paths are resolved against it.
const DefaultBaseURL = "https://get-diced.com/"

// ErrNotFound is matched by errors.Is for any 404 reply.
var ErrNotFound = errors.New("getdiced: not found")

// Error is a non-2xx reply.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("getdiced: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to get-diced.com.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client rooted at baseURL. A nil httpClient gets a
// 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// BaseURL ends with a slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Host is the host part of the base URL, e.g. "get-diced.com".
func (c *Client) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// CardQuery filters GET cards. Zero values are omitted.
type CardQuery struct {
	Query      string
	CardType   string
	AtkType    string
	PlayOrder  string
	Division   string
	Gender     string
	ReleaseSet string
	IsBanned   *bool
	Limit      int
	Offset     int
}

func (q CardQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("q", q.Query)
	set("card_type", q.CardType)
	set("atk_type", q.AtkType)
	set("play_order", q.PlayOrder)
	set("division", q.Division)
	set("gender", q.Gender)
	set("release_set", q.ReleaseSet)
	if q.IsBanned != nil {
		v.Set("is_banned", strconv.FormatBool(*q.IsBanned))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	return v
}

func (c *Client) SearchCards(ctx context.Context, q CardQuery) (PaginatedCardResponse, error) {
	var out PaginatedCardResponse
	err := c.getJSON(ctx, "cards?"+q.values().Encode(), &out)
	return out, err
}

func (c *Client) GetCard(ctx context.Context, uuid string) (CardDTO, error) {
	var out CardDTO
	err := c.getJSON(ctx, "cards/"+url.PathEscape(uuid), &out)
	return out, err
}

func (c *Client) GetCardBySlug(ctx context.Context, slug string) (CardDTO, error) {
	var out CardDTO
	err := c.getJSON(ctx, "cards/slug/"+url.PathEscape(slug), &out)
	return out, err
}

// GetCardsByUUIDs fetches many cards in one request.
func (c *Client) GetCardsByUUIDs(ctx context.Context, uuids []string) (CardBatchResponse, error) {
	var out CardBatchResponse
	err := c.postJSON(ctx, "cards/by-uuids", CardBatchRequest{UUIDs: uuids}, &out)
	return out, err
}

func (c *Client) CreateSharedList(ctx context.Context, req SharedListRequest) (SharedListCreated, error) {
	var out SharedListCreated
	err := c.postJSON(ctx, "api/shared-lists", req, &out)
	return out, err
}

func (c *Client) GetSharedList(ctx context.Context, id string) (SharedList, error) {
	var out SharedList
	err := c.getJSON(ctx, "api/shared-lists/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) DeleteSharedList(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "api/shared-lists/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) GetImageManifest(ctx context.Context) (ImageManifest, error) {
	var out ImageManifest
	err := c.getJSON(ctx, "api/images/manifest", &out)
	return out, err
}

func (c *Client) GetCardsManifest(ctx context.Context) (CardsManifest, error) {
	var out CardsManifest
	err := c.getJSON(ctx, "api/cards/manifest", &out)
	return out, err
}

// DownloadDatabase streams the catalogue database into w.
func (c *Client) DownloadDatabase(ctx context.Context, w io.Writer) (int64, error) {
	return c.download(ctx, "api/cards/database", w)
}

// DownloadImage streams images/mobile/{path} into w.
func (c *Client) DownloadImage(ctx context.Context, path string, w io.Writer) (int64, error) {
	return c.download(ctx, "images/mobile/"+strings.TrimPrefix(path, "/"), w)
}

func (c *Client) download(ctx context.Context, path string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("getdiced: read %s: %w", path, err)
	}
	return n, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("getdiced: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("getdiced: encode %s: %w", path, err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("getdiced: decode %s: %w", path, err)
	}
	return nil
}

// do sends the request and turns any non-2xx reply into *Error.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("getdiced: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getdiced: %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	return resp, nil
}
