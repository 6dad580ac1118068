// Package client provides an HTTP client for the Betna Immo REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/betna-immo/betna/internal/account"
	"github.com/betna-immo/betna/internal/assistant"
	"github.com/betna-immo/betna/internal/favorite"
	"github.com/betna-immo/betna/internal/listing"
	"github.com/betna-immo/betna/internal/visit"
)

// Client is an HTTP client for the Betna Immo API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. token may be empty for anonymous calls.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Error is a non-2xx answer from the server.
type Error struct {
	StatusCode int
	Message    string
	Fields     []listing.FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Session is returned by Register and Login.
type Session struct {
	Token   string           `json:"token"`
	Account *account.Account `json:"account"`
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(reg account.Registration) (*Session, error) {
	var s Session
	if err := c.send(http.MethodPost, "/auth/register", reg, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Login exchanges an email and password for a bearer token.
func (c *Client) Login(email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var s Session
	if err := c.send(http.MethodPost, "/auth/login", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Me returns the account the token belongs to.
func (c *Client) Me() (*account.Account, error) {
	var a account.Account
	if err := c.send(http.MethodGet, "/auth/me", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListOptions filters ListListings.
type ListOptions struct {
	Verified bool
	Mine     bool
	Location string
	Search   string
	Stay     string
	MinPrice int64
	MaxPrice int64
	Sort     string
	Limit    int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Verified {
		v.Set("verified", "true")
	}
	if o.Mine {
		v.Set("owner", "me")
	}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("location", o.Location)
	set("q", o.Search)
	set("stay", o.Stay)
	set("sort", o.Sort)
	if o.MinPrice > 0 {
		v.Set("min_price", strconv.FormatInt(o.MinPrice, 10))
	}
	if o.MaxPrice > 0 {
		v.Set("max_price", strconv.FormatInt(o.MaxPrice, 10))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	return v
}

// ListListings returns listings matching opts.
func (c *Client) ListListings(opts ListOptions) ([]*listing.Listing, error) {
	path := "/api/listings"
	if q := opts.values().Encode(); q != "" {
		path += "?" + q
	}
	var listings []*listing.Listing
	if err := c.send(http.MethodGet, path, nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing returns one listing.
func (c *Client) GetListing(id string) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.send(http.MethodGet, "/api/listings/"+url.PathEscape(id), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// SubmitListing creates a pending listing.
func (c *Client) SubmitListing(d listing.Draft) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.send(http.MethodPost, "/api/listings", d, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// EditListing replaces the content of a listing.
func (c *Client) EditListing(id string, d listing.Draft) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.send(http.MethodPut, "/api/listings/"+url.PathEscape(id), d, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ApproveListing marks a listing verified. Admin only.
func (c *Client) ApproveListing(id string) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.send(http.MethodPost, "/api/listings/"+url.PathEscape(id)+"/approve", nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(id string) error {
	return c.send(http.MethodDelete, "/api/listings/"+url.PathEscape(id), nil, nil)
}

// ListAccounts returns accounts for admins. Empty filters match everything.
func (c *Client) ListAccounts(role, status, search string) ([]*account.Account, error) {
	v := url.Values{}
	for key, val := range map[string]string{"role": role, "status": status, "q": search} {
		if val != "" {
			v.Set(key, val)
		}
	}
	path := "/api/admin/accounts"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var accounts []*account.Account
	if err := c.send(http.MethodGet, path, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ToggleAccountStatus blocks or unblocks an account and returns the new status.
func (c *Client) ToggleAccountStatus(id string) (account.Status, error) {
	var resp struct {
		Status account.Status `json:"status"`
	}
	if err := c.send(http.MethodPost, "/api/admin/accounts/"+url.PathEscape(id)+"/toggle-status", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// AddFavorite bookmarks a listing.
func (c *Client) AddFavorite(listingID string) (*favorite.Favorite, error) {
	var f favorite.Favorite
	if err := c.send(http.MethodPost, "/api/favorites", map[string]string{"listing_id": listingID}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFavorites returns the caller's favorites.
func (c *Client) ListFavorites() ([]*favorite.Favorite, error) {
	var favs []*favorite.Favorite
	if err := c.send(http.MethodGet, "/api/favorites", nil, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

// RemoveFavorite deletes a favorite by its id.
func (c *Client) RemoveFavorite(id string) error {
	return c.send(http.MethodDelete, "/api/favorites/"+url.PathEscape(id), nil, nil)
}

// RequestVisit asks for a visit on date (YYYY-MM-DD).
func (c *Client) RequestVisit(listingID, date, note string) (*visit.Request, error) {
	body := map[string]string{"listing_id": listingID, "date": date, "note": note}
	var v visit.Request
	if err := c.send(http.MethodPost, "/api/visits", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVisits returns visit requests in scope (mine, incoming or all).
func (c *Client) ListVisits(scope string) ([]*visit.Request, error) {
	path := "/api/visits"
	if scope != "" {
		path += "?scope=" + url.QueryEscape(scope)
	}
	var visits []*visit.Request
	if err := c.send(http.MethodGet, path, nil, &visits); err != nil {
		return nil, err
	}
	return visits, nil
}

// ConfirmVisit accepts a pending visit request.
func (c *Client) ConfirmVisit(id string) (*visit.Request, error) {
	return c.visitAction(id, "confirm")
}

// CancelVisit cancels a visit request.
func (c *Client) CancelVisit(id string) (*visit.Request, error) {
	return c.visitAction(id, "cancel")
}

func (c *Client) visitAction(id, action string) (*visit.Request, error) {
	var v visit.Request
	if err := c.send(http.MethodPost, "/api/visits/"+url.PathEscape(id)+"/"+action, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Checkout starts a subscription payment and returns the Stripe URL.
func (c *Client) Checkout(planID string) (string, error) {
	var resp struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := c.send(http.MethodPost, "/api/billing/checkout", map[string]string{"plan_id": planID}, &resp); err != nil {
		return "", err
	}
	return resp.CheckoutURL, nil
}

// Chat sends one message to the search assistant.
func (c *Client) Chat(message string) (*assistant.Reply, error) {
	var r assistant.Reply
	if err := c.send(http.MethodPost, "/api/assistant/chat", map[string]string{"message": message}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// send performs a request with an optional JSON body and decodes the response.
func (c *Client) send(method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp struct {
			Error  string               `json:"error"`
			Fields []listing.FieldError `json:"fields"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Fields = errResp.Fields
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
