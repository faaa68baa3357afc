// Package client is a typed HTTP client for the folder API. Every call carries
// the caller's bearer token; a client without one fails before any request.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"foldervault/internal/domain/access"
	"foldervault/internal/domain/catalog"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/pkg/jwt"
)

var ErrNoCredential = apperr.New(apperr.KindUnauthenticated, "No credential")

// Identity is who the client acts as. UserID and Role are read from the token
// and only pick routes; the server decides what the token may do.
type Identity struct {
	UserID int64
	Role   access.Role
	Token  string
}

func IdentityFromToken(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrNoCredential
	}
	claims, err := jwt.ParseUnverified(token)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.KindUnauthenticated, "Invalid credential", err)
	}
	role, err := access.ParseRole(claims.Role)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.KindUnauthenticated, "Invalid credential", err)
	}
	return Identity{UserID: claims.UserID, Role: role, Token: token}, nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	identity   Identity
}

// New builds a client for baseURL (e.g. http://localhost:5000). A nil
// httpClient gets a default one with a 60s timeout.
func New(baseURL string, identity Identity, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		identity:   identity,
	}
}

func (c *Client) Identity() Identity { return c.identity }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// ListFolders returns one page of the folders visible to the caller, narrowed
// by q. Admins list every folder, clients only their shared ones.
func (c *Client) ListFolders(ctx context.Context, q string, page int) (*catalog.FolderPage, error) {
	var out catalog.FolderPage
	if err := c.getJSON(ctx, c.catalogPrefix()+"/folders", listParams(q, page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFolder(ctx context.Context, folderID string) (*catalog.FolderView, error) {
	var out catalog.FolderView
	if err := c.getJSON(ctx, c.catalogPrefix()+"/folders/"+url.PathEscape(folderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFiles returns one page of a folder's files, narrowed by q.
func (c *Client) ListFiles(ctx context.Context, folderID, q string, page int) (*catalog.FilePage, error) {
	var out catalog.FilePage
	path := c.catalogPrefix() + "/folders/" + url.PathEscape(folderID) + "/files"
	if err := c.getJSON(ctx, path, listParams(q, page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) catalogPrefix() string {
	if c.identity.Role == access.RoleAdmin {
		return "/api/admin"
	}
	return "/api/client"
}

func listParams(q string, page int) url.Values {
	v := url.Values{}
	if q = strings.TrimSpace(q); q != "" {
		v.Set("q", q)
	}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	return v
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperr.Wrap(apperr.KindTransientIO, "Unreadable response", err)
	}
	if !env.Success || env.Data == nil {
		return apperr.New(apperr.KindInternal, "Unexpected response")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// do sends an authenticated request. Transport failures are transient.
func (c *Client) do(ctx context.Context, method, path string, params url.Values) (*http.Response, error) {
	if c.identity.Token == "" {
		return nil, ErrNoCredential
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.identity.Token)
	req.Header.Set("Accept", "application/json, */*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.Wrap(apperr.KindTransientIO, "Request failed", err)
	}
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request")
	return resp, nil
}

// decodeError turns an error response into a classified error. Bodies that
// are not an error envelope (a proxy page, say) are classified by status.
func decodeError(resp *http.Response) error {
	_, err := decodeErrorEnvelope(resp)
	return err
}

func decodeErrorEnvelope(resp *http.Response) (*envelopeError, error) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Code != "" {
		return env.Error, apperr.New(apperr.KindFromCode(env.Error.Code), env.Error.Message)
	}
	return nil, apperr.New(kindFromStatus(resp.StatusCode), http.StatusText(resp.StatusCode))
}

func kindFromStatus(status int) apperr.Kind {
	switch status {
	case http.StatusUnauthorized:
		return apperr.KindUnauthenticated
	case http.StatusForbidden:
		return apperr.KindForbidden
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusUnsupportedMediaType:
		return apperr.KindUnsupportedPreview
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return apperr.KindTransientIO
	}
	if status >= 400 && status < 500 {
		return apperr.KindValidation
	}
	return apperr.KindInternal
}
