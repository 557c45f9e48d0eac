// Package apiclient talks to the /api/v1 REST backend. Every request carries
// the stored bearer token; 401 and 403 responses clear it and send the user
// back to the login page before the error reaches the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"anycomp/internal/domain"
	"anycomp/internal/nav"
	"anycomp/internal/tokenstore"
)

type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  tokenstore.Store
	nav     nav.Navigator
	log     zerolog.Logger

	mu    sync.RWMutex
	hooks []func()

	Auth             *AuthService
	Specialists      *SpecialistService
	Media            *MediaService
	ServiceOfferings *ServiceOfferingService
	PlatformFees     *PlatformFeeService
	Users            *UserService
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The default client keeps the
// net/http default timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithNavigator(n nav.Navigator) Option {
	return func(c *Client) { c.nav = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, tokens tokenstore.Store, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    http.DefaultClient,
		tokens:  tokens,
		nav:     nav.Func(func() {}),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{client: c}
	c.Specialists = &SpecialistService{client: c}
	c.Media = &MediaService{client: c}
	c.ServiceOfferings = &ServiceOfferingService{client: c}
	c.PlatformFees = &PlatformFeeService{client: c}
	c.Users = &UserService{client: c}
	return c, nil
}

// OnUnauthorized registers fn to run whenever a response is 401 or 403,
// after the token has been cleared and before navigation.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

func (c *Client) resolve(path string) string {
	rel := &url.URL{Path: strings.TrimPrefix(path, "/")}
	if i := strings.IndexByte(rel.Path, '?'); i >= 0 {
		rel.RawQuery = rel.Path[i+1:]
		rel.Path = rel.Path[:i]
	}
	return c.baseURL.ResolveReference(rel).String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// envelope is the standard success shape {data, pagination?}.
type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

// do sends req and returns the decoded success envelope.
func (c *Client) do(req *http.Request) (*envelope, error) {
	ctx := req.Context()

	token, err := c.tokens.Get(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("token store read failed, sending unauthenticated")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, body)
		if apiErr.Unauthorized() {
			c.handleUnauthorized(ctx, req, apiErr)
		}
		return nil, apiErr
	}

	env := &envelope{}
	if len(bytes.TrimSpace(body)) == 0 || resp.StatusCode == http.StatusNoContent {
		return env, nil
	}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return env, nil
}

func (c *Client) handleUnauthorized(ctx context.Context, req *http.Request, apiErr *APIError) {
	c.log.Warn().
		Int("status", apiErr.Status).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("authorization rejected, forcing logout")

	if err := c.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Error().Err(err).Msg("failed to clear token")
	}

	c.mu.RLock()
	hooks := append([]func(){}, c.hooks...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}

	c.nav.ToLogin()
}

// call is the JSON round trip used by the typed services. out may be nil.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	env, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := decodeData(env, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}

func decodeData(env *envelope, out any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// list fetches a paginated collection. The backend returns either
// {data:{items,pagination}} or {data:[...], pagination}; any other shape
// yields an empty first page.
func list[T any](ctx context.Context, c *Client, path string) (domain.Page[T], error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return domain.Page[T]{}, err
	}
	env, err := c.do(req)
	if err != nil {
		return domain.Page[T]{}, err
	}
	return decodePage[T](env, c.log), nil
}

func decodePage[T any](env *envelope, log zerolog.Logger) domain.Page[T] {
	var wrapped struct {
		Items      []T                `json:"items"`
		Pagination *domain.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &wrapped); err == nil && wrapped.Items != nil {
		page := domain.Page[T]{Items: wrapped.Items}
		switch {
		case wrapped.Pagination != nil:
			page.Pagination = *wrapped.Pagination
		case env.Pagination != nil:
			page.Pagination = *env.Pagination
		default:
			page.Pagination = domain.NewPagination(1, len(wrapped.Items), len(wrapped.Items))
		}
		return page
	}

	var items []T
	if err := json.Unmarshal(env.Data, &items); err == nil && items != nil {
		page := domain.Page[T]{Items: items}
		if env.Pagination != nil {
			page.Pagination = *env.Pagination
		} else {
			page.Pagination = domain.NewPagination(1, len(items), len(items))
		}
		return page
	}

	log.Warn().Msg("unrecognized list response, using empty page")
	return domain.EmptyPage[T]()
}
