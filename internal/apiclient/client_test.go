package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anycomp/internal/domain"
	"anycomp/internal/nav"
	"anycomp/internal/tokenstore"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token string) (*Client, *tokenstore.MemoryStore, *nav.Recorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tokens := tokenstore.NewMemoryStore(token)
	rec := &nav.Recorder{}
	c, err := New(srv.URL+"/api/v1", tokens, WithNavigator(rec))
	require.NoError(t, err)
	return c, tokens, rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "u1", "role": "admin"}})
	}, "tok1")

	user, err := c.Auth.Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok1", gotAuth)
	assert.Equal(t, "/api/v1/auth/me", gotPath)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestClient_NoTokenSendsUnauthenticated(t *testing.T) {
	var gotAuth string
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	}, "")

	_, err := c.ServiceOfferings.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_ForbiddenForcesLogout(t *testing.T) {
	c, tokens, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"error":   map[string]any{"code": "FORBIDDEN", "message": "Access denied"},
		})
	}, "tok1")

	var hookCalls int32
	c.OnUnauthorized(func() { atomic.AddInt32(&hookCalls, 1) })

	// the caller ignores the error on purpose: the logout must still happen
	_, _ = c.Specialists.Get(context.Background(), "s1")

	tok, _ := tokens.Get(context.Background())
	assert.Empty(t, tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))
	assert.Equal(t, []string{nav.LoginPath}, rec.Paths())
}

func TestClient_UnauthorizedPropagatesError(t *testing.T) {
	c, _, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "Token expired"}})
	}, "stale")

	_, err := c.Auth.Me(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Token expired", Message(err, ""))
	assert.Equal(t, 1, rec.Count())
}

func TestClient_OtherStatusesPassThrough(t *testing.T) {
	c, tokens, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{"code": "NO_SERVICE_OFFERINGS", "message": "needs an offering"},
		})
	}, "tok1")

	_, err := c.Specialists.Publish(context.Background(), "s1")
	require.Error(t, err)

	assert.True(t, HasCode(err, "NO_SERVICE_OFFERINGS"))
	assert.True(t, IsStatus(err, http.StatusUnprocessableEntity))
	tok, _ := tokens.Get(context.Background())
	assert.Equal(t, "tok1", tok)
	assert.Zero(t, rec.Count())
}

func TestMessage_Fallbacks(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		fallback string
		want     string
	}{
		{"structured", `{"error":{"message":"Title taken"}}`, "", "Title taken"},
		{"plain string", `{"error":"no file provided"}`, "", "no file provided"},
		{"top level message", `{"message":"Bad input"}`, "", "Bad input"},
		{"html body", `<html>502</html>`, "", GenericMessage},
		{"empty error", `{"error":{}}`, "Login failed", "Login failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := decodeError(http.StatusBadRequest, []byte(tc.body))
			assert.Equal(t, tc.want, Message(err, tc.fallback))
		})
	}

	assert.Equal(t, GenericMessage, Message(io.ErrUnexpectedEOF, ""))
	assert.Empty(t, Message(nil, "x"))
}

func TestSpecialists_ListEncodesFilters(t *testing.T) {
	var gotQuery string
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"items":      []map[string]any{{"id": "s1", "title": "Incorporation"}},
				"pagination": map[string]any{"currentPage": 2, "totalPages": 3, "totalItems": 21, "itemsPerPage": 10},
			},
		})
	}, "")

	draft := false
	page, err := c.Specialists.List(context.Background(), domain.SpecialistFilters{
		Page: 2, Limit: 10, Search: "inc", IsDraft: &draft, SortBy: "createdAt",
	})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "limit=10")
	assert.Contains(t, gotQuery, "search=inc")
	assert.Contains(t, gotQuery, "isDraft=false")
	assert.Contains(t, gotQuery, "sortBy=createdAt")
	assert.NotContains(t, gotQuery, "minPrice")

	require.Len(t, page.Items, 1)
	assert.Equal(t, "s1", page.Items[0].ID)
	assert.Equal(t, 21, page.Pagination.TotalItems)
}

func TestSpecialists_ListAcceptsArrayShape(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":       []map[string]any{{"id": "a"}, {"id": "b"}},
			"pagination": map[string]any{"currentPage": 1, "totalPages": 1, "totalItems": 2, "itemsPerPage": 10},
		})
	}, "")

	page, err := c.Specialists.List(context.Background(), domain.SpecialistFilters{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Pagination.TotalItems)
}

func TestSpecialists_ListUnknownShapeIsEmpty(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": "unexpected"})
	}, "")

	page, err := c.Specialists.List(context.Background(), domain.SpecialistFilters{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
}

func TestSpecialists_DisplaysServerPricing(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"id": "s1", "basePrice": 1000, "platformFee": 150, "finalPrice": 1150,
		}})
	}, "")

	s, err := c.Specialists.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 150.0, s.PlatformFee)
	assert.Equal(t, 1150.0, s.FinalPrice)
}

func TestMedia_UploadMultipart(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/media/upload", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		f, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		content, _ := io.ReadAll(f)

		assert.Equal(t, "logo.png", fh.Filename)
		assert.Equal(t, "image/png", fh.Header.Get("Content-Type"))
		assert.Equal(t, "png-bytes", string(content))
		assert.Equal(t, "s1", r.FormValue("specialistId"))
		assert.Equal(t, "2", r.FormValue("displayOrder"))

		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
			"id": "m1", "specialistId": "s1", "displayOrder": 2,
		}})
	}, "tok")

	order := 2
	m, err := c.Media.Upload(context.Background(), "s1", UploadFile{
		Name: "logo.png", ContentType: "image/png", Content: strings.NewReader("png-bytes"),
	}, &order)
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, 2, m.DisplayOrder)
}

func TestAuth_LoginDecodesResult(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "secret", body["password"])
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"user":  map[string]any{"id": "u1", "role": "client"},
			"token": "tok1",
		}})
	}, "")

	res, err := c.Auth.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "tok1", res.Token)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("api/v1", tokenstore.NewMemoryStore(""))
	assert.Error(t, err)
}
