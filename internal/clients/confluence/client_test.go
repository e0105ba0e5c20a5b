package confluence

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFLUENCE_URL", "")
	t.Setenv("USER_NAME", "")
	t.Setenv("PASSWORD", "")
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	isolateEnv(t)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{BaseURL: server.URL, Username: "admin", Password: "secret"})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name    string
		baseURL string
		wantErr string
	}{
		{name: "empty", baseURL: "", wantErr: "base URL is required"},
		{name: "relative", baseURL: "wiki.example.com", wantErr: "must be an absolute http(s) URL"},
		{name: "unsupported scheme", baseURL: "ftp://wiki.example.com", wantErr: "must be an absolute http(s) URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(Config{BaseURL: tt.baseURL})
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewClient_Defaults(t *testing.T) {
	isolateEnv(t)

	c, err := NewClient(Config{BaseURL: "https://wiki.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://wiki.example.com", c.BaseURL())
	assert.Equal(t, DefaultUsername, c.Username())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}

func TestNewClient_EnvFallback(t *testing.T) {
	t.Setenv("CONFLUENCE_URL", "https://env.example.com")
	t.Setenv("USER_NAME", "jdoe")
	t.Setenv("PASSWORD", "from-env")

	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", c.BaseURL())
	assert.Equal(t, "jdoe", c.Username())
	assert.Equal(t, "from-env", c.password)
}

func TestClient_Do_RequestConstruction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/space", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "no-check", r.Header.Get("X-Atlassian-Token"))
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		var got Space
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "TSTSPACE", got.Key)
		assert.Equal(t, "Heroes Test", got.Name)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":98305,"key":"TSTSPACE","name":"Heroes Test","type":"global"}`)
	})

	space, err := c.CreateSpace(context.Background(), &Space{Key: "TSTSPACE", Name: "Heroes Test"})
	require.NoError(t, err)
	assert.Equal(t, int64(98305), space.ID)
	assert.Equal(t, "TSTSPACE", space.Key)
	assert.Equal(t, "Heroes Test", space.Name)
}

func TestClient_Do_ContextPath(t *testing.T) {
	isolateEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/confluence/rest/api/content/65601", r.URL.Path)
		assert.Equal(t, "body.storage,version", r.URL.Query().Get("expand"))
		_, _ = io.WriteString(w, `{"id":"65601","type":"page","title":"full test page",
			"body":{"storage":{"value":"this is a full piece of test content","representation":"storage"}},
			"version":{"number":3}}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Config{BaseURL: server.URL + "/confluence/", Password: "x"})
	require.NoError(t, err)

	page, err := c.GetContentByID(context.Background(), "65601", []string{ExpandBodyStorage, ExpandVersion})
	require.NoError(t, err)
	assert.Equal(t, "full test page", page.Title)
	assert.Equal(t, "this is a full piece of test content", page.StorageValue())
	assert.Equal(t, 3, page.VersionNumber())
}

func TestClient_Do_EmptyResponseBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/rest/api/content/42", r.URL.Path)
		assert.Equal(t, "current", r.URL.Query().Get("status"))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.DeleteContent(context.Background(), "42", ContentStatusCurrent)
	assert.NoError(t, err)
}

func TestClient_EscapesPathSegments(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) error
		want string
	}{
		{
			name: "slash in space key",
			call: func(c *Client) error { return c.DeleteSpace(context.Background(), "../content/12345") },
			want: "/rest/api/space/..%2Fcontent%2F12345",
		},
		{
			name: "dot dot space key",
			call: func(c *Client) error { _, err := c.GetSpace(context.Background(), "..", nil); return err },
			want: "/rest/api/space/%2E%2E",
		},
		{
			name: "personal space key",
			call: func(c *Client) error { _, err := c.GetSpace(context.Background(), "~jdoe", nil); return err },
			want: "/rest/api/space/~jdoe",
		},
		{
			name: "content id with query",
			call: func(c *Client) error { _, err := c.GetContentByID(context.Background(), "1?status=trashed", nil); return err },
			want: "/rest/api/content/1%3Fstatus=trashed",
		},
		{
			name: "child pages",
			call: func(c *Client) error { _, err := c.ListChildPages(context.Background(), "7/../8", nil, 0, 0); return err },
			want: "/rest/api/content/7%2F..%2F8/child/page",
		},
		{
			name: "versions",
			call: func(c *Client) error { _, err := c.ListVersions(context.Background(), "65601", 0, 0); return err },
			want: "/rest/api/content/65601/version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.EscapedPath()
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{}`)
			})

			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Do_ErrorResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"statusCode":400,"message":"A page with this title already exists: A page already exists with the title Duplicate Page in this space"}`)
	})

	_, err := c.CreateContent(context.Background(), &Content{Type: ContentTypePage, Title: "Duplicate Page"}, nil)
	require.Error(t, err)

	apiErr, ok := AsError(err)
	require.True(t, ok, "expected *Error, got %T", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "content", apiErr.Path)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Contains(t, apiErr.Message, "already exists")
	assert.True(t, IsBadRequest(err))
	assert.False(t, IsValueTooLong(err))
}

func TestClient_Do_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>login</html>`)
	})

	_, err := c.GetSpace(context.Background(), "TSTSPACE", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode GET space/TSTSPACE response")
	_, isAPIErr := AsError(err)
	assert.False(t, isAPIErr)
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.GetSpace(ctx, "TSTSPACE", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Ping(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "ok", status: http.StatusOK},
		{name: "unavailable", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/", r.URL.Path)
				_, _, hasAuth := r.BasicAuth()
				assert.False(t, hasAuth)
				w.WriteHeader(tt.status)
			})

			status, err := c.Ping(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestClient_ListContent_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/rest/api/content", r.URL.Path)
		assert.Equal(t, "page", q.Get("type"))
		assert.Equal(t, "TSTCONTENT", q.Get("spaceKey"))
		assert.Equal(t, "nothing to be found", q.Get("title"))
		assert.Equal(t, "version", q.Get("expand"))
		assert.Equal(t, "25", q.Get("start"))
		assert.Equal(t, "25", q.Get("limit"))
		_, _ = io.WriteString(w, `{"results":[],"start":25,"limit":25,"size":0}`)
	})

	page, err := c.ListContent(context.Background(), ContentQuery{
		Type:     ContentTypePage,
		SpaceKey: "TSTCONTENT",
		Title:    "nothing to be found",
		Expand:   []string{ExpandVersion},
		Limit:    25,
	}, 25)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.False(t, page.HasNext())
}

func TestClient_CreateContent_Payload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))

		assert.Equal(t, "page", raw["type"])
		assert.Equal(t, "Child Page", raw["title"])
		assert.Equal(t, map[string]any{"key": "TSTCONTENT"}, raw["space"])
		assert.Equal(t, []any{map[string]any{"id": "1001"}}, raw["ancestors"])
		assert.Equal(t, map[string]any{
			"storage": map[string]any{"value": "I am the child", "representation": "storage"},
		}, raw["body"])
		assert.NotContains(t, raw, "id")
		assert.NotContains(t, raw, "version")

		_, _ = io.WriteString(w, `{"id":"1002","type":"page","title":"Child Page","ancestors":[{"id":"1001"}]}`)
	})

	created, err := c.CreateContent(context.Background(), &Content{
		Type:      ContentTypePage,
		Title:     "Child Page",
		Space:     &SpaceRef{Key: "TSTCONTENT"},
		Ancestors: []ContentRef{{ID: "1001"}},
		Body:      &Body{Storage: &Storage{Value: "I am the child", Representation: RepresentationStorage}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "1002", created.ID)
	require.Len(t, created.Ancestors, 1)
	assert.Equal(t, "1001", created.Ancestors[0].ID)
}

func TestPage_HasNext(t *testing.T) {
	tests := []struct {
		name string
		page *Page[Content]
		want bool
	}{
		{name: "nil", page: nil, want: false},
		{name: "next link", page: &Page[Content]{Size: 3, Limit: 25, Links: &Links{Next: "/rest/api/content?start=25"}}, want: true},
		{name: "short page", page: &Page[Content]{Size: 3, Limit: 25}, want: false},
		{name: "full page without link", page: &Page[Content]{Size: 25, Limit: 25}, want: true},
		{name: "empty", page: &Page[Content]{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.page.HasNext())
		})
	}
}

func TestContent_NilSafeAccessors(t *testing.T) {
	var c *Content
	assert.Equal(t, "", c.StorageValue())
	assert.Equal(t, 0, c.VersionNumber())

	c = &Content{Body: &Body{}}
	assert.Equal(t, "", c.StorageValue())
}
