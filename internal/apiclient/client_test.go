package apiclient

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticToken string

func (t staticToken) Token() (string, bool) { return string(t), t != "" }

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, "tenant", tokens, zap.NewNop())
}

// ============================================
// Request shaping
// ============================================

func TestClient_Do_AttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}, staticToken("bearer-token"))

	err := client.Do(context.Background(), http.MethodGet, "/api/user/check", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_Do_NoTokenSourceOmitsHeader(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}, nil)

	err := client.Do(context.Background(), http.MethodGet, "/anything", nil, nil)

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_Do_EncodesBodyAndDecodesResponse(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`{"token":"abc"}`))
	}, nil)

	var out struct {
		Token string `json:"token"`
	}
	err := client.Do(context.Background(), http.MethodPost, "/admin/signin",
		map[string]string{"username": "u", "password": "p"}, &out)

	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"u","password":"p"}`, gotBody)
	assert.Equal(t, "abc", out.Token)
}

func TestClient_Scoped(t *testing.T) {
	client := New("http://example.com", "tenant", nil, zap.NewNop())

	assert.Equal(t, "/api/tenant/cart/abc", client.Scoped("cart/%s", "abc"))
	assert.Equal(t, "/api/tenant/products/all", client.Scoped("products/all"))
}

// ============================================
// Error mapping
// ============================================

func TestClient_Do_MessageList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":["title is required","price is required"]}`))
	}, nil)

	err := client.Do(context.Background(), http.MethodPost, "/x", nil, nil)

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, []string{"title is required", "price is required"}, Messages(err))
}

func TestClient_Do_SingleMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"login required"}`))
	}, nil)

	err := client.Do(context.Background(), http.MethodPost, "/x", nil, nil)

	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, []string{"login required"}, Messages(err))
}

func TestClient_Do_NoMessageBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	err := client.Do(context.Background(), http.MethodGet, "/x", nil, nil)

	require.Error(t, err)
	assert.True(t, IsServer(err))
	assert.Equal(t, []string{"operation failed"}, Messages(err))
}

func TestClient_Do_TransportFailureIsNotAPIError(t *testing.T) {
	client := New("http://127.0.0.1:1", "tenant", nil, zap.NewNop())

	err := client.Do(context.Background(), http.MethodGet, "/x", nil, nil)

	require.Error(t, err)
	assert.False(t, IsAuth(err))
	assert.False(t, IsValidation(err))
	assert.False(t, IsServer(err))
}

// ============================================
// Upload
// ============================================

func TestClient_Upload_Multipart(t *testing.T) {
	var gotField, gotFilename, gotContent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		require.NoError(t, err)
		gotField = part.FormName()
		gotFilename = part.FileName()
		raw, _ := io.ReadAll(part)
		gotContent = string(raw)
		w.Write([]byte(`{"imageUrl":"https://cdn.example.com/x.png"}`))
	}, nil)

	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	err := client.Upload(context.Background(), "/api/tenant/admin/upload",
		"file-to-upload", "x.png", strings.NewReader("png-bytes"), &out)

	require.NoError(t, err)
	assert.Equal(t, "file-to-upload", gotField)
	assert.Equal(t, "x.png", gotFilename)
	assert.Equal(t, "png-bytes", gotContent)
	assert.Equal(t, "https://cdn.example.com/x.png", out.ImageURL)
}
