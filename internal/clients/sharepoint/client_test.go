package sharepoint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/bobmcallan/finq/internal/models"
)

const searchJSON = `{
  "value": [{
    "hitsContainers": [{
      "hits": [
        {"hitId": "h1", "resource": {"id": "item-1", "name": "Q3 budget report.xlsx", "webUrl": "https://sp/1", "parentReference": {"driveId": "drive-a"}}},
        {"hitId": "h2", "resource": {"id": "item-2", "name": "misc.docx", "webUrl": "https://sp/2", "parentReference": {"driveId": "drive-b"}}},
        {"hitId": "h3", "resource": {"id": "item-3", "name": "notes.txt", "webUrl": "https://sp/3", "parentReference": {"driveId": "drive-a"}}}
      ],
      "total": 3
    }]
  }]
}`

func staticToken() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"})
}

func TestSearchFiles_MapsHits(t *testing.T) {
	var gotAuth string
	var gotReq searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/query", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(searchJSON))
	}))
	defer srv.Close()

	client := NewClient("tenant", "id", "secret", WithBaseURL(srv.URL), WithTokenSource(staticToken()))
	candidates, err := client.SearchFiles(context.Background(), "budget report", 10)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, gotReq.Requests, 1)
	assert.Equal(t, []string{"driveItem"}, gotReq.Requests[0].EntityTypes)
	assert.Equal(t, "budget report", gotReq.Requests[0].Query.QueryString)
	assert.Equal(t, 10, gotReq.Requests[0].Size)
	assert.Equal(t, "NAM", gotReq.Requests[0].Region)

	require.Len(t, candidates, 3)
	assert.Equal(t, models.Candidate{ID: "item-1", Name: "Q3 budget report.xlsx", DriveID: "drive-a", WebURL: "https://sp/1"}, candidates[0])
	assert.Equal(t, "misc.docx", candidates[1].Name)
}

func TestSearchFiles_CapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchJSON))
	}))
	defer srv.Close()

	client := NewClient("t", "i", "s", WithBaseURL(srv.URL), WithTokenSource(staticToken()))
	candidates, err := client.SearchFiles(context.Background(), "x", 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestSearchFiles_EmptyTerm(t *testing.T) {
	client := NewClient("t", "i", "s", WithTokenSource(staticToken()))
	_, err := client.SearchFiles(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSearchFiles_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BadRequest","message":"region is required"}}`))
	}))
	defer srv.Close()

	client := NewClient("t", "i", "s", WithBaseURL(srv.URL), WithTokenSource(staticToken()))
	_, err := client.SearchFiles(context.Background(), "budget", 5)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "/search/query", apiErr.Endpoint)
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func TestDownloadContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drives/drive-a/items/item-1/content", r.URL.Path)
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	client := NewClient("t", "i", "s", WithBaseURL(srv.URL), WithTokenSource(staticToken()), WithMaxDownloadBytes(4))
	data, err := client.DownloadContent(context.Background(), "drive-a", "item-1")
	require.NoError(t, err)
	assert.Equal(t, "0123", string(data))
}

func TestDownloadContent_MissingIDs(t *testing.T) {
	client := NewClient("t", "i", "s", WithTokenSource(staticToken()))
	_, err := client.DownloadContent(context.Background(), "", "item")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestClientCredentials_TokenFetchedOnce(t *testing.T) {
	var tokenCalls int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		r.ParseForm()
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.True(t, strings.Contains(r.Form.Get("scope"), "graph.microsoft.com"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"cc-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("body"))
	}))
	defer api.Close()

	client := NewClient("tenant", "client-id", "client-secret", WithBaseURL(api.URL), WithTokenURL(tokenSrv.URL))
	for i := 0; i < 3; i++ {
		_, err := client.DownloadContent(context.Background(), "d", "i")
		require.NoError(t, err)
	}

	assert.Equal(t, "Bearer cc-token", gotAuth)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}
