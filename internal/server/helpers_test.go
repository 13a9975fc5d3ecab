package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/companies/320193/filings", nil)
	assert.Equal(t, "320193", PathParam(r, "/api/companies/", "/filings"))
	assert.Equal(t, "320193", PathParam(r, "/api/companies/", ""))
	assert.Equal(t, "", PathParam(r, "/api/other/", ""))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"10-K", "10-Q", "8-K"}, SplitList(" 10-K,10-Q ,, 8-K"))
	assert.Nil(t, SplitList(""))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)
}

func TestParseLimit(t *testing.T) {
	n, err := ParseLimit("25")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = ParseLimit("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for _, bad := range []string{"-1", "ten"} {
		_, err := ParseLimit(bad)
		assert.Error(t, err, bad)
	}
}

func TestRequireMethod(t *testing.T) {
	rr := httptest.NewRecorder()
	ok := RequireMethod(rr, httptest.NewRequest(http.MethodDelete, "/api/query", nil), http.MethodGet, http.MethodPost)
	assert.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, POST", rr.Header().Get("Allow"))
}
