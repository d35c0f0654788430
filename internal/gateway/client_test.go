package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/riverstats/internal/gateway"
	"github.com/jonesrussell/riverstats/internal/models"
	"github.com/jonesrussell/riverstats/internal/testhelpers"
)

type staticTokens string

func (s staticTokens) Token() (string, error) { return string(s), nil }

func newClient(t *testing.T, handler http.Handler, tokens gateway.TokenSource) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.New(srv.Client(), srv.URL, "843", tokens, testhelpers.NewTestLogger())
}

func TestListActivities(t *testing.T) {
	var gotPath, gotUA, gotOrg string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotOrg = r.URL.Query().Get("orgId")
		_, _ = w.Write([]byte(`{"code": 200, "total": 2, "rows": [{"id": 1}, {"id": 2}]}`))
	}), nil)

	page, err := client.ListActivities(context.Background(), 1, 40)
	require.NoError(t, err)

	assert.Equal(t, "/portal/ums/active/home/list", gotPath)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Equal(t, "843", gotOrg)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Rows, 2)
}

func TestListPatrolRecordsSetsUseType(t *testing.T) {
	var gotUseType string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUseType = r.URL.Query().Get("useType")
		_, _ = w.Write([]byte(`{"code": 200, "rows": []}`))
	}), nil)

	_, err := client.ListPatrolRecords(context.Background(), 1, 10, models.KindEvaluation)
	require.NoError(t, err)
	assert.Equal(t, "2", gotUseType)
}

func TestBusinessErrorCode(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 500, "msg": "内部错误"}`))
	}), nil)

	_, err := client.ListActivities(context.Background(), 1, 40)
	require.Error(t, err)

	var serverErr *gateway.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, 500, serverErr.Code)
	assert.Equal(t, "内部错误", serverErr.Msg)
}

func TestHTTPErrorStatus(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), nil)

	_, err := client.ListActivities(context.Background(), 1, 40)
	require.Error(t, err)

	var serverErr *gateway.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadGateway, serverErr.StatusCode)
}

func TestMalformedResponse(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}), nil)

	_, err := client.ListActivities(context.Background(), 1, 40)
	var serverErr *gateway.ServerError
	assert.ErrorAs(t, err, &serverErr)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := gateway.New(http.DefaultClient, srv.URL, "843", nil, testhelpers.NewTestLogger())

	_, err := client.ListActivities(context.Background(), 1, 40)
	require.Error(t, err)
	assert.True(t, gateway.IsTransport(err))
}

func TestGetActivityDetailSendsToken(t *testing.T) {
	var gotAuth string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/portal/ums/active/info/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"code": 200, "data": {"id": 42}}`))
	}), staticTokens("tok-123"))

	raw, err := client.GetActivityDetail(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", gotAuth)
	assert.NotEmpty(t, raw)
}

func TestGetActivityDetailWithoutToken(t *testing.T) {
	client := newClient(t, http.NotFoundHandler(), staticTokens(""))

	_, err := client.GetActivityDetail(context.Background(), 42)
	require.Error(t, err)

	var authErr *gateway.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestUnauthorizedResponse(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), staticTokens("expired"))

	_, err := client.GetActivityDetail(context.Background(), 42)
	require.Error(t, err)

	var authErr *gateway.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestIsTransport(t *testing.T) {
	assert.True(t, gateway.IsTransport(&gateway.TransportError{Op: "GET", Err: context.DeadlineExceeded}))
	assert.False(t, gateway.IsTransport(&gateway.ServerError{StatusCode: 500}))
	assert.False(t, gateway.IsTransport(&gateway.AuthError{Msg: "no"}))
	assert.False(t, gateway.IsTransport(nil))
}
