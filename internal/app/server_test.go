package app_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/app"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg, err := app.NewConfig(app.Config{})
	require.NoError(t, err)
	a, _ := app.SetupAppTest(t, cfg)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func componentNames(body map[string]any) []string {
	var names []string
	for _, c := range body["components"].([]any) {
		names = append(names, c.(map[string]any)["name"].(string))
	}
	return names
}

func TestServer_Health(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	resp, _ := do(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ComponentsFollowShowBeta(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/components", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, componentNames(body), "text")
	assert.NotContains(t, componentNames(body), "notify")

	resp, _ = do(t, http.MethodPut, srv.URL+"/settings/show_beta", "application/json", `{"value":"true"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/components", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, componentNames(body), "notify")
	assert.Contains(t, componentNames(body), "listen")
}

func TestServer_Settings(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "valid locale", path: "/settings/locale", body: `{"value":"de"}`, status: http.StatusOK},
		{name: "invalid bool", path: "/settings/show_beta", body: `{"value":"maybe"}`, status: http.StatusBadRequest},
		{name: "unknown setting", path: "/settings/colour", body: `{"value":"red"}`, status: http.StatusNotFound},
		{name: "bad body", path: "/settings/locale", body: `not json`, status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := do(t, http.MethodPut, srv.URL+tc.path, "application/json", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/settings", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "de", body["locale"])
}

func TestServer_Runs(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	t.Run("yaml flow", func(t *testing.T) {
		resp, body := do(t, http.MethodPost, srv.URL+"/runs", "application/yaml", `
vertices:
  - id: listen.l
    values: {context_key: topic}
  - id: notify.n
    values: {context_key: topic, input_value: news}
`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "news", body["context"].(map[string]any)["topic"])

		statuses := map[string]string{}
		for _, v := range body["vertices"].([]any) {
			vm := v.(map[string]any)
			statuses[vm["id"].(string)] = vm["status"].(string)
		}
		assert.Equal(t, map[string]string{"listen.l": "succeeded", "notify.n": "succeeded"}, statuses)
	})

	t.Run("hcl flow", func(t *testing.T) {
		resp, body := do(t, http.MethodPost, srv.URL+"/runs", "application/hcl", `
vertex "text" "a" {
  value = "x"
}
`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, body["vertices"], 1)
	})

	t.Run("malformed", func(t *testing.T) {
		resp, _ := do(t, http.MethodPost, srv.URL+"/runs", "application/yaml", "vertices: [")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid graph", func(t *testing.T) {
		resp, body := do(t, http.MethodPost, srv.URL+"/runs", "application/json", `{"vertices":[{"id":"nope.x"}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, body["error"], "nope")
	})
}
