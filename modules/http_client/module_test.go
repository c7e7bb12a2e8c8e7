package http_client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/contextstore"
	"github.com/vk/flowgrid/internal/sharedcache"
	"github.com/zclconf/go-cty/cty"
)

func requestInputs(url, method, body string) component.Inputs {
	return component.Inputs{
		"url":     cty.StringVal(url),
		"method":  cty.StringVal(method),
		"body":    cty.StringVal(body),
		"headers": cty.MapVal(map[string]cty.Value{"X-Test": cty.StringVal("yes")}),
		"timeout": cty.StringVal("5s"),
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo-Header", r.Header.Get("X-Test"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(r.Method + ":" + string(b)))
	}))
	t.Cleanup(srv.Close)

	shared := sharedcache.New()
	t.Cleanup(func() { shared.Close(context.Background()) })
	bc := component.NewBuildContext("http_request.r", contextstore.New(), shared)

	got, err := build(context.Background(), bc, requestInputs(srv.URL, http.MethodPost, "payload"))
	require.NoError(t, err)

	assert.True(t, got.GetAttr("status_code").RawEquals(cty.NumberIntVal(http.StatusCreated)))
	assert.Equal(t, "POST:payload", got.GetAttr("body").AsString())
	assert.Equal(t, "yes", got.GetAttr("headers").Index(cty.StringVal("X-Echo-Header")).AsString())

	_, err = build(context.Background(), bc, requestInputs(srv.URL, http.MethodGet, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{cacheKey(5 * time.Second)}, shared.Keys(), "client is reused")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    component.Inputs
		input string
	}{
		{name: "bad url", in: requestInputs("not a url", http.MethodGet, ""), input: "url"},
		{name: "bad method", in: requestInputs("http://example.com", "BREW", ""), input: "method"},
		{name: "bad timeout", in: func() component.Inputs {
			in := requestInputs("http://example.com", http.MethodGet, "")
			in["timeout"] = cty.StringVal("later")
			return in
		}(), input: "timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := New().Validate(context.Background(), tc.in)
			var verr *component.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.input, verr.Input)
		})
	}
}
