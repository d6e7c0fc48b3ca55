package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"life-tracker/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	(&HeaderAuth{Header: "x-goog-api-key"}).Apply(req, "k")
	assert.Equal(t, "k", req.Header.Get("x-goog-api-key"))
}

func TestQueryAuth(t *testing.T) {
	u, _ := url.Parse("https://example.com/weather?q=Paris")
	req := &http.Request{URL: u, Header: make(http.Header)}
	(&QueryAuth{Param: "appid"}).Apply(req, "k")

	assert.Equal(t, "k", req.URL.Query().Get("appid"))
	assert.Equal(t, "Paris", req.URL.Query().Get("q"), "existing params are preserved")

	// nil URL must not panic
	(&QueryAuth{Param: "appid"}).Apply(&http.Request{Header: make(http.Header)}, "k")
}

func TestGenerateRequest_DefensiveExtraction(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		prompt string
		system string
	}{
		{"full", `{"contents":[{"parts":[{"text":"hi"}]}],"systemInstruction":{"parts":[{"text":"be brief"}]}}`, "hi", "be brief"},
		{"empty object", `{}`, "", ""},
		{"no parts", `{"contents":[{}]}`, "", ""},
		{"empty parts", `{"contents":[{"parts":[]}],"systemInstruction":{}}`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req GenerateRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.prompt, req.Prompt())
			assert.Equal(t, tt.system, req.SystemText())
		})
	}
}

func TestGemini_Generate(t *testing.T) {
	upstreamBody := `{"candidates":[{"content":{"parts":[{"text":"Hello!"}]}}]}`
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"), "key must not be in the URL")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamBody))
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "gemini-test", "secret", time.Second)
	in := &GenerateRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"contents":[{"parts":[{"text":"plan my day"},{"text":"ignored"}]}],
		"systemInstruction":{"parts":[{"text":"you are a coach"}]},
		"generationConfig":{"temperature":0.7,"maxOutputTokens":1000}
	}`), in))

	out, err := g.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.JSONEq(t, upstreamBody, string(out), "upstream body is relayed verbatim")

	contents := got["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 1)
	assert.Equal(t, "plan my day", parts[0].(map[string]any)["text"])

	sys := got["systemInstruction"].(map[string]any)["parts"].([]any)
	assert.Equal(t, "you are a coach", sys[0].(map[string]any)["text"])

	cfg := got["generationConfig"].(map[string]any)
	assert.Equal(t, 0.7, cfg["temperature"])
	assert.Equal(t, float64(1000), cfg["maxOutputTokens"])
}

func TestGemini_GenerateOmitsOptionalFields(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "m", "k", time.Second)
	_, err := g.Generate(context.Background(), &GenerateRequest{GenerationConfig: json.RawMessage("null")})
	require.NoError(t, err)

	assert.Contains(t, got, "contents")
	assert.NotContains(t, got, "systemInstruction")
	assert.NotContains(t, got, "generationConfig")
}

func TestGemini_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"API key not valid"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "m", "bad", time.Second)
	_, err := g.Generate(context.Background(), &GenerateRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "400")
}

func TestGemini_NonJSONSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	_, err := NewGemini(srv.URL, "m", "k", time.Second).Generate(context.Background(), &GenerateRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "non-JSON")
}

func TestClient_OversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a JSON string two bytes over the cap
		_, _ = w.Write([]byte(`"`))
		_, _ = w.Write(bytes.Repeat([]byte("a"), maxBodyBytes))
		_, _ = w.Write([]byte(`"`))
	}))
	defer srv.Close()

	_, err := NewWeather(srv.URL, "k", time.Second).Current(context.Background(), "Paris")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestClient_BodyAtLimit(t *testing.T) {
	body := append(append([]byte(`"`), bytes.Repeat([]byte("a"), maxBodyBytes-2)...), '"')
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	out, err := NewWeather(srv.URL, "k", time.Second).Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Len(t, out, maxBodyBytes)
}

func TestGemini_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	g := NewGemini(base, "m", "k", time.Second)
	_, err := g.Generate(context.Background(), &GenerateRequest{})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestGemini_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g := NewGemini(srv.URL, "m", "k", 50*time.Millisecond)
	_, err := g.Generate(context.Background(), &GenerateRequest{})
	assert.ErrorIs(t, err, apperr.ErrTimeout)
}

func TestWeather_Current(t *testing.T) {
	body := `{"name":"Paris","main":{"temp":21.5}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "wkey", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	w := NewWeather(srv.URL, "wkey", time.Second)
	out, err := w.Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, body, string(out))
}

func TestWeather_DefaultCity(t *testing.T) {
	var city string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		city = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewWeather(srv.URL, "k", time.Second).Current(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultCity, city)
}

func TestWeather_EmbeddedErrorPassesThrough(t *testing.T) {
	body := `{"cod":"404","message":"city not found"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	out, err := NewWeather(srv.URL, "k", time.Second).Current(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Equal(t, body, string(out))
}

func TestWeather_NonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewWeather(srv.URL, "k", time.Second).Current(context.Background(), "Paris")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestWeather_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := NewWeather(base, "secret-key", time.Second).Current(context.Background(), "Paris")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.NotContains(t, err.Error(), "secret-key", "query credential must not leak into errors")
}
