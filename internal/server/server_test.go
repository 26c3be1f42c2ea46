package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/quizsolve/internal/llm"
	"github.com/nao1215/quizsolve/internal/model"
	"github.com/nao1215/quizsolve/internal/solve"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()

	chain := solve.NewChain(solve.WithPrimary(llm.Func{
		ID: "fake",
		Fn: func(context.Context, string, string) (string, error) { return "2", nil },
	}))
	srv := httptest.NewServer(New(chain, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Post(srv.URL+"/ai-solve/", "application/json; charset=UTF-8", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestSolve(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	body := `[
		{"index": 1, "question": "Pick two", "answers": [{"text": "one", "position": "1"}, {"text": "two", "position": "2"}]},
		{"index": 2, "question": "", "answers": [{"text": "x", "position": "1"}]},
		{"index": 3, "question": "No answers", "answers": []},
		"not an object"
	]`

	resp, b := post(t, srv, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var got model.SolveResponse
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, model.StatusCompleted, got.Status)
	require.Equal(t, 4, got.TotalQuestions)
	require.Equal(t, 1, got.SolvedCount)
	require.Equal(t, "25.0%", got.SuccessRate)
	require.Len(t, got.Solutions, 4)

	first := got.Solutions[0]
	require.True(t, first.Solved)
	require.Equal(t, "2", first.Answer)
	require.Equal(t, solve.ConfidenceHigh, first.Confidence)
	require.Equal(t, solve.SourcePrimary, first.Source)

	for _, sol := range got.Solutions[1:] {
		require.Equal(t, model.StatusError, sol.Status)
		require.Equal(t, solve.MsgMissingInput, sol.Message)
		require.Equal(t, model.NoAnswer, sol.Answer)
		require.False(t, sol.Solved)
	}
	require.Equal(t, 2, got.Solutions[1].QuestionIndex)
	require.Equal(t, 0, got.Solutions[3].QuestionIndex)
}

func TestSolve_BadRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, WithMaxQuestions(2), WithMaxBodySize(1024))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "object", body: `{"question": "q"}`, wantStatus: http.StatusBadRequest, wantError: MsgNotArray},
		{name: "string", body: `"hello"`, wantStatus: http.StatusBadRequest, wantError: MsgNotArray},
		{name: "empty array", body: ` [] `, wantStatus: http.StatusBadRequest, wantError: MsgEmptyArray},
		{name: "broken JSON", body: `[{"question":`, wantStatus: http.StatusBadRequest, wantError: MsgInvalidJSON},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest, wantError: MsgInvalidJSON},
		{name: "too many", body: `[{}, {}, {}]`, wantStatus: http.StatusBadRequest, wantError: "too many questions: 3 (max 2)"},
		{name: "too large", body: `["` + strings.Repeat("a", 2048) + `"]`, wantStatus: http.StatusRequestEntityTooLarge, wantError: MsgTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, b := post(t, srv, tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			var got errorResponse
			require.NoError(t, json.Unmarshal(b, &got))
			require.Equal(t, tt.wantError, got.Error)
		})
	}
}

func TestSolve_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/ai-solve/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, string(b))
}

func TestCORS(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	preflight := func(t *testing.T, requestHeaders string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/ai-solve/", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://quiz.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", requestHeaders)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		// Browsers send the header names lower-cased and comma-joined.
		resp := preflight(t, "content-type,x-csrftoken")

		require.Less(t, resp.StatusCode, 300)
		require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
		require.Contains(t, strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers")), "x-csrftoken")
	})

	t.Run("preflight body is an empty object", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/ai-solve/", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://quiz.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		require.JSONEq(t, `{}`, string(b))
	})

	t.Run("preflight with non-canonical header list is not allowed", func(t *testing.T) {
		t.Parallel()

		resp := preflight(t, "Content-Type, X-CSRFToken")

		require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight with unknown header is not allowed", func(t *testing.T) {
		t.Parallel()

		resp := preflight(t, "x-unknown")

		require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("plain OPTIONS returns empty object", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/ai-solve/", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `{}`, string(b))
	})

	t.Run("simple request carries origin header", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/ai-solve", strings.NewReader(`[{"index":1,"question":"q","answers":[{"text":"a","position":"2"}]}]`))
		require.NoError(t, err)
		req.Header.Set("Origin", "https://quiz.example")
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

type panicSolver struct{}

func (panicSolver) SolveBatch(context.Context, []model.Question) *model.SolveResponse {
	panic("solver exploded")
}

func TestRecoverPanics(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(New(panicSolver{}).Handler())
	defer srv.Close()

	resp, b := post(t, srv, `[{"index":1,"question":"q","answers":[{"text":"a","position":"1"}]}]`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var got errorResponse
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, "Error: solver exploded", got.Error)
}

func TestServe_Shutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(solve.NewChain()).Serve(ctx, ln)
	}()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
