package solver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/nao1215/quizsolve/internal/model"
)

func sampleQuestions() []model.Question {
	return []model.Question{
		{Index: 1, Question: "2+2?", Answers: []model.Answer{{Text: "3", Position: "1"}, {Text: "4", Position: "2"}}},
		{Index: 2, Question: "Capital of France?", Answers: []model.Answer{{Text: "Paris", Position: "7"}}},
	}
}

func TestClient_Solve_SendsRequest(t *testing.T) {
	t.Parallel()

	var (
		gotMethod string
		gotCT     string
		gotToken  string
		gotBody   []model.Question
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotToken = r.Header.Get(HeaderCSRFToken)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"completed","solutions":[{"question_index":1,"solved":true,"answer":"2","confidence":"high","source":"AI-Claude"}],"solved_count":1,"total_questions":2,"success_rate":"50.0%"}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/ai-solve/", StaticToken("tok123"))
	resp, err := c.Solve(t.Context(), sampleQuestions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotCT != "application/json; charset=UTF-8" {
		t.Errorf("content type = %q", gotCT)
	}
	if gotToken != "tok123" {
		t.Errorf("csrf token = %q", gotToken)
	}
	if len(gotBody) != 2 || gotBody[1].Answers[0].Position != "7" {
		t.Errorf("unexpected body: %+v", gotBody)
	}

	if resp.SolvedCount != 1 || len(resp.Solutions) != 1 || !resp.Solutions[0].HasAnswer() {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClient_Solve_BodyIsArray(t *testing.T) {
	t.Parallel()

	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		raw = string(data)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, nil).Solve(t.Context(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != "[]" {
		t.Errorf("body = %q, want []", raw)
	}
}

func TestClient_Solve_DefaultsAbsentFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"completed"}`)
	}))
	defer srv.Close()

	resp, err := New(srv.URL, nil).Solve(t.Context(), sampleQuestions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Solutions == nil || len(resp.Solutions) != 0 {
		t.Errorf("expected empty solutions, got %v", resp.Solutions)
	}
	if resp.SolvedCount != 0 {
		t.Errorf("expected solved_count 0, got %d", resp.SolvedCount)
	}
}

func TestClient_Solve_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error carries status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				var se *ServerError
				if !errors.As(err, &se) {
					t.Fatalf("expected ServerError, got %T: %v", err, err)
				}
				if se.StatusCode != http.StatusInternalServerError {
					t.Errorf("status = %d", se.StatusCode)
				}
				if !strings.Contains(err.Error(), "500") {
					t.Errorf("message %q does not contain 500", err.Error())
				}
			},
		},
		{
			name: "forbidden without csrf",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			check: func(t *testing.T, err error) {
				var se *ServerError
				if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
					t.Fatalf("expected 403 ServerError, got %v", err)
				}
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"solutions": [`)
			},
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ParseError, got %T: %v", err, err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			resp, err := New(srv.URL, StaticToken("x")).Solve(t.Context(), sampleQuestions())
			if resp != nil {
				t.Errorf("expected nil response, got %+v", resp)
			}
			tt.check(t, err)
		})
	}
}

func TestClient_Solve_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := New(endpoint, nil).Solve(t.Context(), sampleQuestions())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
}

func TestClient_Solve_Cancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(srv.URL, nil).Solve(ctx, sampleQuestions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClient_Solve_NoEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := New("", nil).Solve(t.Context(), nil); !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestClient_Solve_TokenSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("tab closed")
	c := New("http://127.0.0.1:1/", TokenFunc(func(context.Context) (string, error) { return "", boom }))
	if _, err := c.Solve(t.Context(), nil); !errors.Is(err, boom) {
		t.Errorf("expected token error, got %v", err)
	}
}

func TestCookieSources(t *testing.T) {
	t.Parallel()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	site, _ := url.Parse("https://quiz.example.edu/test/")
	jar.SetCookies(site, []*http.Cookie{{Name: "sessionid", Value: "s"}, {Name: "csrftoken", Value: "fromjar"}})

	tests := []struct {
		name   string
		source CookieSource
		want   string
	}{
		{name: "static", source: StaticToken("abc"), want: "abc"},
		{name: "jar hit", source: JarToken{Jar: jar, URL: site, Name: "csrftoken"}, want: "fromjar"},
		{name: "jar miss", source: JarToken{Jar: jar, URL: site, Name: "other"}, want: ""},
		{name: "nil jar", source: JarToken{}, want: ""},
		{name: "first non-empty", source: FirstToken{StaticToken(""), JarToken{Jar: jar, URL: site, Name: "csrftoken"}, StaticToken("late")}, want: "fromjar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.source.CSRFToken(t.Context())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CSRFToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServerError_Message(t *testing.T) {
	t.Parallel()

	err := &ServerError{StatusCode: 502}
	if err.Error() != "Server error: 502" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
