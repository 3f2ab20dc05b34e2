package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"hn-distill/internal/domain"
	"hn-distill/internal/usecase/analysis"
)

type memSettings struct {
	settings domain.Settings
}

func (s *memSettings) Load(context.Context) (domain.Settings, error) { return s.settings, nil }
func (s *memSettings) Save(_ context.Context, settings domain.Settings) error {
	s.settings = settings
	return nil
}

type stubSource struct{}

func (stubSource) Fetch(context.Context, string) (domain.RawThread, error) {
	return domain.RawThread{
		ID:    "1",
		Title: "T",
		Children: []*domain.RawComment{
			{ID: 2, Author: "x", Text: strings.Repeat("a", 50)},
		},
	}, nil
}

type stubClient struct{}

func (stubClient) Call(context.Context, string, domain.LLMOptions) (string, error) {
	return `{"global_summary":{"key_learnings":["k"]},"themes":[]}`, nil
}

func newTestRouter(t *testing.T, settings *memSettings) (chi.Router, *analysis.Service) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	svc := analysis.NewService(stubSource{}, settings, func(string) (domain.LLMClient, error) {
		return stubClient{}, nil
	}, hub, nil, zerolog.Nop())
	handler := NewHandler(svc, settings, nil, hub, zerolog.Nop(), 10)
	r := chi.NewRouter()
	handler.Register(r)
	return r, svc
}

func TestThreadNotFound(t *testing.T) {
	r, _ := newTestRouter(t, &memSettings{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/threads/999", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", rec.Code)
	}
}

func TestThreadStateRestore(t *testing.T) {
	settings := &memSettings{settings: domain.Settings{APIKey: "sk-test"}}
	r, svc := newTestRouter(t, settings)
	svc.SetActiveThread("1", "T")
	if err := svc.Analyze(context.Background()); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/threads/1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var resp struct {
		State  domain.ThreadState     `json:"state"`
		Title  string                 `json:"title"`
		Result *domain.AnalysisResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("не удалось декодировать ответ: %v", err)
	}
	if resp.State != domain.StateCompleted || resp.Title != "T" || resp.Result == nil {
		t.Fatalf("ожидали завершённое состояние с результатом, получили %+v", resp)
	}
}

func TestSettingsNeverEchoKey(t *testing.T) {
	r, _ := newTestRouter(t, &memSettings{})

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"api_key":"sk-secret","language":"fr","personal_context":"dev"}`)
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/settings", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sk-secret") {
		t.Fatalf("ключ не должен возвращаться в ответе: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
	var resp struct {
		Configured      bool   `json:"configured"`
		Language        string `json:"language"`
		PersonalContext string `json:"personal_context"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("не удалось декодировать ответ: %v", err)
	}
	if !resp.Configured || resp.Language != "fr" || resp.PersonalContext != "dev" {
		t.Fatalf("неожиданные настройки: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "sk-secret") {
		t.Fatalf("ключ не должен возвращаться в ответе: %s", rec.Body.String())
	}
}

func TestSettingsEmptyKeyKeepsCurrent(t *testing.T) {
	settings := &memSettings{settings: domain.Settings{APIKey: "sk-old", Language: "en"}}
	r, _ := newTestRouter(t, settings)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"api_key":"","language":"de"}`)
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/settings", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	if settings.settings.APIKey != "sk-old" {
		t.Fatalf("пустой ключ должен сохранять прежний, получили %q", settings.settings.APIKey)
	}
	if settings.settings.Language != "de" {
		t.Fatalf("ожидали обновлённый язык, получили %q", settings.settings.Language)
	}
}

func TestMarkdownNotReady(t *testing.T) {
	r, _ := newTestRouter(t, &memSettings{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/threads/1/markdown", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("ожидали 404, получили %d", rec.Code)
	}
}

func TestHubDeliversEvents(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ch, cancel := hub.subscribe()
	defer cancel()

	hub.AnalysisFailed("1", "boom")

	select {
	case payload := <-ch:
		var event panelEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("не удалось декодировать событие: %v", err)
		}
		if event.Event != "analysis_failed" || event.ThreadID != "1" || event.Message != "boom" {
			t.Fatalf("неожиданное событие: %+v", event)
		}
	default:
		t.Fatalf("ожидали событие в канале подписчика")
	}
}
