package panel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"hn-distill/internal/domain"
	"hn-distill/internal/usecase/analysis"
)

// Handler обслуживает HTTP-команды панели: сигнал об открытии,
// явный повтор анализа, чтение состояния и настроек.
type Handler struct {
	svc          *analysis.Service
	settings     domain.SettingsRepo
	history      domain.HistoryRepo
	hub          *Hub
	log          zerolog.Logger
	historyLimit int
}

// NewHandler создаёт обработчик панели. history может быть nil.
func NewHandler(svc *analysis.Service, settings domain.SettingsRepo, history domain.HistoryRepo, hub *Hub, logger zerolog.Logger, historyLimit int) *Handler {
	return &Handler{
		svc:          svc,
		settings:     settings,
		history:      history,
		hub:          hub,
		log:          logger,
		historyLimit: historyLimit,
	}
}

// Register вешает маршруты панели на роутер.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/v1/panel/open", h.handleOpen)
	r.Post("/api/v1/panel/analyze", h.handleAnalyze)
	r.Get("/api/v1/threads/{threadID}", h.handleThread)
	r.Get("/api/v1/threads/{threadID}/markdown", h.handleMarkdown)
	r.Get("/api/v1/settings", h.handleGetSettings)
	r.Put("/api/v1/settings", h.handlePutSettings)
	r.Get("/api/v1/history", h.handleHistory)
	r.Get("/api/v1/events", h.hub.ServeHTTP)
}

type openRequest struct {
	ThreadID string `json:"thread_id"`
	Title    string `json:"title"`
}

// handleOpen принимает сигнал активного треда и запускает авто-анализ.
// Ответ отдаётся сразу: результат придёт по потоку событий.
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	h.svc.SetActiveThread(strings.TrimSpace(req.ThreadID), strings.TrimSpace(req.Title))

	// Анализ переживает HTTP-запрос: фоновый вызов не наследует
	// контекст запроса и дорабатывает до конца даже после ухода с треда.
	go func() {
		if err := h.svc.HandleOpen(context.Background()); err != nil && !errors.Is(err, domain.ErrAPIKeyRequired) {
			h.log.Error().Err(err).Msg("авто-анализ при открытии панели не удался")
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleAnalyze это явный повтор: единственный способ переанализировать
// уже завершённый или упавший тред.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	go func() {
		err := h.svc.Analyze(context.Background())
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrAPIKeyRequired), errors.Is(err, domain.ErrNoActiveThread):
			h.log.Debug().Err(err).Msg("анализ не запущен")
		default:
			h.log.Error().Err(err).Msg("анализ завершился ошибкой")
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type threadResponse struct {
	ThreadID string                   `json:"thread_id"`
	State    domain.ThreadState       `json:"state"`
	Title    string                   `json:"title,omitempty"`
	Thread   *domain.NormalizedThread `json:"thread,omitempty"`
	Result   *domain.AnalysisResult   `json:"result,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// handleThread отдаёт запись кэша, чтобы переоткрытая панель могла
// восстановить состояние без повторного анализа.
func (h *Handler) handleThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	entry, ok := h.svc.Snapshot(threadID)
	if !ok {
		writeError(w, http.StatusNotFound, "тред ещё не анализировался")
		return
	}
	resp := threadResponse{
		ThreadID: threadID,
		State:    entry.State,
		Thread:   entry.Thread,
		Result:   entry.Result,
		Error:    entry.Error,
	}
	if entry.Thread != nil {
		resp.Title = entry.Thread.Title
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	markdown, err := h.svc.Markdown(threadID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markdown))
}

type settingsResponse struct {
	Configured      bool   `json:"configured"`
	Language        string `json:"language"`
	PersonalContext string `json:"personal_context"`
}

// handleGetSettings отдаёт настройки. Сам ключ провайдера наружу не
// возвращается, только флаг наличия.
func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.Load(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось прочитать настройки")
		writeError(w, http.StatusInternalServerError, "не удалось прочитать настройки")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Configured:      cfg.APIKey != "",
		Language:        cfg.Language,
		PersonalContext: cfg.PersonalContext,
	})
}

type settingsRequest struct {
	APIKey          string `json:"api_key"`
	Language        string `json:"language"`
	PersonalContext string `json:"personal_context"`
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}
	current, err := h.settings.Load(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось прочитать настройки")
		writeError(w, http.StatusInternalServerError, "не удалось прочитать настройки")
		return
	}
	next := domain.Settings{
		APIKey:          strings.TrimSpace(req.APIKey),
		Language:        strings.TrimSpace(req.Language),
		PersonalContext: strings.TrimSpace(req.PersonalContext),
	}
	// Пустой ключ в запросе означает "оставить прежний".
	if next.APIKey == "" {
		next.APIKey = current.APIKey
	}
	if err := h.settings.Save(r.Context(), next); err != nil {
		h.log.Error().Err(err).Msg("не удалось сохранить настройки")
		writeError(w, http.StatusInternalServerError, "не удалось сохранить настройки")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Configured:      next.APIKey != "",
		Language:        next.Language,
		PersonalContext: next.PersonalContext,
	})
}

type historyItem struct {
	ID        int64                 `json:"id"`
	ThreadID  string                `json:"thread_id"`
	Title     string                `json:"title"`
	Result    domain.AnalysisResult `json:"result"`
	CreatedAt time.Time             `json:"created_at"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"history": []historyItem{}})
		return
	}
	records, err := h.history.ListRecent(r.Context(), h.historyLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось прочитать журнал анализов")
		writeError(w, http.StatusInternalServerError, "не удалось прочитать журнал")
		return
	}
	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem{
			ID:        rec.ID,
			ThreadID:  rec.ThreadID,
			Title:     rec.Title,
			Result:    rec.Result,
			CreatedAt: rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": items})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
