package panel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"hn-distill/internal/domain"
)

// Hub раздаёт события анализа подписчикам панели через server-sent
// events и реализует domain.Notifier для оркестратора.
type Hub struct {
	log  zerolog.Logger
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

var _ domain.Notifier = (*Hub)(nil)

// NewHub создаёт хаб событий.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		log:  logger,
		subs: make(map[chan []byte]struct{}),
	}
}

type panelEvent struct {
	Event    string                 `json:"event"`
	ThreadID string                 `json:"thread_id,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Result   *domain.AnalysisResult `json:"result,omitempty"`
}

// AnalysisStarted сообщает панели, что тред анализируется.
func (h *Hub) AnalysisStarted(threadID string) {
	h.publish(panelEvent{Event: "analysis_started", ThreadID: threadID})
}

// AnalysisCompleted доставляет готовый результат.
func (h *Hub) AnalysisCompleted(threadID string, result domain.AnalysisResult) {
	h.publish(panelEvent{Event: "analysis_completed", ThreadID: threadID, Result: &result})
}

// AnalysisFailed доставляет сообщение об ошибке анализа.
func (h *Hub) AnalysisFailed(threadID string, message string) {
	h.publish(panelEvent{Event: "analysis_failed", ThreadID: threadID, Message: message})
}

// ConfigurationRequired просит панель открыть настройки.
func (h *Hub) ConfigurationRequired() {
	h.publish(panelEvent{Event: "configuration_required"})
}

func (h *Hub) publish(event panelEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("event", event.Event).Msg("не удалось сериализовать событие")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		// Медленный подписчик не должен блокировать оркестратор:
		// при переполненном буфере событие для него теряется.
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *Hub) subscribe() (chan []byte, func()) {
	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// ServeHTTP отдаёт поток событий панели как text/event-stream.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ch, cancel := h.subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
