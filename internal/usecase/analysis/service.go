package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hn-distill/internal/domain"
	"hn-distill/internal/infra/metrics"
)

// ErrNotAnalyzed возвращается при экспорте треда без готового результата.
var ErrNotAnalyzed = fmt.Errorf("анализ треда ещё не завершён")

// ClientFactory выбирает LLM-клиента по ключу на каждый вызов.
type ClientFactory func(apiKey string) (domain.LLMClient, error)

// Service это оркестратор анализа тредов. Владеет активным тредом и
// кэшем записей по идентификатору; кэш живёт только в памяти сессии.
type Service struct {
	source   domain.ThreadSource
	settings domain.SettingsRepo
	clients  ClientFactory
	notifier domain.Notifier
	history  domain.HistoryRepo
	log      zerolog.Logger

	mu          sync.Mutex
	cache       map[string]*domain.ThreadEntry
	activeID    string
	activeTitle string
}

// NewService создаёт оркестратор. history может быть nil — журнал
// анализов тогда отключён.
func NewService(source domain.ThreadSource, settings domain.SettingsRepo, clients ClientFactory, notifier domain.Notifier, history domain.HistoryRepo, logger zerolog.Logger) *Service {
	return &Service{
		source:   source,
		settings: settings,
		clients:  clients,
		notifier: notifier,
		history:  history,
		log:      logger.With().Str("session_id", uuid.NewString()).Logger(),
		cache:    make(map[string]*domain.ThreadEntry),
	}
}

// SetActiveThread переключает активный тред панели. Пустой идентификатор
// означает "нет активного треда".
func (s *Service) SetActiveThread(threadID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = threadID
	s.activeTitle = title
}

// ActiveThread возвращает идентификатор и заголовок активного треда.
func (s *Service) ActiveThread() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeTitle
}

// Snapshot возвращает копию записи кэша треда.
func (s *Service) Snapshot(threadID string) (domain.ThreadEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[threadID]
	if !ok {
		return domain.ThreadEntry{}, false
	}
	return *entry, true
}

// HandleOpen реализует авто-запуск при открытии панели: уже известный
// тред не анализируется повторно, без ключа запрашиваются настройки.
func (s *Service) HandleOpen(ctx context.Context) error {
	threadID, _ := s.ActiveThread()
	if threadID == "" {
		s.log.Debug().Msg("открытие панели без активного треда")
		return nil
	}
	if _, ok := s.Snapshot(threadID); ok {
		s.log.Debug().Str("thread_id", threadID).Msg("тред уже в кэше, пропускаем авто-анализ")
		return nil
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("чтение настроек: %w", err)
	}
	if cfg.APIKey == "" {
		s.notifier.ConfigurationRequired()
		return domain.ErrAPIKeyRequired
	}
	return s.Analyze(ctx)
}

// Analyze прогоняет полный конвейер для активного треда. Идентификатор
// фиксируется в начале: все записи кэша и события целятся в него, даже
// если пользователь успел переключить тред.
func (s *Service) Analyze(ctx context.Context) error {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("чтение настроек: %w", err)
	}
	if cfg.APIKey == "" {
		s.notifier.ConfigurationRequired()
		return domain.ErrAPIKeyRequired
	}

	threadID, _ := s.ActiveThread()
	if threadID == "" {
		return domain.ErrNoActiveThread
	}

	metrics.AnalysisRequestsTotal.Inc()
	start := time.Now()

	// Запись кэша #1: тред виден как analyzing до любых сетевых вызовов.
	s.setAnalyzing(threadID)
	if s.isActive(threadID) {
		s.notifier.AnalysisStarted(threadID)
	}

	raw, err := s.source.Fetch(ctx, threadID)
	if err != nil {
		return s.fail(threadID, "fetch", err)
	}

	thread := NormalizeThread(threadID, raw)
	// Запись кэша #2: заголовок доступен читателям ещё до результата.
	s.storeThread(threadID, thread)

	prompt := BuildPrompt(thread, cfg)

	client, err := s.clients(cfg.APIKey)
	if err != nil {
		return s.fail(threadID, "provider", err)
	}
	rawResponse, err := client.Call(ctx, prompt, domain.LLMOptions{ExpectJSON: true})
	if err != nil {
		return s.fail(threadID, "provider", err)
	}

	result, err := ParseResponse(rawResponse)
	if err != nil {
		return s.fail(threadID, "parse", err)
	}

	// Запись кэша #3: completed, прошлая ошибка стирается.
	s.complete(threadID, thread, result)
	metrics.AnalysisBuildSeconds.Observe(time.Since(start).Seconds())

	if s.history != nil {
		if _, err := s.history.SaveAnalysis(ctx, domain.AnalysisRecord{
			ThreadID: threadID,
			Title:    thread.Title,
			Result:   result,
		}); err != nil {
			s.log.Error().Err(err).Str("thread_id", threadID).Msg("не удалось сохранить анализ в журнал")
		}
	}

	if s.isActive(threadID) {
		s.notifier.AnalysisCompleted(threadID, result)
	} else {
		metrics.AnalysisStaleTotal.Inc()
		s.log.Info().Str("thread_id", threadID).Msg("анализ завершён после ухода с треда")
	}
	return nil
}

// Markdown возвращает markdown-экспорт завершённого анализа.
func (s *Service) Markdown(threadID string) (string, error) {
	entry, ok := s.Snapshot(threadID)
	if !ok || entry.State != domain.StateCompleted || entry.Thread == nil || entry.Result == nil {
		return "", ErrNotAnalyzed
	}
	return FormatMarkdown(*entry.Thread, *entry.Result), nil
}

// fail переводит тред в состояние error, сохраняя уже нормализованный
// тред, и сообщает панели, если тред всё ещё активен. Ошибки конвейера
// не покидают оркестратор фатально: анализ одного треда изолирован.
func (s *Service) fail(threadID, stage string, cause error) error {
	metrics.IncAnalysisError(stage)
	s.storeError(threadID, cause.Error())
	s.log.Error().Err(cause).Str("thread_id", threadID).Str("stage", stage).Msg("анализ треда завершился ошибкой")

	if s.isActive(threadID) {
		s.notifier.AnalysisFailed(threadID, cause.Error())
	} else {
		metrics.AnalysisStaleTotal.Inc()
	}
	return fmt.Errorf("анализ треда %s: %w", threadID, cause)
}

func (s *Service) isActive(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID == threadID
}

func (s *Service) setAnalyzing(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[threadID]
	if !ok {
		entry = &domain.ThreadEntry{}
		s.cache[threadID] = entry
	}
	entry.State = domain.StateAnalyzing
	entry.Result = nil
	entry.Error = ""
}

func (s *Service) storeThread(threadID string, thread domain.NormalizedThread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[threadID]
	if !ok {
		entry = &domain.ThreadEntry{State: domain.StateAnalyzing}
		s.cache[threadID] = entry
	}
	entry.Thread = &thread
}

func (s *Service) complete(threadID string, thread domain.NormalizedThread, result domain.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[threadID] = &domain.ThreadEntry{
		State:  domain.StateCompleted,
		Thread: &thread,
		Result: &result,
	}
}

func (s *Service) storeError(threadID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[threadID]
	if !ok {
		entry = &domain.ThreadEntry{}
		s.cache[threadID] = entry
	}
	entry.State = domain.StateError
	entry.Error = message
	entry.Result = nil
}
