package domain

import "context"

// ThreadSource выгружает дерево комментариев треда.
type ThreadSource interface {
	Fetch(ctx context.Context, threadID string) (RawThread, error)
}

// LLMOptions управляют одним вызовом провайдера.
type LLMOptions struct {
	// ExpectJSON просит провайдера вернуть голый JSON-объект.
	ExpectJSON bool
	// MaxTokens ограничивает генерацию; 0 означает значение по умолчанию.
	MaxTokens int
}

// LLMClient это один провайдер LLM: ровно один сетевой вызов,
// без ретраев и стриминга.
type LLMClient interface {
	Call(ctx context.Context, prompt string, opts LLMOptions) (string, error)
}

// SettingsRepo читает и сохраняет настройки панели.
// Отсутствующие поля означают значения по умолчанию.
type SettingsRepo interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}

// HistoryRepo ведёт журнал завершённых анализов.
type HistoryRepo interface {
	SaveAnalysis(ctx context.Context, record AnalysisRecord) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]AnalysisRecord, error)
}

// Notifier доставляет события анализа в панель. Вызывается оркестратором
// только когда тред всё ещё активен на момент события.
type Notifier interface {
	AnalysisStarted(threadID string)
	AnalysisCompleted(threadID string, result AnalysisResult)
	AnalysisFailed(threadID string, message string)
	ConfigurationRequired()
}
