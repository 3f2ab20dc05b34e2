package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hn-distill/internal/domain"
	"hn-distill/internal/infra/metrics"
)

// Postgres реализует журнал анализов на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.HistoryRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицу журнала, если её ещё нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS analyses (
    id BIGSERIAL PRIMARY KEY,
    thread_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    result JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`)
	if err != nil {
		return fmt.Errorf("создание схемы журнала: %w", err)
	}
	return nil
}

// SaveAnalysis добавляет завершённый анализ в журнал.
func (p *Postgres) SaveAnalysis(ctx context.Context, record domain.AnalysisRecord) (int64, error) {
	payload, err := json.Marshal(record.Result)
	if err != nil {
		return 0, fmt.Errorf("marshal результата: %w", err)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	var id int64
	err = p.pool.QueryRow(ctx, `
INSERT INTO analyses (thread_id, title, result, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id
`, record.ThreadID, record.Title, payload, record.CreatedAt).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "analyses_insert", "analyses", start, err)
	if err != nil {
		return 0, fmt.Errorf("сохранение анализа: %w", err)
	}
	return id, nil
}

// ListRecent возвращает последние записи журнала, новые первыми.
func (p *Postgres) ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, thread_id, title, result, created_at
FROM analyses
ORDER BY created_at DESC, id DESC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "analyses_select", "analyses", start, err)
	if err != nil {
		return nil, fmt.Errorf("чтение журнала: %w", err)
	}
	defer rows.Close()

	var records []domain.AnalysisRecord
	for rows.Next() {
		var rec domain.AnalysisRecord
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.ThreadID, &rec.Title, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("чтение строки журнала: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Result); err != nil {
			return nil, fmt.Errorf("распаковка результата: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("обход журнала: %w", err)
	}
	return records, nil
}
