package settings

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"hn-distill/internal/domain"
)

const (
	settingsKey = "hn:settings"

	fieldAPIKey          = "api_key"
	fieldLanguage        = "language"
	fieldPersonalContext = "personal_context"
)

// DefaultLanguage язык анализа по умолчанию.
const DefaultLanguage = "en"

// RedisStore реализует domain.SettingsRepo через Redis hash.
type RedisStore struct {
	client *redis.Client
}

var _ domain.SettingsRepo = (*RedisStore)(nil)

// NewRedis создаёт хранилище настроек.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load возвращает настройки; отсутствующие поля заменяются значениями
// по умолчанию.
func (s *RedisStore) Load(ctx context.Context) (domain.Settings, error) {
	values, err := s.client.HGetAll(ctx, settingsKey).Result()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("чтение настроек: %w", err)
	}
	settings := domain.Settings{
		APIKey:          values[fieldAPIKey],
		Language:        values[fieldLanguage],
		PersonalContext: values[fieldPersonalContext],
	}
	if settings.Language == "" {
		settings.Language = DefaultLanguage
	}
	return settings, nil
}

// Save сохраняет настройки целиком.
func (s *RedisStore) Save(ctx context.Context, settings domain.Settings) error {
	err := s.client.HSet(ctx, settingsKey,
		fieldAPIKey, settings.APIKey,
		fieldLanguage, settings.Language,
		fieldPersonalContext, settings.PersonalContext,
	).Err()
	if err != nil {
		return fmt.Errorf("сохранение настроек: %w", err)
	}
	return nil
}
