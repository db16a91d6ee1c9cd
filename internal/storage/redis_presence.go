package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/worldsim/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни множества без обновлений
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "worldsim:",
		TTL:       10 * time.Minute,
	}
}

// RedisPresence хранит имена игроков онлайн в множестве Redis.
// Ключ продлевается при каждом изменении, так что упавший сервер не оставляет вечный список.
type RedisPresence struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisPresence подключается к Redis и проверяет соединение
func NewRedisPresence(config *RedisConfig) (*RedisPresence, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetStorageLogger().Info("🔴 Connected to Redis at %s", config.Addr)
	return NewRedisPresenceWithClient(client, config.KeyPrefix, config.TTL), nil
}

// NewRedisPresenceWithClient использует готовый клиент
func NewRedisPresenceWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisPresence {
	return &RedisPresence{client: client, key: keyPrefix + "online", ttl: ttl}
}

// SetOnline добавляет игрока в множество
func (p *RedisPresence) SetOnline(ctx context.Context, name string) error {
	pipe := p.client.TxPipeline()
	pipe.SAdd(ctx, p.key, NormalizeName(name))
	if p.ttl > 0 {
		pipe.Expire(ctx, p.key, p.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark %s online: %w", name, err)
	}
	return nil
}

// SetOffline убирает игрока из множества
func (p *RedisPresence) SetOffline(ctx context.Context, name string) error {
	if err := p.client.SRem(ctx, p.key, NormalizeName(name)).Err(); err != nil {
		return fmt.Errorf("failed to mark %s offline: %w", name, err)
	}
	return nil
}

// Count возвращает число игроков онлайн
func (p *RedisPresence) Count(ctx context.Context) (int64, error) {
	n, err := p.client.SCard(ctx, p.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count online players: %w", err)
	}
	return n, nil
}

// Close закрывает соединение с Redis
func (p *RedisPresence) Close() error {
	return p.client.Close()
}
