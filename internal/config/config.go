package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Game      GameConfig      `yaml:"game"`
	World     WorldConfig     `yaml:"world"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Admin     AdminConfig     `yaml:"admin"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Name      string `yaml:"name"`
	AdminPort int    `yaml:"admin_port"`
}

// GetAdminPort возвращает порт административного API с поддержкой fallback значений
func (s *ServerConfig) GetAdminPort() int {
	return getPortWithEnvFallback(s.AdminPort, "WORLDSIM_ADMIN_PORT", 8088)
}

type GameConfig struct {
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	AutoSaveInterval time.Duration `yaml:"autosave_interval"`
	DayLength        time.Duration `yaml:"day_length"`
	StartX           int           `yaml:"start_x"`
	StartY           int           `yaml:"start_y"`
	StartZ           int8          `yaml:"start_z"`
}

type WorldConfig struct {
	Seed       int64  `yaml:"seed"`
	WindowSize int    `yaml:"window_size"`
	Catalog    string `yaml:"catalog"`   // пусто — встроенный каталог
	MapStore   string `yaml:"map_store"` // каталог Badger; пусто — только процедурная генерация
}

type StorageConfig struct {
	Driver        string `yaml:"driver"` // memory | mariadb
	MariaDSN      string `yaml:"mariadb_dsn"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
}

// GetMariaDSN возвращает DSN MariaDB: config -> env
func (s *StorageConfig) GetMariaDSN() string {
	return getStringWithEnvFallback(s.MariaDSN, "WORLDSIM_MARIADB_DSN", "")
}

// GetMongoURI возвращает адрес MongoDB для типов монстров; пусто — типы из каталога
func (s *StorageConfig) GetMongoURI() string {
	return getStringWithEnvFallback(s.MongoURI, "WORLDSIM_MONGO_URI", "")
}

// GetRedisAddr возвращает адрес Redis для присутствия игроков; пусто — присутствие не ведётся
func (s *StorageConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(s.RedisAddr, "WORLDSIM_REDIS_ADDR", "")
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто — шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// GetURL возвращает адрес NATS: config -> env
func (e *EventBusConfig) GetURL() string {
	return getStringWithEnvFallback(e.URL, "WORLDSIM_NATS_URL", "")
}

type AdminConfig struct {
	Secret    string           `yaml:"jwt_secret"` // base64, не короче 32 байт
	TokenTTL  time.Duration    `yaml:"token_ttl"`
	Operators []OperatorConfig `yaml:"operators"`
}

// GetSecret возвращает ключ подписи токенов: config -> env
func (a *AdminConfig) GetSecret() string {
	return getStringWithEnvFallback(a.Secret, "WORLDSIM_JWT_SECRET", "")
}

type OperatorConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Admin        bool   `yaml:"admin"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	// Components — уровни консоли по подсистемам: game, scheduler, map, storage, eventbus, api
	Components map[string]string `yaml:"components"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию для локального запуска без внешних сервисов
func Default() *Config {
	return &Config{
		Server: ServerConfig{Name: "worldsim"},
		Game: GameConfig{
			IdleTimeout:      15 * time.Minute,
			AutoSaveInterval: 5 * time.Minute,
			DayLength:        time.Hour,
			StartX:           1000,
			StartY:           1000,
			StartZ:           7,
		},
		World: WorldConfig{
			Seed:       1,
			WindowSize: 32,
		},
		Storage:   StorageConfig{Driver: "memory", MongoDatabase: "worldsim"},
		EventBus:  EventBusConfig{Stream: "WORLDSIM", Retention: 24},
		Admin:     AdminConfig{TokenTTL: 12 * time.Hour},
		Logging:   LoggingConfig{Level: "info", Dir: "logs"},
		Telemetry: TelemetryConfig{ServiceName: "worldsim"},
	}
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// Load читает YAML файл поверх значений по умолчанию.
// Если path == "", берётся WORLDSIM_CONFIG; без него возвращаются значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("WORLDSIM_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	return cfg, nil
}
