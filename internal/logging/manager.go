package logging

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Component — подсистема, под именем которой пишет логгер
type Component string

const (
	ComponentGame      Component = "game"
	ComponentScheduler Component = "scheduler"
	ComponentMap       Component = "map"
	ComponentStorage   Component = "storage"
	ComponentEventBus  Component = "eventbus"
	ComponentAPI       Component = "api"
)

// LoggerManager выдаёт логгеры подсистем и помнит уровни консоли для каждой
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[Component]*Logger
	levels  map[Component]LogLevel
}

// ManagerOption настраивает менеджер
type ManagerOption func(*LoggerManager)

// WithComponentLevel задаёт минимальный уровень консоли подсистемы
func WithComponentLevel(c Component, level LogLevel) ManagerOption {
	return func(lm *LoggerManager) { lm.levels[c] = level }
}

// ComponentLevels переводит раздел logging.components конфига в опции менеджера
func ComponentLevels(levels map[string]string) []ManagerOption {
	opts := make([]ManagerOption, 0, len(levels))
	for name, level := range levels {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		opts = append(opts, WithComponentLevel(Component(name), ParseLevel(level)))
	}
	return opts
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// NewLoggerManager создаёт менеджер с пустым набором логгеров
func NewLoggerManager(opts ...ManagerOption) *LoggerManager {
	lm := &LoggerManager{
		loggers: make(map[Component]*Logger),
		levels:  make(map[Component]LogLevel),
	}
	for _, opt := range opts {
		opt(lm)
	}
	return lm
}

// GetLoggerManager возвращает менеджер процесса
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager()
	})
	return globalManager
}

// Configure применяет опции. Уровни сразу действуют и на уже выданные логгеры.
func (lm *LoggerManager) Configure(opts ...ManagerOption) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	for _, opt := range opts {
		opt(lm)
	}
	for c, logger := range lm.loggers {
		if level, ok := lm.levels[c]; ok {
			logger.setConsoleLevel(level)
		}
	}
}

// GetLogger возвращает логгер подсистемы, создавая его при первом запросе
func (lm *LoggerManager) GetLogger(c Component) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[c]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[c]; ok {
		return logger, nil
	}

	logger, err := NewLogger(string(c))
	if err != nil {
		return nil, fmt.Errorf("logger for %s: %w", c, err)
	}
	if level, ok := lm.levels[c]; ok {
		logger.setConsoleLevel(level)
	}
	lm.loggers[c] = logger
	return logger, nil
}

// For возвращает логгер подсистемы. Если файл открыть не удалось, пишет только в консоль.
func (lm *LoggerManager) For(c Component) *Logger {
	logger, err := lm.GetLogger(c)
	if err == nil {
		return logger
	}
	defaultLogger.Warn("⚠️ %v, пишем только в консоль", err)

	level := defaultLogger.minConsoleLevel
	lm.mu.RLock()
	if l, ok := lm.levels[c]; ok {
		level = l
	}
	lm.mu.RUnlock()
	return &Logger{
		component:       string(c),
		consoleLogger:   defaultLogger.consoleLogger,
		minConsoleLevel: level,
		minFileLevel:    ERROR + 1,
	}
}

// Level — уровень консоли подсистемы; ok=false, если он не задавался
func (lm *LoggerManager) Level(c Component) (LogLevel, bool) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	level, ok := lm.levels[c]
	return level, ok
}

// Components — подсистемы, для которых уже выданы логгеры
func (lm *LoggerManager) Components() []Component {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	out := make([]Component, 0, len(lm.loggers))
	for c := range lm.loggers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for c, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c, err))
		}
	}
	lm.loggers = make(map[Component]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger — логгер подсистемы из менеджера процесса
func GetComponentLogger(c Component) *Logger {
	return GetLoggerManager().For(c)
}

func GetSchedulerLogger() *Logger { return GetComponentLogger(ComponentScheduler) }
func GetGameLogger() *Logger      { return GetComponentLogger(ComponentGame) }
func GetMapLogger() *Logger       { return GetComponentLogger(ComponentMap) }
func GetStorageLogger() *Logger   { return GetComponentLogger(ComponentStorage) }
func GetEventBusLogger() *Logger  { return GetComponentLogger(ComponentEventBus) }
func GetAPILogger() *Logger       { return GetComponentLogger(ComponentAPI) }
