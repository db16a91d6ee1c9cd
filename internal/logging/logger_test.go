package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TRACE, ParseLevel("trace"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, INFO, ParseLevel("непонятно"), "Неизвестный уровень должен давать INFO")
}

func TestLoggerManager_ReusesComponentLogger(t *testing.T) {
	SetLogDir("")
	lm := NewLoggerManager(WithComponentLevel(ComponentScheduler, WARN))

	first := lm.For(ComponentScheduler)
	second := lm.For(ComponentScheduler)
	assert.Same(t, first, second, "Повторный запрос должен вернуть тот же логгер")
	assert.Equal(t, WARN, first.ConsoleLevel())
	assert.Equal(t, []Component{ComponentScheduler}, lm.Components())

	// уровни из конфига действуют и на уже выданные логгеры
	lm.Configure(ComponentLevels(map[string]string{" Scheduler ": "error", "map": "debug", "": "trace"})...)
	assert.Equal(t, ERROR, first.ConsoleLevel())
	assert.Equal(t, DEBUG, lm.For(ComponentMap).ConsoleLevel())
	_, ok := lm.Level(Component(""))
	assert.False(t, ok)

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.Components())
}

func TestLogger_FileOutput(t *testing.T) {
	SetLogDir(t.TempDir())
	defer SetLogDir("")

	l, err := NewLogger("filetest")
	require.NoError(t, err)
	require.NotNil(t, l.file, "При заданной директории должен создаваться файл")

	l.Info("hello %d", 1)
	require.NoError(t, l.Close())
	assert.Nil(t, l.file)
}

func TestDiscardLogger_DoesNotPanic(t *testing.T) {
	l := NewDiscardLogger()
	l.Error("ошибка %v", "игнорируется")

	var nilLogger *Logger
	nilLogger.Info("nil-логгер безопасен")
}
