package utils

// logger.go - настройка логирования
//
// Назначение:
// Инициализация и настройка структурированного логирования через zap.
//
// Функции:
// - InitLogger: создать и настроить logger
//   * Выбор формата (JSON, text)
//   * Уровни: DEBUG, INFO, WARN, ERROR
// - InitGlobalLogger / GetGlobalLogger / SetGlobalLogger / L: глобальный
//   логгер процесса, используемый там, где протаскивать *Logger неудобно
//   (например, в internal/api/middleware)
// - WithComponent / WithExchange: дочерние логгеры с привязанным полем,
//   используются в internal/api/middleware/auth.go и cmd/detector/main.go

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig настраивает создаваемый логгер.
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json (по умолчанию) или text
	Development bool   // добавляет стек вызовов и читаемые caller'ы
	Output      string // путь к файлу; пусто или недоступно -> stderr
}

// Logger оборачивает *zap.Logger и готовый SugaredLogger.
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// InitLogger строит Logger по конфигурации. Невалидные или отсутствующие
// значения заменяются разумными значениями по умолчанию; InitLogger никогда
// не возвращает nil и не паникует на плохом вводе.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "text" {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink := zapcore.AddSync(os.Stderr)
	if cfg.Output != "" {
		if f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	var opts []zap.Option
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// parseLevel конвертирует строковый уровень в zapcore.Level; неизвестные или
// пустые значения сворачиваются в InfoLevel.
func parseLevel(level string) zapcore.Level {
	switch normalizeLevel(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func normalizeLevel(level string) string {
	out := make([]byte, len(level))
	for i := 0; i < len(level); i++ {
		c := level[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// With возвращает дочерний Logger с добавленными полями.
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.Logger.With(fields...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// WithComponent помечает записи именем компонента (populator, enumerator,
// api, ...).
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithExchange помечает записи именем биржи.
func (l *Logger) WithExchange(name string) *Logger {
	return l.With(Exchange(name))
}

// Sugar возвращает встроенный SugaredLogger для форматированного логирования.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// ============================================================
// Конструкторы полей
// ============================================================

func Exchange(name string) zap.Field { return zap.String("exchange", name) }
func Component(name string) zap.Field { return zap.String("component", name) }
func Latency(ms float64) zap.Field   { return zap.Float64("latency_ms", ms) }

// Переэкспортированные конструкторы стандартных полей zap, чтобы вызывающий
// код не импортировал zap напрямую ради элементарных типов.
func String(key, value string) zap.Field          { return zap.String(key, value) }
func Int(key string, value int) zap.Field         { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field     { return zap.Int64(key, value) }
func Bool(key string, value bool) zap.Field       { return zap.Bool(key, value) }
func Err(err error) zap.Field                     { return zap.Error(err) }
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }

// ============================================================
// Глобальный логгер
// ============================================================

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// InitGlobalLogger создаёт логгер по конфигурации и устанавливает его как
// глобальный.
func InitGlobalLogger(cfg LogConfig) *Logger {
	logger := InitLogger(cfg)
	SetGlobalLogger(logger)
	return logger
}

// GetGlobalLogger возвращает текущий глобальный логгер, создавая логгер по
// умолчанию при первом вызове.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		zl := zap.New(zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(os.Stderr),
			zapcore.InfoLevel,
		))
		globalLogger = &Logger{Logger: zl, sugar: zl.Sugar()}
	}
	return globalLogger
}

// SetGlobalLogger заменяет глобальный логгер.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// L - короткий псевдоним для GetGlobalLogger, удобный в местах с частым
// логированием.
func L() *Logger {
	return GetGlobalLogger()
}

