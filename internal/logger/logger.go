package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log       *zap.SugaredLogger
	ZapLogger *zap.Logger
)

func init() {
	// Packages used before InitLogger (tests, library callers) get a no-op logger.
	ZapLogger = zap.NewNop()
	Log = ZapLogger.Sugar()
}

// InitLogger builds the process-wide console logger writing to stderr.
func InitLogger(level string) {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		NameKey:          "N",
		CallerKey:        "",
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "M",
		StacktraceKey:    "S",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: "  ",
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		ParseLevel(level),
	)

	ZapLogger = zap.New(core)
	Log = ZapLogger.Sugar()
}

// Named returns a child of the process logger tagged with a component name.
func Named(name string) *zap.SugaredLogger {
	return Log.Named(name)
}

// ParseLevel maps LOG_LEVEL values onto zap levels, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func Sync() {
	if ZapLogger != nil {
		_ = ZapLogger.Sync()
	}
}
