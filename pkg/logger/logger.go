package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	current atomic.Pointer[zap.SugaredLogger]
	logFile *os.File
)

const (
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
)

// InitLogger writes JSON entries to stdout and to the given file. An empty
// filename logs to stdout only.
func InitLogger(filename string, level string) error {
	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if filename != "" {
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		logFile = f
		sinks = append(sinks, zapcore.AddSync(f))
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.NewMultiWriteSyncer(sinks...),
		parseLevel(level),
	)
	current.Store(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar())
	return nil
}

// Init installs a console logger at info level.
func Init() {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), zapcore.InfoLevel)
	current.Store(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar())
}

func Close() {
	if l := current.Load(); l != nil {
		_ = l.Sync()
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN, "warning":
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func get() *zap.SugaredLogger {
	if l := current.Load(); l != nil {
		return l
	}
	Init()
	return current.Load()
}

func Debug(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}
