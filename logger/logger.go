package logger

import (
	"io"
	"os"
	"path/filepath"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultPath = "/var/log/"
)

var (
	logger      *zap.Logger
	atomicLevel = zap.NewAtomicLevel()
)

// Initialize replaces the global zap logger with one writing logfmt lines to
// stdout and to a rotating file named after svc.
func Initialize(svc, hostname string) {
	InitializeWriter(svc, hostname, os.Stdout)
}

// InitializeWriter is Initialize with the console output sent to w.
func InitializeWriter(svc, hostname string, w io.Writer) {
	path := DefaultPath
	if value := viper.GetString("logging.path"); value != "" {
		path = value
	}

	logger = zap.New(zapcore.NewCore(
		zaplogfmt.NewEncoder(ProdEncoderConf()),
		zapcore.AddSync(w),
		atomicLevel,
	), zap.AddCaller())

	ljWriteSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(path, svc+".log"),
		MaxSize:    512, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	})

	ljCore := zapcore.NewCore(
		zaplogfmt.NewEncoder(ProdEncoderConf()),
		ljWriteSyncer,
		atomicLevel)

	logger = logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, ljCore)
	})).With(zap.String(Service, svc))

	if hostname != "" {
		logger = logger.With(zap.String(Hostname, hostname))
	}

	zap.ReplaceGlobals(logger)
}

func Flush() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// SetLevel changes the verbosity of every logger built by Initialize.
// Unknown levels fall back to info.
func SetLevel(l string) {
	atomicLevel.SetLevel(parseLevel(l))
}

func GetLevel() string {
	return atomicLevel.Level().String()
}

func parseLevel(l string) zapcore.Level {
	switch l {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func ProdEncoderConf() zapcore.EncoderConfig {
	encConf := zap.NewProductionEncoderConfig()
	encConf.EncodeTime = zapcore.RFC3339TimeEncoder

	return encConf
}
