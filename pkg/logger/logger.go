package logger

import (
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// FileConfig enables an additional rotating JSON log file next to stderr.
type FileConfig struct {
	Path         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"maxAge"`
	RotationTime time.Duration `mapstructure:"rotationTime"`
}

func Initialize(logLevel string, files ...FileConfig) error {
	zLevel, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:   "message",
		LevelKey:     "level",
		TimeKey:      "time",
		CallerKey:    "caller",
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	level := zap.NewAtomicLevelAt(zLevel)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		writer, err := rotatingWriter(f)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), level))
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	return nil
}

func rotatingWriter(f FileConfig) (*rotatelogs.RotateLogs, error) {
	maxAge := f.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	rotation := f.RotationTime
	if rotation <= 0 {
		rotation = 24 * time.Hour
	}

	return rotatelogs.New(
		f.Path+".%Y%m%d",
		rotatelogs.WithLinkName(f.Path),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotation),
	)
}

// Logger returns the process logger, or a no-op logger before Initialize.
func Logger() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
