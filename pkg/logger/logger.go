package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MustNew builds the zap logger used by every function. JSON output in
// deployed environments so CloudWatch gets structured lines; console output
// for APP_ENV=local. Panics on failure: a function without a logger should
// not start.
func MustNew(function string) *zap.Logger {
	env := os.Getenv("APP_ENV")

	var cfg zap.Config
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return log.With(
		zap.String("function", function),
		zap.String("env", env),
	)
}
