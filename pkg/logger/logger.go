package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campushq/records-api/pkg/config"
	"github.com/campushq/records-api/pkg/middleware/requestid"
)

// New builds the process logger: production JSON by default, console for
// development, level and encoding overridable from config.
func New(cfg *config.Config) (*zap.Logger, error) {
	base := zap.NewProductionConfig()
	if cfg.Env != config.EnvProduction {
		base = zap.NewDevelopmentConfig()
	}
	if cfg.Log.Format == "console" {
		base.Encoding = "console"
	} else {
		base.Encoding = "json"
	}
	if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		base.Level = zap.NewAtomicLevelAt(level)
	}

	base.EncoderConfig.TimeKey = "timestamp"
	base.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return base.Build()
}

// GinMiddleware writes one access-log line per request.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		l.Info("http_request", fields...)
	}
}
