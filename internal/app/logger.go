package app

import (
	"io"
	"log/slog"
	"os"

	"github.com/sirupsen/logrus"

	"service-dispatch/internal/config"
	"service-dispatch/internal/logx"
)

// NewLogger builds the process logger from LOG_BACKEND and LOG_LEVEL.
func NewLogger(cfg *config.Config) logx.Logger {
	return newLogger(cfg.Log, os.Stdout)
}

func newLogger(c config.Log, w io.Writer) logx.Logger {
	if c.Backend == "logrus" {
		l := logrus.New()
		l.SetOutput(w)
		l.SetFormatter(&logrus.JSONFormatter{})
		lvl, err := logrus.ParseLevel(c.Level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		l.SetLevel(lvl)
		return logx.NewLogrusAdapter(l)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		lvl = slog.LevelInfo
	}
	return logx.NewSlogAdapter(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})))
}
