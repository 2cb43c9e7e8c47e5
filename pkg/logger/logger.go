package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ilramdhan/scene-expr/config"
)

var (
	std  *logrus.Logger
	once sync.Once
)

// Std returns the process logger
func Std() *logrus.Logger {
	once.Do(func() {
		std = logrus.New()
		std.SetOutput(os.Stdout)
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})
	return std
}

// Init configures the process logger from cfg
func Init(cfg *config.LogConfig) *logrus.Logger {
	l := Std()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
