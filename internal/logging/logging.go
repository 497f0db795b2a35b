package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"pokerbeat/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
	file   *sizeLimitedWriter
)

// Init configures the global zerolog logger. When cfg.File is set, logs are
// written to stdout and to a size-capped file.
func Init(cfg config.LogConfig) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	var fw *sizeLimitedWriter
	if cfg.File != "" {
		w, err := newSizeLimitedWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			return err
		}
		fw = w
		out = io.MultiWriter(os.Stdout, w)
	}

	mu.Lock()
	if file != nil {
		_ = file.Close()
	}
	output, file = out, fw
	mu.Unlock()

	console := out
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: out}
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(console).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return nil
}

// Writer is the raw destination configured by Init, for loggers that are not
// zerolog (the HTTP request logger).
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file, output = nil, os.Stdout
	return err
}
