// Command askfarm runs the assistant locally on recorded or captured audio
// and prints each result as JSON.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"farm-voice/config"
	"farm-voice/internal/application"
	"farm-voice/internal/bootstrap"
	"farm-voice/internal/domain"
	"farm-voice/internal/infra/audio"
)

func main() {
	configPath := cli.StringP("config", "c", "", "path to config file (defaults to stub providers)")
	envFile := cli.StringP("env", "e", ".env", "env file path")
	logLevel := cli.StringP("log", "l", "", "log level, overrides config")
	file := cli.StringP("file", "f", "", "answer a single audio file")
	watch := cli.StringP("watch", "w", "", "answer every audio file dropped in this directory")
	mic := cli.BoolP("mic", "m", false, "answer queries spoken into the microphone")
	cli.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("loading env file", "path", *envFile, "error", err)
	}

	var cfg *config.Config
	var err error
	if *configPath == "" {
		cfg = config.Default()
	} else if cfg, err = config.Load(*configPath); err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// stdout carries the results
	logger := bootstrap.NewLogger(cfg.Log, os.Stderr)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("building assistant", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	switch {
	case *file != "":
		err = answerFile(ctx, rt.Assistant, *file, os.Stdout)
	case *mic:
		err = run(ctx, rt.Assistant, audio.NewMicrophoneSource(bootstrap.CaptureFormat(cfg.Audio), cfg.Assistant.TempDir, logger), os.Stdout, logger)
	default:
		dir := *watch
		if dir == "" {
			dir = cfg.Audio.WatchDir
		}
		err = run(ctx, rt.Assistant, audio.NewFileSource(dir), os.Stdout, logger)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("askfarm failed", "error", err)
		os.Exit(1)
	}
}

// errorBackoff spaces out retries after a source error.
var errorBackoff = 500 * time.Millisecond

type processor interface {
	ProcessVoiceQuery(ctx context.Context, audioBase64 string) domain.VoiceQueryResult
}

func answerFile(ctx context.Context, p processor, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading audio: %w", err)
	}
	return answer(ctx, p, data, out)
}

// run answers every query the source yields until ctx is done.
func run(ctx context.Context, p processor, source application.AudioSource, out io.Writer, logger *slog.Logger) error {
	if err := source.Start(ctx); err != nil {
		return fmt.Errorf("starting %s source: %w", source.Name(), err)
	}
	defer source.Stop()

	logger.Info("waiting for queries", "source", source.Name())

	for {
		data, err := source.NextCommand(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("reading query", "source", source.Name(), "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}
		if len(data) == 0 {
			continue
		}
		if err := answer(ctx, p, data, out); err != nil {
			return err
		}
	}
}

func answer(ctx context.Context, p processor, data []byte, out io.Writer) error {
	result := p.ProcessVoiceQuery(ctx, base64.StdEncoding.EncodeToString(data))
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
