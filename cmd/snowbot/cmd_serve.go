package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/snowbot/internal/botapi"
	"github.com/user/snowbot/internal/fetcher"
	"github.com/user/snowbot/internal/overlay"
	"github.com/user/snowbot/internal/pipeline"
	"github.com/user/snowbot/internal/poller"
	"github.com/user/snowbot/internal/router"
	"github.com/user/snowbot/internal/sender"
	"github.com/user/snowbot/internal/state"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the snowbot daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "snowbot.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot token not configured (set bot.token or SNOWBOT_TOKEN)")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	api := botapi.New(cfg.Bot.APIBaseURL, cfg.Bot.Token)
	cursor := state.NewCursorStore(cfg.CursorPath())
	fetch := fetcher.New(cfg.DownloadsDir())
	composer := overlay.NewComposer(cfg.ReadyDir())

	snd := sender.New(api, int64(cfg.MaxConcurrent), cfg.Send.MaxAttempts,
		time.Duration(cfg.Send.RetryDelayMS)*time.Millisecond)
	pipe := pipeline.New(api, fetch, composer, snd, overlay.Catalog(cfg.ForegroundDir), nil)
	rt := router.New(api, pipe)
	pol := poller.New(api, cursor, rt, int64(cfg.MaxConcurrent))

	// The supervisor owns both halves: the poll loop and the delivery pool.
	// Shutdown cancels the loop first, drains its handlers, then stops the
	// sender so retry-waiting jobs observe the cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snd.Start(ctx)

	pollerDone := make(chan struct{})
	go func() {
		pol.Run(ctx)
		close(pollerDone)
	}()

	slog.Info("snowbot started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"api_base_url", cfg.Bot.APIBaseURL,
		"max_concurrent", cfg.MaxConcurrent,
		"send_max_attempts", cfg.Send.MaxAttempts,
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	slog.Info("shutting down", "signal", sig)
	cancel()
	<-pollerDone
	snd.Stop()
	return nil
}
