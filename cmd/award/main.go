// Command award runs one Man of the Match determination pass. Inside AWS
// Lambda it serves scheduled invocations; elsewhere it runs once and prints
// the summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"leaguevote/internal/config"
	"leaguevote/internal/container"
	"leaguevote/pkg/logger"
	"leaguevote/pkg/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	c, err := container.New(ctx, cfg, log.Named("award"))
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	if server.InLambda() {
		server.StartLambdaFunc(func(ctx context.Context) (interface{}, error) {
			summary, err := c.Awards.Run(ctx)
			if err != nil {
				return nil, err
			}
			return summary, nil
		})
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	summary, runErr := c.Awards.Run(runCtx)
	cancel()

	closeCtx, closeCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := c.Close(closeCtx); err != nil {
		log.WithError(err).Warn("Failed to release dependencies")
	}
	closeCancel()

	if runErr != nil {
		log.WithError(runErr).Error("Award run failed")
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		log.WithError(err).Error("Failed to encode summary")
		os.Exit(1)
	}
}
