package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brixta-dev/cemtemchat/pkg/agent"
	"github.com/brixta-dev/cemtemchat/pkg/bus"
	"github.com/brixta-dev/cemtemchat/pkg/channels"
	"github.com/brixta-dev/cemtemchat/pkg/config"
	"github.com/brixta-dev/cemtemchat/pkg/logger"
	"github.com/brixta-dev/cemtemchat/pkg/mcp"
	"github.com/brixta-dev/cemtemchat/pkg/metrics"
	"github.com/brixta-dev/cemtemchat/pkg/providers"
	"github.com/brixta-dev/cemtemchat/pkg/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	logger.InfoC("main", "Starting cemtemchat...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tool gateway. A warm-up failure is not fatal: the agent degrades to
	// plain chat and callers see tool errors instead of a dead process.
	gateway := mcp.NewGateway(cfg.MCP.ServerURL)
	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := gateway.Connect(connectCtx); err != nil {
		logger.WarnCF("main", "MCP gateway unreachable, continuing without tools", map[string]interface{}{
			"url":   cfg.MCP.ServerURL,
			"error": err.Error(),
		})
	}
	connectCancel()
	defer gateway.Close()

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	sessions := session.NewManager()
	msgBus := bus.NewMessageBus()

	engine := agent.NewEngine(provider, gateway, agent.EngineConfig{
		Model:             cfg.OpenRouter.Model,
		MaxRounds:         cfg.Agent.MaxToolRounds,
		MaxTokens:         cfg.Agent.MaxTokens,
		Temperature:       cfg.Agent.Temperature,
		CompletionTimeout: cfg.Agent.CompletionTimeout,
		ToolTimeout:       cfg.MCP.CallTimeout,
	})
	tracker := metrics.NewTracker()
	engine.SetTracker(tracker)

	loop := agent.NewLoop(engine, msgBus, sessions)

	manager := channels.NewManager(msgBus)

	if cfg.Telegram.Enabled {
		tg, err := channels.NewTelegramChannel(cfg.Telegram, msgBus)
		if err != nil {
			return fmt.Errorf("telegram channel: %w", err)
		}
		manager.Register(tg)
	}
	if cfg.Web.Enabled {
		manager.Register(channels.NewWebChannel(cfg.Web, msgBus, sessions))
	}

	if err := manager.StartAll(ctx); err != nil {
		return err
	}

	go loop.Run(ctx)

	logger.InfoCF("main", "cemtemchat is running", map[string]interface{}{
		"telegram": cfg.Telegram.Enabled,
		"web":      cfg.Web.Enabled,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.InfoC("main", "Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	manager.StopAll(shutdownCtx)

	usage := tracker.Total()
	logger.InfoCF("main", "Token usage", map[string]interface{}{
		"requests":      usage.Requests,
		"input_tokens":  usage.InputTokens,
		"output_tokens": usage.OutputTokens,
		"tool_calls":    usage.ToolCalls,
	})

	logger.InfoC("main", "Stopped")
	return nil
}

// buildProvider wires the primary OpenRouter provider, wrapped with a Claude
// fallback when an Anthropic key is present.
func buildProvider(cfg *config.Config) (providers.LLMProvider, error) {
	primary, err := providers.NewOpenRouterProvider(providers.OpenRouterOptions{
		BaseURL:  cfg.OpenRouter.BaseURL,
		APIKey:   cfg.OpenRouter.APIKey,
		Model:    cfg.OpenRouter.Model,
		SiteURL:  cfg.OpenRouter.SiteURL,
		SiteName: cfg.OpenRouter.SiteName,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Anthropic.APIKey == "" {
		return primary, nil
	}

	fallback := providers.NewClaudeProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	logger.InfoCF("main", "Claude fallback provider enabled", map[string]interface{}{
		"model": cfg.Anthropic.Model,
	})
	return providers.NewFallbackProvider(primary, fallback, cfg.Anthropic.Model), nil
}
