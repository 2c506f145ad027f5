// Taskpilot: conversational project-management assistant.
//
// An interactive chat loop backed by a durable session: projects, tasks,
// and team members are remembered across conversations. The language model
// proposes tool calls; the operation catalog applies them to the session
// state and persists every change.
//
// Configuration comes from the environment (optionally a .env file):
// ARK_API_KEY and ARK_MODEL are required, everything else has defaults.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/avictorio/taskpilot/internal/agent"
	"github.com/avictorio/taskpilot/internal/catalog"
	"github.com/avictorio/taskpilot/internal/config"
	"github.com/avictorio/taskpilot/internal/inference"
	"github.com/avictorio/taskpilot/internal/prompt"
	"github.com/avictorio/taskpilot/internal/session"
	"github.com/avictorio/taskpilot/internal/state"
	"github.com/avictorio/taskpilot/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // best effort, env vars win

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	st, err := store.New(store.Config{
		DataDir:       cfg.DataDir,
		RetryAttempts: cfg.StoreRetryAttempts,
		RetryBackoff:  cfg.StoreRetryBackoff,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	sessions := session.NewManager(st, cfg.HistoryWindow)
	cat := catalog.New(sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if !cfg.AI.Enabled() {
		return fmt.Errorf("inference engine not configured: set ARK_API_KEY and ARK_MODEL")
	}
	engine, err := inference.NewArk(ctx, inference.Config{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		BaseURL:     cfg.AI.BaseURL,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		return err
	}

	promptCfg := prompt.Config{
		MaxChars:    cfg.ContextMaxChars,
		ListLimit:   cfg.ContextListLimit,
		RecentTurns: cfg.ContextRecentTurns,
	}
	a := agent.New(sessions, cat, engine, promptCfg, log)

	sess, err := sessions.GetOrCreate(cfg.AppName, cfg.UserID, state.New())
	if err != nil {
		return fmt.Errorf("resolving session: %w", err)
	}
	if sess.IsNew {
		fmt.Printf("Created new session: %s\n", sess.ID)
	} else {
		fmt.Printf("Continuing existing session: %s\n", sess.ID)
	}

	fmt.Println("\nWelcome to Taskpilot!")
	fmt.Println("Your projects, tasks, and team members will be remembered across conversations.")
	fmt.Println("Type 'exit' or 'quit' to end the conversation.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Ending conversation. Your data has been saved.")
			break
		}

		result, err := a.StartTurn(ctx, cfg.AppName, cfg.UserID, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("turn failed", "error", err)
			fmt.Printf("\nAssistant: Sorry, I encountered an error: %v\n\n", err)
			continue
		}
		fmt.Printf("\nAssistant: %s\n\n", result.AssistantText)
	}
	return scanner.Err()
}
