// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - List models available on the Ollama server.

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/amitkumartech/ollama-chatbot/internal/config"
	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
)

// HandleModels lists installed models, marking the configured default.
func HandleModels(client *ollama.Client, args Args) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.EnsureRunning(ctx); err != nil {
		return fmt.Errorf("Ollama is not running (start it with: ollama serve): %w", err)
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		fmt.Println("No models installed. Pull one with: ollama pull <name>")
		return nil
	}

	current := args.Model
	if current == "" {
		current = config.Global().DefaultModel
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Installed models"))
	for _, m := range models {
		marker := "  "
		if m.Name == current {
			marker = HighlightStyle.Render("* ")
		}
		fmt.Printf("%s%-30s %10s  %s\n",
			marker,
			m.Name,
			m.FormatSize(),
			DimStyle.Render(m.ModifiedAt.Format("2006-01-02")))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render(fmt.Sprintf("%d model(s); * marks the default", len(models))))
	return nil
}
