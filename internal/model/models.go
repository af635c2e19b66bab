// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains metadata about a known local model. The live list of
// installed models comes from the server; this registry supplies context
// window sizes and descriptions the tags endpoint does not report.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// MaxTokens is the maximum context window size
	MaxTokens int `json:"max_tokens"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the registry of well-known local models with their metadata.
var Models = map[string]ModelInfo{
	"llama3": {
		ID:          "llama3",
		Name:        "Llama 3",
		MaxTokens:   8192,
		Description: "Meta's versatile open-source model",
	},
	"llama3.1": {
		ID:          "llama3.1",
		Name:        "Llama 3.1",
		MaxTokens:   128000,
		Description: "Extended context Llama 3",
	},
	"llama3.2": {
		ID:          "llama3.2",
		Name:        "Llama 3.2",
		MaxTokens:   128000,
		Description: "Compact Llama for local chat",
	},
	"qwen2.5-coder": {
		ID:          "qwen2.5-coder",
		Name:        "Qwen 2.5 Coder",
		MaxTokens:   32768,
		Description: "Optimized for code generation",
	},
	"codellama": {
		ID:          "codellama",
		Name:        "Code Llama",
		MaxTokens:   16384,
		Description: "Meta's code-focused model",
	},
	"deepseek-coder": {
		ID:          "deepseek-coder",
		Name:        "DeepSeek Coder",
		MaxTokens:   16384,
		Description: "Strong code understanding",
	},
	"mistral": {
		ID:          "mistral",
		Name:        "Mistral",
		MaxTokens:   32768,
		Description: "Fast and efficient general purpose",
	},
	"mixtral": {
		ID:          "mixtral",
		Name:        "Mixtral 8x7B",
		MaxTokens:   32768,
		Description: "MoE for complex reasoning",
	},
	"phi3": {
		ID:          "phi3",
		Name:        "Phi-3",
		MaxTokens:   4096,
		Description: "Microsoft's compact efficient model",
	},
	"gemma2": {
		ID:          "gemma2",
		Name:        "Gemma 2",
		MaxTokens:   8192,
		Description: "Google's lightweight model",
	},
}

// =============================================================================
// MODEL INFO METHODS
// =============================================================================

// ContextString returns a formatted context window string.
func (m ModelInfo) ContextString() string {
	if m.MaxTokens >= 1000000 {
		return fmt.Sprintf("%.1fM tokens", float64(m.MaxTokens)/1000000)
	}
	if m.MaxTokens >= 1000 {
		return fmt.Sprintf("%dK tokens", m.MaxTokens/1000)
	}
	return fmt.Sprintf("%d tokens", m.MaxTokens)
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// GetModelInfo looks up a model by name. Ollama model names carry tags
// ("llama3.2:3b"); the lookup falls back to the base name before the tag
// and then to a substring match.
func GetModelInfo(nameOrID string) (ModelInfo, bool) {
	if info, ok := Models[nameOrID]; ok {
		return info, true
	}

	// Strip the tag and retry
	if base, _, found := strings.Cut(nameOrID, ":"); found {
		if info, ok := Models[base]; ok {
			return info, true
		}
	}

	lowerName := strings.ToLower(nameOrID)
	for _, info := range Models {
		if strings.Contains(strings.ToLower(info.Name), lowerName) ||
			strings.Contains(strings.ToLower(info.ID), lowerName) {
			return info, true
		}
	}

	return ModelInfo{}, false
}

// KnownContextWindow returns the context window for a model if known,
// or the fallback otherwise.
func KnownContextWindow(name string, fallback int) int {
	if info, ok := GetModelInfo(name); ok {
		return info.MaxTokens
	}
	return fallback
}

// ModelShortNames returns a sorted slice of all registered model names.
func ModelShortNames() []string {
	names := make([]string, 0, len(Models))
	for name := range Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
