// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit-code mapping for CLI commands.
//
// Command handlers always return errors; main decides display and exit
// code. Exit codes follow error category so scripts can distinguish a
// usage mistake from an unreachable server.

package cli

import (
	"strings"

	"github.com/amitkumartech/ollama-chatbot/internal/ollama"
)

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration error
	ExitConfigError = 3
	// ExitNetworkError indicates the Ollama server was unreachable
	ExitNetworkError = 5
	// ExitNotFoundError indicates a model or resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// GetExitCode maps an error to the appropriate process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case ollama.IsValidation(err):
		return ExitUsageError
	case ollama.IsModelNotFound(err):
		return ExitNotFoundError
	case ollama.IsNotRunning(err):
		return ExitNetworkError
	case ollama.IsTimeout(err):
		return ExitTimeoutError
	}

	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "config") || strings.Contains(msg, "configuration") {
		return ExitConfigError
	}
	if strings.Contains(msg, "connection") || strings.Contains(msg, "dial") ||
		strings.Contains(msg, "unreachable") {
		return ExitNetworkError
	}
	if strings.Contains(msg, "not found") {
		return ExitNotFoundError
	}
	if strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline exceeded") {
		return ExitTimeoutError
	}

	return ExitGeneralError
}
