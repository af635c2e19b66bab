// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

Accent colors:

  - Purple - Primary accent, assistant messages
  - Cyan - Brand color, commands, user highlights
  - Emerald - Success states, server-up indicator
  - Amber - Warnings, near-full context
  - Rose - Errors and cancelled turns

Hierarchical text colors:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation. The mode comes from
the ui.theme config key:

	theme := styles.NewTheme("auto")
	if theme.IsDark {
		// Dark terminal detected
	}

# Animations (animations.go)

Spinner configurations and the progress bar used by the context usage
indicator. Status indicators are ASCII-only so they survive any terminal
and stay legible for colorblind users:

	StatusIndicators.Success - [OK]
	StatusIndicators.Error   - [X]
	StatusIndicators.Warning - [!]
	StatusIndicators.Info    - [i]
*/
package styles
