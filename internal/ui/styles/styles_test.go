// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme("auto")
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	// Styles must render without panicking regardless of terminal.
	out := theme.HeaderTitle.Render("title")
	if !strings.Contains(out, "title") {
		t.Errorf("rendered output lost its text: %q", out)
	}
}

func TestNewTheme_ModeForcesBackground(t *testing.T) {
	if theme := NewTheme("dark"); !theme.IsDark {
		t.Error(`NewTheme("dark") should force a dark palette`)
	}
	if theme := NewTheme("light"); theme.IsDark {
		t.Error(`NewTheme("light") should force a light palette`)
	}
}

func TestTheme_GetLayoutMode(t *testing.T) {
	theme := NewTheme("dark")

	cases := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}
	for _, tc := range cases {
		theme.SetSize(tc.width, 40)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tc.width, got, tc.want)
		}
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		percent float64
	}{
		{"empty", 10, 0},
		{"half", 10, 50},
		{"full", 10, 100},
		{"over", 10, 150},
		{"negative percent", 10, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := RenderProgressBar(tt.width, tt.percent)
			if len(bar) != tt.width {
				t.Errorf("bar width = %d, want %d (%q)", len(bar), tt.width, bar)
			}
		})
	}

	if RenderProgressBar(0, 50) != "" {
		t.Error("zero width should render empty")
	}
	if RenderProgressBar(10, 100) != strings.Repeat(ProgressFull, 10) {
		t.Error("100%% should be all full blocks")
	}
}

func TestStatusIndicators_ASCIIOnly(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Active,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q contains non-ASCII rune %q", s, r)
			}
		}
	}
}

func TestRenderStatusHelpers(t *testing.T) {
	if out := RenderSuccess("saved"); !strings.Contains(out, "saved") || !strings.Contains(out, StatusIndicators.Success) {
		t.Errorf("RenderSuccess output = %q", out)
	}
	if out := RenderError("boom"); !strings.Contains(out, StatusIndicators.Error) {
		t.Errorf("RenderError output = %q", out)
	}
}
