package logging

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"info":     zerolog.InfoLevel,
		"debug":    zerolog.DebugLevel,
		"trace":    zerolog.TraceLevel,
		"warn":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"fatal":    zerolog.FatalLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
		" DEBUG ":  zerolog.DebugLevel,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWithPassIDGeneratesWhenEmpty(t *testing.T) {
	ctx, id := WithPassID(context.Background(), "")
	if id == "" {
		t.Fatal("expected a generated pass ID")
	}
	if got := PassID(ctx); got != id {
		t.Errorf("PassID(ctx) = %q, want %q", got, id)
	}
}

func TestWithPassIDKeepsExplicitID(t *testing.T) {
	ctx, id := WithPassID(context.Background(), "pass-42")
	if id != "pass-42" {
		t.Fatalf("expected explicit ID to be kept, got %q", id)
	}
	if got := PassID(ctx); got != "pass-42" {
		t.Errorf("PassID(ctx) = %q, want %q", got, "pass-42")
	}
}

func TestPassIDMissing(t *testing.T) {
	if got := PassID(context.Background()); got != "" {
		t.Errorf("expected empty pass ID, got %q", got)
	}
	if got := PassID(nil); got != "" { //nolint:staticcheck // nil context is part of the contract
		t.Errorf("expected empty pass ID for nil context, got %q", got)
	}
}
