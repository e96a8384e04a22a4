// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextWithRunID(t *testing.T) {
	tests := []struct {
		name  string
		ctx   context.Context
		runID string
		want  string
	}{
		{
			name:  "nil context",
			ctx:   nil,
			runID: "run-1",
			want:  "run-1",
		},
		{
			name:  "background context",
			ctx:   context.Background(),
			runID: "9b1deb4d",
			want:  "9b1deb4d",
		},
		{
			name:  "empty id round trips",
			ctx:   context.Background(),
			runID: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRunID(tt.ctx, tt.runID)
			if got := RunIDFromContext(ctx); got != tt.want {
				t.Errorf("RunIDFromContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsembleIDFromContext_Missing(t *testing.T) {
	if got := EnsembleIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty ensemble id, got %q", got)
	}
	if got := EnsembleIDFromContext(nil); got != "" {
		t.Errorf("expected empty ensemble id for nil context, got %q", got)
	}
}

func TestWithContext_AddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRunID(context.Background(), "run-42")
	ctx = ContextWithEnsembleID(ctx, "ens-7")

	l := WithContext(ctx, logger)
	l.Info().Msg("test")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry[FieldRunID] != "run-42" {
		t.Errorf("expected run_id run-42, got %v", entry[FieldRunID])
	}
	if entry[FieldEnsembleID] != "ens-7" {
		t.Errorf("expected ensemble_id ens-7, got %v", entry[FieldEnsembleID])
	}
}

func TestWithContext_NoFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	l := WithContext(context.Background(), logger)
	l.Info().Msg("plain")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if _, ok := entry[FieldRunID]; ok {
		t.Error("run_id should not be present without context value")
	}
}
