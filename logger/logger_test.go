package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{
			name:       "JSON output mode",
			jsonOutput: true,
			verbosity:  1,
		},
		{
			name:       "Console output mode",
			jsonOutput: false,
			verbosity:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset global logger
			Logger = nil
			JSONOutput = false

			if err := Initialize(tt.jsonOutput, tt.verbosity); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}

			if Logger == nil {
				t.Error("Initialize() did not set global Logger")
			}
			if JSONOutput != tt.jsonOutput {
				t.Errorf("Initialize() JSONOutput = %v, want %v", JSONOutput, tt.jsonOutput)
			}

			// Cleanup
			if Logger != nil {
				Logger.Sync()
				Logger = nil
			}
		})
	}
}

func TestDefaultLoggerIsNoOp(t *testing.T) {
	// Before Initialize, the package-level logger must be usable without panicking
	Logger = zap.NewNop().Sugar()
	Logger.Infow("this should not panic", "key", "value")

	child := Named("poller")
	if child == nil {
		t.Fatal("Named() returned nil")
	}
	child.Debugw("child logger should not panic either")
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{3, zapcore.DebugLevel},
		{7, zapcore.DebugLevel},
		{-1, zapcore.WarnLevel},
	}

	for _, tt := range tests {
		if got := VerbosityToLevel(tt.verbosity); got != tt.want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestShouldLogTrace(t *testing.T) {
	if ShouldLogTrace(2) {
		t.Error("ShouldLogTrace(2) = true, want false")
	}
	if !ShouldLogTrace(3) {
		t.Error("ShouldLogTrace(3) = false, want true")
	}
}
