package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		level   zapcore.Level
		wantErr bool
	}{
		{"production default", Options{}, zapcore.InfoLevel, false},
		{"development default", Options{Development: true}, zapcore.DebugLevel, false},
		{"level override", Options{Level: "warn"}, zapcore.WarnLevel, false},
		{"console format", Options{Format: "console", Level: "error"}, zapcore.ErrorLevel, false},
		{"bad level", Options{Level: "loud"}, 0, true},
		{"bad format", Options{Format: "xml"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !log.Core().Enabled(tt.level) {
				t.Errorf("level %s should be enabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && log.Core().Enabled(tt.level-1) {
				t.Errorf("level %s should be disabled", tt.level-1)
			}
			Sync(log)
		})
	}
}
