package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"shouting", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			if got := Setup(&buf, tt.level); got != tt.want {
				t.Errorf("Setup(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestModule(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	Setup(&buf, "info")
	l := Module("server")
	l.Info().Msg("hello")
	l.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, `"module":"server"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level: %s", out)
	}
}
