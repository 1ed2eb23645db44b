package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level   string
		verbose bool
		want    zerolog.Level
		wantErr bool
	}{
		{level: "", want: zerolog.InfoLevel},
		{level: "", verbose: true, want: zerolog.DebugLevel},
		{level: "warn", verbose: true, want: zerolog.WarnLevel},
		{level: " Error ", want: zerolog.ErrorLevel},
		{level: "trace", want: zerolog.TraceLevel},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.level, tt.verbose)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLevel(%q) succeeded", tt.level)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}
