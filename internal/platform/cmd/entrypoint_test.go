package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

func TestParseConfigRequiresTarget(t *testing.T) {
	if err := ParseConfig[struct{}](nil); err == nil {
		t.Fatal("expected error for nil target")
	}
}

func TestParseArgs(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	port := fs.Int("port", 8080, "")
	if err := ParseArgs(fs, []string{"-port", "9000"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if *port != 9000 {
		t.Fatalf("expected port 9000, got %d", *port)
	}

	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected error for nil flag set")
	}
}

func TestRunWithTelemetryRequiresServiceAndRun(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), " ", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for blank service name")
	}
	if err := RunWithTelemetry(context.Background(), "scorekeeper", nil); err == nil {
		t.Fatal("expected error for nil run function")
	}
}

func TestRunWithTelemetryPropagatesRunError(t *testing.T) {
	t.Setenv("TENNIS_SCOREKEEPER_OTEL_ENDPOINT", "")
	wantErr := errors.New("boom")
	err := RunWithTelemetry(context.Background(), "scorekeeper", func(context.Context) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected run error, got %v", err)
	}
}
