package zap

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFactoryNamesLoggersByComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	factory := Factory(base)
	logger := factory("manager")
	logger.Infof("hello %s", "world")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "manager" {
		t.Fatalf("expected logger name %q, got %q", "manager", entries[0].LoggerName)
	}
	if entries[0].Message != "hello world" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
}
