package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/aptitude-pro/quiz-service/internal/events"
	"github.com/aptitude-pro/quiz-service/internal/validator"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(logger)
	store := newFakeFileStore()
	bv := validator.NewBusinessValidator()

	manager := NewDefaultServiceManager(nil, repo, logger, bv, store, publisher)
	ctx := context.Background()

	if err := manager.HealthCheck(ctx); err == nil {
		t.Error("expected health check to fail before initialization")
	}

	if err := manager.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// Initialize is idempotent
	if err := manager.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}

	if manager.Question() == nil {
		t.Error("question service not available")
	}
	if manager.Attempt() == nil {
		t.Error("attempt service not available")
	}
	if manager.Classroom() == nil {
		t.Error("classroom service not available")
	}
	if manager.Roster() == nil {
		t.Error("roster service not available")
	}
	if manager.Export() == nil {
		t.Error("export service not available")
	}
	if manager.Events() == nil {
		t.Error("event service not available")
	}

	if err := manager.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	if err := manager.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := manager.HealthCheck(ctx); err == nil {
		t.Error("expected health check to fail after shutdown")
	}
}

func TestServiceManager_PanicsBeforeInitialize(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	manager := NewDefaultServiceManager(nil, newFakeRepository(), logger, validator.NewBusinessValidator(), newFakeFileStore(), events.NewMockEventPublisher(logger))

	defer func() {
		if recover() == nil {
			t.Error("expected a panic when getting a service before Initialize")
		}
	}()
	manager.Question()
}
