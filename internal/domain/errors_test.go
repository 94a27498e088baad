package domain_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/acme/orders/internal/domain"
)

func TestIsNotFound(t *testing.T) {
	if !domain.IsNotFound(domain.ErrOrderNotFound) {
		t.Fatal("expected IsNotFound for ErrOrderNotFound")
	}
	if !domain.IsNotFound(fmt.Errorf("get order: %w", domain.ErrOrderNotFound)) {
		t.Fatal("expected IsNotFound for wrapped ErrOrderNotFound")
	}
	if domain.IsNotFound(errors.New("other")) {
		t.Fatal("unexpected IsNotFound for unrelated error")
	}
}

func TestIsVersionConflict(t *testing.T) {
	if !domain.IsVersionConflict(domain.ErrVersionConflict) {
		t.Fatal("expected IsVersionConflict for ErrVersionConflict")
	}
	if domain.IsVersionConflict(domain.ErrOrderNotFound) {
		t.Fatal("unexpected IsVersionConflict for ErrOrderNotFound")
	}
}

func TestIsInvalidState(t *testing.T) {
	err := &domain.StateError{Current: domain.OrderStatusCompleted, Expected: domain.OrderStatusNew}
	if !domain.IsInvalidState(err) {
		t.Fatal("expected IsInvalidState for StateError")
	}
	if !domain.IsInvalidState(fmt.Errorf("complete: %w", err)) {
		t.Fatal("expected IsInvalidState for wrapped StateError")
	}
	if domain.IsInvalidState(domain.ErrVersionConflict) {
		t.Fatal("unexpected IsInvalidState for version conflict")
	}
	if !strings.Contains(err.Error(), "completed") || !strings.Contains(err.Error(), "new") {
		t.Fatalf("StateError message should name both statuses, got %q", err.Error())
	}
}

func TestAsDependencyError(t *testing.T) {
	inner := domain.ErrProductNotFound
	err := &domain.DependencyError{
		Collaborator: domain.CollaboratorCatalogue,
		ProductID:    "P42",
		Err:          inner,
	}

	depErr, ok := domain.AsDependencyError(fmt.Errorf("create: %w", err))
	if !ok {
		t.Fatal("expected AsDependencyError to match")
	}
	if depErr.Collaborator != domain.CollaboratorCatalogue {
		t.Fatalf("expected collaborator catalogue, got %s", depErr.Collaborator)
	}
	if depErr.ProductID != "P42" {
		t.Fatalf("expected product id P42, got %q", depErr.ProductID)
	}
	// Цепочка разворачивается до исходной причины.
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatal("expected DependencyError to unwrap to ErrProductNotFound")
	}
	if !strings.Contains(err.Error(), "P42") {
		t.Fatalf("expected message to name the product, got %q", err.Error())
	}
}

func TestAsReconciliationError(t *testing.T) {
	err := &domain.ReconciliationError{OrderID: "order-1", TransactionID: "tx-9"}

	recErr, ok := domain.AsReconciliationError(fmt.Errorf("complete: %w", err))
	if !ok {
		t.Fatal("expected AsReconciliationError to match")
	}
	if recErr.TransactionID != "tx-9" {
		t.Fatalf("expected transaction tx-9, got %q", recErr.TransactionID)
	}
	if _, ok := domain.AsReconciliationError(domain.ErrVersionConflict); ok {
		t.Fatal("unexpected match for plain version conflict")
	}
}
