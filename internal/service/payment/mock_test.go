package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/acme/orders/internal/domain"
	"github.com/acme/orders/internal/service/payment"
)

func TestMockGeneratesSequentialIDs(t *testing.T) {
	gw := payment.NewMockGateway()
	ctx := context.Background()

	first, err := gw.CreateTransaction(ctx, domain.ChargeRequest{OrderID: "o1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := gw.CreateTransaction(ctx, domain.ChargeRequest{OrderID: "o2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID != "tx-1" || second.ID != "tx-2" {
		t.Fatalf("expected tx-1/tx-2, got %s/%s", first.ID, second.ID)
	}
	if gw.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", gw.CallCount())
	}
}

func TestMockConfiguredError(t *testing.T) {
	gw := payment.NewMockGateway()
	gw.Err = errors.New("declined")

	_, err := gw.CreateTransaction(context.Background(), domain.ChargeRequest{OrderID: "o1"})
	if err == nil || err.Error() != "declined" {
		t.Fatalf("expected configured error, got %v", err)
	}
}

func TestMockRecordsRequests(t *testing.T) {
	gw := payment.NewMockGateway()
	req := domain.ChargeRequest{
		OrderID:        "o1",
		Amount:         decimal.RequireFromString("20.00"),
		Currency:       "USD",
		IdempotencyKey: "key-1",
	}
	if _, err := gw.CreateTransaction(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gw.Requests) != 1 {
		t.Fatalf("expected 1 recorded request, got %d", len(gw.Requests))
	}
	if gw.Requests[0].IdempotencyKey != "key-1" {
		t.Fatalf("expected idempotency key key-1, got %q", gw.Requests[0].IdempotencyKey)
	}
}

func TestMockHookRunsBeforeResult(t *testing.T) {
	gw := payment.NewMockGateway()
	var hooked string
	gw.Hook = func(req domain.ChargeRequest) {
		hooked = req.OrderID
	}

	if _, err := gw.CreateTransaction(context.Background(), domain.ChargeRequest{OrderID: "o1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hooked != "o1" {
		t.Fatalf("expected hook to observe the request, got %q", hooked)
	}
}
