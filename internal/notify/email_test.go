package notify

import (
	"context"
	"strings"
	"testing"

	"shophub/internal/domain"
)

func TestBuildMessageConfirmation(t *testing.T) {
	subject, body := buildMessage(Event{
		Kind:        OrderConfirmed,
		OrderNumber: "ORD-ABCDEF123456",
		FullName:    "Alice",
		Total:       137.00,
		Lines: []domain.OrderLine{
			{ProductName: "Desk Lamp", Qty: 2, UnitPrice: 50.00},
			{ProductName: "Classic T-Shirt", VariantLabel: "Size: XL", Qty: 1, UnitPrice: 21.99},
		},
	})
	if subject != "Order Confirmation - ORD-ABCDEF123456" {
		t.Fatalf("bad subject %q", subject)
	}
	for _, want := range []string{
		"Dear Alice,",
		"Total Amount: $137.00",
		"2 x Desk Lamp @ $50.00",
		"1 x Classic T-Shirt (Size: XL) @ $21.99",
		"Thank you for shopping with ShopHub!",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBuildMessageShippedDefaults(t *testing.T) {
	subject, body := buildMessage(Event{
		Kind:        OrderShipped,
		OrderNumber: "ORD-1",
	})
	if !strings.HasPrefix(subject, "Your Order Has Shipped") {
		t.Fatalf("bad subject %q", subject)
	}
	if !strings.Contains(body, "Dear Customer,") {
		t.Fatalf("empty name should fall back to Customer:\n%s", body)
	}
	if !strings.Contains(body, "Tracking Number: Will be updated soon") {
		t.Fatalf("missing tracking fallback:\n%s", body)
	}
	if !strings.Contains(body, "Carrier: Standard Shipping") {
		t.Fatalf("missing carrier fallback:\n%s", body)
	}
}

func TestEmailDispatchRequiresRecipient(t *testing.T) {
	d := &EmailDispatcher{Host: "localhost", Port: "25", From: "orders@shophub.test"}
	if err := d.Dispatch(context.Background(), Event{OrderNumber: "ORD-2"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

func TestLogDispatcherNeverFails(t *testing.T) {
	if err := (LogDispatcher{}).Dispatch(context.Background(), Event{Kind: OrderConfirmed}); err != nil {
		t.Fatalf("log dispatch should not fail: %v", err)
	}
}
