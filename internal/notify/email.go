package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailDispatcher sends plain-text order emails over SMTP.
type EmailDispatcher struct {
	Host string
	Port string
	From string
}

func NewEmailDispatcher(host, port, from string) *EmailDispatcher {
	return &EmailDispatcher{Host: host, Port: port, From: from}
}

func (d *EmailDispatcher) Dispatch(_ context.Context, ev Event) error {
	if ev.Email == "" {
		return fmt.Errorf("no recipient for order %s", ev.OrderNumber)
	}
	subject, body := buildMessage(ev)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		d.From, ev.Email, subject, body)
	addr := d.Host + ":" + d.Port
	return smtp.SendMail(addr, nil, d.From, []string{ev.Email}, []byte(msg))
}

func buildMessage(ev Event) (subject, body string) {
	name := ev.FullName
	if name == "" {
		name = "Customer"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)

	switch ev.Kind {
	case OrderShipped:
		subject = "Your Order Has Shipped - " + ev.OrderNumber
		b.WriteString("Great news! Your order has been shipped.\n\n")
		fmt.Fprintf(&b, "Order Number: %s\n", ev.OrderNumber)
		tracking := ev.Tracking
		if tracking == "" {
			tracking = "Will be updated soon"
		}
		carrier := ev.Carrier
		if carrier == "" {
			carrier = "Standard Shipping"
		}
		fmt.Fprintf(&b, "Tracking Number: %s\nCarrier: %s\n\n", tracking, carrier)
		b.WriteString("Your package is on its way and should arrive within 3-5 business days.\n")
	case OrderDelivered:
		subject = "Order Delivered - " + ev.OrderNumber
		b.WriteString("Your order has been successfully delivered!\n\n")
		fmt.Fprintf(&b, "Order Number: %s\n\n", ev.OrderNumber)
		b.WriteString("We hope you love your purchase! Please consider leaving a review.\n")
	default:
		subject = "Order Confirmation - " + ev.OrderNumber
		b.WriteString("Thank you for your order!\n\n")
		fmt.Fprintf(&b, "Order Number: %s\nTotal Amount: $%.2f\n\n", ev.OrderNumber, ev.Total)
		for _, ln := range ev.Lines {
			label := ln.ProductName
			if ln.VariantLabel != "" {
				label += " (" + ln.VariantLabel + ")"
			}
			fmt.Fprintf(&b, "  %d x %s @ $%.2f\n", ln.Qty, label, ln.UnitPrice)
		}
		b.WriteString("\nWe'll send you another email when your order ships.\n")
	}

	b.WriteString("\nThank you for shopping with ShopHub!\n")
	return subject, b.String()
}
