package bus

import (
	"context"
	"testing"
	"time"
)

func TestInboundRoundTrip(t *testing.T) {
	b := NewMessageBus()
	b.PublishInbound(InboundMessage{
		Channel:    "telegram",
		ChatID:     "123",
		Content:    "hello",
		SessionKey: "telegram:123",
		Kind:       KindMessage,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Channel != "telegram" || msg.Content != "hello" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestOutboundRoundTrip(t *testing.T) {
	b := NewMessageBus()
	b.PublishOutbound(OutboundMessage{
		Channel:              "web",
		ChatID:               "abc",
		Content:              "reply",
		AwaitingConfirmation: true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, ok := b.ConsumeOutbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if !msg.AwaitingConfirmation {
		t.Error("awaiting flag lost in transit")
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := b.ConsumeInbound(ctx); ok {
		t.Error("consume must fail on cancelled context")
	}
	if _, ok := b.ConsumeOutbound(ctx); ok {
		t.Error("consume must fail on cancelled context")
	}
}
