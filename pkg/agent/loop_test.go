package agent

import (
	"context"
	"testing"
	"time"

	"github.com/brixta-dev/cemtemchat/pkg/bus"
	"github.com/brixta-dev/cemtemchat/pkg/providers"
	"github.com/brixta-dev/cemtemchat/pkg/session"
)

func consumeReply(t *testing.T, msgBus *bus.MessageBus) bus.OutboundMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, ok := msgBus.ConsumeOutbound(ctx)
	if !ok {
		t.Fatal("no outbound message within timeout")
	}
	return msg
}

func TestLoopRoutesReplyToChannel(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.LLMResponse{
		{Content: "Hi there."},
	}}
	msgBus := bus.NewMessageBus()
	sessions := session.NewManager()
	loop := NewLoop(newTestEngine(provider, &fakeGateway{}), msgBus, sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	msgBus.PublishInbound(bus.InboundMessage{
		Channel:    "telegram",
		ChatID:     "99",
		Content:    "hello",
		SessionKey: "telegram:99",
		Kind:       bus.KindMessage,
	})

	reply := consumeReply(t, msgBus)
	if reply.Channel != "telegram" || reply.ChatID != "99" {
		t.Errorf("reply misrouted: %+v", reply)
	}
	if reply.Content != "Hi there." {
		t.Errorf("unexpected content: %q", reply.Content)
	}
}

func TestLoopConfirmEventWithoutPending(t *testing.T) {
	msgBus := bus.NewMessageBus()
	sessions := session.NewManager()
	loop := NewLoop(newTestEngine(&scriptedProvider{}, &fakeGateway{}), msgBus, sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	msgBus.PublishInbound(bus.InboundMessage{
		Channel:    "web",
		ChatID:     "abc",
		SessionKey: "web:abc",
		Kind:       bus.KindConfirm,
	})

	reply := consumeReply(t, msgBus)
	if reply.Content != "Nothing to submit." {
		t.Errorf("unexpected content: %q", reply.Content)
	}
}

func TestLoopYBypassesModelWhenPrimed(t *testing.T) {
	// Turn 1 stages the write, turn 2 is a bare "Y": the model must not be
	// consulted again.
	provider := &scriptedProvider{responses: []*providers.LLMResponse{
		{Content: `Ready. Reply Y to submit. [TOOL_ARGS_JSON]{"targetTool":"post_sales_order","orderTotal":10.0}[/TOOL_ARGS_JSON]`},
	}}
	gw := &fakeGateway{results: map[string]string{"post_sales_order": `{"id":1}`}}
	msgBus := bus.NewMessageBus()
	sessions := session.NewManager()
	loop := NewLoop(newTestEngine(provider, gw), msgBus, sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	inbound := bus.InboundMessage{
		Channel:    "telegram",
		ChatID:     "7",
		SessionKey: "telegram:7",
		Kind:       bus.KindMessage,
	}

	inbound.Content = "submit my order"
	msgBus.PublishInbound(inbound)
	first := consumeReply(t, msgBus)
	if !first.AwaitingConfirmation {
		t.Fatal("expected awaiting=true after staging")
	}

	inbound.Content = "Y"
	msgBus.PublishInbound(inbound)
	second := consumeReply(t, msgBus)
	if len(gw.calls) != 1 || gw.calls[0].name != "post_sales_order" {
		t.Fatalf("staged write not executed: %+v", gw.calls)
	}
	if len(provider.calls) != 1 {
		t.Errorf("model consulted %d times, the Y turn must bypass it", len(provider.calls))
	}
	if second.AwaitingConfirmation {
		t.Error("execution reply must not await confirmation")
	}
}

func TestLoopYWithoutPendingGoesToModel(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.LLMResponse{
		{Content: "Did you mean yes to something?"},
	}}
	msgBus := bus.NewMessageBus()
	sessions := session.NewManager()
	loop := NewLoop(newTestEngine(provider, &fakeGateway{}), msgBus, sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	msgBus.PublishInbound(bus.InboundMessage{
		Channel:    "telegram",
		ChatID:     "7",
		Content:    "Y",
		SessionKey: "telegram:7",
		Kind:       bus.KindMessage,
	})

	reply := consumeReply(t, msgBus)
	if reply.Content != "Did you mean yes to something?" {
		t.Errorf("unprimed Y must reach the model, got %q", reply.Content)
	}
	if len(provider.calls) != 1 {
		t.Errorf("expected 1 model call, got %d", len(provider.calls))
	}
}

func TestLoopErrorTurnsIntoErrorMessage(t *testing.T) {
	provider := &scriptedProvider{err: context.DeadlineExceeded}
	msgBus := bus.NewMessageBus()
	sessions := session.NewManager()
	loop := NewLoop(newTestEngine(provider, &fakeGateway{}), msgBus, sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	msgBus.PublishInbound(bus.InboundMessage{
		Channel:    "web",
		ChatID:     "x",
		Content:    "hello",
		SessionKey: "web:x",
		Kind:       bus.KindMessage,
	})

	reply := consumeReply(t, msgBus)
	if !reply.IsError {
		t.Error("provider failure must surface as an error reply")
	}
}
