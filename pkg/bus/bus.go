package bus

import (
	"context"
)

// Inbound message kinds. KindMessage is a normal utterance; KindConfirm is
// an explicit confirmation signal, used by channels whose UI has a dedicated
// confirm action instead of a typed "Y".
const (
	KindMessage = "message"
	KindConfirm = "confirm"
)

// InboundMessage is a user utterance arriving from a channel.
type InboundMessage struct {
	Channel    string
	SenderID   string
	ChatID     string
	Content    string
	SessionKey string
	Kind       string
}

// OutboundMessage is an agent reply heading back to a channel.
// AwaitingConfirmation is set when the reply primed a staged write and the
// agent now expects a yes/no answer. IsError marks a turn that failed
// outright; each channel renders those its own way.
type OutboundMessage struct {
	Channel              string
	ChatID               string
	Content              string
	AwaitingConfirmation bool
	IsError              bool
}

// MessageBus decouples channels from the agent loop. Channels publish
// inbound messages and consume outbound ones addressed to them; the agent
// loop does the reverse.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, 100),
		outbound: make(chan OutboundMessage, 100),
	}
}

func (b *MessageBus) PublishInbound(msg InboundMessage) {
	b.inbound <- msg
}

// ConsumeInbound blocks until a message is available or the context is
// cancelled. The second return is false on cancellation.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case <-ctx.Done():
		return InboundMessage{}, false
	case msg := <-b.inbound:
		return msg, true
	}
}

func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.outbound <- msg
}

// ConsumeOutbound blocks until a reply is available or the context is
// cancelled. The second return is false on cancellation.
func (b *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case <-ctx.Done():
		return OutboundMessage{}, false
	case msg := <-b.outbound:
		return msg, true
	}
}
