package channels

import (
	"context"
	"sync/atomic"

	"github.com/brixta-dev/cemtemchat/pkg/bus"
)

// Channel is a user-facing transport: it turns transport events into
// inbound bus messages and renders outbound ones back to the user.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
}

type BaseChannel struct {
	name    string
	bus     *bus.MessageBus
	running atomic.Bool
}

func NewBaseChannel(name string, msgBus *bus.MessageBus) *BaseChannel {
	return &BaseChannel{name: name, bus: msgBus}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) setRunning(v bool) {
	c.running.Store(v)
}

// HandleMessage publishes a user utterance onto the bus. The session key is
// "channel:chatID" so each chat gets its own isolated conversation.
func (c *BaseChannel) HandleMessage(senderID, chatID, content string) {
	c.bus.PublishInbound(bus.InboundMessage{
		Channel:    c.name,
		SenderID:   senderID,
		ChatID:     chatID,
		Content:    content,
		SessionKey: c.name + ":" + chatID,
		Kind:       bus.KindMessage,
	})
}

// HandleConfirm publishes an explicit confirmation signal for the chat's
// staged write.
func (c *BaseChannel) HandleConfirm(senderID, chatID string) {
	c.bus.PublishInbound(bus.InboundMessage{
		Channel:    c.name,
		SenderID:   senderID,
		ChatID:     chatID,
		SessionKey: c.name + ":" + chatID,
		Kind:       bus.KindConfirm,
	})
}
