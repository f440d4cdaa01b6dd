package agent

import (
	"context"

	"github.com/brixta-dev/cemtemchat/pkg/bus"
	"github.com/brixta-dev/cemtemchat/pkg/logger"
	"github.com/brixta-dev/cemtemchat/pkg/session"
)

// Loop consumes inbound messages and drives the engine. Each message is
// processed on its own goroutine; the per-session turn lock inside the
// engine keeps turns of one conversation ordered while unrelated sessions
// run concurrently.
type Loop struct {
	engine   *Engine
	bus      *bus.MessageBus
	sessions *session.Manager
}

func NewLoop(engine *Engine, msgBus *bus.MessageBus, sessions *session.Manager) *Loop {
	return &Loop{
		engine:   engine,
		bus:      msgBus,
		sessions: sessions,
	}
}

func (l *Loop) Run(ctx context.Context) {
	logger.InfoC("agent", "Agent loop started")
	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			logger.InfoC("agent", "Agent loop stopped")
			return
		}
		go l.process(ctx, msg)
	}
}

func (l *Loop) process(ctx context.Context, msg bus.InboundMessage) {
	sess := l.sessions.GetOrCreate(msg.SessionKey)

	// Explicit confirm action from the web UI.
	if msg.Kind == bus.KindConfirm {
		reply, executed := l.engine.Confirm(ctx, sess)
		if !executed {
			reply = "Nothing to submit."
		}
		l.bus.PublishOutbound(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: reply,
		})
		return
	}

	// A lone "Y" releases the staged write directly, bypassing the model.
	// When nothing is staged the message falls through to the engine.
	if IsConfirmation(msg.Content) {
		if reply, executed := l.engine.Confirm(ctx, sess); executed {
			l.bus.PublishOutbound(bus.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Content: reply,
			})
			return
		}
	}

	reply, awaiting, err := l.engine.Handle(ctx, sess, msg.Content)
	if err != nil {
		logger.ErrorCF("agent", "Turn failed", map[string]interface{}{
			"session": msg.SessionKey,
			"error":   err.Error(),
		})
		l.bus.PublishOutbound(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: err.Error(),
			IsError: true,
		})
		return
	}

	l.bus.PublishOutbound(bus.OutboundMessage{
		Channel:              msg.Channel,
		ChatID:               msg.ChatID,
		Content:              reply,
		AwaitingConfirmation: awaiting,
	})
}
