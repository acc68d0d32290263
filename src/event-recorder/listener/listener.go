package listener

import (
	"context"
	"sync"

	"github.com/go-stomp/stomp/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, body []byte) error

// Listener feeds broker messages to a handler until its context ends.
type Listener struct {
	ctx     context.Context
	wg      *sync.WaitGroup
	handler Handler
	logger  *zap.SugaredLogger
}

func NewListener(ctx context.Context, wg *sync.WaitGroup, handler Handler, logger *zap.SugaredLogger) *Listener {
	return &Listener{
		ctx:     ctx,
		wg:      wg,
		handler: handler,
		logger:  logger,
	}
}

func (l *Listener) StartAMQP(deliveries <-chan amqp.Delivery) {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				l.logger.Warnw("amqp delivery channel closed")
				return
			}
			l.handle(msg.Body)
		}
	}
}

func (l *Listener) StartStomp(sub *stomp.Subscription) {
	defer l.wg.Done()
	defer sub.Unsubscribe()

	for {
		select {
		case <-l.ctx.Done():
			return
		case msg, ok := <-sub.C:
			if !ok {
				l.logger.Warnw("stomp subscription closed")
				return
			}
			if msg.Err != nil {
				l.logger.Warnw("stomp message error", "error", msg.Err)
				continue
			}
			l.handle(msg.Body)
		}
	}
}

func (l *Listener) handle(body []byte) {
	if err := l.handler(l.ctx, body); err != nil {
		l.logger.Warnw("failed to handle board event", "error", err)
	}
}
