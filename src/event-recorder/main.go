package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-stomp/stomp/v3"
	"github.com/jack-barr3tt/board-proxy/src/common/config"
	"github.com/jack-barr3tt/board-proxy/src/common/utils"
	"github.com/jack-barr3tt/board-proxy/src/event-recorder/listener"
	amqp "github.com/rabbitmq/amqp091-go"
)

// event-recorder consumes board events and keeps daily counters in Redis.
func main() {
	cfg, cfgErr := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	defer utils.SyncLogger()
	log := utils.GetLogger()

	if cfgErr != nil {
		log.Fatalw("invalid configuration", "error", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := utils.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}

	recorder := listener.NewRecorder(rdb)

	var wg sync.WaitGroup
	l := listener.NewListener(ctx, &wg, recorder.Handle, log)

	switch cfg.EventsBackend {
	case config.EventsAMQP:
		conn, channel, err := utils.NewRabbitConnection(cfg.MQ)
		if err != nil {
			log.Fatalw("failed to connect to RabbitMQ", "error", err)
		}
		defer conn.Close()
		defer channel.Close()

		closeChan := make(chan *amqp.Error, 1)
		conn.NotifyClose(closeChan)
		go func() {
			select {
			case err := <-closeChan:
				if err != nil {
					log.Warnw("RabbitMQ connection closed", "error", err)
				}
				stop()
			case <-ctx.Done():
			}
		}()

		if _, err := channel.QueueDeclare(cfg.BoardEventsQueue, false, false, false, false, nil); err != nil {
			log.Fatalw("failed to declare queue", "queue", cfg.BoardEventsQueue, "error", err)
		}
		deliveries, err := channel.Consume(cfg.BoardEventsQueue, "", true, false, false, false, nil)
		if err != nil {
			log.Fatalw("failed to consume queue", "queue", cfg.BoardEventsQueue, "error", err)
		}

		wg.Add(1)
		go l.StartAMQP(deliveries)

	case config.EventsStomp:
		conn, err := utils.NewStompConnection(cfg.Stomp)
		if err != nil {
			log.Fatalw("failed to connect to stomp broker", "error", err)
		}
		defer conn.Disconnect()

		sub, err := conn.Subscribe(cfg.Stomp.Destination, stomp.AckAuto)
		if err != nil {
			log.Fatalw("failed to subscribe", "destination", cfg.Stomp.Destination, "error", err)
		}

		wg.Add(1)
		go l.StartStomp(sub)

	default:
		log.Fatalw("event recorder needs EVENTS_BACKEND=amqp or stomp", "backend", cfg.EventsBackend)
	}

	log.Infow("recording board events", "backend", cfg.EventsBackend)

	<-ctx.Done()
	stop()
	wg.Wait()
}
