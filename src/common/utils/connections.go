package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/jack-barr3tt/board-proxy/src/common/config"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func NewRabbitConnection(cfg config.MQConfig) (*amqp.Connection, *amqp.Channel, error) {
	amqpConfig := amqp.Config{
		Heartbeat: 60 * time.Second,
		Locale:    "en_US",
	}

	connection, err := amqp.DialConfig(fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.User, cfg.Password, cfg.Host, cfg.Port), amqpConfig)
	if err != nil {
		return nil, nil, err
	}
	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return nil, nil, err
	}

	return connection, channel, nil
}

func NewStompConnection(cfg config.StompConfig) (*stomp.Conn, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("STOMP_ENDPOINT is required")
	}

	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.HeartBeat(30*time.Second, 30*time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts, stomp.ConnOpt.Login(cfg.Username, cfg.Password))
	}

	conn, err := stomp.Dial("tcp", cfg.Endpoint, opts...)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	redisAddr := cfg.Addr
	if redisAddr == "" {
		// default to the redis service in the cluster
		redisAddr = "redis:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   0,
	})

	return rdb
}

func NewPostgresConnection(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	dbConnectionString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DB,
	)

	connection, err := pgxpool.New(ctx, dbConnectionString)
	if err != nil {
		return nil, err
	}

	if err := connection.Ping(ctx); err != nil {
		connection.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return connection, nil
}
