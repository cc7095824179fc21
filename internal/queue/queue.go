package queue

import (
	"context"
	"fmt"
	"time"

	"cleanservice/internal/config"
	"cleanservice/internal/mail"

	"github.com/hibiken/asynq"
)

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewServer(cfg config.RedisConfig, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}

	return asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)
}

// Client enqueues background email tasks. It satisfies mail.Enqueuer.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(redisOpt(cfg))}
}

func (c *Client) EnqueueEmail(ctx context.Context, msg mail.Message) error {
	task, err := NewEmailTask(EmailPayload{
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Kind:    string(msg.Kind),
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue("default"),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeEmailSend, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
