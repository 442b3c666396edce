package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var ErrBadMessage = errors.New("bad job message")

// Handler processes one job. A returned error nacks the delivery without
// requeue, sending it to the DLQ.
type Handler func(ctx context.Context, jobID string) error

type Consumer struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	concurrency int
	log         zerolog.Logger
}

func NewConsumer(url, queue string, concurrency int, log zerolog.Logger) (*Consumer, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	conn, ch, err := open(url, queue)
	if err != nil {
		return nil, err
	}
	// at most concurrency unacked deliveries in flight
	if err := ch.Qos(concurrency, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, concurrency: concurrency, log: log}, nil
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Run dispatches deliveries to a pool of workers until ctx is done or the
// delivery channel closes, then waits for in-flight jobs.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	jobs := make(chan amqp.Delivery, c.concurrency*2)
	var wg sync.WaitGroup
	wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				c.process(ctx, workerID, d, handle)
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("consumer shutting down")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			jobs <- d
		}
	}
}

func (c *Consumer) process(ctx context.Context, workerID int, d amqp.Delivery, handle Handler) {
	jobID, err := decodeJob(d.Body)
	if err != nil {
		c.log.Warn().Err(err).Int("worker", workerID).Msg("drop message")
		_ = d.Nack(false, false)
		return
	}

	if err := handle(ctx, jobID); err != nil {
		c.log.Error().Err(err).Int("worker", workerID).Str("job_id", jobID).Msg("job failed")
		_ = d.Nack(false, false)
		return
	}
	if err := d.Ack(false); err != nil {
		c.log.Error().Err(err).Int("worker", workerID).Str("job_id", jobID).Msg("ack failed")
	}
}

func decodeJob(body []byte) (string, error) {
	var m JobMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return "", errors.Join(ErrBadMessage, err)
	}
	if m.JobID == "" {
		return "", ErrBadMessage
	}
	return m.JobID, nil
}
