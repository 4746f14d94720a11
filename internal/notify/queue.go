package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrQueueFull   = errors.New("notification queue is full")
	ErrQueueClosed = errors.New("notification queue is closed")
)

// Queue buffers messages between the request path and the delivery workers
type Queue interface {
	// Push must not block on a full queue
	Push(ctx context.Context, msg Message) error
	// Pop blocks until a message is available, the queue is closed, or ctx is done
	Pop(ctx context.Context) (Message, error)
	Close() error
}

// MemoryQueue is a bounded in-process queue. Messages are lost on restart.
type MemoryQueue struct {
	ch     chan Message
	done   chan struct{}
	closed sync.Once
}

// NewMemoryQueue creates a queue holding up to size messages
func NewMemoryQueue(size int) *MemoryQueue {
	if size < 1 {
		size = 1
	}
	return &MemoryQueue{
		ch:   make(chan Message, size),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Push(ctx context.Context, msg Message) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Pop(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-q.done:
		// Drain whatever is still buffered before reporting closed
		select {
		case msg := <-q.ch:
			return msg, nil
		default:
			return Message{}, ErrQueueClosed
		}
	}
}

// Len returns the number of buffered messages
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

func (q *MemoryQueue) Close() error {
	q.closed.Do(func() { close(q.done) })
	return nil
}

// RedisQueue is a list-backed queue shared by every API instance: LPUSH to enqueue, BRPOP to consume
// The client is owned by the caller; Close only stops consumption.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration

	done   chan struct{}
	closed sync.Once
}

// NewRedisClient parses a redis:// URL and verifies the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}
	return client, nil
}

// NewRedisQueue creates a queue on the given list key
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{
		client:      client,
		key:         key,
		pollTimeout: time.Second,
		done:        make(chan struct{}),
	}
}

func (q *RedisQueue) isClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

func (q *RedisQueue) Push(ctx context.Context, msg Message) error {
	if q.isClosed() {
		return ErrQueueClosed
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}

		var (
			payload string
			err     error
		)
		if q.isClosed() {
			// Drain without blocking, then report closed
			payload, err = q.client.RPop(ctx, q.key).Result()
			if errors.Is(err, redis.Nil) {
				return Message{}, ErrQueueClosed
			}
		} else {
			var result []string
			result, err = q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			// BRPOP returns [key, value]
			if err == nil {
				if len(result) != 2 {
					continue
				}
				payload = result[1]
			}
		}
		if errors.Is(err, redis.ErrClosed) {
			return Message{}, ErrQueueClosed
		}
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, fmt.Errorf("failed to dequeue notification: %w", err)
		}

		var msg Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return Message{}, fmt.Errorf("failed to decode notification: %w", err)
		}
		return msg, nil
	}
}

// Len returns the number of messages waiting in Redis
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Close() error {
	q.closed.Do(func() { close(q.done) })
	return nil
}
