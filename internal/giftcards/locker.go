package giftcards

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/giftcards/pkg/logger"
	"github.com/richxcame/giftcards/pkg/redis"
	"go.uber.org/zap"
)

const lockKeyPrefix = "giftcard:lock:"

// RedisLocker holds a per-card Redis lock for the duration of a write
type RedisLocker struct {
	client    *redis.Client
	ttl       time.Duration
	retryWait time.Duration
	attempts  int
	newToken  func() string
}

// NewRedisLocker creates a locker whose locks expire after ttl
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client:    client,
		ttl:       ttl,
		retryWait: 50 * time.Millisecond,
		attempts:  40,
		newToken:  func() string { return uuid.New().String() },
	}
}

// Lock waits for the card lock, giving up with ErrCardLocked
func (l *RedisLocker) Lock(ctx context.Context, cardID uuid.UUID) (func(), error) {
	key := lockKeyPrefix + cardID.String()
	token := l.newToken()

	for attempt := 1; ; attempt++ {
		ok, err := l.client.AcquireLock(ctx, key, token, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if attempt >= l.attempts {
			return nil, ErrCardLocked
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryWait):
		}
	}

	return func() {
		// the request context may already be canceled here
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		released, err := l.client.ReleaseLock(releaseCtx, key, token)
		if err != nil {
			logger.WithContext(ctx).Warn("failed to release gift card lock", zap.String("key", key), zap.Error(err))
			return
		}
		if !released {
			logger.WithContext(ctx).Warn("gift card lock expired before release", zap.String("key", key))
		}
	}, nil
}

// MemoryLocker serializes writers within one process
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*cardLock
}

type cardLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[uuid.UUID]*cardLock)}
}

// Lock blocks until the card is free or ctx is done
func (l *MemoryLocker) Lock(ctx context.Context, cardID uuid.UUID) (func(), error) {
	l.mu.Lock()
	cl, ok := l.locks[cardID]
	if !ok {
		cl = &cardLock{ch: make(chan struct{}, 1)}
		l.locks[cardID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	select {
	case cl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(cardID, cl, false)
		return nil, fmt.Errorf("wait for gift card lock: %w", ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(cardID, cl, true) })
	}, nil
}

func (l *MemoryLocker) release(cardID uuid.UUID, cl *cardLock, held bool) {
	if held {
		<-cl.ch
	}

	l.mu.Lock()
	cl.refs--
	if cl.refs == 0 {
		delete(l.locks, cardID)
	}
	l.mu.Unlock()
}
