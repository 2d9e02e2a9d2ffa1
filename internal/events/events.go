// Package events fans simulation events out over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"

	"github.com/san-kum/solsim/internal/config"
	"github.com/san-kum/solsim/internal/sim"
)

const bufferSize = 256

// Publisher is the part of *redis.Client the bus needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Connect dials Redis and checks the connection.
func Connect(ctx context.Context, cfg config.EventsConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Bus is a sim.Observer that publishes events as JSON. Publishing happens on
// a background goroutine; when the buffer is full events are dropped rather
// than stalling the frame loop.
type Bus struct {
	pub     Publisher
	channel string
	log     hclog.Logger

	queue   chan sim.Event
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
	sent    atomic.Int64
}

func NewBus(pub Publisher, channel string, logger hclog.Logger) *Bus {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	b := &Bus{
		pub:     pub,
		channel: channel,
		log:     logger,
		queue:   make(chan sim.Event, bufferSize),
	}
	b.wg.Add(1)
	go b.loop()
	return b
}

func (b *Bus) loop() {
	defer b.wg.Done()
	ctx := context.Background()
	for e := range b.queue {
		payload, err := json.Marshal(e)
		if err != nil {
			b.log.Error("encode event", "kind", e.Kind, "error", err)
			continue
		}
		if err := b.pub.Publish(ctx, b.channel, payload).Err(); err != nil {
			b.log.Warn("publish failed", "channel", b.channel, "kind", e.Kind, "error", err)
			continue
		}
		b.sent.Add(1)
	}
}

func (b *Bus) OnEvent(e sim.Event) {
	select {
	case b.queue <- e:
	default:
		if b.dropped.Add(1) == 1 {
			b.log.Warn("event buffer full, dropping events", "channel", b.channel)
		}
	}
}

// Close flushes queued events and stops the publisher goroutine. OnEvent
// must not be called afterwards.
func (b *Bus) Close() error {
	b.once.Do(func() {
		close(b.queue)
		b.wg.Wait()
	})
	return nil
}

func (b *Bus) Sent() int64    { return b.sent.Load() }
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Follow subscribes to channel and calls fn for every event until ctx is
// done. Messages that are not events are skipped.
func Follow(ctx context.Context, client *redis.Client, channel string, fn func(sim.Event)) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if e, err := Decode(msg.Payload); err == nil {
				fn(e)
			}
		}
	}
}

// Decode parses one published payload.
func Decode(payload string) (sim.Event, error) {
	var e sim.Event
	err := json.Unmarshal([]byte(payload), &e)
	return e, err
}
