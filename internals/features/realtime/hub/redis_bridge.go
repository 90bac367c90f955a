// internals/features/realtime/hub/redis_bridge.go
package hub

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
)

const SignalChannel = "sync:signals"

// RedisBridge menyebarkan signal ke semua instance lewat Redis pub/sub.
// Setiap instance (termasuk pengirim) menerima signal dan meneruskan ke hub lokalnya.
type RedisBridge struct {
	Client  *redis.Client
	Hub     *Hub
	Channel string
}

func NewRedisBridge(client *redis.Client, h *Hub) *RedisBridge {
	return &RedisBridge{Client: client, Hub: h, Channel: SignalChannel}
}

// ConnectRedis membuat client dari REDIS_URL dan memastikan bisa di-ping.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL tidak valid: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (b *RedisBridge) Emit(ctx context.Context, sig Signal) error {
	payload, err := sonic.MarshalString(sig)
	if err != nil {
		return err
	}
	return b.Client.Publish(ctx, b.Channel, payload).Err()
}

// Run berlangganan channel sampai ctx selesai.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.Client.Subscribe(ctx, b.Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.Channel, err)
	}
	log.Printf("[REALTIME] subscribe redis channel=%s", b.Channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var sig Signal
	if err := sonic.UnmarshalString(payload, &sig); err != nil {
		log.Printf("[REALTIME] payload redis rusak: %v", err)
		return
	}
	b.Hub.Dispatch(sig)
}
