// internals/features/realtime/hub/emitter.go
package hub

import (
	"context"

	notifService "refqa_backend/internals/features/notifications/service"
)

// Emitter: Hub (satu instance) atau RedisBridge (multi instance).
type Emitter interface {
	Emit(ctx context.Context, sig Signal) error
}

// NotificationSender mengirim notifikasi sebagai app_notification ke socket penerimanya.
type NotificationSender struct {
	Emitter Emitter
}

func (s NotificationSender) Send(ctx context.Context, msgs []notifService.Message) error {
	for _, m := range msgs {
		sig := Signal{
			Event:   EventAppNotification,
			Data:    m,
			UserIDs: []string{m.UserID},
		}
		if err := s.Emitter.Emit(ctx, sig); err != nil {
			return err
		}
	}
	return nil
}
