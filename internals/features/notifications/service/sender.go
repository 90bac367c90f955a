// internals/features/notifications/service/sender.go
package service

import (
	"context"
	"errors"
	"log"
)

// Sender mengirim notifikasi yang sudah di-resolve (push, realtime, ...).
type Sender interface {
	Send(ctx context.Context, msgs []Message) error
}

// LogSender hanya mencatat ke log. Dipakai kalau push provider belum dikonfigurasi.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msgs []Message) error {
	for _, m := range msgs {
		hasToken := m.FcmToken != ""
		log.Printf("[NOTIFY] user=%s type=%s token=%t title=%q body=%q", m.UserID, m.Type, hasToken, m.Title, m.Body)
	}
	return nil
}

// MultiSender meneruskan ke semua sender; error digabung, sender lain tetap jalan.
type MultiSender []Sender

func (ms MultiSender) Send(ctx context.Context, msgs []Message) error {
	var errs []error
	for _, s := range ms {
		if s == nil {
			continue
		}
		if err := s.Send(ctx, msgs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
