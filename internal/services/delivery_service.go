package services

import (
	"context"
	"fmt"
	"sync"

	"hasyx/internal/metrics"
	"hasyx/internal/models"
	"hasyx/internal/utils"
)

// Sender доставляет текст одному адресату своего канала.
type Sender interface {
	Send(ctx context.Context, destination, message string) error
}

type SenderFunc func(ctx context.Context, destination, message string) error

func (f SenderFunc) Send(ctx context.Context, destination, message string) error {
	return f(ctx, destination, message)
}

// Dispatcher направляет сообщение отправителю, зарегистрированному для канала.
type Dispatcher struct {
	mu      sync.RWMutex
	senders map[models.VerificationProvider]Sender
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{senders: make(map[models.VerificationProvider]Sender)}
}

func (d *Dispatcher) Register(channel models.VerificationProvider, s Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders[channel] = s
}

func (d *Dispatcher) Supports(channel models.VerificationProvider) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.senders[channel]
	return ok
}

func (d *Dispatcher) Send(ctx context.Context, channel models.VerificationProvider, destination, message string) error {
	d.mu.RLock()
	s, ok := d.senders[channel]
	d.mu.RUnlock()
	if !ok {
		metrics.DeliveriesTotal.WithLabelValues(string(channel), "no_sender").Inc()
		return fmt.Errorf("%w: %s", ErrNoSender, channel)
	}
	if err := s.Send(ctx, destination, message); err != nil {
		metrics.DeliveriesTotal.WithLabelValues(string(channel), "error").Inc()
		return err
	}
	metrics.DeliveriesTotal.WithLabelValues(string(channel), "ok").Inc()
	return nil
}

// NewSMSSender: клиент Mobizon в роли Sender.
func NewSMSSender(client *utils.Client) Sender {
	return SenderFunc(func(ctx context.Context, phone, message string) error {
		if _, err := client.SendSMS(ctx, phone, message); err != nil {
			return fmt.Errorf("mobizon: %w", err)
		}
		return nil
	})
}
