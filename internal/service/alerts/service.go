// Package alerts pushes board and stock alerts to the operations phone
// through WhatsApp.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/config"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/inventory"
	"github.com/mamadbah2/avicola/internal/service/board"
	client "github.com/mamadbah2/avicola/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// ErrDisabled is returned by manual sends when alerts are not configured.
var ErrDisabled = errors.New("whatsapp alerts disabled")

// MessagingService describes the alert operations used by the scheduler and
// the HTTP layer.
type MessagingService interface {
	Enabled() bool
	NotifyOverdue(ctx context.Context, b board.Board) (int, error)
	NotifyLowStock(ctx context.Context, snap inventory.Snapshot) (bool, error)
	SendSummary(ctx context.Context, text string) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService delivers alerts through the WhatsApp Cloud API. Each
// overdue order and the low-stock condition alert at most once per day.
type MetaWhatsAppService struct {
	recipient string
	client    client.Client
	ledger    *Ledger
	logger    *zap.Logger
}

// NewMetaWhatsAppService wires the alert service. A nil client or an empty
// recipient turns every alert into a no-op.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, c client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		recipient: cfg.AlertRecipient,
		client:    c,
		ledger:    NewLedger(),
		logger:    logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// Enabled reports whether alerts are delivered.
func (s *MetaWhatsAppService) Enabled() bool {
	return s.client != nil && s.recipient != ""
}

// NotifyOverdue sends one alert for every overdue order of b not alerted yet
// today and returns how many were sent.
func (s *MetaWhatsAppService) NotifyOverdue(ctx context.Context, b board.Board) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}

	var sent int
	var firstErr error
	for _, entry := range b.Overdue() {
		key := "overdue:" + entry.Order.ID
		if !s.ledger.Claim(b.Date, key) {
			continue
		}
		if err := s.send(ctx, s.recipient, overdueMessage(entry)); err != nil {
			s.ledger.Release(b.Date, key)
			s.logger.Error("failed to send overdue alert", zap.String("order_id", entry.Order.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	return sent, firstErr
}

// NotifyLowStock alerts once per day while stock is below the threshold.
func (s *MetaWhatsAppService) NotifyLowStock(ctx context.Context, snap inventory.Snapshot) (bool, error) {
	if !s.Enabled() || !snap.LowStock {
		return false, nil
	}
	if !s.ledger.Claim(snap.Date, "low-stock") {
		return false, nil
	}

	msg := fmt.Sprintf("⚠️ Stock bajo (%s)\n%.2f kg disponibles, mínimo %.2f kg.", snap.Date, snap.StockKg, snap.MinimumKg)
	if err := s.send(ctx, s.recipient, msg); err != nil {
		s.ledger.Release(snap.Date, "low-stock")
		return false, err
	}
	return true, nil
}

// SendSummary pushes the daily summary to the alert recipient.
func (s *MetaWhatsAppService) SendSummary(ctx context.Context, text string) error {
	if !s.Enabled() {
		s.logger.Debug("summary not sent, alerts disabled")
		return nil
	}
	return s.send(ctx, s.recipient, text)
}

// SendOutbound lets administrators push a manual notification. An empty
// recipient defaults to the alert recipient.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if s.client == nil {
		return ErrDisabled
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		to = s.recipient
	}
	if to == "" {
		return ErrDisabled
	}
	return s.send(ctx, to, req.Message)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	id, err := s.client.SendText(ctxWithTimeout, to, body)
	if err != nil {
		return err
	}
	s.logger.Info("whatsapp message sent", zap.String("to", to), zap.String("message_id", id))
	return nil
}

func overdueMessage(e board.Entry) string {
	client := e.ClientName
	if client == "" {
		client = e.Order.ClientID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Pedido vencido: %s\n", client)
	if e.ZoneName != "" {
		fmt.Fprintf(&b, "Zona: %s\n", e.ZoneName)
	}
	fmt.Fprintf(&b, "Hora límite: %s · Cantidad: %d", e.Order.DeadlineTime, e.Order.RequestedQuantity)
	return b.String()
}
