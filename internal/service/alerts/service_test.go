package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mamadbah2/avicola/internal/config"
	"github.com/mamadbah2/avicola/internal/deadline"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/inventory"
	"github.com/mamadbah2/avicola/internal/service/board"
)

type recordingClient struct {
	sent []string
	to   []string
	err  error
}

func (c *recordingClient) SendText(_ context.Context, to, body string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.to = append(c.to, to)
	c.sent = append(c.sent, body)
	return "wamid.1", nil
}

var alertConfig = config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1", AlertRecipient: "51999"}

func boardWith(date string, entries ...board.Entry) board.Board {
	return board.Board{Date: date, Entries: entries}
}

func overdueEntry(id string) board.Entry {
	return board.Entry{
		Order:      models.Order{ID: id, DeadlineTime: "12:00:00", RequestedQuantity: 30},
		ClientName: "Pollería Norte",
		ZoneName:   "Norte",
		Status:     deadline.Overdue,
	}
}

func TestNotifyOverdueOncePerOrderPerDay(t *testing.T) {
	c := &recordingClient{}
	svc := NewMetaWhatsAppService(alertConfig, c, nil)
	ctx := context.Background()

	b := boardWith("2026-10-18", overdueEntry("o1"), board.Entry{Order: models.Order{ID: "o2"}, Status: deadline.DueSoon})
	n, err := svc.NotifyOverdue(ctx, b)
	if err != nil || n != 1 {
		t.Fatalf("first poll sent %d, %v", n, err)
	}
	if !strings.Contains(c.sent[0], "Pollería Norte") || !strings.Contains(c.sent[0], "12:00:00") {
		t.Errorf("message = %q", c.sent[0])
	}

	b.Entries = append(b.Entries, overdueEntry("o3"))
	n, _ = svc.NotifyOverdue(ctx, b)
	if n != 1 {
		t.Errorf("second poll sent %d, want only the new overdue order", n)
	}

	n, _ = svc.NotifyOverdue(ctx, boardWith("2026-10-19", overdueEntry("o1")))
	if n != 1 {
		t.Errorf("next day sent %d, want 1", n)
	}
}

func TestNotifyOverdueRetriesAfterFailure(t *testing.T) {
	c := &recordingClient{err: errors.New("timeout")}
	svc := NewMetaWhatsAppService(alertConfig, c, nil)
	ctx := context.Background()
	b := boardWith("2026-10-18", overdueEntry("o1"))

	if _, err := svc.NotifyOverdue(ctx, b); err == nil {
		t.Fatal("expected delivery error")
	}
	c.err = nil
	if n, err := svc.NotifyOverdue(ctx, b); err != nil || n != 1 {
		t.Errorf("retry sent %d, %v", n, err)
	}
}

func TestNotifyLowStock(t *testing.T) {
	c := &recordingClient{}
	svc := NewMetaWhatsAppService(alertConfig, c, nil)
	ctx := context.Background()

	if sent, _ := svc.NotifyLowStock(ctx, inventory.Snapshot{Date: "2026-10-18", StockKg: 1500, MinimumKg: 1000}); sent {
		t.Error("alert sent above threshold")
	}
	low := inventory.Snapshot{Date: "2026-10-18", StockKg: 400, MinimumKg: 1000, LowStock: true}
	if sent, err := svc.NotifyLowStock(ctx, low); !sent || err != nil {
		t.Fatalf("low stock not alerted: %v", err)
	}
	if sent, _ := svc.NotifyLowStock(ctx, low); sent {
		t.Error("low stock alerted twice in a day")
	}
}

func TestDisabledServiceIsSilent(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, nil, nil)
	ctx := context.Background()

	if svc.Enabled() {
		t.Fatal("service without client should be disabled")
	}
	if n, err := svc.NotifyOverdue(ctx, boardWith("2026-10-18", overdueEntry("o1"))); n != 0 || err != nil {
		t.Errorf("NotifyOverdue = %d, %v", n, err)
	}
	if err := svc.SendSummary(ctx, "resumen"); err != nil {
		t.Errorf("SendSummary: %v", err)
	}
	if err := svc.SendOutbound(ctx, models.OutboundMessageRequest{Message: "hola"}); !errors.Is(err, ErrDisabled) {
		t.Errorf("SendOutbound err = %v", err)
	}
}

func TestSendOutboundDefaultsRecipient(t *testing.T) {
	c := &recordingClient{}
	svc := NewMetaWhatsAppService(alertConfig, c, nil)

	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: "hola"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "51888", Message: "hola"}); err != nil {
		t.Fatal(err)
	}
	if c.to[0] != "51999" || c.to[1] != "51888" {
		t.Errorf("recipients = %v", c.to)
	}
}

func TestLedgerClaim(t *testing.T) {
	l := NewLedger()
	if !l.Claim("d1", "k") || l.Claim("d1", "k") {
		t.Fatal("claim must succeed once per day")
	}
	l.Release("d1", "k")
	if !l.Claim("d1", "k") {
		t.Error("released key should be claimable")
	}
	if !l.Claim("d2", "k") || l.Len() != 1 {
		t.Errorf("day rollover did not reset ledger, len=%d", l.Len())
	}
}
