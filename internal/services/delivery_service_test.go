package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hasyx/internal/models"
	"hasyx/internal/pdf"
	"hasyx/internal/utils"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	var got []string
	d.Register(models.ProviderEmail, SenderFunc(func(_ context.Context, dest, msg string) error {
		got = append(got, dest+"|"+msg)
		return nil
	}))

	if !d.Supports(models.ProviderEmail) || d.Supports(models.ProviderPhone) {
		t.Fatal("Supports() mismatch")
	}
	if err := d.Send(context.Background(), models.ProviderEmail, "x@example.com", "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(got) != 1 || got[0] != "x@example.com|hi" {
		t.Errorf("delivered = %v", got)
	}
	if err := d.Send(context.Background(), models.ProviderPhone, "+1", "hi"); !errors.Is(err, ErrNoSender) {
		t.Errorf("Send(unregistered) error = %v, want ErrNoSender", err)
	}
}

func TestSMSSenderDryRun(t *testing.T) {
	client := utils.NewClientWithOptions("dry-run", "", true)
	if err := NewSMSSender(client).Send(context.Background(), "+77001234567", "code"); err != nil {
		t.Fatalf("dry-run Send() error = %v", err)
	}
}

func TestEmailBuildMessage(t *testing.T) {
	s := NewEmailService("smtp.example.com", 587, "u", "p", "noreply@example.com").(*emailService)
	m := s.buildMessage("x@example.com", "Your verification code: 1")

	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "x@example.com" {
		t.Errorf("To = %v", got)
	}
	if got := m.GetHeader("From"); len(got) != 1 || got[0] != "noreply@example.com" {
		t.Errorf("From = %v", got)
	}
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "Your verification code" {
		t.Errorf("Subject = %v", got)
	}
}

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.err != nil {
		return tgbotapi.Message{}, b.err
	}
	b.sent = append(b.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramSend(t *testing.T) {
	bot := &fakeBot{}
	tg := &TelegramService{bot: bot, adminChatID: 99}

	if err := tg.Send(context.Background(), "12345", "code 1"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := tg.Send(context.Background(), "@user", "code 1"); err == nil {
		t.Error("Send(non-numeric chat) error = nil")
	}
	if err := tg.NotifyAdmin("paid"); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 2 || bot.sent[0].ChatID != 12345 || bot.sent[1].ChatID != 99 || bot.sent[1].Text != "paid" {
		t.Errorf("sent = %+v", bot.sent)
	}

	bot.err = errors.New("blocked")
	if err := tg.Send(context.Background(), "1", "x"); err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Errorf("Send() error = %v", err)
	}

	var disabled *TelegramService
	if err := disabled.NotifyAdmin("paid"); err != nil {
		t.Errorf("nil NotifyAdmin() error = %v", err)
	}
}

func TestAdminNotifyAction(t *testing.T) {
	bot := &fakeBot{}
	a := AdminNotifyAction(&TelegramService{bot: bot, adminChatID: 7})
	rec := &models.PaymentRecord{Provider: "tbank", ExternalID: "tx1", AppliedState: models.PaymentSucceeded, Amount: 1000, Currency: "RUB"}

	if err := a.Run(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 || bot.sent[0].Text != "Payment tbank/tx1 is now succeeded (1000 RUB)" {
		t.Errorf("sent = %+v", bot.sent)
	}
}

func TestReceiptAction(t *testing.T) {
	dir := t.TempDir()
	gen := pdf.NewReceiptGenerator(dir, filepath.Join(dir, "missing.ttf"))
	a := ReceiptAction(gen)
	if a.On != models.PaymentSucceeded {
		t.Errorf("On = %q", a.On)
	}

	rec := &models.PaymentRecord{
		Provider: "tbank", ExternalID: "tx1", AppliedState: models.PaymentSucceeded,
		Amount: 1000, Currency: "RUB", UpdatedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
	if err := a.Run(context.Background(), rec); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var pdfs int
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".pdf") {
			pdfs++
		}
	}
	if pdfs != 1 {
		t.Errorf("found %d receipts in %s, want 1", pdfs, dir)
	}
}
