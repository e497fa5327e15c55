package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"hasyx/internal/models"
	"hasyx/internal/pdf"
	"hasyx/internal/repositories"
)

// SubscriptionActions: активация подписки при оплате и отмена при возврате.
// Платежи без subscription id пропускаются.
func SubscriptionActions(subs repositories.SubscriptionRepository) []PaymentAction {
	return []PaymentAction{
		{
			Name: "subscription.activate",
			On:   models.PaymentSucceeded,
			Run: func(ctx context.Context, rec *models.PaymentRecord) error {
				if rec.SubscriptionID == "" {
					return nil
				}
				return subs.Activate(ctx, rec.SubscriptionID, time.Now())
			},
		},
		{
			Name: "subscription.cancel",
			On:   models.PaymentRefunded,
			Run: func(ctx context.Context, rec *models.PaymentRecord) error {
				if rec.SubscriptionID == "" {
					return nil
				}
				return subs.Cancel(ctx, rec.SubscriptionID, time.Now())
			},
		},
	}
}

func ReceiptAction(gen pdf.Generator) PaymentAction {
	return PaymentAction{
		Name: "receipt.generate",
		On:   models.PaymentSucceeded,
		Run: func(_ context.Context, rec *models.PaymentRecord) error {
			path, err := gen.GenerateReceipt(pdf.ReceiptData{
				Provider:       rec.Provider,
				ExternalID:     rec.ExternalID,
				SubscriptionID: rec.SubscriptionID,
				Amount:         rec.Amount,
				Currency:       rec.Currency,
				PaidAt:         rec.UpdatedAt,
			})
			if err != nil {
				return err
			}
			log.Printf("[receipt] tx=%s file=%s", rec.ExternalID, path)
			return nil
		},
	}
}

func AdminNotifyAction(tg *TelegramService) PaymentAction {
	return PaymentAction{
		Name: "telegram.notify",
		Run: func(_ context.Context, rec *models.PaymentRecord) error {
			text := fmt.Sprintf("Payment %s/%s is now %s", rec.Provider, rec.ExternalID, rec.AppliedState)
			if rec.Amount != 0 {
				text += fmt.Sprintf(" (%d %s)", rec.Amount, rec.Currency)
			}
			return tg.NotifyAdmin(text)
		},
	}
}
