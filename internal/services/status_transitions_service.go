package services

import "hasyx/internal/models"

// Допустимые переходы состояния платежа по одному externalTransactionId.
// Первое уведомление может сразу принести итоговый статус: провайдеры
// не всегда присылают initiated.
var PaymentTransitions = map[models.PaymentState]map[models.PaymentState]bool{
	models.PaymentNone: {
		models.PaymentInitiated: true,
		models.PaymentSucceeded: true,
		models.PaymentFailed:    true,
	},
	models.PaymentInitiated: {models.PaymentSucceeded: true, models.PaymentFailed: true},
	models.PaymentSucceeded: {models.PaymentRefunded: true},
	models.PaymentFailed:    {},
	models.PaymentRefunded:  {}, // финал
}

func canTransition(current, to models.PaymentState) bool {
	nexts, ok := PaymentTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}
