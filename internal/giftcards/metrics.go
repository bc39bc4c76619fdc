package giftcards

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cardsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftcards_created_total",
		Help: "Total number of gift cards issued",
	}, []string{"source"})

	debitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftcard_debits_total",
		Help: "Total number of gift card debit attempts by result",
	}, []string{"result"})

	debitAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftcard_debit_amount_total",
		Help: "Total amount debited from gift cards",
	}, []string{"currency"})

	codeCollisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftcard_code_collisions_total",
		Help: "Generated codes that were already taken, by where the collision was detected",
	}, []string{"stage"})

	vouchersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftcard_vouchers_sent_total",
		Help: "Voucher emails by result",
	}, []string{"result"})
)
