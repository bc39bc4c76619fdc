package giftcards

import (
	"context"
	"fmt"
	"time"

	"github.com/richxcame/giftcards/pkg/email"
	"github.com/richxcame/giftcards/pkg/i18n"
	"github.com/richxcame/giftcards/pkg/logger"
	"github.com/richxcame/giftcards/pkg/resilience"
	"go.uber.org/zap"
)

// VoucherFilename is the attachment name of the voucher PDF
const VoucherFilename = "voucher.pdf"

// DispatcherConfig holds mail presentation settings
type DispatcherConfig struct {
	SiteName string
	Language string
	Retry    resilience.RetryConfig
}

// Dispatcher emails vouchers
type Dispatcher struct {
	repo     RepositoryInterface
	renderer VoucherRenderer
	mailer   email.Sender
	breaker  *resilience.CircuitBreaker
	cfg      DispatcherConfig
}

// NewDispatcher creates a dispatcher sending through mailer behind breaker
func NewDispatcher(repo RepositoryInterface, renderer VoucherRenderer, mailer email.Sender, breaker *resilience.CircuitBreaker, cfg DispatcherConfig) *Dispatcher {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = resilience.ConservativeRetryConfig()
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.BuildSettings("smtp", 0, 0, 0, 0), resilience.GracefulDegradation("smtp"))
	}
	return &Dispatcher{
		repo:     repo,
		renderer: renderer,
		mailer:   mailer,
		breaker:  breaker,
		cfg:      cfg,
	}
}

// Send marks the card as sent, renders its voucher and mails it to the
// order's email, or the card's own recipient when there is no order.
func (d *Dispatcher) Send(ctx context.Context, card *GiftCard, order *Order) error {
	to := card.Email
	if order != nil && order.Email != "" {
		to = order.Email
	}
	if to == "" {
		return email.ErrNoRecipient
	}

	sentAt := time.Now().UTC()
	if err := d.repo.MarkSent(ctx, card.ID, sentAt); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	card.SentAt = &sentAt

	pdf, err := d.renderer.Render(ctx, card)
	if err != nil {
		vouchersSent.WithLabelValues("render_failed").Inc()
		return fmt.Errorf("render voucher: %w", err)
	}

	msg := &email.Message{
		To:      to,
		Subject: i18n.Translate("giftcard.email.subject", d.cfg.Language, d.cfg.SiteName),
		Body:    d.body(card),
		Attachments: []email.Attachment{
			{Filename: VoucherFilename, ContentType: "application/pdf", Data: pdf},
		},
	}

	_, err = resilience.RetryWithBreaker(ctx, d.cfg.Retry, d.breaker, func(ctx context.Context) (interface{}, error) {
		return nil, d.mailer.Send(ctx, msg)
	})
	if err != nil {
		vouchersSent.WithLabelValues("failed").Inc()
		logger.WithContext(ctx).Error("failed to send gift card voucher",
			zap.String("card_id", card.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("send voucher: %w", err)
	}

	vouchersSent.WithLabelValues("sent").Inc()
	return nil
}

func (d *Dispatcher) body(card *GiftCard) string {
	name := card.Name
	if name == "" {
		name = i18n.Translate("giftcard.email.greeting_fallback", d.cfg.Language)
	}
	return i18n.Translate("giftcard.email.body", d.cfg.Language, name, i18n.FormatAmount(card.Price(), card.Currency))
}
