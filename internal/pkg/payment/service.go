package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/LeTienDat/ViralCut/app/models"
	"github.com/LeTienDat/ViralCut/app/repository"
	"github.com/LeTienDat/ViralCut/internal/pkg/plans"
)

// Service owns the checkout lifecycle: opening sessions, reconciling status
// queries and webhooks, and activating subscriptions exactly once.
type Service struct {
	adapters      map[string]Adapter
	transactions  repository.TransactionRepository
	subscriptions repository.SubscriptionRepository
	webhookEvents repository.WebhookEventRepository
	exchange      *ExchangeConverter
	now           func() time.Time
}

func NewService(
	adapters map[string]Adapter,
	transactions repository.TransactionRepository,
	subscriptions repository.SubscriptionRepository,
	webhookEvents repository.WebhookEventRepository,
	exchange *ExchangeConverter,
) *Service {
	return &Service{
		adapters:      adapters,
		transactions:  transactions,
		subscriptions: subscriptions,
		webhookEvents: webhookEvents,
		exchange:      exchange,
		now:           time.Now,
	}
}

// NewServiceFromEnv wires the production adapters.
func NewServiceFromEnv(repos *repository.Repositories) *Service {
	adapters := map[string]Adapter{
		ProviderStripe:  NewStripeClientFromEnv(),
		ProviderPayPal:  NewPayPalClientFromEnv(),
		ProviderMomoPay: NewMomoClientFromEnv(),
	}
	return NewService(adapters, repos.Transaction, repos.Subscription, repos.WebhookEvent, NewExchangeConverter(""))
}

func (s *Service) adapter(provider string) (Adapter, error) {
	a, ok := s.adapters[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return a, nil
}

// CreateCheckout opens a provider session for a plan and records the
// pending transaction. The caller's origin URL becomes the redirect target
// for the provider's success and cancel flows, and a vnd currency request
// routes the plan price through the exchange converter.
func (s *Service) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Session, error) {
	plan, ok := plans.FindPlan(req.PlanID)
	if !ok {
		return nil, fmt.Errorf("unknown plan %q", req.PlanID)
	}

	providerName := PickProvider(req.Region, req.Provider)
	adapter, err := s.adapter(providerName)
	if err != nil {
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if providerName == ProviderMomoPay {
		// MoMo settles in VND only.
		currency = "vnd"
	} else if currency == "" {
		currency = "usd"
	}

	params := CheckoutParams{
		Email:     req.Email,
		PlanID:    plan.ID,
		PlanName:  plan.Name,
		AmountUSD: plan.PriceUSD,
		Currency:  currency,
		OrderRef:  uuid.New().String(),
	}
	if currency == "vnd" {
		params.AmountVND = s.exchange.USDToVND(ctx, plan.PriceUSD)
	}
	if origin := strings.TrimRight(strings.TrimSpace(req.OriginURL), "/"); origin != "" {
		params.SuccessURL = origin + "/payment/success"
		params.CancelURL = origin + "/payment/cancelled"
	}

	session, err := adapter.CreateCheckout(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create %s checkout: %w", providerName, err)
	}

	amount := plan.PriceUSD
	if session.Currency == "vnd" {
		amount = float64(params.AmountVND)
	}
	txn := &models.PaymentTransaction{
		OwnerEmail:    req.Email,
		Amount:        amount,
		Currency:      session.Currency,
		PlanID:        plan.ID,
		Provider:      providerName,
		SessionID:     session.SessionID,
		OrderID:       session.OrderID,
		PaymentStatus: models.PaymentStatusPending,
		MetadataJSON: MarshalMetadata(map[string]string{
			"region":             strings.ToUpper(strings.TrimSpace(req.Region)),
			"requested_provider": req.Provider,
			"requested_currency": currency,
			"origin_url":         strings.TrimSpace(req.OriginURL),
			"order_ref":          params.OrderRef,
		}),
	}
	if err := s.transactions.Create(txn); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	return session, nil
}

// PaymentStatus queries the provider for a session and reconciles the local
// transaction with the answer.
func (s *Service) PaymentStatus(ctx context.Context, provider, sessionID string) (string, error) {
	adapter, err := s.adapter(provider)
	if err != nil {
		return "", err
	}

	status, err := adapter.QueryStatus(ctx, sessionID)
	if err != nil {
		return "", err
	}

	txn, err := s.transactions.GetByProviderSession(adapter.Name(), sessionID)
	if err != nil {
		// Unknown session locally: report the provider's answer anyway.
		return status, nil
	}
	if err := s.applyStatus(txn, status); err != nil {
		return status, err
	}
	return txn.PaymentStatus, nil
}

// HandleWebhook verifies, deduplicates, and applies a provider webhook.
// Replays of the same event are acknowledged without side effects.
func (s *Service) HandleWebhook(ctx context.Context, provider string, payload []byte, signature string) error {
	_ = ctx
	adapter, err := s.adapter(provider)
	if err != nil {
		return err
	}

	valid := adapter.VerifyWebhook(payload, signature)
	if !valid {
		s.recordRejectedEvent(adapter, payload)
		return fmt.Errorf("%s webhook signature rejected", adapter.Name())
	}

	notice, err := adapter.ParseWebhook(payload)
	if err != nil {
		return err
	}

	created, err := s.webhookEvents.InsertIgnoreDuplicate(&models.WebhookEvent{
		Provider:        adapter.Name(),
		ProviderEventID: notice.EventID,
		EventType:       notice.EventType,
		PayloadJSON:     string(payload),
		SignatureValid:  valid,
	})
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if !created {
		log.Infof("[Payment] Duplicate %s event %s ignored", adapter.Name(), notice.EventID)
		return nil
	}

	processErr := s.applyNotice(adapter.Name(), notice)
	errMsg := ""
	if processErr != nil {
		errMsg = processErr.Error()
	}
	if err := s.webhookEvents.MarkProcessed(adapter.Name(), notice.EventID, errMsg); err != nil {
		log.Errorf("[Payment] Failed to mark %s event %s processed: %v", adapter.Name(), notice.EventID, err)
	}
	return processErr
}

// recordRejectedEvent keeps signature failures in the audit trail. The
// stored event id carries a "rejected-" prefix so a later, properly signed
// delivery of the same event is not mistaken for a replay. Best effort: a
// failure here must not mask the rejection itself.
func (s *Service) recordRejectedEvent(adapter Adapter, payload []byte) {
	evt := &models.WebhookEvent{
		Provider:       adapter.Name(),
		PayloadJSON:    string(payload),
		SignatureValid: false,
	}
	if notice, err := adapter.ParseWebhook(payload); err == nil {
		evt.ProviderEventID = "rejected-" + notice.EventID
		evt.EventType = notice.EventType
	} else {
		evt.ProviderEventID = "rejected-" + uuid.New().String()
	}
	if _, err := s.webhookEvents.InsertIgnoreDuplicate(evt); err != nil {
		log.Errorf("[Payment] Failed to record rejected %s webhook: %v", adapter.Name(), err)
	}
}

func (s *Service) applyNotice(provider string, notice *WebhookNotice) error {
	txn, err := s.transactions.GetByProviderSession(provider, notice.SessionID)
	if err != nil && notice.OrderID != "" {
		txn, err = s.transactions.GetByOrderID(notice.OrderID)
	}
	if err != nil {
		return fmt.Errorf("no transaction for %s session %s", provider, notice.SessionID)
	}
	return s.applyStatus(txn, notice.Status)
}

// applyStatus moves a transaction forward. Terminal transactions never
// change again, which keeps replayed webhooks and racing status queries
// harmless.
func (s *Service) applyStatus(txn *models.PaymentTransaction, status string) error {
	if txn.IsTerminal() || txn.PaymentStatus == status {
		return nil
	}

	txn.PaymentStatus = status
	if err := s.transactions.Update(txn); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if status == models.PaymentStatusCompleted {
		return s.activate(txn)
	}
	return nil
}

// activate grants the purchased plan. Any previously active subscription is
// deactivated first so exactly one is current per owner.
func (s *Service) activate(txn *models.PaymentTransaction) error {
	plan, ok := plans.FindPlan(txn.PlanID)
	if !ok {
		return fmt.Errorf("transaction %s references unknown plan %q", txn.UUID, txn.PlanID)
	}

	if err := s.subscriptions.DeactivateAllForOwner(txn.OwnerEmail); err != nil {
		return fmt.Errorf("deactivate previous subscriptions: %w", err)
	}

	expires := s.now().Add(plan.Period)
	sub := &models.Subscription{
		OwnerEmail: txn.OwnerEmail,
		PlanID:     plan.ID,
		Amount:     txn.Amount,
		Currency:   txn.Currency,
		Status:     models.SubscriptionStatusActive,
		ExpiresAt:  &expires,
	}
	if err := s.subscriptions.Create(sub); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}

	log.Infof("[Payment] Activated %s for %s until %s", plan.ID, txn.OwnerEmail, expires.Format(time.RFC3339))
	return nil
}

// ProvidersPayload is the /api/payment-providers response body.
func ProvidersPayload(region string) map[string]any {
	offered := ProvidersFor(region)
	list := make([]map[string]string, 0, len(offered))
	for _, p := range offered {
		list = append(list, map[string]string{"id": p, "name": providerDisplayName(p)})
	}
	return map[string]any{
		"region":    strings.ToUpper(strings.TrimSpace(region)),
		"providers": list,
		"default":   offered[0],
	}
}

func providerDisplayName(provider string) string {
	switch provider {
	case ProviderStripe:
		return "Stripe"
	case ProviderPayPal:
		return "PayPal"
	case ProviderMomoPay:
		return "MoMo"
	default:
		return provider
	}
}

// MarshalMetadata serializes adapter-specific extras onto a transaction.
func MarshalMetadata(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	b, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(b)
}
