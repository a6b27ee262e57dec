package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeTienDat/ViralCut/app/models"
)

type fakeTxnRepo struct {
	txns []*models.PaymentTransaction
}

func (f *fakeTxnRepo) Create(t *models.PaymentTransaction) error {
	f.txns = append(f.txns, t)
	return nil
}

func (f *fakeTxnRepo) GetByProviderSession(provider, sessionID string) (*models.PaymentTransaction, error) {
	for _, t := range f.txns {
		if t.Provider == provider && t.SessionID == sessionID {
			return t, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeTxnRepo) GetByOrderID(orderID string) (*models.PaymentTransaction, error) {
	for _, t := range f.txns {
		if t.OrderID == orderID {
			return t, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeTxnRepo) Update(*models.PaymentTransaction) error { return nil }

type fakeSubRepo struct {
	subs        []*models.Subscription
	deactivated int
}

func (f *fakeSubRepo) Create(s *models.Subscription) error {
	f.subs = append(f.subs, s)
	return nil
}

func (f *fakeSubRepo) GetActiveByOwner(email string) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.OwnerEmail == email && s.Status == models.SubscriptionStatusActive {
			return s, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeSubRepo) GetByOwner(email string) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range f.subs {
		if s.OwnerEmail == email {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSubRepo) Update(*models.Subscription) error { return nil }

func (f *fakeSubRepo) DeactivateAllForOwner(email string) error {
	for _, s := range f.subs {
		if s.OwnerEmail == email && s.Status == models.SubscriptionStatusActive {
			s.Status = models.SubscriptionStatusInactive
			f.deactivated++
		}
	}
	return nil
}

type fakeEventRepo struct {
	seen      map[string]bool
	rows      []*models.WebhookEvent
	processed []string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{seen: make(map[string]bool)}
}

func (f *fakeEventRepo) InsertIgnoreDuplicate(e *models.WebhookEvent) (bool, error) {
	key := e.Provider + ":" + e.ProviderEventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	f.rows = append(f.rows, e)
	return true, nil
}

func (f *fakeEventRepo) MarkProcessed(provider, eventID, processingErr string) error {
	f.processed = append(f.processed, provider+":"+eventID)
	return nil
}

type fakeAdapter struct {
	name        string
	session     *Session
	queryStatus string
	verifyOK    bool
	notice      *WebhookNotice
	lastParams  CheckoutParams
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) CreateCheckout(_ context.Context, p CheckoutParams) (*Session, error) {
	f.lastParams = p
	if f.session == nil {
		return nil, fmt.Errorf("%s unavailable", f.name)
	}
	return f.session, nil
}

func (f *fakeAdapter) QueryStatus(context.Context, string) (string, error) {
	return f.queryStatus, nil
}

func (f *fakeAdapter) VerifyWebhook([]byte, string) bool { return f.verifyOK }

func (f *fakeAdapter) ParseWebhook([]byte) (*WebhookNotice, error) {
	if f.notice == nil {
		return nil, errors.New("unparseable")
	}
	return f.notice, nil
}

func newTestService(adapter *fakeAdapter) (*Service, *fakeTxnRepo, *fakeSubRepo, *fakeEventRepo) {
	txns := &fakeTxnRepo{}
	subs := &fakeSubRepo{}
	events := newFakeEventRepo()
	svc := NewService(map[string]Adapter{adapter.name: adapter}, txns, subs, events, NewExchangeConverter("http://127.0.0.1:1"))
	return svc, txns, subs, events
}

func TestCreateCheckoutRecordsTransaction(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{
		name: ProviderStripe,
		session: &Session{
			Provider:   ProviderStripe,
			SessionID:  "cs_123",
			PaymentURL: "https://checkout.stripe.com/cs_123",
			Currency:   "usd",
		},
	}
	svc, txns, _, _ := newTestService(adapter)

	session, err := svc.CreateCheckout(context.Background(), CheckoutRequest{
		Email:    "buyer@example.com",
		PlanID:   "premium_monthly",
		Region:   "US",
		Provider: "stripe",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.SessionID)

	require.Len(t, txns.txns, 1)
	txn := txns.txns[0]
	assert.Equal(t, models.PaymentStatusPending, txn.PaymentStatus)
	assert.Equal(t, "premium_monthly", txn.PlanID)
	assert.Equal(t, 9.99, txn.Amount)
	assert.Contains(t, txn.MetadataJSON, `"region":"US"`)
}

func TestCreateCheckoutThreadsOriginAndCurrency(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{
		name: ProviderStripe,
		session: &Session{
			Provider:   ProviderStripe,
			SessionID:  "cs_456",
			PaymentURL: "https://checkout.stripe.com/cs_456",
			Currency:   "vnd",
		},
	}
	svc, txns, _, _ := newTestService(adapter)

	_, err := svc.CreateCheckout(context.Background(), CheckoutRequest{
		Email:     "buyer@example.com",
		PlanID:    "premium_monthly",
		Region:    "VN",
		Provider:  "stripe",
		OriginURL: "https://viralcut.example.com/",
		Currency:  "vnd",
	})
	require.NoError(t, err)

	// The buyer's site becomes the redirect target.
	assert.Equal(t, "https://viralcut.example.com/payment/success", adapter.lastParams.SuccessURL)
	assert.Equal(t, "https://viralcut.example.com/payment/cancelled", adapter.lastParams.CancelURL)

	// A vnd request runs the plan price through the converter.
	assert.Equal(t, "vnd", adapter.lastParams.Currency)
	assert.Greater(t, adapter.lastParams.AmountVND, int64(0))

	require.Len(t, txns.txns, 1)
	assert.Equal(t, "vnd", txns.txns[0].Currency)
	assert.Contains(t, txns.txns[0].MetadataJSON, `"origin_url":"https://viralcut.example.com/"`)
}

func TestCreateCheckoutUnknownPlan(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(&fakeAdapter{name: ProviderStripe})
	_, err := svc.CreateCheckout(context.Background(), CheckoutRequest{
		Email:  "buyer@example.com",
		PlanID: "gold_forever",
		Region: "US",
	})
	assert.Error(t, err)
}

func webhookPayload(t *testing.T) []byte {
	t.Helper()
	return []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
}

func seedPendingTxn(txns *fakeTxnRepo, provider string) *models.PaymentTransaction {
	txn := &models.PaymentTransaction{
		UUID:          "txn-1",
		OwnerEmail:    "buyer@example.com",
		PlanID:        "premium_monthly",
		Provider:      provider,
		SessionID:     "cs_123",
		OrderID:       "order-1",
		Amount:        9.99,
		Currency:      "usd",
		PaymentStatus: models.PaymentStatusPending,
	}
	txns.txns = append(txns.txns, txn)
	return txn
}

func TestHandleWebhookActivatesOnce(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{
		name:     ProviderStripe,
		verifyOK: true,
		notice: &WebhookNotice{
			EventID:   "evt_1",
			EventType: "checkout.session.completed",
			SessionID: "cs_123",
			Status:    models.PaymentStatusCompleted,
		},
	}
	svc, txns, subs, events := newTestService(adapter)
	txn := seedPendingTxn(txns, ProviderStripe)

	require.NoError(t, svc.HandleWebhook(context.Background(), "stripe", webhookPayload(t), "sig"))
	assert.Equal(t, models.PaymentStatusCompleted, txn.PaymentStatus)
	require.Len(t, subs.subs, 1)
	assert.Equal(t, models.SubscriptionStatusActive, subs.subs[0].Status)
	require.NotNil(t, subs.subs[0].ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *subs.subs[0].ExpiresAt, time.Minute)

	// Replaying the exact same event changes nothing.
	require.NoError(t, svc.HandleWebhook(context.Background(), "stripe", webhookPayload(t), "sig"))
	assert.Len(t, subs.subs, 1)
	assert.Len(t, events.processed, 1)
}

func TestHandleWebhookReplacesActiveSubscription(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{
		name:     ProviderPayPal,
		verifyOK: true,
		notice: &WebhookNotice{
			EventID:   "WH-2",
			EventType: "PAYMENT.CAPTURE.COMPLETED",
			SessionID: "cs_123",
			Status:    models.PaymentStatusCompleted,
		},
	}
	svc, txns, subs, _ := newTestService(adapter)
	seedPendingTxn(txns, ProviderPayPal)

	old := &models.Subscription{
		OwnerEmail: "buyer@example.com",
		PlanID:     "premium_monthly",
		Status:     models.SubscriptionStatusActive,
	}
	subs.subs = append(subs.subs, old)

	require.NoError(t, svc.HandleWebhook(context.Background(), "paypal", webhookPayload(t), "sig"))

	assert.Equal(t, models.SubscriptionStatusInactive, old.Status)
	assert.Equal(t, 1, subs.deactivated)

	active, err := subs.GetActiveByOwner("buyer@example.com")
	require.NoError(t, err)
	assert.NotSame(t, old, active)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{
		name:     ProviderStripe,
		verifyOK: false,
		notice: &WebhookNotice{
			EventID:   "evt_1",
			EventType: "checkout.session.completed",
			SessionID: "cs_123",
			Status:    models.PaymentStatusCompleted,
		},
	}
	svc, txns, subs, events := newTestService(adapter)
	seedPendingTxn(txns, ProviderStripe)

	err := svc.HandleWebhook(context.Background(), "stripe", webhookPayload(t), "bad")
	assert.Error(t, err)
	assert.Empty(t, subs.subs)

	// The rejection is kept for audit, flagged and namespaced so a later
	// properly signed delivery of evt_1 still lands.
	require.Len(t, events.rows, 1)
	assert.False(t, events.rows[0].SignatureValid)
	assert.Equal(t, "rejected-evt_1", events.rows[0].ProviderEventID)
	assert.Empty(t, events.processed)
}

func TestHandleWebhookRecordsUnparseableRejection(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: ProviderStripe, verifyOK: false}
	svc, _, _, events := newTestService(adapter)

	err := svc.HandleWebhook(context.Background(), "stripe", []byte("not json"), "bad")
	assert.Error(t, err)
	require.Len(t, events.rows, 1)
	assert.False(t, events.rows[0].SignatureValid)
	assert.True(t, strings.HasPrefix(events.rows[0].ProviderEventID, "rejected-"))
}

func TestHandleWebhookUnknownProvider(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(&fakeAdapter{name: ProviderStripe})
	err := svc.HandleWebhook(context.Background(), "cashapp", webhookPayload(t), "sig")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestPaymentStatusTerminalGuard(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: ProviderMomoPay, queryStatus: models.PaymentStatusFailed}
	svc, txns, subs, _ := newTestService(adapter)
	txn := seedPendingTxn(txns, ProviderMomoPay)
	txn.PaymentStatus = models.PaymentStatusCompleted

	// A completed transaction never regresses, whatever the provider says.
	status, err := svc.PaymentStatus(context.Background(), "momopay", "cs_123")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, status)
	assert.Empty(t, subs.subs)
}
