package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"printshop-assistant/internal/goal"
	"printshop-assistant/internal/invoice"
	"printshop-assistant/internal/order"
	"printshop-assistant/internal/pricing"
	"printshop-assistant/internal/services"
	"printshop-assistant/internal/session"
)

// newTestConversation wires a conversation service against httptest
// collaborators. The classifier is absent so goal resolution runs on
// the deterministic keyword fallback, and phrasing degrades to canned
// text.
func newTestConversation(t *testing.T, pricingSrv, invoiceSrv *httptest.Server) (*services.ConversationService, *session.Store) {
	t.Helper()

	var pricingClient *pricing.Client
	if pricingSrv != nil {
		pricingClient = pricing.NewClient(pricingSrv.URL, "test-key")
	}
	var invoiceClient *invoice.Client
	if invoiceSrv != nil {
		invoiceClient = invoice.NewClient(invoiceSrv.URL, "test-key")
	}

	store := session.NewStore(nil, time.Minute, 50)
	resolver := goal.NewResolver(nil)
	svc := services.NewConversationService(store, resolver, nil, pricingClient, invoiceClient, nil, nil, nil)
	return svc, store
}

func pricingServer(t *testing.T, price float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"style_id":   "G500",
			"color_name": r.URL.Query().Get("color"),
			"price":      price,
		})
	}))
}

func invoiceServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"invoice_id":     "inv-1",
			"invoice_number": "2026-0001",
			"payment_url":    "https://pay.example.com/inv-1",
			"status":         "open",
		})
	}))
}

func TestProcessMessage_FullOrderFlow(t *testing.T) {
	pricingSrv := pricingServer(t, 12.36)
	defer pricingSrv.Close()
	invoiceSrv := invoiceServer(t)
	defer invoiceSrv.Close()

	svc, store := newTestConversation(t, pricingSrv, invoiceSrv)
	ctx := context.Background()
	const sessionID = "sess-flow"

	resp := svc.ProcessMessage(ctx, sessionID, "Can you show me the G500 in navy?")
	assert.Equal(t, string(order.StepProductSelection), resp.Goal)
	assert.Contains(t, resp.Text, "$12.36")

	rec := store.GetOrderState(ctx, sessionID)
	require.True(t, rec.ProductSelected)

	// Artwork arrives through the upload endpoint in production; the
	// state transition is the same.
	rec.AddDesign("sessions/sess-flow/designs/logo.png", "logo.png", "png", "front", true)
	store.UpdateOrderState(ctx, sessionID, rec)

	resp = svc.ProcessMessage(ctx, sessionID, "Put it on the left chest")
	assert.Equal(t, string(order.StepDesignPlacement), resp.Goal)
	assert.Contains(t, resp.Text, "Left chest")

	resp = svc.ProcessMessage(ctx, sessionID, "I need 12 small and 8 medium shirts")
	assert.Equal(t, string(order.StepQuantityCollection), resp.Goal)
	// 20 * 12.36 + 20 * 1 * 1.50
	assert.Contains(t, resp.Text, "$277.20")

	resp = svc.ProcessMessage(ctx, sessionID, "name: Jane Doe, address: 12 Main St Austin TX, email: jane@example.com")
	assert.Equal(t, string(order.StepCustomerInformation), resp.Goal)
	assert.Contains(t, resp.Text, "Jane Doe")
	assert.Contains(t, resp.Text, "https://pay.example.com/inv-1")

	rec = store.GetOrderState(ctx, sessionID)
	assert.True(t, rec.IsComplete())
	assert.True(t, rec.PaymentInfoCollected)
	assert.Equal(t, order.StatusApproved, rec.Status)

	// Follow-up turns after completion restate the payment link.
	resp = svc.ProcessMessage(ctx, sessionID, "thanks!")
	assert.Equal(t, string(order.StepComplete), resp.Goal)
	assert.Contains(t, resp.Text, "https://pay.example.com/inv-1")
}

func TestProcessMessage_ProductRejection(t *testing.T) {
	pricingSrv := pricingServer(t, 9.80)
	defer pricingSrv.Close()

	svc, store := newTestConversation(t, pricingSrv, nil)
	ctx := context.Background()
	const sessionID = "sess-reject"

	svc.ProcessMessage(ctx, sessionID, "show me the G500 in red")
	rec := store.GetOrderState(ctx, sessionID)
	require.True(t, rec.ProductSelected)

	resp := svc.ProcessMessage(ctx, sessionID, "actually I'd like something else")
	assert.Equal(t, string(order.StepProductSelection), resp.Goal)

	rec = store.GetOrderState(ctx, sessionID)
	assert.False(t, rec.ProductSelected)
	require.Len(t, rec.RejectedProducts, 1)
	assert.Equal(t, "G500 in red", rec.RejectedProducts[0].Name)
}

func TestProcessMessage_StyleNotFound(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	svc, store := newTestConversation(t, notFound, nil)
	ctx := context.Background()

	resp := svc.ProcessMessage(ctx, "sess-nf", "show me the ZZ999 in black")
	assert.Contains(t, resp.Text, "double-check")

	rec := store.GetOrderState(ctx, "sess-nf")
	assert.False(t, rec.ProductSelected)
}

func TestProcessMessage_MissingCustomerDetailsAsked(t *testing.T) {
	pricingSrv := pricingServer(t, 10)
	defer pricingSrv.Close()

	svc, store := newTestConversation(t, pricingSrv, nil)
	ctx := context.Background()
	const sessionID = "sess-partial"

	svc.ProcessMessage(ctx, sessionID, "show me the G500 in black")
	rec := store.GetOrderState(ctx, sessionID)
	rec.AddDesign("p/a.png", "a.png", "png", "front", false)
	store.UpdateOrderState(ctx, sessionID, rec)
	svc.ProcessMessage(ctx, sessionID, "full front please")
	svc.ProcessMessage(ctx, sessionID, "10 medium")

	resp := svc.ProcessMessage(ctx, sessionID, "email: jane@example.com")
	assert.Equal(t, string(order.StepCustomerInformation), resp.Goal)
	assert.Contains(t, resp.Text, "your name")
	assert.Contains(t, resp.Text, "shipping address")

	rec = store.GetOrderState(ctx, sessionID)
	assert.False(t, rec.CustomerInfoCollected)
}
