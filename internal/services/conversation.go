package services

import (
	"context"
	"log"

	"printshop-assistant/internal/completion"
	"printshop-assistant/internal/events"
	"printshop-assistant/internal/goal"
	"printshop-assistant/internal/invoice"
	"printshop-assistant/internal/models"
	"printshop-assistant/internal/order"
	"printshop-assistant/internal/pricing"
	"printshop-assistant/internal/session"
	"printshop-assistant/internal/supabase"
)

// apologyText is the fixed degraded response when an external
// collaborator stays down past its retry budget. Collaborator failures
// never propagate to the transport layer.
const apologyText = "I'm sorry, I'm having a little trouble on my end right now. " +
	"Could you give me a moment and try that again?"

// ConversationService drives one customer turn end to end: load the
// session, resolve the goal, dispatch to the goal handler, persist.
type ConversationService struct {
	store      *session.Store
	resolver   *goal.Resolver
	completion *completion.Client
	pricing    *pricing.Client
	invoice    *invoice.Client
	storage    *supabase.StorageClient
	realtime   *supabase.RealtimeClient
	producer   *events.Producer
}

func NewConversationService(
	store *session.Store,
	resolver *goal.Resolver,
	completionClient *completion.Client,
	pricingClient *pricing.Client,
	invoiceClient *invoice.Client,
	storageClient *supabase.StorageClient,
	realtimeClient *supabase.RealtimeClient,
	producer *events.Producer,
) *ConversationService {
	return &ConversationService{
		store:      store,
		resolver:   resolver,
		completion: completionClient,
		pricing:    pricingClient,
		invoice:    invoiceClient,
		storage:    storageClient,
		realtime:   realtimeClient,
		producer:   producer,
	}
}

// ProcessMessage handles one inbound customer message and always
// produces a response payload, degrading to the apology text rather
// than surfacing collaborator errors.
func (s *ConversationService) ProcessMessage(ctx context.Context, sessionID, text string) *models.ChatResponse {
	release := s.store.BeginTurn(sessionID)
	defer release()

	rec := s.store.GetOrderState(ctx, sessionID)
	resolved := s.resolver.Resolve(ctx, text, rec)
	s.store.AddMessage(ctx, sessionID, "user", text, resolved)

	var resp *models.ChatResponse
	switch resolved {
	case order.StepProductSelection:
		resp = s.handleProductSelection(ctx, sessionID, text, rec)
	case order.StepDesignPlacement:
		resp = s.handleDesignPlacement(ctx, sessionID, text, rec)
	case order.StepQuantityCollection:
		resp = s.handleQuantityCollection(ctx, sessionID, text, rec)
	case order.StepCustomerInformation:
		resp = s.handleCustomerInformation(ctx, sessionID, text, rec)
	default:
		resp = s.handleCompletedOrder(ctx, sessionID, rec)
	}
	resp.Goal = string(resolved)

	s.store.UpdateOrderState(ctx, sessionID, rec)
	s.store.AddMessage(ctx, sessionID, "assistant", resp.Text, resolved)

	if s.realtime != nil {
		_ = s.realtime.PublishSessionEvent(sessionID, "order_updated",
			supabase.OrderUpdatedPayload(sessionID, string(rec.NextRequiredStep()), rec.TotalPrice))
	}
	return resp
}

// ResetSession drops the conversation and its uploaded designs.
func (s *ConversationService) ResetSession(ctx context.Context, sessionID string) {
	s.store.Reset(ctx, sessionID)
	if s.storage != nil {
		if err := s.storage.DeleteSessionFiles(sessionID); err != nil {
			log.Printf("session %s: design cleanup failed: %v", sessionID, err)
		}
	}
}

// GetOrderSnapshot returns the serialized order for the session,
// hydrating from durable storage when the cache is cold.
func (s *ConversationService) GetOrderSnapshot(ctx context.Context, sessionID string) map[string]any {
	release := s.store.BeginTurn(sessionID)
	defer release()
	return s.store.GetOrderState(ctx, sessionID).ToRecord()
}

// RecordDesignUpload stores the artwork and appends a design entry to
// the order.
func (s *ConversationService) RecordDesignUpload(ctx context.Context, sessionID, filename, fileType, side string, hasLogo bool, data []byte) (*models.DesignUploadResponse, error) {
	release := s.store.BeginTurn(sessionID)
	defer release()

	rec := s.store.GetOrderState(ctx, sessionID)

	storagePath, previewURL, err := s.storage.UploadDesign(sessionID, filename, data)
	if err != nil {
		return nil, err
	}

	rec.AddDesign(storagePath, filename, fileType, side, hasLogo)
	s.store.UpdateOrderState(ctx, sessionID, rec)

	if s.realtime != nil {
		_ = s.realtime.PublishSessionEvent(sessionID, "design_uploaded",
			supabase.DesignUploadedPayload(sessionID, filename, previewURL))
	}

	text := "Got it, your design is uploaded. Where would you like it placed? " +
		"Popular options are left chest, full front and full back."
	return &models.DesignUploadResponse{
		SessionID:  sessionID,
		Filename:   filename,
		Side:       side,
		HasLogo:    hasLogo,
		PreviewURL: previewURL,
		LogoCount:  rec.LogoCount,
		Text:       text,
	}, nil
}

// phrase asks the completion capability to word a reply in context,
// falling back to the canned text when the capability is unavailable.
// State mutations never depend on the phrased output.
func (s *ConversationService) phrase(ctx context.Context, sessionID string, stage order.Step, instruction, fallback string) string {
	if s.completion == nil {
		return fallback
	}
	history := s.store.GetMessagesForGoal(sessionID, stage)
	messages := make([]completion.Message, 0, len(history)+1)
	messages = append(messages, completion.Message{Role: "system", Content: instruction})
	for _, msg := range history {
		messages = append(messages, completion.Message{Role: msg.Role, Content: msg.Content})
	}

	reply, err := s.completion.Complete(ctx, messages, 0.7)
	if err != nil {
		log.Printf("session %s: completion unavailable for %s, using canned reply: %v", sessionID, stage, err)
		return fallback
	}
	return reply
}
