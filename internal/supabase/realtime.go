package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Go client has no direct Realtime publish; session rows written
	// through the database trigger Realtime automatically. Kept as the
	// single seam for explicit event publishing via the REST API.
	return nil
}

func (r *RealtimeClient) PublishSessionEvent(sessionID string, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("session:%s", sessionID)
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func DesignUploadedPayload(sessionID, filename, previewURL string) map[string]interface{} {
	return map[string]interface{}{
		"session_id":  sessionID,
		"status":      "design_uploaded",
		"filename":    filename,
		"preview_url": previewURL,
	}
}

func OrderUpdatedPayload(sessionID string, nextStep string, totalPrice float64) map[string]interface{} {
	return map[string]interface{}{
		"session_id":  sessionID,
		"status":      "order_updated",
		"next_step":   nextStep,
		"total_price": totalPrice,
	}
}

func OrderCompletedPayload(sessionID string, totalPrice float64, paymentURL string) map[string]interface{} {
	return map[string]interface{}{
		"session_id":  sessionID,
		"status":      "order_completed",
		"total_price": totalPrice,
		"payment_url": paymentURL,
	}
}
