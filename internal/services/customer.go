package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"printshop-assistant/internal/completion"
	"printshop-assistant/internal/events"
	"printshop-assistant/internal/invoice"
	"printshop-assistant/internal/models"
	"printshop-assistant/internal/order"
	"printshop-assistant/internal/supabase"
)

const extractInstruction = `Extract the customer's contact details from the message.
Reply with only a JSON object of the form
{"name": "", "address": "", "email": "", "received_by_date": ""}
using empty strings for anything the message does not contain.`

type contactDetails struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	ReceivedByDate string `json:"received_by_date"`
}

func (s *ConversationService) handleCustomerInformation(ctx context.Context, sessionID, text string, rec *order.Record) *models.ChatResponse {
	details := s.extractContactDetails(ctx, text)

	if details.Name == "" || details.Address == "" || details.Email == "" {
		var missing []string
		if details.Name == "" {
			missing = append(missing, "your name")
		}
		if details.Address == "" {
			missing = append(missing, "a shipping address")
		}
		if details.Email == "" {
			missing = append(missing, "an email")
		}
		return &models.ChatResponse{
			Text: fmt.Sprintf("Almost there! I still need %s. You can send it all in one message, like \"name: Jane Doe, address: 12 Main St Austin TX, email: jane@example.com\".",
				strings.Join(missing, ", ")),
		}
	}

	rec.UpdateCustomerInfo(details.Name, details.Address, details.Email, details.ReceivedByDate)

	if !rec.IsComplete() {
		return &models.ChatResponse{
			Text: fmt.Sprintf("Thanks %s! Your details are saved. Let's finish the remaining steps of your order.", details.Name),
		}
	}
	return s.finalizeOrder(ctx, sessionID, rec)
}

// extractContactDetails uses the completion capability for structured
// extraction, with deterministic regex/labeled parsing both as a
// backstop and as the source of truth for emails and dates.
func (s *ConversationService) extractContactDetails(ctx context.Context, text string) contactDetails {
	details := contactDetails{
		Name:           extractLabeled(text, "name"),
		Address:        extractLabeled(text, "address"),
		Email:          ExtractEmail(text),
		ReceivedByDate: ExtractDate(text),
	}
	if details.Name != "" && details.Address != "" && details.Email != "" {
		return details
	}

	if s.completion != nil {
		reply, err := s.completion.Complete(ctx, []completion.Message{
			{Role: "system", Content: extractInstruction},
			{Role: "user", Content: text},
		}, 0)
		if err != nil {
			log.Printf("contact extraction unavailable, keeping deterministic parse: %v", err)
			return details
		}
		var extracted contactDetails
		if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &extracted); err != nil {
			log.Printf("contact extraction returned non-JSON, keeping deterministic parse: %v", err)
			return details
		}
		if details.Name == "" {
			details.Name = strings.TrimSpace(extracted.Name)
		}
		if details.Address == "" {
			details.Address = strings.TrimSpace(extracted.Address)
		}
		if details.Email == "" {
			details.Email = strings.TrimSpace(extracted.Email)
		}
		if details.ReceivedByDate == "" {
			details.ReceivedByDate = strings.TrimSpace(extracted.ReceivedByDate)
		}
	}
	return details
}

// handleCompletedOrder answers turns that arrive after every stage is
// collected: summarize and hand over the payment link.
func (s *ConversationService) handleCompletedOrder(ctx context.Context, sessionID string, rec *order.Record) *models.ChatResponse {
	return s.finalizeOrder(ctx, sessionID, rec)
}

func (s *ConversationService) finalizeOrder(ctx context.Context, sessionID string, rec *order.Record) *models.ChatResponse {
	if rec.PaymentInfoCollected {
		return &models.ChatResponse{
			Text: fmt.Sprintf("Your order is all set! %d items for $%.2f. You can pay here whenever you're ready: %s",
				rec.TotalQuantity, rec.TotalPrice, rec.PaymentURL),
		}
	}
	if s.invoice == nil {
		return &models.ChatResponse{
			Text: fmt.Sprintf("Your order is complete: %d items for $%.2f. Our team will follow up with an invoice shortly.",
				rec.TotalQuantity, rec.TotalPrice),
		}
	}

	productName := ""
	if rec.ProductDetails != nil {
		productName = rec.ProductDetails.Name
	}
	result, err := s.invoice.CreateInvoice(ctx, invoice.Request{
		SessionID:       sessionID,
		CustomerName:    rec.CustomerName,
		Email:           rec.Email,
		ShippingAddress: rec.ShippingAddress,
		Description:     fmt.Sprintf("%d x %s", rec.TotalQuantity, productName),
		Amount:          rec.TotalPrice,
	})
	if err != nil {
		if errors.Is(err, invoice.ErrMissingFields) {
			// Invoicing on incomplete data is refused outright.
			log.Printf("session %s: invoice refused: %v", sessionID, err)
			return &models.ChatResponse{
				Text: "I'm missing some of your details before I can create the invoice. Could you re-send your name, shipping address and email?",
			}
		}
		log.Printf("session %s: invoice creation failed: %v", sessionID, err)
		return &models.ChatResponse{Text: apologyText}
	}

	rec.UpdatePaymentInfo(order.PaymentInfo{
		PaymentURL:    result.PaymentURL,
		InvoiceID:     result.InvoiceID,
		InvoiceNumber: result.InvoiceNumber,
		Status:        result.Status,
	})

	if s.producer != nil {
		s.producer.Publish(events.TopicOrderCompleted, map[string]interface{}{
			"session_id":    sessionID,
			"invoice_id":    result.InvoiceID,
			"total_price":   rec.TotalPrice,
			"total_items":   rec.TotalQuantity,
			"customer_name": rec.CustomerName,
		})
	}
	if s.realtime != nil {
		_ = s.realtime.PublishSessionEvent(sessionID, "order_completed",
			supabase.OrderCompletedPayload(sessionID, rec.TotalPrice, result.PaymentURL))
	}

	expressNote := ""
	if rec.ExpressShippingCharge > 0 {
		expressNote = fmt.Sprintf(" (includes a $%.2f express shipping charge)", rec.ExpressShippingCharge)
	}
	return &models.ChatResponse{
		Text: fmt.Sprintf("You're all set, %s! %d items for $%.2f%s. Pay securely here: %s",
			rec.CustomerName, rec.TotalQuantity, rec.TotalPrice, expressNote, result.PaymentURL),
	}
}
