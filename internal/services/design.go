package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"printshop-assistant/internal/models"
	"printshop-assistant/internal/order"
)

const designInstruction = `You are a friendly sales assistant for a custom apparel print shop.
The customer is deciding where their uploaded artwork should be printed.
Offer left chest, center chest, full front, full back and sleeve. Keep replies short.`

func (s *ConversationService) handleDesignPlacement(ctx context.Context, sessionID, text string, rec *order.Record) *models.ChatResponse {
	if !rec.DesignUploaded {
		fallback := "Let's get your artwork on there! Upload your design file and I'll show you placement options."
		return &models.ChatResponse{
			Text: s.phrase(ctx, sessionID, order.StepDesignPlacement, designInstruction, fallback),
		}
	}

	placement := ParsePlacement(text)
	if placement == "" {
		fallback := "Where would you like the design placed? Popular options are left chest, full front and full back."
		return &models.ChatResponse{
			Text: s.phrase(ctx, sessionID, order.StepDesignPlacement, designInstruction, fallback),
		}
	}

	previewURL := ""
	if s.storage != nil && len(rec.Designs) > 0 {
		previewURL = s.storage.GetPublicURL(rec.Designs[len(rec.Designs)-1].StoragePath)
	}
	if err := rec.UpdatePlacement(placement, previewURL, -1); err != nil {
		// An out-of-range design index must not fail the turn.
		if errors.Is(err, order.ErrDesignIndexOutOfRange) {
			log.Printf("session %s: placement update skipped: %v", sessionID, err)
		} else {
			log.Printf("session %s: placement update failed: %v", sessionID, err)
		}
		fallback := "Let's get your artwork uploaded first, then we'll pick a placement."
		return &models.ChatResponse{Text: fallback}
	}

	resp := &models.ChatResponse{
		Text: fmt.Sprintf("%s it is! Now, how many do you need? Give me a breakdown by size, like \"7 small, 8 medium, 9 large and 2 XL\".",
			placementLabel(placement)),
	}
	if previewURL != "" {
		resp.Images = append(resp.Images, models.ImageAttachment{
			URL:     previewURL,
			AltText: "design preview",
			Kind:    "design_preview",
		})
	}
	return resp
}

func placementLabel(placement string) string {
	label := strings.ReplaceAll(placement, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
