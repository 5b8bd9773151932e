package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"printshop-assistant/internal/models"
	"printshop-assistant/internal/order"
)

const productInstruction = `You are a friendly sales assistant for a custom apparel print shop.
Help the customer pick a product (t-shirts, hoodies, polos and similar).
Ask for a style code and color when they have not given one. Keep replies short.`

func (s *ConversationService) handleProductSelection(ctx context.Context, sessionID, text string, rec *order.Record) *models.ChatResponse {
	if rec.ProductSelected && isRejection(text) {
		rejected := ""
		if rec.ProductDetails != nil {
			rejected = rec.ProductDetails.Name
		}
		rec.AddRejectedProduct()
		fallback := "No problem, let's find something better. What style or color did you have in mind instead?"
		if rejected != "" {
			fallback = fmt.Sprintf("No problem, we'll set the %s aside. What style or color did you have in mind instead?", rejected)
		}
		return &models.ChatResponse{
			Text: s.phrase(ctx, sessionID, order.StepProductSelection, productInstruction, fallback),
		}
	}

	style := ExtractStyleCode(text)
	color := ExtractColor(text)
	if style != "" && color != "" && s.pricing != nil {
		return s.selectProduct(ctx, sessionID, rec, style, color)
	}

	fallback := "Happy to help you find the right product! Tell me the style you're after " +
		"(a style code like G500 works great) and the color you'd like."
	return &models.ChatResponse{
		Text: s.phrase(ctx, sessionID, order.StepProductSelection, productInstruction, fallback),
	}
}

func (s *ConversationService) selectProduct(ctx context.Context, sessionID string, rec *order.Record, style, color string) *models.ChatResponse {
	price, err := s.pricing.Lookup(ctx, style, color)
	if err != nil {
		log.Printf("session %s: pricing lookup for %s/%s failed: %v", sessionID, style, color, err)
		return &models.ChatResponse{Text: apologyText}
	}
	if price == nil {
		return &models.ChatResponse{
			Text: fmt.Sprintf("I couldn't find %s in %s. Could you double-check the style code, or would you like to try a different color?", style, color),
		}
	}

	details := order.ProductDetails{
		Name:  fmt.Sprintf("%s in %s", strings.ToUpper(style), color),
		Color: color,
		Style: style,
		Price: fmt.Sprintf("%.2f", *price),
	}
	if err := rec.UpdateProduct(details); err != nil {
		log.Printf("session %s: product update rejected: %v", sessionID, err)
		return &models.ChatResponse{Text: apologyText}
	}

	resp := &models.ChatResponse{
		Text: fmt.Sprintf("Great choice! %s runs $%.2f per item. Next, upload the artwork you'd like printed and tell me where it should go.",
			details.Name, rec.PricePerItem),
	}
	if details.ImageURL != "" {
		resp.Images = append(resp.Images, models.ImageAttachment{
			URL:     details.ImageURL,
			AltText: details.Name,
			Kind:    "product",
		})
	}
	return resp
}
