package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"printshop-assistant/internal/models"
	"printshop-assistant/internal/order"
)

const quantityInstruction = `You are a friendly sales assistant for a custom apparel print shop.
The customer is telling you how many items they need in each size.
Ask for a per-size breakdown when it is missing. Keep replies short.`

func (s *ConversationService) handleQuantityCollection(ctx context.Context, sessionID, text string, rec *order.Record) *models.ChatResponse {
	sizes := ParseSizes(text)
	if len(sizes) == 0 {
		fallback := "How many would you like? Give me a breakdown by size, like \"12 small, 8 medium and 4 large\"."
		return &models.ChatResponse{
			Text: s.phrase(ctx, sessionID, order.StepQuantityCollection, quantityInstruction, fallback),
		}
	}

	rec.UpdateQuantities(sizes)

	summary := sizeSummary(rec.Sizes)
	text = fmt.Sprintf("Got it: %s, %d items total.", summary, rec.TotalQuantity)
	if rec.TotalPrice > 0 {
		text += fmt.Sprintf(" That comes to $%.2f.", rec.TotalPrice)
	}
	text += " Now I just need your name, shipping address and email to wrap things up. " +
		"If you need the order by a specific date, include that too."
	return &models.ChatResponse{Text: text}
}

// sizeSummary renders the breakdown in a stable size order.
func sizeSummary(sizes map[string]int) string {
	rank := map[string]int{"xs": 0, "s": 1, "m": 2, "l": 3, "xl": 4, "2xl": 5, "3xl": 6}
	labels := make([]string, 0, len(sizes))
	for label := range sizes {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ri, iOK := rank[labels[i]]
		rj, jOK := rank[labels[j]]
		if iOK && jOK {
			return ri < rj
		}
		if iOK != jOK {
			return iOK
		}
		return labels[i] < labels[j]
	})

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%d %s", sizes[label], strings.ToUpper(label)))
	}
	return strings.Join(parts, ", ")
}
