package goal

import (
	"strings"

	"printshop-assistant/internal/order"
)

// Keyword sets for the deterministic fallback, evaluated in fixed
// priority order with the same prerequisite gating as ValidateLabel.
// This is not a degraded mode: it is the exact algorithm used whenever
// the classifier is unavailable.
var (
	productKeywords = []string{
		"product", "catalog", "recommend", "looking for", "show me",
		"options", "different", "something else", "another", "color",
		"what do you have",
	}
	placementKeywords = []string{
		"placement", "front", "back", "chest", "sleeve", "center",
		"logo", "design", "artwork", "upload", "position",
	}
	quantityKeywords = []string{
		"size", "sizes", "quantity", "quantities", "how many",
		"small", "medium", "large", "xl", "2xl", "3xl", "pieces",
	}
	customerInfoKeywords = []string{
		"name", "address", "email", "ship", "deliver", "delivery",
		"zip", "phone", "contact",
	}
)

// KeywordFallback classifies a message by keyword matching. A keyword
// set only fires when its prerequisite stage is satisfied; when nothing
// matches, the order's next required step wins.
func KeywordFallback(message string, rec *order.Record) order.Step {
	lowered := strings.ToLower(message)

	if containsAny(lowered, productKeywords) {
		return order.StepProductSelection
	}
	if rec.ProductSelected && containsAny(lowered, placementKeywords) {
		return order.StepDesignPlacement
	}
	if rec.PlacementSelected && containsAny(lowered, quantityKeywords) {
		return order.StepQuantityCollection
	}
	if rec.QuantitiesCollected && containsAny(lowered, customerInfoKeywords) {
		return order.StepCustomerInformation
	}
	return rec.NextRequiredStep()
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
