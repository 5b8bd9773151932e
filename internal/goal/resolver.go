package goal

import (
	"context"
	"log"

	"printshop-assistant/internal/order"
)

// Classifier labels a free-text message with the ordering stage it
// concerns. Implementations may fail (network, timeout); the resolver
// treats any failure as "use the keyword fallback".
type Classifier interface {
	Classify(ctx context.Context, message string) (order.Step, error)
}

// Resolver maps (message, order state) onto the next actionable stage.
// It is stateless per call: the stage is recomputed from the order
// record each turn instead of being stored.
type Resolver struct {
	classifier Classifier
}

func NewResolver(classifier Classifier) *Resolver {
	return &Resolver{classifier: classifier}
}

// Resolve obtains a raw stage label from the classifier (falling back
// to keyword matching on failure), validates it against the order's
// prerequisites, and returns either the validated label or the order's
// own next required step.
func (r *Resolver) Resolve(ctx context.Context, message string, rec *order.Record) order.Step {
	label := r.rawLabel(ctx, message, rec)
	next := rec.NextRequiredStep()
	validated := ValidateLabel(label, rec)
	if validated == order.StepProductSelection || validated == next {
		return validated
	}
	return next
}

func (r *Resolver) rawLabel(ctx context.Context, message string, rec *order.Record) order.Step {
	if r.classifier == nil {
		return KeywordFallback(message, rec)
	}
	label, err := r.classifier.Classify(ctx, message)
	if err != nil {
		log.Printf("goal: classifier unavailable, using keyword fallback: %v", err)
		return KeywordFallback(message, rec)
	}
	if !isStage(label) {
		log.Printf("goal: classifier returned unknown label %q, using keyword fallback", label)
		return KeywordFallback(message, rec)
	}
	return label
}

// ValidateLabel honors a stage label only if its prerequisite stage is
// already satisfied, downgrading otherwise: design placement requires a
// selected product, quantity collection requires a chosen placement,
// customer information requires collected quantities. Downgrades chain
// until a reachable stage is found.
func ValidateLabel(label order.Step, rec *order.Record) order.Step {
	switch label {
	case order.StepDesignPlacement:
		if !rec.ProductSelected {
			return order.StepProductSelection
		}
	case order.StepQuantityCollection:
		if !rec.PlacementSelected {
			return ValidateLabel(order.StepDesignPlacement, rec)
		}
	case order.StepCustomerInformation:
		if !rec.QuantitiesCollected {
			return ValidateLabel(order.StepQuantityCollection, rec)
		}
	}
	return label
}

func isStage(label order.Step) bool {
	switch label {
	case order.StepProductSelection, order.StepDesignPlacement,
		order.StepQuantityCollection, order.StepCustomerInformation:
		return true
	}
	return false
}
