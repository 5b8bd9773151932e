package goal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"printshop-assistant/internal/goal"
	"printshop-assistant/internal/order"
)

type stubClassifier struct {
	classifyFunc func(ctx context.Context, message string) (order.Step, error)
}

func (s *stubClassifier) Classify(ctx context.Context, message string) (order.Step, error) {
	return s.classifyFunc(ctx, message)
}

func recordAt(stage order.Step) *order.Record {
	rec := order.New("sess-1")
	switch stage {
	case order.StepComplete:
		rec.CustomerInfoCollected = true
		fallthrough
	case order.StepCustomerInformation:
		rec.QuantitiesCollected = true
		fallthrough
	case order.StepQuantityCollection:
		rec.DesignUploaded = true
		rec.PlacementSelected = true
		fallthrough
	case order.StepDesignPlacement:
		rec.ProductSelected = true
	}
	return rec
}

func TestValidateLabel_DowngradesToUnmetPrerequisite(t *testing.T) {
	fresh := order.New("sess-1")

	// Nothing satisfied: every label collapses to product selection.
	for _, label := range []order.Step{
		order.StepProductSelection,
		order.StepDesignPlacement,
		order.StepQuantityCollection,
		order.StepCustomerInformation,
	} {
		assert.Equal(t, order.StepProductSelection, goal.ValidateLabel(label, fresh), "label %s", label)
	}

	withProduct := recordAt(order.StepDesignPlacement)
	assert.Equal(t, order.StepDesignPlacement, goal.ValidateLabel(order.StepQuantityCollection, withProduct))
	assert.Equal(t, order.StepDesignPlacement, goal.ValidateLabel(order.StepCustomerInformation, withProduct))

	withPlacement := recordAt(order.StepQuantityCollection)
	assert.Equal(t, order.StepQuantityCollection, goal.ValidateLabel(order.StepQuantityCollection, withPlacement))
	assert.Equal(t, order.StepQuantityCollection, goal.ValidateLabel(order.StepCustomerInformation, withPlacement))
}

func TestValidateLabel_SatisfiedPrerequisitesPassThrough(t *testing.T) {
	rec := recordAt(order.StepCustomerInformation)
	assert.Equal(t, order.StepCustomerInformation, goal.ValidateLabel(order.StepCustomerInformation, rec))
	assert.Equal(t, order.StepQuantityCollection, goal.ValidateLabel(order.StepQuantityCollection, rec))
	assert.Equal(t, order.StepProductSelection, goal.ValidateLabel(order.StepProductSelection, rec))
}

func TestResolve_ProductSelectionAlwaysHonored(t *testing.T) {
	classifier := &stubClassifier{
		classifyFunc: func(ctx context.Context, message string) (order.Step, error) {
			return order.StepProductSelection, nil
		},
	}
	resolver := goal.NewResolver(classifier)

	// Browsing for a different product is allowed at any stage.
	rec := recordAt(order.StepCustomerInformation)
	got := resolver.Resolve(context.Background(), "show me something else", rec)
	assert.Equal(t, order.StepProductSelection, got)
}

func TestResolve_MismatchedLabelFallsBackToNextStep(t *testing.T) {
	classifier := &stubClassifier{
		classifyFunc: func(ctx context.Context, message string) (order.Step, error) {
			return order.StepQuantityCollection, nil
		},
	}
	resolver := goal.NewResolver(classifier)

	// Quantities already collected, so the validated label no longer
	// matches the order's next step; the next step wins.
	rec := recordAt(order.StepCustomerInformation)
	got := resolver.Resolve(context.Background(), "10 medium please", rec)
	assert.Equal(t, order.StepCustomerInformation, got)
}

func TestResolve_ClassifierFailureUsesKeywordFallback(t *testing.T) {
	classifier := &stubClassifier{
		classifyFunc: func(ctx context.Context, message string) (order.Step, error) {
			return "", errors.New("upstream timeout")
		},
	}
	resolver := goal.NewResolver(classifier)

	rec := recordAt(order.StepQuantityCollection)
	got := resolver.Resolve(context.Background(), "I need 12 small and 8 medium shirts", rec)
	assert.Equal(t, order.StepQuantityCollection, got)
}

func TestResolve_UnknownLabelUsesKeywordFallback(t *testing.T) {
	classifier := &stubClassifier{
		classifyFunc: func(ctx context.Context, message string) (order.Step, error) {
			return order.Step("checkout"), nil
		},
	}
	resolver := goal.NewResolver(classifier)

	rec := order.New("sess-1")
	got := resolver.Resolve(context.Background(), "what do you have in stock?", rec)
	assert.Equal(t, order.StepProductSelection, got)
}

func TestKeywordFallback_Deterministic(t *testing.T) {
	rec := recordAt(order.StepQuantityCollection)
	for i := 0; i < 5; i++ {
		got := goal.KeywordFallback("I need 12 small and 8 medium shirts", rec)
		require.Equal(t, order.StepQuantityCollection, got)
	}
}

func TestKeywordFallback_GatedByPrerequisites(t *testing.T) {
	fresh := order.New("sess-1")
	// Size words alone cannot fire quantity collection before a
	// placement exists.
	assert.Equal(t, order.StepProductSelection, goal.KeywordFallback("12 small please", fresh))

	withProduct := recordAt(order.StepDesignPlacement)
	assert.Equal(t, order.StepDesignPlacement, goal.KeywordFallback("put the logo on the front", withProduct))

	complete := recordAt(order.StepCustomerInformation)
	assert.Equal(t, order.StepCustomerInformation, goal.KeywordFallback("ship it to my address", complete))
}

func TestKeywordFallback_NoMatchUsesNextStep(t *testing.T) {
	rec := recordAt(order.StepQuantityCollection)
	assert.Equal(t, order.StepQuantityCollection, goal.KeywordFallback("sounds good, let's continue", rec))
}
