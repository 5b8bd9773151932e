package goal

import (
	"context"
	"fmt"
	"strings"

	"printshop-assistant/internal/completion"
	"printshop-assistant/internal/order"
)

const classifyInstruction = `You are an intent classifier for a custom apparel print shop assistant.
Classify the customer's message into exactly one ordering stage.
Reply with only one of these labels and nothing else:
product_selection, design_placement, quantity_collection, customer_information.`

// CompletionClassifier labels messages via the text-completion
// capability using a fixed instruction prompt.
type CompletionClassifier struct {
	client *completion.Client
}

func NewCompletionClassifier(client *completion.Client) *CompletionClassifier {
	return &CompletionClassifier{client: client}
}

func (c *CompletionClassifier) Classify(ctx context.Context, message string) (order.Step, error) {
	reply, err := c.client.Complete(ctx, []completion.Message{
		{Role: "system", Content: classifyInstruction},
		{Role: "user", Content: message},
	}, 0)
	if err != nil {
		return "", err
	}

	normalized := strings.ToLower(strings.TrimSpace(reply))
	for _, stage := range []order.Step{
		order.StepProductSelection,
		order.StepDesignPlacement,
		order.StepQuantityCollection,
		order.StepCustomerInformation,
	} {
		if strings.Contains(normalized, string(stage)) {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unrecognized goal label %q", reply)
}
