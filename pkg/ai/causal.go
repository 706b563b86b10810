package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/finvista/evograph/pkg/common"
)

// CausalExplainer generates human-readable narratives for accepted evolution
// links. The narratives are advisory only: they are stored alongside links
// for display purposes and never feed back into any score.
type CausalExplainer struct {
	client ModelClient
}

// NewCausalExplainer wraps a model client. A nil client is allowed and
// makes Explain a no-op that returns an empty narrative.
func NewCausalExplainer(client ModelClient) *CausalExplainer {
	return &CausalExplainer{client: client}
}

type causalNarrative struct {
	Narrative  string  `json:"narrative"  jsonschema_description:"One to two sentences explaining how the earlier event plausibly led to the later event."`
	Confidence float64 `json:"confidence" jsonschema_description:"Confidence in the narrative between 0 and 1."`
}

// Explain asks the chat model for a short narrative describing how the
// earlier event may have led to the later one. The pattern explanation from
// the causal table, when present, is offered to the model as a hint.
func (e *CausalExplainer) Explain(
	ctx context.Context,
	from *common.Event,
	to *common.Event,
	patternHint string,
) (string, error) {
	if e.client == nil {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Earlier event (%s, %s): %s\n",
		from.Type, from.Date.Format("2006-01-02"), from.Text())
	fmt.Fprintf(&b, "Later event (%s, %s): %s\n",
		to.Type, to.Date.Format("2006-01-02"), to.Text())
	if patternHint != "" {
		fmt.Fprintf(&b, "Known pattern between these event types: %s\n", patternHint)
	}
	b.WriteString("Describe in one or two sentences how the earlier event plausibly evolved into the later one.")

	var out causalNarrative
	err := e.client.GenerateCompletionWithFormat(
		ctx,
		"causal_narrative",
		"A short narrative linking two financial news events.",
		b.String(),
		&out,
		WithTemperature(0.2),
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Narrative), nil
}
