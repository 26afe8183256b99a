package pregel

import (
	"fmt"
	"sync"
	"time"
)

// ModelPricing is the USD-per-1M-token cost of one model's input and
// output tokens.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// defaultModelPricing is a static table of well-known model prices, used by
// agent vertices to attribute spend without calling out to a pricing API.
// Update as providers change prices.
var defaultModelPricing = map[string]ModelPricing{
	"gpt-4o":                     {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":                {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo":                {InputPer1M: 10.00, OutputPer1M: 30.00},
	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-opus-20240229":     {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},
	"gemini-1.5-pro":             {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash":           {InputPer1M: 0.075, OutputPer1M: 0.30},
}

// ErrUnknownModel is returned by CostTracker.RecordLLMCall when model isn't
// present in the pricing table.
var ErrUnknownModel = fmt.Errorf("pregel: unknown model in pricing table")

// LLMCall records one agent vertex's LLM invocation for cost attribution.
type LLMCall struct {
	VertexID     VertexId
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
}

// CostTracker accumulates LLM spend across agent vertex calls within a run.
// Attach via WithCostTracker; agent vertices call RecordLLMCall after each
// completion.
type CostTracker struct {
	mu sync.Mutex

	runID      string
	pricing    map[string]ModelPricing
	calls      []LLMCall
	totalCost  float64
	modelCosts map[string]float64
}

// NewCostTracker creates a tracker for one run using the default pricing
// table.
func NewCostTracker(runID string) *CostTracker {
	return &CostTracker{
		runID:      runID,
		pricing:    defaultModelPricing,
		modelCosts: make(map[string]float64),
	}
}

// RecordLLMCall attributes inputTokens/outputTokens spent by vertex against
// model's pricing. Returns ErrUnknownModel if model isn't priced; the call
// still happened, so callers should log rather than fail the workflow on
// this error.
func (ct *CostTracker) RecordLLMCall(vertex VertexId, model string, inputTokens, outputTokens int) (float64, error) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing, ok := ct.pricing[model]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	cost := (float64(inputTokens)*pricing.InputPer1M + float64(outputTokens)*pricing.OutputPer1M) / 1_000_000
	ct.calls = append(ct.calls, LLMCall{
		VertexID:     vertex,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		Timestamp:    time.Now(),
	})
	ct.totalCost += cost
	ct.modelCosts[model] += cost

	return cost, nil
}

// TotalCost returns cumulative USD spend recorded so far.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.totalCost
}

// CostByModel returns a snapshot of per-model spend.
func (ct *CostTracker) CostByModel() map[string]float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make(map[string]float64, len(ct.modelCosts))
	for k, v := range ct.modelCosts {
		out[k] = v
	}
	return out
}

// Calls returns a copy of every recorded LLM call.
func (ct *CostTracker) Calls() []LLMCall {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]LLMCall, len(ct.calls))
	copy(out, ct.calls)
	return out
}
