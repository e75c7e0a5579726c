package events

// Subjects for evaluation lifecycle events.
const (
	SubjectEvaluationStarted   = "terrasift.evaluation.started"
	SubjectEvaluationCompleted = "terrasift.evaluation.completed"
	SubjectEvaluationFallback  = "terrasift.evaluation.fallback"
)

// EvaluationStartedEvent is published when a run is accepted.
type EvaluationStartedEvent struct {
	RunID string `json:"run_id"`
	Tiers int    `json:"tiers"`
	TopN  int    `json:"top_n"`
}

// EvaluationCompletedEvent is published when a run reaches a terminal
// status, whatever that status is.
type EvaluationCompletedEvent struct {
	RunID     string  `json:"run_id"`
	Status    string  `json:"status"`
	TierUsed  int     `json:"tier_used"`
	TierLabel string  `json:"tier_label,omitempty"`
	Results   int     `json:"results"`
	ElapsedMs float64 `json:"elapsed_ms"`
}

// EvaluationFallbackEvent is published when a relaxed tier produced the
// adopted result.
type EvaluationFallbackEvent struct {
	RunID     string `json:"run_id"`
	TierUsed  int    `json:"tier_used"`
	TierLabel string `json:"tier_label,omitempty"`
}
