// Package engine runs the two-phase evaluation pipeline: hard elimination
// of sites failing critical criteria (cheapest filters first), then fuzzy
// scoring of the survivors, folded into a bounded top-N result. Fallback
// tiers relax the configuration when a run comes back too empty.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/terrasift/terrasift/internal/criteria"
	"github.com/terrasift/terrasift/internal/metrics"
	"github.com/terrasift/terrasift/internal/rank"
	"github.com/terrasift/terrasift/internal/scoring"
	"github.com/terrasift/terrasift/internal/site"
)

// Status is the run-level outcome the caller always receives alongside the
// (possibly empty) ranked list.
type Status string

const (
	StatusRunning            Status = "running"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
	StatusExhaustedFallbacks Status = "exhausted_fallbacks"
)

// Tier is one configuration variant in the ordered fallback chain. Tier 0
// is the user's primary configuration; later tiers relax it.
type Tier struct {
	Label  string          `json:"label" yaml:"label"`
	Config criteria.Config `json:"config" yaml:"config"`
}

// Request describes one evaluation run. Tiers are tried strictly in order
// until one yields at least MinAcceptable results.
type Request struct {
	Tiers         []Tier              `json:"tiers"`
	TopN          int                 `json:"top_n"`
	MinAcceptable int                 `json:"min_acceptable"`
	Modifiers     []criteria.Modifier `json:"modifiers,omitempty"`
}

// ResultEntry is one ranked site. The breakdown is only populated for the
// final top-N, never for every scored site.
type ResultEntry struct {
	SiteID    site.ID            `json:"site_id"`
	Score     float64            `json:"score"`
	Breakdown *scoring.Breakdown `json:"breakdown,omitempty"`
}

// Result is the outcome of a whole evaluation, including which tier
// produced it. Entries always come from the reported tier; results are
// never silently mixed across tiers.
type Result struct {
	Status        Status        `json:"status"`
	TierUsed      int           `json:"tier_used"`
	TierLabel     string        `json:"tier_label"`
	Entries       []ResultEntry `json:"entries"`
	Survivors     int           `json:"survivors"`
	TotalEligible int           `json:"total_eligible"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

// Engine evaluates requests against a fixed provider. It holds no per-run
// state; a single engine serves concurrent evaluations.
type Engine struct {
	provider  site.Provider
	params    scoring.Params
	chunkSize int
	workers   int
	logger    *slog.Logger
}

// New builds an engine. chunkSize bounds how many sites are processed
// between cancellation checks; workers is the data-parallel fan-out within
// a chunk.
func New(provider site.Provider, params scoring.Params, chunkSize, workers int, logger *slog.Logger) *Engine {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		provider:  provider,
		params:    params,
		chunkSize: chunkSize,
		workers:   workers,
		logger:    logger,
	}
}

// Validate rejects a malformed request before any site is touched.
func (e *Engine) Validate(req *Request) error {
	if len(req.Tiers) == 0 {
		return &criteria.ConfigError{Reason: "at least one tier required"}
	}
	for i := range req.Tiers {
		if err := req.Tiers[i].Config.Validate(); err != nil {
			return err
		}
	}
	if err := e.params.Validate(); err != nil {
		return err
	}
	return nil
}

// Evaluate runs the tiers in order and returns the first acceptable
// result. Cancellation surfaces as StatusCancelled with no entries — a
// partial top-N is never presented as final. Exhausting all tiers returns
// the last tier's result with StatusExhaustedFallbacks.
func (e *Engine) Evaluate(ctx context.Context, req *Request) (*Result, error) {
	if err := e.Validate(req); err != nil {
		return nil, err
	}
	topN := req.TopN
	if topN <= 0 {
		topN = 20
	}
	minAcceptable := req.MinAcceptable
	if minAcceptable <= 0 {
		minAcceptable = 1
	}
	mods := req.Modifiers
	if mods == nil {
		mods = criteria.DefaultModifiers()
	}

	start := time.Now()
	var last *Result
	for i := range req.Tiers {
		tier := &req.Tiers[i]
		res := e.runTier(ctx, tier, topN, mods)
		res.TierUsed = i
		res.TierLabel = tier.Label
		if res.Status == StatusCancelled {
			res.Entries = nil
			res.Elapsed = time.Since(start)
			metrics.EvaluationFinished(string(StatusCancelled), res.Elapsed)
			return res, nil
		}
		if len(res.Entries) >= minAcceptable {
			res.Status = StatusCompleted
			res.Elapsed = time.Since(start)
			if i > 0 {
				e.logger.Info("fallback tier adopted", "tier", i, "label", tier.Label, "results", len(res.Entries))
				metrics.FallbackUsed(tier.Label)
			}
			metrics.EvaluationFinished(string(StatusCompleted), res.Elapsed)
			return res, nil
		}
		e.logger.Info("tier below minimum, escalating",
			"tier", i, "label", tier.Label, "results", len(res.Entries), "min_acceptable", minAcceptable)
		last = res
	}

	last.Status = StatusExhaustedFallbacks
	last.Elapsed = time.Since(start)
	metrics.EvaluationFinished(string(StatusExhaustedFallbacks), last.Elapsed)
	return last, nil
}

// tierPlan precomputes everything scoring needs for one tier so the hot
// loop stays allocation-light.
type tierPlan struct {
	active      []criteria.Criterion
	applyOrder  []criteria.Criterion
	critWeights map[string]float64
	prefWeights map[string]float64
	agg         *scoring.Aggregator
	modifiers   []criteria.Modifier
	selected    map[string]bool

	// one "attribute unavailable" log line per run, not per site
	attrWarned atomic.Bool
	logger     *slog.Logger
}

func (e *Engine) plan(tier *Tier, mods []criteria.Modifier) *tierPlan {
	p := &tierPlan{
		active:      tier.Config.Active(),
		applyOrder:  tier.Config.CriticalOrdered(),
		critWeights: make(map[string]float64),
		prefWeights: make(map[string]float64),
		modifiers:   mods,
		selected:    tier.Config.SelectedAttributes(),
		logger:      e.logger,
	}
	nCrit, nPref := 0, 0
	for _, c := range p.active {
		if c.HasCritical() {
			nCrit++
			p.critWeights[c.ID] = e.params.RankWeight(rankOr(c.Rank, nCrit))
		}
		if c.HasPreferred() {
			nPref++
			p.prefWeights[c.ID] = e.params.RankWeight(rankOr(c.Rank, nPref))
		}
	}
	p.agg = scoring.NewAggregator(e.params, nCrit, nPref)
	return p
}

func rankOr(explicit, position int) int {
	if explicit > 0 {
		return explicit
	}
	return position
}

func (p *tierPlan) warnAttr(err error) {
	if p.attrWarned.CompareAndSwap(false, true) {
		p.logger.Warn("attribute unavailable, affected memberships degrade to 0", "error", err)
	}
}

// runTier executes one full apply+score cycle for a single tier.
func (e *Engine) runTier(ctx context.Context, tier *Tier, topN int, mods []criteria.Modifier) *Result {
	p := e.plan(tier, mods)
	survivors := e.provider.IDs()
	total := len(survivors)

	// Apply phase: sequential hard elimination, cheapest criteria first.
	// Each filter's output feeds the next filter's input; an empty set
	// short-circuits the rest.
	for i := range p.applyOrder {
		c := &p.applyOrder[i]
		var cancelled bool
		survivors, cancelled = e.applyFilter(ctx, p, c, survivors)
		if cancelled {
			return &Result{Status: StatusCancelled, TotalEligible: total}
		}
		if len(survivors) == 0 {
			break
		}
	}
	metrics.ApplySurvivors(len(survivors), total)

	// Score phase: memberships for every active criterion plus the
	// modifier signal, folded into per-worker trackers.
	tracker, cancelled := e.scorePhase(ctx, p, survivors, topN)
	if cancelled {
		return &Result{Status: StatusCancelled, TotalEligible: total}
	}

	// The breakdown pass re-scores the winners; a cancellation here must not
	// ship breakdowns computed against a dead context as a completed result.
	if ctx.Err() != nil {
		return &Result{Status: StatusCancelled, TotalEligible: total}
	}

	entries := make([]ResultEntry, 0, tracker.Len())
	for _, re := range tracker.Sorted() {
		b := e.scoreSite(ctx, p, re.SiteID)
		entries = append(entries, ResultEntry{SiteID: re.SiteID, Score: re.Score, Breakdown: &b})
	}

	return &Result{
		Status:        StatusRunning,
		Entries:       entries,
		Survivors:     len(survivors),
		TotalEligible: total,
	}
}

// applyFilter runs one criterion's hard test over the surviving set in
// cancellable chunks, workers covering contiguous segments so the output
// order stays deterministic.
func (e *Engine) applyFilter(ctx context.Context, p *tierPlan, c *criteria.Criterion, ids []site.ID) ([]site.ID, bool) {
	out := make([]site.ID, 0, len(ids))
	for start := 0; start < len(ids); start += e.chunkSize {
		if ctx.Err() != nil {
			return nil, true
		}
		chunk := ids[start:min(start+e.chunkSize, len(ids))]
		segments := splitSegments(chunk, e.workers)
		kept := make([][]site.ID, len(segments))

		var wg sync.WaitGroup
		for wi, seg := range segments {
			wg.Add(1)
			go func(wi int, seg []site.ID) {
				defer wg.Done()
				keep := make([]site.ID, 0, len(seg))
				for _, id := range seg {
					ok, err := c.Apply(ctx, e.provider, id, e.params.ApplyThreshold)
					if err != nil {
						// Can't prove the site passes a critical filter.
						p.warnAttr(err)
						continue
					}
					if ok {
						keep = append(keep, id)
					}
				}
				kept[wi] = keep
			}(wi, seg)
		}
		wg.Wait()
		for _, k := range kept {
			out = append(out, k...)
		}
	}
	return out, false
}

// scorePhase scores survivors chunk by chunk. Each worker owns a private
// tracker; the merge at the end is the only synchronization.
func (e *Engine) scorePhase(ctx context.Context, p *tierPlan, ids []site.ID, topN int) (*rank.Tracker, bool) {
	result := rank.NewTracker(topN)
	for start := 0; start < len(ids); start += e.chunkSize {
		if ctx.Err() != nil {
			return nil, true
		}
		chunk := ids[start:min(start+e.chunkSize, len(ids))]
		segments := splitSegments(chunk, e.workers)
		trackers := make([]*rank.Tracker, len(segments))

		var wg sync.WaitGroup
		for wi, seg := range segments {
			wg.Add(1)
			go func(wi int, seg []site.ID) {
				defer wg.Done()
				tr := rank.NewTracker(topN)
				for _, id := range seg {
					b := e.scoreSite(ctx, p, id)
					tr.Offer(rank.Entry{SiteID: id, Score: b.FinalScore})
				}
				trackers[wi] = tr
			}(wi, seg)
		}
		wg.Wait()
		for _, tr := range trackers {
			result.Merge(tr)
		}
	}
	return result, false
}

// scoreSite computes the full membership breakdown for one site. Attribute
// failures degrade the affected membership to 0 and never abort the run.
func (e *Engine) scoreSite(ctx context.Context, p *tierPlan, id site.ID) scoring.Breakdown {
	var criticals, preferreds []scoring.MembershipResult

	for i := range p.active {
		c := &p.active[i]
		if c.Kind == criteria.KindSet {
			attrs, ok := e.provider.Cheap(id)
			if !ok {
				continue
			}
			values, _ := attrs.Values(c.AttributeKey())
			if c.HasCritical() {
				v := 0.0
				if c.CriticalSatisfied(values) {
					v = 1.0
				}
				criticals = append(criticals, scoring.MembershipResult{
					CriterionID: c.ID, Importance: string(criteria.ImportanceCritical),
					Value: v, Weight: p.critWeights[c.ID], Matched: v > 0,
				})
			}
			if frac, ok := c.PreferredFraction(values); ok {
				preferreds = append(preferreds, scoring.MembershipResult{
					CriterionID: c.ID, Importance: string(criteria.ImportancePreferred),
					Value: frac, Weight: p.prefWeights[c.ID], Matched: frac > 0,
				})
			}
			continue
		}

		m, err := c.Membership(ctx, e.provider, id)
		if err != nil {
			p.warnAttr(err)
			m = 0
		}
		res := scoring.MembershipResult{
			CriterionID: c.ID, Importance: string(c.Importance),
			Value: m, Matched: m > 0,
		}
		if c.HasCritical() {
			res.Weight = p.critWeights[c.ID]
			criticals = append(criticals, res)
		} else {
			res.Weight = p.prefWeights[c.ID]
			preferreds = append(preferreds, res)
		}
	}

	var modSum float64
	if attrs, ok := e.provider.Cheap(id); ok {
		modSum, _ = criteria.ModifierSum(p.modifiers, attrs, p.selected)
	}
	return p.agg.Score(criticals, preferreds, modSum)
}

func splitSegments(ids []site.ID, workers int) [][]site.ID {
	if len(ids) == 0 {
		return nil
	}
	if workers > len(ids) {
		workers = len(ids)
	}
	segs := make([][]site.ID, 0, workers)
	size := (len(ids) + workers - 1) / workers
	for start := 0; start < len(ids); start += size {
		segs = append(segs, ids[start:min(start+size, len(ids))])
	}
	return segs
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
