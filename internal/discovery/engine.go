package discovery

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks aller-discovery/internal/discovery Embedder

import (
	"context"
	"fmt"
	"log/slog"

	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/storage"
	"aller-discovery/internal/vectorstore"
)

// Embedder produces an embedding for a single text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Collections names the vector collections the engine searches.
type Collections struct {
	Brand      string
	Product    string
	Ingredient string
	Feature    string
}

// All returns the collection names in a fixed order.
func (c Collections) All() []string {
	return []string{c.Brand, c.Product, c.Ingredient, c.Feature}
}

// FailurePolicy decides what happens when the feature index fails.
type FailurePolicy string

const (
	// FailRequest surfaces the feature index error to the caller.
	FailRequest FailurePolicy = "fail"
	// DegradeToRelational answers from relational filtering alone when the
	// query has a hard filter, and marks the result as degraded.
	DegradeToRelational FailurePolicy = "degrade"
)

// ParseFailurePolicy validates a policy name.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case FailRequest, DegradeToRelational:
		return FailurePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown feature failure policy %q", s)
	}
}

// Defaults for Engine options.
const (
	DefaultFeatureTopK       = 300
	DefaultResultLimit       = 30
	DefaultProductCandidates = 5
)

// Option configures an Engine.
type Option func(*Engine)

// WithFeatureTopK sets how many feature neighbours are retrieved.
func WithFeatureTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.featureTopK = k
		}
	}
}

// WithResultLimit sets the default number of products returned.
func WithResultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.resultLimit = n
		}
	}
}

// WithProductCandidates sets how many product-name neighbours are considered
// when resolving a product mention.
func WithProductCandidates(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.productCandidates = n
		}
	}
}

// WithFailurePolicy sets the feature index failure policy.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(e *Engine) {
		e.failurePolicy = p
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine runs the hybrid retrieval and ranking pipeline. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collections Collections
	products    storage.ProductStore

	featureTopK       int
	resultLimit       int
	productCandidates int
	failurePolicy     FailurePolicy
	logger            *slog.Logger
}

// NewEngine creates a new Engine.
func NewEngine(
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collections Collections,
	products storage.ProductStore,
	opts ...Option,
) *Engine {
	e := &Engine{
		embedder:          embedder,
		vectorStore:       vectorStore,
		collections:       collections,
		products:          products,
		featureTopK:       DefaultFeatureTopK,
		resultLimit:       DefaultResultLimit,
		productCandidates: DefaultProductCandidates,
		failurePolicy:     FailRequest,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) getLogger(ctx context.Context) *slog.Logger {
	if contextutil.HasLogger(ctx) {
		return contextutil.LoggerFromContext(ctx)
	}
	return e.logger
}

// Search runs the pipeline for one request.
//
// Scarce queries return immediately without touching any collaborator.
// Otherwise names are resolved and feature candidates retrieved concurrently,
// then products are filtered and ranked. Queries with feature phrases are
// ranked by feature similarity, restricted by any hard filter; queries without
// are answered by the relational filter alone.
func (e *Engine) Search(ctx context.Context, req Request) (Result, error) {
	logger := e.getLogger(ctx)
	q := req.Parsed

	limit := req.Limit
	if limit <= 0 {
		limit = e.resultLimit
	}

	if IsScarce(q) {
		logger.InfoContext(ctx, "query too vague, skipping retrieval")
		return Result{
			Products: []storage.ProductRecord{},
			Outcome:  OutcomeScarce,
			Message:  GuidanceMessage,
		}, nil
	}

	featurePath := len(nonBlank(q.Features)) > 0
	res, err := e.resolve(ctx, req, featurePath)
	if err != nil {
		return Result{}, err
	}

	result := Result{Resolved: res.query}
	regime := "relational"

	switch {
	case featurePath && res.featureErr == nil:
		regime = "feature"
		products, err := e.rankCandidates(ctx, res.query, res.candidates, limit)
		if err != nil {
			return Result{}, err
		}
		result.Products = products
		result.Scores = scoresFor(products, res.candidates)

	case featurePath:
		if e.failurePolicy != DegradeToRelational || !res.query.HasHardFilter() {
			return Result{}, res.featureErr
		}
		logger.WarnContext(ctx, "feature index failed, answering from relational filter", "error", res.featureErr)
		regime = "degraded"
		result.Degraded = true
		fallthrough

	default:
		products, err := e.filterRelational(ctx, res.query, limit)
		if err != nil {
			return Result{}, err
		}
		result.Products = products
	}

	if len(result.Products) == 0 {
		result.Outcome = OutcomeNoMatch
		result.Message = NoMatchMessage
	} else {
		result.Outcome = OutcomeRanked
	}

	logger.InfoContext(ctx, "search completed",
		"regime", regime,
		"candidates", res.candidates.Len(),
		"hard_filter", res.query.HasHardFilter(),
		"results", len(result.Products),
		"outcome", result.Outcome,
	)
	return result, nil
}

// rankCandidates ranks feature candidates. With a hard filter every candidate
// is filtered before ranking so the provisional store order cannot drop
// high-scoring products; without one the top candidates are fetched directly.
func (e *Engine) rankCandidates(ctx context.Context, rq ResolvedQuery, cands CandidateSet, limit int) ([]storage.ProductRecord, error) {
	if cands.Len() == 0 {
		return []storage.ProductRecord{}, nil
	}

	r := ranker{scores: cands.Scores(), price: policyFor(rq.Price)}

	if rq.HasHardFilter() {
		filter := filterFor(rq)
		filter.Restrict = true
		filter.CandidateIDs = cands.IDs()
		filter.Limit = cands.Len()

		products, err := e.products.Filter(ctx, filter)
		if err != nil {
			return nil, &CollaboratorError{Op: OpStore, Target: "filter", Err: err}
		}
		return r.rank(products, limit), nil
	}

	products, err := e.products.FetchByIDs(ctx, cands.Top(limit))
	if err != nil {
		return nil, &CollaboratorError{Op: OpStore, Target: "fetch", Err: err}
	}
	return r.rank(products, limit), nil
}

// filterRelational answers from the relational store alone. Without a price
// bound the store's popularity order is kept.
func (e *Engine) filterRelational(ctx context.Context, rq ResolvedQuery, limit int) ([]storage.ProductRecord, error) {
	filter := filterFor(rq)
	filter.Limit = limit

	policy := policyFor(rq.Price)
	if rq.Price.HasBound() {
		filter.Order = policy.storeOrder()
	}

	products, err := e.products.Filter(ctx, filter)
	if err != nil {
		return nil, &CollaboratorError{Op: OpStore, Target: "filter", Err: err}
	}

	if rq.Price.HasBound() {
		products = ranker{price: policy}.rank(products, limit)
	}
	return products, nil
}

func filterFor(rq ResolvedQuery) storage.ProductFilter {
	return storage.ProductFilter{
		BrandID:       rq.BrandID,
		ProductID:     rq.ProductID,
		Category:      rq.Category,
		MinPrice:      rq.Price.Min,
		MaxPrice:      rq.Price.Max,
		IngredientIDs: rq.IngredientIDs,
	}
}

func scoresFor(products []storage.ProductRecord, cands CandidateSet) map[int64]float32 {
	scores := make(map[int64]float32, len(products))
	for _, p := range products {
		if s, ok := cands.Score(p.ID); ok {
			scores[p.ID] = s
		}
	}
	return scores
}
