package discovery

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/vectorstore"
)

// RefIDKey is the payload field holding the catalog ID a vector point refers to.
const RefIDKey = vectorstore.RefIDField

// resolution is the joined output of name resolution and feature retrieval.
type resolution struct {
	query      ResolvedQuery
	candidates CandidateSet
	// featureErr is a feature index failure held back for the degrade policy.
	featureErr error
}

// resolve looks up brand, product and ingredient IDs and, when featurePath is
// set, feature candidates, all concurrently. The product is chosen after the
// brand is known.
func (e *Engine) resolve(ctx context.Context, req Request, featurePath bool) (resolution, error) {
	q := req.Parsed
	g, gctx := errgroup.WithContext(ctx)

	var brandID *int64
	if brand, ok := present(q.Brand); ok {
		g.Go(func() error {
			id, err := e.nearest(gctx, e.collections.Brand, brand)
			brandID = id
			return err
		})
	}

	var productIDs []int64
	if product, ok := present(q.Product); ok {
		g.Go(func() error {
			ids, err := e.neighbours(gctx, e.collections.Product, product, e.productCandidates)
			productIDs = ids
			return err
		})
	}

	ingredients := nonBlank(q.Ingredients)
	slots := make([]*int64, len(ingredients))
	for i, name := range ingredients {
		g.Go(func() error {
			id, err := e.nearest(gctx, e.collections.Ingredient, name)
			slots[i] = id
			return err
		})
	}

	var (
		candidates CandidateSet
		featureErr error
	)
	if featurePath {
		g.Go(func() error {
			candidates, featureErr = e.featureCandidates(gctx, q.Features, req.Query)
			if featureErr != nil && e.failurePolicy != DegradeToRelational {
				return featureErr
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return resolution{}, err
	}

	rq := ResolvedQuery{
		BrandID:       brandID,
		IngredientIDs: collapse(slots),
		Price:         q.Price,
	}
	if category, ok := present(q.Category); ok {
		rq.Category = &category
	}

	if len(productIDs) > 0 {
		id, err := e.pickProduct(ctx, brandID, productIDs)
		if err != nil {
			return resolution{}, err
		}
		rq.ProductID = &id
	}

	return resolution{query: rq, candidates: candidates, featureErr: featureErr}, nil
}

// pickProduct returns the first neighbour made by the resolved brand, or the
// top neighbour when there is no brand or none of them matches.
func (e *Engine) pickProduct(ctx context.Context, brandID *int64, neighbours []int64) (int64, error) {
	if brandID == nil || len(neighbours) == 1 {
		return neighbours[0], nil
	}

	brands, err := e.products.BrandsOf(ctx, neighbours)
	if err != nil {
		return 0, &CollaboratorError{Op: OpStore, Target: "brands", Err: err}
	}
	for _, id := range neighbours {
		if b, ok := brands[id]; ok && b == *brandID {
			return id, nil
		}
	}
	return neighbours[0], nil
}

// nearest returns the single closest catalog ID for text, or nil when the
// collection is empty. There is no confidence threshold.
func (e *Engine) nearest(ctx context.Context, collection, text string) (*int64, error) {
	ids, err := e.neighbours(ctx, collection, text, 1)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return &ids[0], nil
}

// neighbours returns up to k distinct catalog IDs closest to text, best first.
func (e *Engine) neighbours(ctx context.Context, collection, text string, k int) ([]int64, error) {
	hits, err := e.search(ctx, collection, text, k)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(hits))
	seen := make(map[int64]struct{}, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.id]; ok {
			continue
		}
		seen[h.id] = struct{}{}
		ids = append(ids, h.id)
	}
	return ids, nil
}

// hit is a vector search result mapped to a catalog ID.
type hit struct {
	id    int64
	score float32
}

// search embeds text and returns the k nearest hits mapped to catalog IDs.
func (e *Engine) search(ctx context.Context, collection, text string, k int) ([]hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	vec, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, &CollaboratorError{Op: OpEmbed, Target: collection, Err: err}
	}

	results, err := e.vectorStore.Search(ctx, collection, vec, k)
	if err != nil {
		return nil, &CollaboratorError{Op: OpSearch, Target: collection, Err: err}
	}

	hits := make([]hit, 0, len(results))
	for _, r := range results {
		id, ok := refID(r)
		if !ok {
			logger.WarnContext(ctx, "skipping point without catalog reference", "collection", collection, "point_id", r.PointID)
			continue
		}
		hits = append(hits, hit{id: id, score: r.Score})
	}

	logger.DebugContext(ctx, "vector lookup", "collection", collection, "text", text, "k", k, "hits", len(hits))
	return hits, nil
}

// featureCandidates searches the feature collection with the joined feature
// phrases, or the raw query when the phrases are blank.
func (e *Engine) featureCandidates(ctx context.Context, features []string, rawQuery string) (CandidateSet, error) {
	text := strings.Join(nonBlank(features), " ")
	if text == "" {
		text = strings.TrimSpace(rawQuery)
	}
	if text == "" {
		return Dedupe(nil), nil
	}

	hits, err := e.search(ctx, e.collections.Feature, text, e.featureTopK)
	if err != nil {
		return CandidateSet{}, err
	}

	candidates := make([]Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = Candidate{ProductID: h.id, Score: h.score}
	}
	return Dedupe(candidates), nil
}

// refID extracts the catalog ID from a point's payload, falling back to a
// numeric point ID.
func refID(r vectorstore.SearchResult) (int64, bool) {
	switch v := r.Meta[RefIDKey].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id, true
		}
	}
	if id, err := strconv.ParseInt(r.PointID, 10, 64); err == nil {
		return id, true
	}
	return 0, false
}

// collapse drops unresolved slots and duplicate IDs, keeping first occurrence.
func collapse(slots []*int64) []int64 {
	var ids []int64
	seen := make(map[int64]struct{}, len(slots))
	for _, id := range slots {
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	return ids
}
