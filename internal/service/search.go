package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_analyzer.go -package=mocks aller-discovery/internal/service QueryAnalyzer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_engine.go -package=mocks aller-discovery/internal/service SearchEngine
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks -mock_names=SearchService=MockSearchService aller-discovery/internal/service SearchService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"aller-discovery/internal/analyzer"
	"aller-discovery/internal/category"
	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/discovery"
)

// MaxLimit caps the number of products a caller may request.
const MaxLimit = 100

// OutcomeGeneral marks a query that is not a product search.
const OutcomeGeneral discovery.Outcome = "general"

// GeneralMessage is returned for informational questions.
const GeneralMessage = "제품 추천 질문이 아닌 것 같아요. 찾는 제품의 종류, 브랜드, 성분, 가격대를 알려 주시면 추천해 드릴게요."

// QueryAnalyzer turns raw text into a structured query.
type QueryAnalyzer interface {
	Analyze(ctx context.Context, query string) (analyzer.Analysis, error)
}

// SearchEngine runs the retrieval and ranking pipeline.
type SearchEngine interface {
	Search(ctx context.Context, req discovery.Request) (discovery.Result, error)
}

// SearchRequest is a search request in the domain layer. When Parsed is nil
// the query is analyzed first.
type SearchRequest struct {
	Query  string
	Parsed *discovery.ParsedQuery
	Limit  int
}

// SearchResponse is a search response in the domain layer.
type SearchResponse struct {
	Outcome  discovery.Outcome
	Message  string
	Parsed   discovery.ParsedQuery
	Resolved discovery.ResolvedQuery
	Products []ProductCard
	Degraded bool
}

// SearchService answers product discovery queries.
type SearchService interface {
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
}

type searchService struct {
	analyzer   QueryAnalyzer
	engine     SearchEngine
	vocabulary *category.Vocabulary
	logger     *slog.Logger
}

// NewSearchService creates a new SearchService. analyzer may be nil, in which
// case every request must carry a parsed query.
func NewSearchService(analyzer QueryAnalyzer, engine SearchEngine, vocabulary *category.Vocabulary) SearchService {
	if vocabulary == nil {
		vocabulary = category.Default()
	}
	return &searchService{
		analyzer:   analyzer,
		engine:     engine,
		vocabulary: vocabulary,
		logger:     slog.Default(),
	}
}

// Search validates the request, analyzes it when needed and runs the pipeline.
func (s *searchService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validate(req); err != nil {
		logger.WarnContext(ctx, "invalid search request", "error", err)
		return SearchResponse{}, err
	}

	var parsed discovery.ParsedQuery
	if req.Parsed != nil {
		parsed = *req.Parsed
		parsed.Category = s.normalizeCategory(parsed.Category)
	} else {
		if s.analyzer == nil {
			return SearchResponse{}, ErrAnalyzerUnavailable
		}
		analysis, err := s.analyzer.Analyze(ctx, req.Query)
		if err != nil {
			logger.ErrorContext(ctx, "failed to analyze query", "error", err)
			return SearchResponse{}, fmt.Errorf("%w: %w", ErrExternalService, err)
		}
		if analysis.Intent != analyzer.IntentProductFind {
			logger.InfoContext(ctx, "query is not a product search")
			return SearchResponse{
				Outcome:  OutcomeGeneral,
				Message:  GeneralMessage,
				Parsed:   analysis.Parsed,
				Products: []ProductCard{},
			}, nil
		}
		parsed = analysis.Parsed
	}

	result, err := s.engine.Search(ctx, discovery.Request{
		Query:  req.Query,
		Parsed: parsed,
		Limit:  req.Limit,
	})
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "error", err)
		return SearchResponse{}, fmt.Errorf("search failed: %w", err)
	}

	return SearchResponse{
		Outcome:  result.Outcome,
		Message:  result.Message,
		Parsed:   parsed,
		Resolved: result.Resolved,
		Products: Present(result.Products, result.Scores),
		Degraded: result.Degraded,
	}, nil
}

// normalizeCategory maps a caller-supplied category onto the vocabulary.
// Unknown categories are kept as given and simply match nothing.
func (s *searchService) normalizeCategory(raw *string) *string {
	if raw == nil {
		return nil
	}
	if c, ok := s.vocabulary.Normalize(*raw); ok {
		return &c
	}
	return raw
}

func validate(req SearchRequest) error {
	if req.Parsed == nil && strings.TrimSpace(req.Query) == "" {
		return invalid("query", "cannot be empty")
	}
	if req.Limit < 0 || req.Limit > MaxLimit {
		return invalid("limit", "must be between 0 and %d", MaxLimit)
	}
	if req.Parsed == nil {
		return nil
	}

	p := req.Parsed.Price
	if (p.Min != nil && *p.Min < 0) || (p.Max != nil && *p.Max < 0) {
		return invalid("price", "cannot be negative")
	}
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return invalid("price", "min %d exceeds max %d", *p.Min, *p.Max)
	}
	return nil
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
