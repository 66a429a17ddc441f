// Package analyzer turns a free-text shopping query into a structured query
// using a chat-completions model.
package analyzer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_client.go -package=mocks aller-discovery/internal/analyzer ChatClient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"aller-discovery/internal/category"
	"aller-discovery/internal/contextutil"
	"aller-discovery/internal/discovery"
	"aller-discovery/internal/llm"
)

// Intent is the routing decision for a query.
type Intent string

const (
	// IntentProductFind asks for product recommendations.
	IntentProductFind Intent = "PRODUCT_FIND"
	// IntentGeneral is an informational question or small talk.
	IntentGeneral Intent = "GENERAL"
)

// ChatClient is the subset of the LLM client the analyzer needs.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Analysis is the analyzer's view of a query.
type Analysis struct {
	Intent Intent                `json:"intent"`
	Parsed discovery.ParsedQuery `json:"parsed"`
}

// Analyzer extracts intent and filters from a query.
type Analyzer struct {
	client     ChatClient
	vocabulary *category.Vocabulary
	params     llm.ChatParams
}

// New creates an Analyzer. A nil vocabulary uses the built-in one.
func New(client ChatClient, vocabulary *category.Vocabulary) *Analyzer {
	if vocabulary == nil {
		vocabulary = category.Default()
	}
	return &Analyzer{
		client:     client,
		vocabulary: vocabulary,
		params:     llm.ChatParams{JSONMode: true},
	}
}

// Analyze classifies query and extracts its filters. A reply that is not a
// JSON object is retried once; if the retry fails too the query is treated as
// GENERAL with no filters. The category is detected from the query text.
func (a *Analyzer) Analyze(ctx context.Context, query string) (Analysis, error) {
	logger := contextutil.LoggerFromContext(ctx)
	prompt := userPrompt(query)

	data, err := a.ask(ctx, prompt)
	if err != nil {
		return Analysis{}, err
	}
	if data == nil {
		logger.WarnContext(ctx, "analyzer reply was not JSON, retrying")
		data, err = a.ask(ctx, retryPrefix+prompt)
		if err != nil {
			return Analysis{}, err
		}
		if data == nil {
			logger.WarnContext(ctx, "analyzer retry was not JSON, treating query as general")
			data = map[string]any{}
		}
	}

	analysis := decode(data)
	if c, ok := a.vocabulary.Detect(query); ok {
		analysis.Parsed.Category = &c
	}

	logger.DebugContext(ctx, "query analyzed",
		slog.String("intent", string(analysis.Intent)),
		slog.Any("parsed", analysis.Parsed),
	)
	return analysis, nil
}

func (a *Analyzer) ask(ctx context.Context, prompt string) (map[string]any, error) {
	reply, err := a.client.ChatWithMessages(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, a.params)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze query: %w", err)
	}
	return extractObject(strings.TrimSpace(reply)), nil
}

var (
	jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	anyFence  = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// extractObject finds a JSON object in a model reply: first inside fenced
// code blocks, then between the first '{' and the last '}'.
func extractObject(text string) map[string]any {
	if text == "" {
		return nil
	}

	blocks := jsonFence.FindAllStringSubmatch(text, -1)
	if len(blocks) == 0 {
		blocks = anyFence.FindAllStringSubmatch(text, -1)
	}
	for _, b := range blocks {
		if obj := parseObject(strings.TrimSpace(b[1])); obj != nil {
			return obj
		}
	}

	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start >= 0 && start < end {
		return parseObject(text[start : end+1])
	}
	return nil
}

func parseObject(s string) map[string]any {
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

// decode normalizes the model's fields. Unknown intents become GENERAL,
// blank strings are dropped and unparseable prices are absent.
func decode(data map[string]any) Analysis {
	intent := IntentGeneral
	if s, ok := data["intent"].(string); ok && strings.EqualFold(strings.TrimSpace(s), string(IntentProductFind)) {
		intent = IntentProductFind
	}

	parsed := discovery.ParsedQuery{
		Brand:       optionalString(data["brand"]),
		Product:     optionalString(data["product"]),
		Ingredients: stringList(data["ingredients"]),
		Features:    stringList(data["features"]),
	}

	if pr, ok := data["price_range"].([]any); ok && len(pr) == 2 {
		parsed.Price.Min = nonNegative(toInt(pr[0]))
		parsed.Price.Max = nonNegative(toInt(pr[1]))
		if parsed.Price.Min != nil && parsed.Price.Max != nil && *parsed.Price.Min > *parsed.Price.Max {
			parsed.Price.Min, parsed.Price.Max = parsed.Price.Max, parsed.Price.Min
		}
		// "n원 이하" arrives as [0, n]; a zero floor carries no constraint.
		if parsed.Price.Min != nil && *parsed.Price.Min == 0 {
			parsed.Price.Min = nil
		}
	}

	return Analysis{Intent: intent, Parsed: parsed}
}

// nonNegative drops negative prices; the model emits them for unknown bounds.
func nonNegative(v *int) *int {
	if v != nil && *v < 0 {
		return nil
	}
	return v
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		var s string
		switch x := item.(type) {
		case string:
			s = x
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toInt(v any) *int {
	var n int
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		n = int(x)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}
