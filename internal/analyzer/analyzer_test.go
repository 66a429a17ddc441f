package analyzer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"aller-discovery/internal/analyzer/mocks"
	"aller-discovery/internal/llm"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func userContent(messages []llm.Message) string {
	for _, m := range messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}

func TestAnalyzer_Analyze(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockChatClient(ctrl)
	client.EXPECT().
		ChatWithMessages(gomock.Any(), gomock.Any(), llm.ChatParams{JSONMode: true}).
		DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
			require.Len(t, messages, 2)
			assert.Equal(t, "system", messages[0].Role)
			assert.Contains(t, messages[1].Content, "라네즈 썬크림 3만원 이하")
			return `{"intent":"product_find","brand":"라네즈","product":null,"ingredients":[" ", "나이아신아마이드"],"features":["산뜻한"],"price_range":[0,30000]}`, nil
		})

	got, err := New(client, nil).Analyze(context.Background(), "라네즈 썬크림 3만원 이하")

	require.NoError(t, err)
	assert.Equal(t, IntentProductFind, got.Intent)
	require.NotNil(t, got.Parsed.Brand)
	assert.Equal(t, "라네즈", *got.Parsed.Brand)
	assert.Nil(t, got.Parsed.Product)
	assert.Equal(t, []string{"나이아신아마이드"}, got.Parsed.Ingredients)
	assert.Equal(t, []string{"산뜻한"}, got.Parsed.Features)
	assert.Nil(t, got.Parsed.Price.Min, "zero floor should be dropped")
	require.NotNil(t, got.Parsed.Price.Max)
	assert.Equal(t, 30000, *got.Parsed.Price.Max)
	require.NotNil(t, got.Parsed.Category)
	assert.Equal(t, "선크림", *got.Parsed.Category)
}

func TestAnalyzer_Analyze_RetriesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockChatClient(ctrl)
	gomock.InOrder(
		client.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("죄송하지만 JSON으로 답할 수 없어요.", nil),
		client.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, messages []llm.Message, _ llm.ChatParams) (string, error) {
				assert.True(t, strings.HasPrefix(userContent(messages), retryPrefix))
				return "```json\n{\"intent\": \"PRODUCT_FIND\", \"price_range\": [30000, 39999]}\n```", nil
			}),
	)

	got, err := New(client, nil).Analyze(context.Background(), "3만원대 토너")

	require.NoError(t, err)
	assert.Equal(t, IntentProductFind, got.Intent)
	assert.Equal(t, 30000, *got.Parsed.Price.Min)
	assert.Equal(t, 39999, *got.Parsed.Price.Max)
	assert.Equal(t, "스킨/토너", *got.Parsed.Category)
}

func TestAnalyzer_Analyze_GivesUpAfterRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockChatClient(ctrl)
	client.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return("no", nil).Times(2)

	got, err := New(client, nil).Analyze(context.Background(), "안녕")

	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, got.Intent)
	assert.Nil(t, got.Parsed.Brand)
	assert.Empty(t, got.Parsed.Features)
	assert.Nil(t, got.Parsed.Category)
}

func TestAnalyzer_Analyze_ClientError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockChatClient(ctrl)
	cause := errors.New("bad status 500")
	client.EXPECT().ChatWithMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return("", cause)

	_, err := New(client, nil).Analyze(context.Background(), "선크림")

	assert.ErrorIs(t, err, cause)
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantKey string
		wantNil bool
	}{
		{name: "plain object", text: `{"intent":"GENERAL"}`, wantKey: "intent"},
		{name: "json fence", text: "답변:\n```json\n{\"brand\": \"라네즈\"}\n```", wantKey: "brand"},
		{name: "bare fence", text: "```\n{\"product\": \"마스크\"}\n```", wantKey: "product"},
		{name: "surrounding prose", text: `결과는 {"features": ["산뜻한"]} 입니다`, wantKey: "features"},
		{name: "array only", text: `["a", "b"]`, wantNil: true},
		{name: "broken", text: `{"intent": `, wantNil: true},
		{name: "empty", text: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractObject(tt.text)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Contains(t, got, tt.wantKey)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		wantMin *int
		wantMax *int
	}{
		{name: "missing", data: map[string]any{}},
		{name: "nulls", data: map[string]any{"price_range": []any{nil, nil}}},
		{name: "floor only", data: map[string]any{"price_range": []any{float64(20000), nil}}, wantMin: intPtr(20000)},
		{name: "string numbers", data: map[string]any{"price_range": []any{"10000", " 20000 "}}, wantMin: intPtr(10000), wantMax: intPtr(20000)},
		{name: "unparseable", data: map[string]any{"price_range": []any{"삼만원", float64(50000)}}, wantMax: intPtr(50000)},
		{name: "wrong arity", data: map[string]any{"price_range": []any{float64(1)}}},
		{name: "swapped bounds", data: map[string]any{"price_range": []any{float64(40000), float64(10000)}}, wantMin: intPtr(10000), wantMax: intPtr(40000)},
		{name: "negative bounds dropped", data: map[string]any{"price_range": []any{float64(-1), float64(-5000)}}},
		{name: "negative floor dropped", data: map[string]any{"price_range": []any{float64(-1000), float64(30000)}}, wantMax: intPtr(30000)},
		{name: "zero ceiling kept", data: map[string]any{"price_range": []any{nil, float64(0)}}, wantMax: intPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decode(tt.data)
			assert.Equal(t, IntentGeneral, got.Intent)
			assert.Equal(t, tt.wantMin, got.Parsed.Price.Min)
			assert.Equal(t, tt.wantMax, got.Parsed.Price.Max)
		})
	}
}

func TestDecode_Strings(t *testing.T) {
	got := decode(map[string]any{
		"intent":      "GENERAL",
		"brand":       "  ",
		"product":     float64(3),
		"ingredients": "나이아신아마이드",
		"features":    []any{"수분감", nil, " 민감피부용 "},
	})

	assert.Nil(t, got.Parsed.Brand)
	assert.Nil(t, got.Parsed.Product)
	assert.Nil(t, got.Parsed.Ingredients)
	assert.Equal(t, []string{"수분감", "민감피부용"}, got.Parsed.Features)
}

func intPtr(v int) *int { return &v }
