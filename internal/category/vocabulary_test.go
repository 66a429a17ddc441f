package category

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVocabulary_Detect(t *testing.T) {
	v := Default()

	tests := []struct {
		name   string
		query  string
		want   string
		wantOK bool
	}{
		{name: "synonym", query: "끈적임 적은 썬크림 3만원대", want: "선크림", wantOK: true},
		{name: "longest phrase wins", query: "수분크림 추천해줘", want: "크림", wantOK: true},
		{name: "term containing shorter term", query: "아이크림 좋은거", want: "아이크림", wantOK: true},
		{name: "spacing ignored", query: "클렌징 폼 추천", want: "클렌징폼/젤", wantOK: true},
		{name: "synonym beats equal length term", query: "비비크림", want: "BB/CC", wantOK: true},
		{name: "full width characters", query: "ＢＢ/ＣＣ 추천", want: "BB/CC", wantOK: true},
		{name: "no category", query: "오늘 날씨 어때", wantOK: false},
		{name: "empty", query: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.Detect(tt.query)
			if ok != tt.wantOK {
				t.Fatalf("Detect(%q) ok = %v, want %v", tt.query, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestVocabulary_Normalize(t *testing.T) {
	v := Default()

	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "토너", want: "스킨/토너", wantOK: true},
		{raw: "스킨/토너", want: "스킨/토너", wantOK: true},
		{raw: " bb/cc ", want: "BB/CC", wantOK: true},
		{raw: "메이크업픽서", want: "메이크업 픽서", wantOK: true},
		{raw: "수분크림 추천", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := v.Normalize(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Normalize(%q) = %q, %v, want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid yaml", data: "terms: [unclosed"},
		{name: "no terms", data: "synonyms: {}"},
		{name: "dangling synonym", data: "terms: [크림]\nsynonyms:\n  토너: 스킨/토너\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() expected error, got nil")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	v, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if len(v.Terms()) != 33 {
		t.Errorf("default vocabulary has %d terms, want 33", len(v.Terms()))
	}

	path := filepath.Join(t.TempDir(), "vocab.yaml")
	data := "terms:\n  - 립밤\nsynonyms:\n  립 밤: 립밤\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write vocabulary: %v", err)
	}

	v, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, ok := v.Detect("촉촉한 립 밤"); !ok || got != "립밤" {
		t.Errorf("Detect() = %q, %v, want 립밤", got, ok)
	}
	if _, ok := v.Detect("선크림"); ok {
		t.Error("custom vocabulary should not know 선크림")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file expected error")
	}
}
