// Package category maps free text onto the catalog's canonical product categories.
package category

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultVocabulary []byte

// file is the on-disk vocabulary format.
type file struct {
	Terms    []string          `yaml:"terms"`
	Synonyms map[string]string `yaml:"synonyms"`
}

type entry struct {
	key       string // normalized phrase
	canonical string
	synonym   bool
}

// Vocabulary holds canonical category terms and their synonyms.
type Vocabulary struct {
	terms   []string
	entries []entry // longest key first
	exact   map[string]string
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	v, err := Parse(defaultVocabulary)
	if err != nil {
		panic(fmt.Sprintf("category: invalid embedded vocabulary: %v", err))
	}
	return v
}

// Load reads a vocabulary from a YAML file. An empty path returns Default().
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category vocabulary: %w", err)
	}
	return Parse(data)
}

// Parse builds a vocabulary from YAML. Every synonym must point at a declared term.
func Parse(data []byte) (*Vocabulary, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse category vocabulary: %w", err)
	}
	if len(f.Terms) == 0 {
		return nil, fmt.Errorf("category vocabulary has no terms")
	}

	v := &Vocabulary{exact: make(map[string]string)}
	isTerm := make(map[string]bool, len(f.Terms))
	for _, t := range f.Terms {
		t = strings.TrimSpace(t)
		if t == "" || isTerm[t] {
			continue
		}
		isTerm[t] = true
		v.terms = append(v.terms, t)
		v.entries = append(v.entries, entry{key: normalizeText(t), canonical: t})
	}

	for syn, target := range f.Synonyms {
		if !isTerm[target] {
			return nil, fmt.Errorf("synonym %q maps to unknown category %q", syn, target)
		}
		v.entries = append(v.entries, entry{key: normalizeText(syn), canonical: target, synonym: true})
	}

	sort.SliceStable(v.entries, func(i, j int) bool {
		a, b := v.entries[i], v.entries[j]
		if la, lb := len([]rune(a.key)), len([]rune(b.key)); la != lb {
			return la > lb
		}
		if a.synonym != b.synonym {
			return a.synonym
		}
		return a.key < b.key
	})

	// Synonyms win over terms with the same normalized spelling.
	for i := len(v.entries) - 1; i >= 0; i-- {
		e := v.entries[i]
		if e.key != "" {
			v.exact[e.key] = e.canonical
		}
	}

	return v, nil
}

// Terms returns the canonical category terms in declaration order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Normalize maps a category name or synonym to its canonical term.
func (v *Vocabulary) Normalize(raw string) (string, bool) {
	key := normalizeText(raw)
	if key == "" {
		return "", false
	}
	c, ok := v.exact[key]
	return c, ok
}

// Detect returns the canonical category whose term or synonym appears in the
// query. The longest matching phrase wins.
func (v *Vocabulary) Detect(query string) (string, bool) {
	q := normalizeText(query)
	if q == "" {
		return "", false
	}
	for _, e := range v.entries {
		if e.key != "" && strings.Contains(q, e.key) {
			return e.canonical, true
		}
	}
	return "", false
}

// normalizeText applies NFKC, lowercases and strips all whitespace.
func normalizeText(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
