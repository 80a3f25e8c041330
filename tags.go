package progscrape

import "strings"

// TaggerConfig extends the built-in tag dictionary from configuration. Keys
// are canonical tags, values extra alias terms.
type TaggerConfig struct {
	Tags map[string][]string `yaml:"tags"`
}

// Tagger is a dictionary tag extractor: every word of a title is looked up
// in an alias table and mapped to its canonical tag.
type Tagger struct {
	terms map[string]string
}

// A canonical tag always matches itself; aliases fold into it.
var defaultTagAliases = map[string][]string{
	"javascript":  {"js", "node", "nodejs"},
	"typescript":  nil,
	"python":      nil,
	"rust":        {"rustlang"},
	"golang":      nil,
	"java":        nil,
	"c++":         {"cpp"},
	"c#":          {"csharp"},
	"linux":       nil,
	"kernel":      nil,
	"webassembly": {"wasm"},
	"security":    {"infosec", "vulnerability"},
	"database":    {"sql", "postgres", "postgresql", "sqlite", "mysql"},
	"ai":          {"ml", "llm"},
	"apple":       {"ios", "macos", "iphone"},
	"android":     nil,
	"google":      {"chrome"},
	"microsoft":   {"windows"},
	"amazon":      {"aws"},
	"mozilla":     {"firefox"},
	"health":      {"medicine", "medical"},
	"science":     {"physics", "biology", "chemistry"},
}

// NewTagger builds a Tagger from the built-in dictionary plus cfg.
func NewTagger(cfg TaggerConfig) *Tagger {
	t := &Tagger{terms: make(map[string]string)}
	t.add(defaultTagAliases)
	t.add(cfg.Tags)
	return t
}

// DefaultTagger returns a Tagger with the built-in dictionary only.
func DefaultTagger() *Tagger {
	return NewTagger(TaggerConfig{})
}

func (t *Tagger) add(aliases map[string][]string) {
	for tag, as := range aliases {
		canon := strings.ToLower(tag)
		t.terms[canon] = canon
		for _, a := range as {
			t.terms[strings.ToLower(a)] = canon
		}
	}
}

// Extract returns the canonical tags mentioned in text.
func (t *Tagger) Extract(text string) map[string]struct{} {
	tags := make(map[string]struct{})
	for _, w := range splitTagWords(text) {
		if canon, ok := t.terms[w]; ok {
			tags[canon] = struct{}{}
		}
	}
	return tags
}

// splitTagWords keeps letters, digits and the symbols of c++/c#.
func splitTagWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '#':
			return false
		}
		return true
	})
}
