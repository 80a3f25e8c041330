package progscrape

import (
	"sort"
	"strings"
)

// Results carries the generated search metadata for one story.
type Results struct {
	SearchTokens map[string]struct{}
	Tags         []string
}

// TagExtractor pulls tag terms out of a story title.
type TagExtractor interface {
	Extract(text string) map[string]struct{}
}

// TagExtractorFunc adapts a plain function to the TagExtractor interface.
type TagExtractorFunc func(string) map[string]struct{}

func (f TagExtractorFunc) Extract(text string) map[string]struct{} { return f(text) }

// SearchFieldGenerator turns story titles, tags and the story URL into the
// token set and ordered tag list stored with the story. It holds no mutable
// state and is safe for concurrent use.
type SearchFieldGenerator struct {
	stemmer   Stemmer
	extractor TagExtractor
}

// NewSearchFieldGenerator wires the two collaborators. A nil stemmer selects
// the Snowball English stemmer, a nil extractor the default Tagger.
func NewSearchFieldGenerator(stemmer Stemmer, extractor TagExtractor) *SearchFieldGenerator {
	if stemmer == nil {
		stemmer = SnowballStemmer{}
	}
	if extractor == nil {
		extractor = DefaultTagger()
	}
	return &SearchFieldGenerator{stemmer: stemmer, extractor: extractor}
}

// Generate produces the search field for a story: every title a source saw,
// the tags the sources provided, and the story URL.
func (g *SearchFieldGenerator) Generate(titles []string, existingTags map[string]struct{}, rawURL string) Results {
	allTags := make(map[string]struct{}, len(existingTags))
	for t := range existingTags {
		allTags[t] = struct{}{}
	}
	for _, title := range titles {
		for t := range g.extractor.Extract(title) {
			allTags[t] = struct{}{}
		}
	}

	raw := g.tokenizeStory(titles, allTags, rawURL)

	// Stemming happens once per distinct token, after all set unions.
	tokens := make(map[string]struct{}, len(raw)+1)
	for w := range raw {
		tokens[g.stemmer.Stem(w)] = struct{}{}
	}

	// The host token goes in as-is; it is never stemmed.
	host := CleanHost(rawURL)
	tokens["host:"+host] = struct{}{}

	tags := make([]string, 0, len(allTags)+1)
	for t := range allTags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	tags = append([]string{host}, tags...)

	return Results{SearchTokens: tokens, Tags: tags}
}

// tokenizeStory unions title tokens, tags and URL tokens. Tags enter
// verbatim: they skip the length and stop-word filters.
func (g *SearchFieldGenerator) tokenizeStory(titles []string, tags map[string]struct{}, rawURL string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, title := range titles {
		for w := range Tokenize(title) {
			tokens[w] = struct{}{}
		}
	}
	for t := range tags {
		tokens[t] = struct{}{}
	}
	for w := range TokenizeURL(rawURL) {
		tokens[w] = struct{}{}
	}
	return tokens
}

// QueryTokens maps a raw query term to the token forms worth probing: the
// bare term, its stem, and the host: form for domain queries. Stop words
// match nothing.
func (g *SearchFieldGenerator) QueryTokens(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if _, bad := fullTextStopWords[q]; bad {
		return nil
	}
	tokens := []string{q}
	if s := g.stemmer.Stem(q); s != "" && s != q {
		tokens = append(tokens, s)
	}
	if !strings.HasPrefix(q, "host:") {
		tokens = append(tokens, "host:"+q)
	}
	return tokens
}
