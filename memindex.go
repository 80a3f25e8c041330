package progscrape

import (
	"context"
	"sort"
	"sync"
)

// memStory pairs a story with its generated search field.
type memStory struct {
	story  *Story
	search Results
}

// MemIndex is an in-memory Storage backend. Stories are keyed by
// normalized URL so repeat scrapes of one link merge into one story.
type MemIndex struct {
	mu     sync.RWMutex
	gen    *SearchFieldGenerator
	byNorm map[string]*memStory
	byID   map[string]*memStory
}

var _ StorageWriter = (*MemIndex)(nil)

// NewMemIndex returns an empty index. A nil gen uses the default stemmer
// and tagger.
func NewMemIndex(gen *SearchFieldGenerator) *MemIndex {
	if gen == nil {
		gen = NewSearchFieldGenerator(nil, nil)
	}
	return &MemIndex{
		gen:    gen,
		byNorm: map[string]*memStory{},
		byID:   map[string]*memStory{},
	}
}

func (m *MemIndex) InsertScrapes(ctx context.Context, scrapes ...Scrape) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sc := range scrapes {
		norm := NormalizeURL(sc.URL)
		if norm == "" {
			continue
		}
		ms, ok := m.byNorm[norm]
		if !ok {
			ms = &memStory{story: NewStory(sc)}
			m.byNorm[norm] = ms
		} else {
			// The story id carries its date, which can move back when
			// an older scrape arrives.
			delete(m.byID, ms.story.ID.Base64())
			ms.story.Merge(sc)
		}
		ms.search = m.gen.Generate(ms.story.Titles(), ms.story.TagSet(), ms.story.URL())
		m.byID[ms.story.ID.Base64()] = ms
	}
	return nil
}

func (m *MemIndex) GetStory(ctx context.Context, id StoryIdentifier) (*StoryRender, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.byID[id.Base64()]
	if !ok {
		return nil, nil
	}
	r := ms.story.Render(ms.search.Tags)
	return &r, nil
}

func (m *MemIndex) QueryFrontPage(ctx context.Context, limit int) ([]StoryRender, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stories := make([]*memStory, 0, len(m.byNorm))
	for _, ms := range m.byNorm {
		stories = append(stories, ms)
	}
	return renderStories(stories, limitOrDefault(limit)), nil
}

func (m *MemIndex) QuerySearch(ctx context.Context, query string, limit int) ([]StoryRender, error) {
	probes := m.gen.QueryTokens(query)
	if len(probes) == 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matches []*memStory
	for _, ms := range m.byNorm {
		for _, probe := range probes {
			if _, ok := ms.search.SearchTokens[probe]; ok {
				matches = append(matches, ms)
				break
			}
		}
	}
	return renderStories(matches, limitOrDefault(limit)), nil
}

func (m *MemIndex) Summary(ctx context.Context) (StorageSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := StorageSummary{ByShard: map[string]int{}}
	for _, ms := range m.byNorm {
		sum.Total++
		sum.ByShard[shardKey(ms.story.Date())]++
	}
	return sum, nil
}

// lessStory orders the front page: newest first, more widely scraped
// first on ties, then by normalized URL.
func lessStory(a, b *memStory) bool {
	ad, bd := a.story.Date(), b.story.Date()
	if !ad.Equal(bd) {
		return ad.After(bd)
	}
	if len(a.story.Scrapes) != len(b.story.Scrapes) {
		return len(a.story.Scrapes) > len(b.story.Scrapes)
	}
	return a.story.ID.Norm < b.story.ID.Norm
}

func renderStories(stories []*memStory, limit int) []StoryRender {
	sort.Slice(stories, func(i, j int) bool { return lessStory(stories[i], stories[j]) })
	if len(stories) > limit {
		stories = stories[:limit]
	}
	out := make([]StoryRender, 0, len(stories))
	for _, ms := range stories {
		out = append(out, ms.story.Render(ms.search.Tags))
	}
	return out
}
