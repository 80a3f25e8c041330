package progscrape

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"
)

const defaultRedditAPI = "https://www.reddit.com/r/%s/.json?limit=%d"

// Reddit scrapes one combined listing for a set of subreddits through the
// public JSON API.
type Reddit struct {
	subreddits []string
	limit      int
}

func NewReddit(subreddits ...string) *Reddit {
	if len(subreddits) == 0 {
		subreddits = []string{"programming", "rust", "golang"}
	}
	return &Reddit{subreddits: subreddits, limit: 25}
}

func (r *Reddit) Source() Source { return SourceReddit }

func (r *Reddit) URLs() []string {
	return []string{fmt.Sprintf(defaultRedditAPI, strings.Join(r.subreddits, "+"), r.limit)}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditStory `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditStory struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
	Stickied   bool    `json:"stickied"`
}

func (r *Reddit) Parse(body []byte) ([]Scrape, error) {
	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse reddit listing: %w", err)
	}
	var scrapes []Scrape
	for _, child := range listing.Data.Children {
		st := child.Data
		if st.ID == "" || st.Title == "" || st.CreatedUTC <= 0 || st.Stickied {
			continue
		}
		storyURL := st.URL
		if strings.HasPrefix(storyURL, "/") {
			// Self posts link to their own permalink.
			storyURL = "https://www.reddit.com" + storyURL
		}
		if storyURL == "" {
			continue
		}
		sub := strings.ToLower(st.Subreddit)
		sc := Scrape{
			ID:    ScrapeID{Source: SourceReddit, Subsource: sub, ID: st.ID},
			Title: html.UnescapeString(st.Title),
			URL:   storyURL,
			Date:  time.Unix(int64(st.CreatedUTC), 0).UTC(),
			Rank:  len(scrapes) + 1,
		}
		if sub != "" {
			sc.Tags = []string{sub}
		}
		scrapes = append(scrapes, sc)
	}
	return scrapes, nil
}
