package progscrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const hackerNewsOrigin = "https://news.ycombinator.com"

var hackerNewsBase = &url.URL{Scheme: "https", Host: "news.ycombinator.com", Path: "/"}

// HackerNews scrapes the Hacker News front page. Story rows and their
// metadata live in separate table rows, paired by item id.
type HackerNews struct {
	pages []string
}

func NewHackerNews(pages ...string) *HackerNews {
	if len(pages) == 0 {
		pages = []string{hackerNewsOrigin + "/news", hackerNewsOrigin + "/news?p=2"}
	}
	return &HackerNews{pages: pages}
}

func (h *HackerNews) Source() Source { return SourceHackerNews }

func (h *HackerNews) URLs() []string { return h.pages }

func (h *HackerNews) Parse(body []byte) ([]Scrape, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse hacker news page: %w", err)
	}

	type row struct {
		title string
		url   string
		rank  int
	}
	rows := map[string]row{}
	var scrapes []Scrape

	walkHTML(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch {
		case n.Data == "tr" && hasClass(n, "athing"):
			id := attrValue(n, "id")
			titleline := findClass(n, "span", "titleline")
			if id == "" || titleline == nil {
				return
			}
			link := findElement(titleline, "a")
			if link == nil {
				return
			}
			r := row{
				title: strings.TrimSpace(innerText(link)),
				url:   resolveHackerNewsURL(attrValue(link, "href")),
			}
			if rank := findClass(n, "span", "rank"); rank != nil {
				r.rank = parseRank(innerText(rank))
			}
			if r.title != "" && r.url != "" {
				rows[id] = r
			}
		case n.Data == "td" && hasClass(n, "subtext"):
			// Jobs and ads have no score span, so they never pair up.
			score := findClass(n, "span", "score")
			if score == nil {
				return
			}
			id := strings.TrimPrefix(attrValue(score, "id"), "score_")
			r, ok := rows[id]
			if !ok {
				return
			}
			age := findClass(n, "span", "age")
			if age == nil {
				return
			}
			date := parseHackerNewsDate(attrValue(age, "title"))
			if date.IsZero() {
				return
			}
			scrapes = append(scrapes, Scrape{
				ID:    ScrapeID{Source: SourceHackerNews, ID: id},
				Title: r.title,
				URL:   r.url,
				Date:  date,
				Rank:  r.rank,
			})
		}
	})
	return scrapes, nil
}

// parseHackerNewsDate reads the age span's title attribute. Newer pages
// append an epoch after the timestamp and older ones carry a bare naive
// ISO time; both are UTC.
func parseHackerNewsDate(s string) time.Time {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}
	}
	stamp := strings.TrimSuffix(fields[0], "Z") + "Z"
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseRank turns a "12." rank label into its number, 0 when absent.
func parseRank(s string) int {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// resolveHackerNewsURL absolutizes hrefs like "item?id=123" against the
// site origin. Already-absolute story links pass through unchanged.
func resolveHackerNewsURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return hackerNewsBase.ResolveReference(u).String()
}

func walkHTML(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, visit)
	}
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findClass returns the first descendant with the given tag and class, in
// document order.
func findClass(n *html.Node, tag, class string) *html.Node {
	var found *html.Node
	walkHTML(n, func(c *html.Node) {
		if found == nil && c.Type == html.ElementNode && c.Data == tag && hasClass(c, class) {
			found = c
		}
	})
	return found
}

func findElement(n *html.Node, tag string) *html.Node {
	var found *html.Node
	walkHTML(n, func(c *html.Node) {
		if found == nil && c.Type == html.ElementNode && c.Data == tag {
			found = c
		}
	})
	return found
}

func innerText(n *html.Node) string {
	var sb strings.Builder
	walkHTML(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}
