package progscrape

import (
	"net/url"
	"regexp"
)

var (
	hostPrefix    = regexp.MustCompile(`^ww?w?[0-9]*\.`)
	pathExtension = regexp.MustCompile(`\.[a-z]{1,5}$`)
	nonAlnum      = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// CleanHost returns the host of a URL with any www-style prefix removed.
// The match is deliberately narrow: web., m. and friends stay. Malformed
// URLs degrade to the empty string.
func CleanHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return hostPrefix.ReplaceAllString(u.Host, "")
}

// CleanURL reduces a URL to the searchable words of its path: a trailing
// file extension goes, every run of non-alphanumerics becomes a space.
func CleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := pathExtension.ReplaceAllString(u.Path, "")
	return nonAlnum.ReplaceAllString(p, " ")
}
