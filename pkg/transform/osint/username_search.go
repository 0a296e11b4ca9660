package osint

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/blackvectorops/pano/pkg/entity"
	"github.com/blackvectorops/pano/pkg/transform"
)

// platformChecks are the profile URL patterns probed with a HEAD request.
var platformChecks = []struct {
	Platform string
	URL      string
}{
	{"Instagram", "https://www.instagram.com/%s/"},
	{"Twitter/X", "https://twitter.com/%s"},
	{"GitHub", "https://github.com/%s"},
	{"Reddit", "https://www.reddit.com/user/%s"},
	{"TikTok", "https://www.tiktok.com/@%s"},
	{"LinkedIn", "https://www.linkedin.com/in/%s"},
	{"Facebook", "https://www.facebook.com/%s"},
	{"YouTube", "https://www.youtube.com/@%s"},
}

// UsernameSearch finds where a username appears: a web search plus direct
// profile checks on common platforms.
type UsernameSearch struct {
	src *Sources
}

// NewUsernameSearch builds the transform.
func NewUsernameSearch(src *Sources) *UsernameSearch {
	return &UsernameSearch{src: src}
}

func (t *UsernameSearch) Name() string { return "Username Search" }

func (t *UsernameSearch) Description() string {
	return "Search for websites and profiles matching a username"
}

func (t *UsernameSearch) InputTypes() []string { return []string{entity.KindUsername} }

func (t *UsernameSearch) OutputTypes() []string {
	return []string{entity.KindWebsite, entity.KindUsername}
}

func (t *UsernameSearch) Run(ctx context.Context, e *entity.Entity) ([]*entity.Entity, error) {
	username := e.GetString("username")
	if username == "" {
		return nil, nil
	}

	var results []searchResult

	body, err := get(ctx, t.src.client(), t.src.searchBase()+"?q="+url.QueryEscape(username))
	if err == nil && body != nil {
		results = append(results, parseSearchResults(body, "DuckDuckGo", 10)...)
	}

	checks := make([]func() (searchResult, error), len(platformChecks))
	for i, pc := range platformChecks {
		pc := pc
		profileURL := fmt.Sprintf(pc.URL, url.PathEscape(username))
		checks[i] = func() (searchResult, error) {
			if !head(ctx, t.src.client(), profileURL) {
				return searchResult{}, nil
			}
			return searchResult{
				URL:         profileURL,
				Title:       pc.Platform + " Profile",
				Description: "Found profile on " + pc.Platform,
				Source:      "Platform Check",
			}, nil
		}
	}
	found, _ := transform.Gather(ctx, len(checks), checks...)
	for _, r := range found {
		if r.URL != "" {
			results = append(results, r)
		}
	}

	var out []*entity.Entity
	for _, r := range results {
		built, err := entityFromResult(ctx, t.src.Entities, r, t.Name())
		if err != nil || built == nil {
			continue
		}
		out = append(out, built)
	}
	return out, nil
}

// profilePatterns map a host to how its profile username is embedded in the
// URL path.
var profilePatterns = []struct {
	Host     string
	Platform string
	Prefix   string
	Excluded []string
}{
	{"instagram.com", "Instagram", "", []string{"p", "stories", "reel", "tv"}},
	{"twitter.com", "Twitter/X", "", []string{"status", "search", "home"}},
	{"x.com", "Twitter/X", "", []string{"status", "search", "home"}},
	{"github.com", "GitHub", "", nil},
	{"reddit.com", "Reddit", "user", nil},
	{"tiktok.com", "TikTok", "@", nil},
	{"linkedin.com", "LinkedIn", "in", nil},
	{"facebook.com", "Facebook", "", []string{"pages", "groups", "events"}},
	{"youtube.com", "YouTube", "@", nil},
}

// entityFromResult turns a search hit into a Username entity when the URL
// is a recognizable profile, a Website entity otherwise.
func entityFromResult(ctx context.Context, reg *entity.Registry, r searchResult, source string) (*entity.Entity, error) {
	domain := domainOf(r.URL)
	if domain == "" {
		return nil, nil
	}

	if username, platform, ok := profileFromURL(r.URL, domain); ok {
		return reg.New(ctx, entity.KindUsername, map[string]any{
			"username": username,
			"platform": platform,
			"link":     r.URL,
			"source":   fmt.Sprintf("%s (%s)", source, r.Source),
		})
	}

	title := r.Title
	if title == "" {
		title = domain
	}
	return reg.New(ctx, entity.KindWebsite, map[string]any{
		"url":         r.URL,
		"domain":      domain,
		"title":       title,
		"description": r.Description,
		"source":      fmt.Sprintf("%s (%s)", source, r.Source),
	})
}

func profileFromURL(rawURL, domain string) (username, platform string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return "", "", false
	}

	for _, p := range profilePatterns {
		if domain != p.Host && !strings.HasSuffix(domain, "."+p.Host) {
			continue
		}
		candidate := segments[0]
		switch {
		case p.Prefix == "@":
			if !strings.HasPrefix(candidate, "@") {
				return "", "", false
			}
			candidate = strings.TrimPrefix(candidate, "@")
		case p.Prefix != "":
			if candidate != p.Prefix || len(segments) < 2 {
				return "", "", false
			}
			candidate = segments[1]
		}
		for _, excluded := range p.Excluded {
			if candidate == excluded {
				return "", "", false
			}
		}
		if candidate == "" {
			return "", "", false
		}
		return candidate, p.Platform, true
	}
	return "", "", false
}
