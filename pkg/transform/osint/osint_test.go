package osint

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackvectorops/pano/pkg/entity"
)

// fakeTransport serves canned responses by URL prefix and blocks everything
// else, so tests never touch the network.
type fakeTransport struct {
	responses map[string]string // URL prefix -> body (empty body means 200 with no content)
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	full := req.URL.String()
	for prefix, body := range f.responses {
		if strings.HasPrefix(full, prefix) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     make(http.Header),
				Request:    req,
			}, nil
		}
	}
	return nil, errors.New("blocked: " + full)
}

func testSources(responses map[string]string) *Sources {
	return &Sources{
		HTTPClient:    &http.Client{Transport: &fakeTransport{responses: responses}},
		Entities:      entity.NewRegistry(),
		SearchBaseURL: "https://search.test/html/",
	}
}

const searchPage = `<html><body>
<div class="result">
  <a class="result__a" href="https://search.test/l/?uddg=https%3A%2F%2Fgithub.com%2Fjdoe">jdoe on GitHub</a>
  <a class="result__snippet">jdoe has 12 repositories</a>
</div>
<div class="result">
  <a class="result__a" href="https://blog.example.org/post">A blog post</a>
  <a class="result__snippet">mentions of jdoe</a>
</div>
</body></html>`

func TestUsernameSearch(t *testing.T) {
	src := testSources(map[string]string{
		"https://search.test/html/":    searchPage,
		"https://github.com/jdoe":      "",
		"https://www.reddit.com/user/": "",
		"https://www.instagram.com/":   "",
	})
	tr := NewUsernameSearch(src)

	input, err := src.Entities.New(context.Background(), entity.KindUsername, map[string]any{
		"username": "jdoe",
	})
	require.NoError(t, err)

	out, err := tr.Run(context.Background(), input)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	var usernames, websites int
	for _, e := range out {
		switch e.Type() {
		case entity.KindUsername:
			usernames++
			assert.NotEmpty(t, e.GetString("platform"))
		case entity.KindWebsite:
			websites++
		}
	}
	// the GitHub search hit and the GitHub platform check both resolve to
	// Username entities; the blog post stays a Website
	assert.GreaterOrEqual(t, usernames, 2)
	assert.Equal(t, 1, websites)
}

func TestUsernameSearchEmptyUsername(t *testing.T) {
	src := testSources(nil)
	input, err := src.Entities.New(context.Background(), entity.KindUsername, map[string]any{
		"platform": "GitHub",
	})
	require.NoError(t, err)

	out, err := NewUsernameSearch(src).Run(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUsernameSearchUnreachableSourcesProduceNothing(t *testing.T) {
	src := testSources(nil) // every request fails
	input, err := src.Entities.New(context.Background(), entity.KindUsername, map[string]any{
		"username": "jdoe",
	})
	require.NoError(t, err)

	out, err := NewUsernameSearch(src).Run(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProfileFromURL(t *testing.T) {
	tests := []struct {
		url      string
		username string
		platform string
		ok       bool
	}{
		{"https://github.com/jdoe", "jdoe", "GitHub", true},
		{"https://www.instagram.com/jdoe/", "jdoe", "Instagram", true},
		{"https://www.instagram.com/p/abc123/", "", "", false},
		{"https://twitter.com/jdoe", "jdoe", "Twitter/X", true},
		{"https://x.com/jdoe", "jdoe", "Twitter/X", true},
		{"https://www.reddit.com/user/jdoe/", "jdoe", "Reddit", true},
		{"https://www.reddit.com/r/golang/", "", "", false},
		{"https://www.tiktok.com/@jdoe", "jdoe", "TikTok", true},
		{"https://www.linkedin.com/in/jdoe/", "jdoe", "LinkedIn", true},
		{"https://www.youtube.com/@jdoe", "jdoe", "YouTube", true},
		{"https://www.youtube.com/watch?v=abc", "", "", false},
		{"https://blog.example.org/about", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			username, platform, ok := profileFromURL(tt.url, domainOf(tt.url))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.username, username)
				assert.Equal(t, tt.platform, platform)
			}
		})
	}
}

func TestTextSearch(t *testing.T) {
	src := testSources(map[string]string{
		"https://search.test/html/": searchPage,
	})
	input, err := src.Entities.New(context.Background(), entity.KindText, map[string]any{
		"text": "jdoe security researcher",
	})
	require.NoError(t, err)

	out, err := NewTextSearch(src).Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, entity.KindUsername, out[0].Type())
	assert.Equal(t, entity.KindWebsite, out[1].Type())
	assert.Equal(t, "blog.example.org", out[1].GetString("domain"))
	assert.Contains(t, out[1].GetString("source"), "Text Search")
}

func TestEmailLookup(t *testing.T) {
	src := testSources(map[string]string{
		"https://example.com":             "",
		"https://www.gravatar.com/avatar": "",
	})
	input, err := src.Entities.New(context.Background(), entity.KindEmail, map[string]any{
		"address": "jdoe@example.com",
	})
	require.NoError(t, err)

	out, err := NewEmailLookup(src).Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, entity.KindUsername, out[0].Type())
	assert.Equal(t, "jdoe", out[0].GetString("username"))
	assert.Equal(t, entity.KindWebsite, out[1].Type())
	assert.Equal(t, "example.com", out[1].GetString("domain"))
	assert.Equal(t, entity.KindImage, out[2].Type())
	assert.Contains(t, out[2].GetString("image"), "gravatar.com")
}

func TestEmailLookupOfflineStillYieldsUsername(t *testing.T) {
	src := testSources(nil)
	input, err := src.Entities.New(context.Background(), entity.KindEmail, map[string]any{
		"address": "jdoe@example.com",
	})
	require.NoError(t, err)

	out, err := NewEmailLookup(src).Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, entity.KindUsername, out[0].Type())
}

const yandexPage = `<html><body><ul>
<li class="CbirSites-Item">
  <div class="CbirSites-ItemThumb"><a href="//img.example.net/cat.jpg"></a></div>
  <div class="CbirSites-ItemInfo">
    <div class="CbirSites-ItemTitle"><a href="https://example.net/cats">A similar cat</a></div>
  </div>
</li>
<li class="CbirSites-Item">
  <div class="CbirSites-ItemThumb"></div>
</li>
</ul></body></html>`

func TestReverseImageSearch(t *testing.T) {
	src := testSources(map[string]string{
		"https://yandex.com/images/search": yandexPage,
	})
	input, err := src.Entities.New(context.Background(), entity.KindImage, map[string]any{
		"title": "cat",
		"image": "https://example.com/cat.jpg",
	})
	require.NoError(t, err)

	out, err := NewReverseImageSearch(src).Run(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A similar cat", out[0].GetString("title"))
	assert.Equal(t, "https://img.example.net/cat.jpg", out[0].GetString("image"))
	assert.Equal(t, "https://example.net/cats", out[0].GetString("url"))
}

func TestParseSearchResultsLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for range 20 {
		b.WriteString(`<div class="result"><a class="result__a" href="https://example.org/x">x</a></div>`)
	}
	b.WriteString("</body></html>")

	results := parseSearchResults([]byte(b.String()), "test", 10)
	assert.Len(t, results, 10)
}

func TestCleanResultURL(t *testing.T) {
	assert.Equal(t, "https://github.com/jdoe",
		cleanResultURL("https://search.test/l/?uddg=https%3A%2F%2Fgithub.com%2Fjdoe"))
	assert.Equal(t, "https://a.example/b", cleanResultURL("//a.example/b"))
	assert.Empty(t, cleanResultURL("javascript:alert(1)"))
	assert.Empty(t, cleanResultURL(""))
}
