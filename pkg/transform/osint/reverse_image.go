package osint

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/blackvectorops/pano/pkg/entity"
)

const yandexImagesURL = "https://yandex.com/images/search"

// ReverseImageSearch finds visually similar images through Yandex's reverse
// image search results page.
type ReverseImageSearch struct {
	src *Sources
	// baseURL is overridable for tests.
	baseURL string
}

// NewReverseImageSearch builds the transform.
func NewReverseImageSearch(src *Sources) *ReverseImageSearch {
	return &ReverseImageSearch{src: src, baseURL: yandexImagesURL}
}

func (t *ReverseImageSearch) Name() string { return "Reverse Image Search" }

func (t *ReverseImageSearch) Description() string {
	return "Find similar images using reverse image search"
}

func (t *ReverseImageSearch) InputTypes() []string { return []string{entity.KindImage} }

func (t *ReverseImageSearch) OutputTypes() []string { return []string{entity.KindImage} }

func (t *ReverseImageSearch) Run(ctx context.Context, e *entity.Entity) ([]*entity.Entity, error) {
	imageURL := e.GetString("image")
	if imageURL == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("rpt", "imageview")
	q.Set("url", imageURL)

	body, err := get(ctx, t.src.client(), t.baseURL+"?"+q.Encode())
	if err != nil || body == nil {
		return nil, nil
	}

	var out []*entity.Entity
	for _, hit := range parseSimilarImages(body) {
		built, err := t.src.Entities.New(ctx, entity.KindImage, map[string]any{
			"title":       hit.Title,
			"description": hit.Title,
			"url":         hit.SourceURL,
			"image":       hit.ImageURL,
			"source":      t.Name(),
		})
		if err != nil {
			continue
		}
		out = append(out, built)
	}
	return out, nil
}

type similarImage struct {
	ImageURL  string
	SourceURL string
	Title     string
}

// parseSimilarImages walks Yandex's CbirSites result list: each item has a
// thumbnail link (the image) and a title link (the page it came from).
func parseSimilarImages(body []byte) []similarImage {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	var out []similarImage
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" &&
			strings.Contains(attr(n, "class"), "CbirSites-Item") {
			if img, ok := parseSimilarItem(n); ok {
				out = append(out, img)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func parseSimilarItem(item *html.Node) (similarImage, bool) {
	var img similarImage

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			parentClass := ""
			if n.Parent != nil {
				parentClass = attr(n.Parent, "class")
			}
			switch {
			case strings.Contains(parentClass, "CbirSites-ItemThumb"):
				if href := attr(n, "href"); href != "" {
					if strings.HasPrefix(href, "//") {
						href = "https:" + href
					}
					img.ImageURL = href
				}
			case strings.Contains(parentClass, "CbirSites-ItemTitle"):
				img.SourceURL = attr(n, "href")
				img.Title = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(item)

	if img.ImageURL == "" || img.Title == "" {
		return similarImage{}, false
	}
	return img, true
}
