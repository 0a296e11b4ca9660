package osint

import (
	"context"
	"net/url"

	"github.com/blackvectorops/pano/pkg/entity"
)

// TextSearch runs a free-text web search and turns the hits into Website
// or Username entities.
type TextSearch struct {
	src *Sources
}

// NewTextSearch builds the transform.
func NewTextSearch(src *Sources) *TextSearch {
	return &TextSearch{src: src}
}

func (t *TextSearch) Name() string { return "Text Search" }

func (t *TextSearch) Description() string {
	return "Search the web for a text snippet"
}

func (t *TextSearch) InputTypes() []string { return []string{entity.KindText} }

func (t *TextSearch) OutputTypes() []string {
	return []string{entity.KindWebsite, entity.KindUsername}
}

func (t *TextSearch) Run(ctx context.Context, e *entity.Entity) ([]*entity.Entity, error) {
	text := e.GetString("text")
	if text == "" {
		return nil, nil
	}

	body, err := get(ctx, t.src.client(), t.src.searchBase()+"?q="+url.QueryEscape(text))
	if err != nil || body == nil {
		return nil, nil
	}

	var out []*entity.Entity
	for _, r := range parseSearchResults(body, "DuckDuckGo", 10) {
		built, err := entityFromResult(ctx, t.src.Entities, r, t.Name())
		if err != nil || built == nil {
			continue
		}
		out = append(out, built)
	}
	return out, nil
}
