package osint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/blackvectorops/pano/pkg/entity"
)

const gravatarBase = "https://www.gravatar.com/avatar/"

// EmailLookup expands an email address into the entities it publicly
// implies: the local part as a username candidate, the domain's website,
// and a Gravatar profile image when one exists.
type EmailLookup struct {
	src *Sources
}

// NewEmailLookup builds the transform.
func NewEmailLookup(src *Sources) *EmailLookup {
	return &EmailLookup{src: src}
}

func (t *EmailLookup) Name() string { return "Email Lookup" }

func (t *EmailLookup) Description() string {
	return "Derive usernames, websites and avatars from an email address"
}

func (t *EmailLookup) InputTypes() []string { return []string{entity.KindEmail} }

func (t *EmailLookup) OutputTypes() []string {
	return []string{entity.KindUsername, entity.KindWebsite, entity.KindImage}
}

func (t *EmailLookup) Run(ctx context.Context, e *entity.Entity) ([]*entity.Entity, error) {
	address := e.GetString("address")
	local, domain, ok := strings.Cut(address, "@")
	if !ok || local == "" || domain == "" {
		return nil, nil
	}
	source := t.Name()

	var out []*entity.Entity

	if username, err := t.src.Entities.New(ctx, entity.KindUsername, map[string]any{
		"username": local,
		"source":   source,
	}); err == nil {
		out = append(out, username)
	}

	siteURL := "https://" + domain
	if head(ctx, t.src.client(), siteURL) {
		if site, err := t.src.Entities.New(ctx, entity.KindWebsite, map[string]any{
			"url":    siteURL,
			"domain": domain,
			"title":  domain,
			"source": source,
		}); err == nil {
			out = append(out, site)
		}
	}

	if avatarURL := t.gravatarURL(ctx, address); avatarURL != "" {
		if avatar, err := t.src.Entities.New(ctx, entity.KindImage, map[string]any{
			"title":       "Gravatar",
			"description": fmt.Sprintf("Gravatar avatar for %s", address),
			"url":         avatarURL,
			"image":       avatarURL,
			"source":      source,
		}); err == nil {
			out = append(out, avatar)
		}
	}
	return out, nil
}

// gravatarURL probes Gravatar for the address and returns the avatar URL if
// one is registered. d=404 makes Gravatar answer 404 instead of a default
// image when the hash is unknown.
func (t *EmailLookup) gravatarURL(ctx context.Context, address string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(address))))
	candidate := gravatarBase + hex.EncodeToString(sum[:]) + "?d=404"
	if !head(ctx, t.src.client(), candidate) {
		return ""
	}
	return candidate
}
