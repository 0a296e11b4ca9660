package geo

import (
	"fmt"

	"github.com/blackvectorops/pano/pkg/entity"
)

const staticMapBase = "https://maps.geoapify.com/v1/staticmap"

// StaticMap builds static-map image URLs for coordinate pairs. The zero
// value produces no URLs; an API key enables it.
type StaticMap struct {
	APIKey string
	Width  int
	Height int
	Zoom   int
}

// NewStaticMap creates a static map URL builder with default dimensions.
func NewStaticMap(apiKey string) *StaticMap {
	return &StaticMap{APIKey: apiKey, Width: 400, Height: 300, Zoom: 14}
}

// URL implements entity.StaticMapFunc. It returns "" when no API key is
// configured so callers drop the image property instead of storing a broken
// link.
func (m *StaticMap) URL(lat, lng string) string {
	if m == nil || m.APIKey == "" {
		return ""
	}
	return fmt.Sprintf("%s?style=osm-carto&width=%d&height=%d&center=lonlat:%s,%s&zoom=%d&marker=lonlat:%s,%s;color:%%23ff0000;size:medium&apiKey=%s",
		staticMapBase, m.Width, m.Height, lng, lat, m.Zoom, lng, lat, m.APIKey)
}

var _ entity.StaticMapFunc = (*StaticMap)(nil).URL
