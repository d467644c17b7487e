// Package geo — Nominatim (OpenStreetMap) üzerinden forward geocoding.
//
// Trip destinasyonları için şehir adını koordinata çevirir. Nominatim kullanım
// politikası gereği istekler arasında en az 1 saniye beklenir ve sonuçlar
// cache'lenir; aynı şehir için tekrar istek atılmaz.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/nomadnotes/nomadnotes/pkg/cache"
)

const (
	nominatimBase = "https://nominatim.openstreetmap.org/search"
	userAgent     = "NomadNotes/1.0 (travel planner)"
	minInterval   = time.Second
)

// Point, WGS84 koordinat çifti.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder, yer adından koordinat çözümler.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (Point, error)
}

type nominatimGeocoder struct {
	client *http.Client
	cache  *cache.TTLCache[string, Point]

	mu          sync.Mutex
	lastRequest time.Time
}

// NewNominatim, rate-limit'li ve cache'li bir Geocoder oluşturur.
func NewNominatim() Geocoder {
	return &nominatimGeocoder{
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  cache.New[string, Point](24*time.Hour, time.Hour),
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *nominatimGeocoder) Geocode(ctx context.Context, place string) (Point, error) {
	if pt, ok := g.cache.Get(place); ok {
		return pt, nil
	}

	g.throttle()

	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nominatimBase+"?"+q.Encode(), nil)
	if err != nil {
		return Point{}, fmt.Errorf("geocode request build failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocode request failed: status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Point{}, fmt.Errorf("geocode response decode failed: %w", err)
	}
	if len(results) == 0 {
		return Point{}, fmt.Errorf("geocode: no results for %q", place)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("geocode: invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("geocode: invalid longitude: %w", err)
	}

	pt := Point{Lat: lat, Lon: lon}
	g.cache.Set(place, pt)
	return pt, nil
}

// throttle, Nominatim'in 1 req/s limitine uyar.
func (g *nominatimGeocoder) throttle() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if wait := minInterval - time.Since(g.lastRequest); wait > 0 {
		time.Sleep(wait)
	}
	g.lastRequest = time.Now()
}
