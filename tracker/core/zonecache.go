package core

import (
	"math"
	"sync"

	"siteclock.com/siteclock/tracker/model"
)

// ZoneCache holds the active set of named circular zones. Writers
// replace the whole set under the lock so readers never observe a torn
// update while zone definitions are being rewritten.
type ZoneCache struct {
	mu    sync.RWMutex
	zones map[string]model.Zone
}

func NewZoneCache() *ZoneCache {
	return &ZoneCache{zones: make(map[string]model.Zone)}
}

func (c *ZoneCache) ReplaceAll(zones []model.Zone) {
	next := make(map[string]model.Zone, len(zones))
	for _, z := range zones {
		z.ClampRadius()
		next[z.ID] = z
	}

	c.mu.Lock()
	c.zones = next
	c.mu.Unlock()
}

func (c *ZoneCache) Get(id string) (model.Zone, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	z, ok := c.zones[id]
	return z, ok
}

func (c *ZoneCache) All() []model.Zone {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Zone, 0, len(c.zones))
	for _, z := range c.zones {
		out = append(out, z)
	}
	return out
}

func (c *ZoneCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.zones)
}

const earthRadiusMeters = 6371000.0

// DistanceMeters is the haversine great-circle distance between two
// coordinates.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// DistanceToZone is the distance from a position to the zone centre.
func DistanceToZone(p *Position, z model.Zone) float64 {
	return DistanceMeters(p.Latitude, p.Longitude, z.Latitude, z.Longitude)
}
