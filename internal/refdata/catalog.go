package refdata

import (
	"sort"
	"strings"
	"sync"

	"github.com/skyroute/flightplanner/pkg/core"
)

// Catalog is the in-memory airport and NAVAID lookup used while planning.
// It keeps dataset order so selection lists match the source files.
type Catalog struct {
	mu       sync.RWMutex
	airports map[string]core.Airport
	navaids  map[string]core.Navaid
	aOrder   []string
	nOrder   []string
}

func NewCatalog() *Catalog {
	return &Catalog{
		airports: make(map[string]core.Airport),
		navaids:  make(map[string]core.Navaid),
	}
}

// Reset drops all reference data.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.airports = make(map[string]core.Airport)
	c.navaids = make(map[string]core.Navaid)
	c.aOrder = nil
	c.nOrder = nil
}

// AddAirports inserts or replaces airports by ID.
func (c *Catalog) AddAirports(airports ...core.Airport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range airports {
		if _, ok := c.airports[a.ID]; !ok {
			c.aOrder = append(c.aOrder, a.ID)
		}
		c.airports[a.ID] = a
	}
}

// AddNavaids inserts or replaces NAVAIDs by ID.
func (c *Catalog) AddNavaids(navaids ...core.Navaid) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range navaids {
		if _, ok := c.navaids[n.ID]; !ok {
			c.nOrder = append(c.nOrder, n.ID)
		}
		c.navaids[n.ID] = n
	}
}

func (c *Catalog) Airport(id string) (core.Airport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.airports[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		a, ok = c.airports[id]
	}
	return a, ok
}

func (c *Catalog) Navaid(id string) (core.Navaid, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.navaids[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		n, ok = c.navaids[id]
	}
	return n, ok
}

// Airports returns every airport in dataset order.
func (c *Catalog) Airports() []core.Airport {
	return c.SearchAirports("", 0)
}

// Navaids returns every NAVAID in dataset order.
func (c *Catalog) Navaids() []core.Navaid {
	return c.SearchNavaids("", 0)
}

// Counts returns the number of airports and NAVAIDs.
func (c *Catalog) Counts() (airports, navaids int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.airports), len(c.navaids)
}

func matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// SearchAirports returns airports whose ID or name contains query, case
// insensitive. limit <= 0 means no limit.
func (c *Catalog) SearchAirports(query string, limit int) []core.Airport {
	q := strings.ToLower(strings.TrimSpace(query))
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []core.Airport{}
	for _, id := range c.aOrder {
		a := c.airports[id]
		if !matches(q, a.ID, a.Name) {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// SearchNavaids returns NAVAIDs whose ID or name contains query, case
// insensitive. limit <= 0 means no limit.
func (c *Catalog) SearchNavaids(query string, limit int) []core.Navaid {
	q := strings.ToLower(strings.TrimSpace(query))
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []core.Navaid{}
	for _, id := range c.nOrder {
		n := c.navaids[id]
		if !matches(q, n.ID, n.Name) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// AirportGroup is one airport type with its airports, for selection lists.
type AirportGroup struct {
	Type     string         `json:"label"`
	Airports []core.Airport `json:"options"`
}

// AirportsByType groups airports by type. Groups are sorted by type; airports
// keep dataset order inside a group.
func (c *Catalog) AirportsByType() []AirportGroup {
	groups := map[string][]core.Airport{}
	for _, a := range c.Airports() {
		groups[a.Type] = append(groups[a.Type], a)
	}
	types := make([]string, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]AirportGroup, 0, len(types))
	for _, t := range types {
		out = append(out, AirportGroup{Type: t, Airports: groups[t]})
	}
	return out
}
