// Package server exposes the agenda pipeline over HTTP for dashboard
// clients: GET /events for a single day and GET /stats for host gauges
// plus today's events. Results are cached per date.
package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/perbu/today/agenda"
	"github.com/perbu/today/dateparse"
	"github.com/perbu/today/eventstore"
)

// cacheTTL bounds how long a day's result is served without re-querying
// the store.
const cacheTTL = 10 * time.Minute

// Server wires the store and the pipeline behind a gin engine. The store
// must already be authorized before New is called.
type Server struct {
	store  eventstore.Store
	loc    *time.Location
	cache  *resultCache
	stats  *statsSampler
	engine *gin.Engine
}

// New builds the server and its routes.
func New(store eventstore.Store, loc *time.Location) *Server {
	s := &Server{
		store: store,
		loc:   loc,
		cache: newResultCache(cacheTTL),
		stats: &statsSampler{},
	}

	r := gin.Default()
	r.GET("/events", s.handleEvents)
	r.GET("/stats", s.handleStats)
	s.engine = r
	return s
}

// Run listens and serves on addr until the process exits.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// handleEvents serves the agenda for ?date=YYYY-MM-DD, defaulting to
// today on an absent or malformed date.
func (s *Server) handleEvents(c *gin.Context) {
	c.JSON(http.StatusOK, s.eventsFor(c.Request.Context(), c.Query("date")))
}

// handleStats mirrors the dashboard contract: host gauges in the 0-100
// range plus today's events.
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cpu":    s.stats.cpuPercent(),
		"mem":    s.stats.memPercent(),
		"net":    s.stats.netGauge(),
		"power":  s.stats.batteryPercent(),
		"events": s.eventsFor(c.Request.Context(), ""),
	})
}

// eventsFor runs the day pipeline with caching. Query failures degrade
// to an empty list so dashboard clients keep rendering; the error only
// goes to the log.
func (s *Server) eventsFor(ctx context.Context, dateArg string) []agenda.Record {
	date := dateparse.Resolve(dateArg, s.loc)
	key := date.In(s.loc).Format(dateparse.Layout)
	if records, ok := s.cache.get(key); ok {
		return records
	}

	window, err := dateparse.DayOf(date, s.loc)
	if err != nil {
		log.Printf("day window: %v", err)
		return []agenda.Record{}
	}
	events, err := s.store.Events(ctx, window.Start, window.End)
	if err != nil {
		log.Printf("calendar read error: %v", err)
		return []agenda.Record{}
	}

	records := agenda.Build(events, s.loc)
	s.cache.put(key, records)
	return records
}

// resultCache holds per-date results with a TTL.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	records []agenda.Record
	at      time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *resultCache) get(key string) ([]agenda.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Since(entry.at) >= c.ttl {
		return nil, false
	}
	return entry.records, true
}

func (c *resultCache) put(key string, records []agenda.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{records: records, at: time.Now()}
}
