package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/auth"
	"github.com/MrSnakeDoc/smartmark/internal/gateway"
	"github.com/MrSnakeDoc/smartmark/internal/ingest"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/metrics"
	"github.com/MrSnakeDoc/smartmark/internal/scheduler"
)

// Ingester runs one save; *ingest.Pipeline in production.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
}

// ImportStatus reports the last homepage import; *scheduler.ImportReloader
// in production.
type ImportStatus interface {
	Status() scheduler.ImportStatus
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access operational routes
	AllowedCIDRS []string         // IPs allowed to access operational routes
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Auth     *auth.Verifier   // access token verification for /api
	Gateway  *gateway.Gateway // bookmark reads, deletes and the change feed
	Ingester Ingester         // POST /api/bookmarks
	Metrics  *metrics.Metrics // nil => /metrics answers 404

	IngestTimeout      time.Duration // upper bound for one save
	IngestBurst        int           // per-IP token bucket size on POST /api/bookmarks
	IngestRefillPerMin int           // tokens added per minute
	HeartbeatInterval  time.Duration // comment line sent on idle event streams

	StoreDriver         string        // reported by /infra
	BrokerKind          string        // "memory" | "redis", reported by /infra
	EnrichmentModel     string        // "" when enrichment is not configured
	Importer            ImportStatus  // nil if import disabled
	ImportReloadTrigger chan struct{} // Channel to trigger manual import (nil if import disabled)
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
