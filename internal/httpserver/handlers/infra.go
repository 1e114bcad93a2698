package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	LastImport string `json:"last_import,omitempty"`
	Imported   *int   `json:"imported,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports each backing component and an overall mode:
// "critical" when the store is down, "degraded" when saves fall back to basic
// metadata or the last import failed, "intelligent" otherwise.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store":      checkStore(r.Context(), d),
			"broker":     {OK: true, Mode: d.BrokerKind},
			"enrichment": enrichmentStatus(d),
		}
		if d.Importer != nil {
			components["importer"] = importerStatus(d)
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if s, ok := components["store"]; ok && !s.OK {
		return "critical"
	}
	for _, name := range []string{"enrichment", "importer"} {
		if c, ok := components[name]; ok && !c.OK {
			return "degraded"
		}
	}
	return "intelligent"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Gateway.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.StoreDriver,
			Impact: "bookmarks-unavailable",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: d.StoreDriver}
}

func enrichmentStatus(d deps.Deps) componentStatus {
	if d.EnrichmentModel == "" {
		return componentStatus{
			OK:     false,
			Mode:   "fallback",
			Impact: "basic-metadata-only",
			Error:  "no model configured",
		}
	}
	return componentStatus{OK: true, Mode: d.EnrichmentModel}
}

func importerStatus(d deps.Deps) componentStatus {
	st := d.Importer.Status()
	lastImport := "never"
	if !st.LastRun.IsZero() {
		lastImport = st.LastRun.Format("2006-01-02 15:04:05")
	}
	imported := st.Imported
	return componentStatus{
		OK:         st.Error == "",
		LastImport: lastImport,
		Imported:   &imported,
		Error:      st.Error,
	}
}
