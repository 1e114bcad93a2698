package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/api"
	"github.com/MrSnakeDoc/smartmark/internal/auth"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

const defaultHeartbeat = 25 * time.Second

// Events streams the caller's change feed as server-sent events:
//
//	event: ready    once the subscription is live
//	event: change   one realtime.Event as JSON
//	: heartbeat     every HeartbeatInterval while idle
func Events(d deps.Deps) http.HandlerFunc {
	heartbeat := d.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		sub, err := d.Gateway.Subscribe(r.Context(), userID)
		if err != nil {
			d.Logger.Warn("subscribe failed", logger.String("user_id", userID), logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Change feed unavailable")
			return
		}
		defer sub.Close()

		rc := http.NewResponseController(w)
		// The stream outlives the server write timeout.
		_ = rc.SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		if _, err := fmt.Fprintf(w, "event: %s\ndata: {}\n\n", api.EventReady); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			d.Logger.Warn("event stream not flushable", logger.Error(err))
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case e, ok := <-sub.Events():
				if !ok {
					return
				}
				data, err := json.Marshal(e)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", api.EventChange, data); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
