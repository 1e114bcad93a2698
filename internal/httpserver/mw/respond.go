package mw

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/smartmark/internal/api"
)

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: msg})
}
