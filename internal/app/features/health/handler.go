package health

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/ideaslab/server/internal/app/system/timeouts"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client  *mongo.Client
	Gateway func() bool // reports whether the guild gateway is connected
	Log     *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(client *mongo.Client, gateway func() bool, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Gateway: gateway, Log: logger}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Gateway  string `json:"gateway,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health. The database check gates the status code;
// the gateway state is informational, since the web API stays usable
// through a gateway reconnect.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Gateway != nil {
		resp.Gateway = "connected"
		if !h.Gateway() {
			resp.Gateway = "disconnected"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
