package http

import (
	"context"
	"net/http"
	"time"

	"github.com/windevexpert/windevexpert/internal/port/messagequeue"
	"github.com/windevexpert/windevexpert/internal/service"
)

// Handlers holds the services behind the HTTP API.
type Handlers struct {
	Admin     *service.AdminService
	Installer *service.InstallerService
	// Events is optional; it only feeds the health report.
	Events messagequeue.Queue
	// Env is the deployment environment. Outside "production", data access
	// failures include the underlying error in the response.
	Env string
}

func (h *Handlers) errs() errorWriter {
	return errorWriter{detail: h.Env != "production"}
}

const healthPingTimeout = 2 * time.Second

type healthStatus struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	Database  string `json:"database"`
	Events    string `json:"events"`
	Installed bool   `json:"installed"`
}

// Health reports the selected data path and whether the database answers.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	st := healthStatus{
		Status:    "ok",
		Backend:   h.Admin.Backend(),
		Database:  "ok",
		Events:    "disabled",
		Installed: h.Installer.Status().Installed,
	}
	if h.Events != nil && h.Events.IsConnected() {
		st.Events = "connected"
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	code := http.StatusOK
	if err := h.Admin.Ping(ctx); err != nil {
		st.Status = "degraded"
		st.Database = "unreachable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, st)
}
