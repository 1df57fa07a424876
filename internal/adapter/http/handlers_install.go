package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/windevexpert/windevexpert/internal/domain"
	"github.com/windevexpert/windevexpert/internal/domain/install"
	"github.com/windevexpert/windevexpert/internal/middleware"
	"github.com/windevexpert/windevexpert/internal/service"
)

const (
	msgInstallerDisabled = "l'installateur est désactivé"
	msgAlreadyInstalled  = "l'installation est déjà terminée"
)

// HandleInstall dispatches POST /api/install. Check and step failures are
// reported with status 200 in the body; only malformed requests (400), a
// completed installation without the admin token (409) and a disabled
// installer (410) change the status code.
func (h *Handlers) HandleInstall(w http.ResponseWriter, r *http.Request) {
	if h.Installer.Disabled() {
		writeError(w, http.StatusGone, msgInstallerDisabled)
		return
	}
	req, ok := readJSON[install.Request](w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if middleware.ActorFromContext(ctx) == middleware.ActorToken {
		ctx = service.AsOperator(ctx)
	}
	resp, err := h.Installer.Handle(ctx, req)
	switch {
	case errors.Is(err, service.ErrInstallerDisabled):
		writeError(w, http.StatusGone, msgInstallerDisabled)
	case errors.Is(err, service.ErrAlreadyInstalled):
		writeError(w, http.StatusConflict, msgAlreadyInstalled)
	case errors.Is(err, domain.ErrValidation):
		h.errs().domain(w, err, "")
	case err != nil:
		h.errs().internal(w, err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// ExportConfig answers POST /api/install/export with the configuration of the
// posted request, secrets redacted, as a JSON attachment. The body has the
// same shape as POST /api/install; its action is ignored.
func (h *Handlers) ExportConfig(w http.ResponseWriter, r *http.Request) {
	if h.Installer.Disabled() {
		writeError(w, http.StatusGone, msgInstallerDisabled)
		return
	}
	req, ok := readJSON[install.Request](w, r)
	if !ok {
		return
	}
	data, err := req.Config.Export()
	if err != nil {
		h.errs().internal(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", install.ExportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// InstallStatus answers GET /api/install/status.
func (h *Handlers) InstallStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Installer.Status())
}
