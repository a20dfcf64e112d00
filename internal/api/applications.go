// internal/api/applications.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"provider-enrollment/internal/common/auth"
	apperrors "provider-enrollment/internal/common/errors"
	"provider-enrollment/internal/common/validation"
	"provider-enrollment/internal/models"
	"provider-enrollment/internal/repository"
	createapplicationrecord "provider-enrollment/internal/workers/application/create-application-record"
	updateapplicationstatus "provider-enrollment/internal/workers/application/update-application-status"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var (
	statusUpdateSchema      = validation.MustCompile(validation.StatusUpdateSchema)
	createApplicationSchema = validation.MustCompile(validation.CreateApplicationSchema)
)

type successBody struct {
	Success bool        `json:"success"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data"`
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	apperrors.WriteJSON(w, status, successBody{Success: true, Data: data})
}

type statusUpdateRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// readBody validates the request body against schema and decodes it into v.
func readBody(r *http.Request, w http.ResponseWriter, schema *validation.Schema, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewValidationError([]apperrors.FieldError{{
			Field:   "body",
			Message: "request body could not be read",
			Code:    "INVALID_BODY",
		}})
	}
	if fields := schema.ValidateBytes(body); len(fields) > 0 {
		return apperrors.NewValidationError(fields)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.NewValidationError([]apperrors.FieldError{{
			Field:   "body",
			Message: err.Error(),
			Code:    "INVALID_JSON",
		}})
	}
	return nil
}

// handleUpdateStatus is PUT /api/applications/{id}/status.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusUpdateRequest
	if err := readBody(r, w, statusUpdateSchema, &req); err != nil {
		s.errs.Handle(w, r, err)
		return
	}

	app, err := s.deps.Status.UpdateStatus(r.Context(), &updateapplicationstatus.Input{
		ApplicationID: id,
		Status:        req.Status,
		Notes:         req.Notes,
	})
	if err != nil {
		s.errs.Handle(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, app)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var input createapplicationrecord.Input
	if err := readBody(r, w, createApplicationSchema, &input); err != nil {
		s.errs.Handle(w, r, err)
		return
	}

	app, err := s.deps.Intake.Execute(r.Context(), claims.UserID, &input)
	if err != nil {
		s.errs.Handle(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, app)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	apps, err := s.deps.Applications.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		s.errs.Handle(w, r, apperrors.NewDatabaseError("list_applications", err))
		return
	}
	n := len(apps)
	apperrors.WriteJSON(w, http.StatusOK, successBody{Success: true, Count: &n, Data: apps})
}

// handleGetApplication returns one of the caller's own applications. Another
// user's application is reported as not found.
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	app, err := s.deps.Applications.GetByIDForUser(r.Context(), id, claims.UserID)
	s.writeApplication(w, r, id, app, err)
}

func (s *Server) handleAdminGetApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	app, err := s.deps.Applications.GetByID(r.Context(), id)
	s.writeApplication(w, r, id, app, err)
}

func (s *Server) writeApplication(w http.ResponseWriter, r *http.Request, id string, app *models.Application, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.errs.Handle(w, r, apperrors.NewApplicationNotFoundError(id))
	case err != nil:
		s.errs.Handle(w, r, apperrors.NewDatabaseError("get_application", err))
	default:
		writeSuccess(w, http.StatusOK, app)
	}
}
