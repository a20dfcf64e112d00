// internal/api/admin.go
package api

import (
	"net/http"
	"time"

	apperrors "provider-enrollment/internal/common/errors"
	"provider-enrollment/internal/models"
)

// recentWindow is how far back "recent" submissions are counted.
const recentWindow = 30 * 24 * time.Hour

type Stats struct {
	Users struct {
		Total int `json:"total"`
	} `json:"users"`
	Applications struct {
		Total    int                 `json:"total"`
		Recent   int                 `json:"recent"`
		ByStatus models.StatusCounts `json:"byStatus"`
	} `json:"applications"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats Stats

	users, err := s.deps.Users.Count(ctx)
	if err != nil {
		s.errs.Handle(w, r, apperrors.NewDatabaseError("count_users", err))
		return
	}
	stats.Users.Total = users

	byStatus, total, err := s.deps.Applications.CountByStatus(ctx)
	if err != nil {
		s.errs.Handle(w, r, apperrors.NewDatabaseError("count_applications", err))
		return
	}
	stats.Applications.Total = total
	stats.Applications.ByStatus = byStatus

	recent, err := s.deps.Applications.CountSubmittedSince(ctx, s.now().UTC().Add(-recentWindow))
	if err != nil {
		s.errs.Handle(w, r, apperrors.NewDatabaseError("count_recent_applications", err))
		return
	}
	stats.Applications.Recent = recent

	writeSuccess(w, http.StatusOK, stats)
}
