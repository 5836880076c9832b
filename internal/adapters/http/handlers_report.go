package web

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"absentee/internal/adapters/http/middleware"
	"absentee/internal/adapters/workbook"
	"absentee/internal/application/orchestrators"
	"absentee/internal/application/projections"
	"absentee/internal/domain/absentee"
)

type uploadView struct {
	Anchor     string
	Offsets    []int
	WindowDays int
}

func (s *Server) uploadView(anchor string) uploadView {
	if anchor == "" {
		anchor = s.deps.Now().Format(absentee.DateLayout)
	}
	return uploadView{
		Anchor:     anchor,
		Offsets:    s.deps.Settings.Offsets,
		WindowDays: s.deps.Settings.WindowDays,
	}
}

// handleUploadForm handles GET /
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "upload.html", "New report", s.uploadView(""), "")
}

// handleCreateDraft handles POST /reports/draft: reads the roster, computes the
// draft into the session's slot and redirects to the review page.
func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Roster file is too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	anchorValue := strings.TrimSpace(r.FormValue("anchor"))
	anchor := s.deps.Now()
	if anchorValue != "" {
		parsed, err := time.Parse(absentee.DateLayout, anchorValue)
		if err != nil {
			s.render(w, r, http.StatusUnprocessableEntity, "upload.html", "New report", s.uploadView(anchorValue),
				"Anchor date must be YYYY-MM-DD.")
			return
		}
		anchor = parsed
	}

	file, header, err := r.FormFile("roster")
	if err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "upload.html", "New report", s.uploadView(anchorValue),
			"Choose a roster file to upload.")
		return
	}
	defer file.Close()

	ros, err := orchestrators.ExecuteLoadRoster(r.Context(), orchestrators.LoadRosterInput{
		Reader:   file,
		Filename: header.Filename,
	})
	if err != nil {
		if orchestrators.IsRosterRejection(err) {
			s.render(w, r, http.StatusUnprocessableEntity, "upload.html", "New report", s.uploadView(anchorValue), err.Error())
			return
		}
		internalError(w, err)
		return
	}

	draft, err := orchestrators.ExecuteComputeDraft(r.Context(), orchestrators.ComputeDraftInput{
		Roster:    ros,
		Anchor:    anchor,
		Settings:  s.deps.Settings,
		SessionID: sess.Token,
	}, orchestrators.ComputeDraftDeps{
		Drafts:     s.deps.Drafts,
		GenerateID: s.deps.GenerateID,
		Now:        s.deps.Now,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	http.Redirect(w, r, "/reports/draft/"+draft.ID, http.StatusSeeOther)
}

// handleReviewDraft handles GET /reports/draft/{id}
func (s *Server) handleReviewDraft(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	result, err := projections.QueryGetDraftReview(r.Context(), projections.GetDraftReviewQuery{
		SessionID: sess.Token,
		DraftID:   r.PathValue("id"),
	}, projections.GetDraftReviewDeps{Drafts: s.deps.Drafts})
	if errors.Is(err, projections.ErrDraftNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "review.html", "Review absentees", result, "")
}

// handleFinalize handles POST /reports/draft/{id}/finalize. The form carries one
// "week" field per label and one "absent" value per entry left checked.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	draft, ok := s.deps.Drafts.Get(sess.Token, r.PathValue("id"))
	if !ok {
		http.Error(w, projections.ErrDraftNotFound.Error(), http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	by := sess.Email
	if by == "" {
		by = sess.AccountID
	}
	selections, err := projections.SelectionsFromForm(r.PostForm["week"], r.PostForm["absent"])
	if err == nil {
		_, err = orchestrators.ExecuteFinalizeReport(r.Context(), orchestrators.FinalizeReportInput{
			Draft:       draft,
			Selections:  selections,
			FinalizedBy: by,
			Source:      "web",
		}, orchestrators.FinalizeReportDeps{
			ReportStore: s.deps.Reports,
			GenerateID:  s.deps.GenerateID,
			Now:         s.deps.Now,
		})
	}
	var curationErr *absentee.CurationError
	if errors.As(err, &curationErr) {
		http.Error(w, curationErr.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	s.deps.Drafts.Delete(sess.Token)
	http.Redirect(w, r, "/reports/latest", http.StatusSeeOther)
}

// handleLatestReport handles GET /reports/latest
func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetLatestReport(r.Context(), projections.GetLatestReportDeps{ReportStore: s.deps.Reports})
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "report.html", "Latest report", result, "")
}

// handleLatestWorkbook handles GET /reports/latest.xlsx
func (s *Server) handleLatestWorkbook(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetLatestReport(r.Context(), projections.GetLatestReportDeps{ReportStore: s.deps.Reports})
	if err != nil {
		internalError(w, err)
		return
	}
	if !result.Found {
		http.Error(w, "No report has been finalized yet", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf, result.Report); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+workbook.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleLatestReportJSON handles GET /api/reports/latest
func (s *Server) handleLatestReportJSON(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetLatestReport(r.Context(), projections.GetLatestReportDeps{ReportStore: s.deps.Reports})
	if err != nil {
		internalError(w, err)
		return
	}
	if !result.Found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report has been finalized yet"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}
