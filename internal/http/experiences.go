package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/divyesh007-delta/Placify-1/internal/auth"
	"github.com/divyesh007-delta/Placify-1/internal/model"
)

var roundRequiredFields = map[string][]string{
	"aptitude":         {"attemptedQ", "correctQ", "difficulty"},
	"coding":           {"difficulty", "timeLimit", "languagesUsed"},
	"technical":        {"difficulty", "duration", "focusTopics"},
	"hr":               {"duration", "rating"},
	"group discussion": {"topic", "duration", "rating"},
}

type questionCap struct {
	field string
	max   int
}

var roundQuestionCaps = map[string]questionCap{
	"aptitude":  {"sampleQuestions", 3},
	"coding":    {"top3Questions", 3},
	"technical": {"top5Questions", 5},
	"hr":        {"topQuestions", 8},
}

type createExperienceRequest struct {
	CompanyID         string           `json:"companyId"`
	CompanyName       string           `json:"companyName"`
	JobRole           string           `json:"jobRole"`
	Status            string           `json:"status"`
	SelectedRounds    []string         `json:"selectedRounds"`
	RoundsData        model.RoundsData `json:"roundsData"`
	OverallRating     int              `json:"overallRating"`
	ExperienceSummary string           `json:"experienceSummary"`
}

func (s *Server) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createExperienceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.JobRole = strings.TrimSpace(req.JobRole)
	req.Status = strings.TrimSpace(req.Status)
	if req.CompanyID == "" || req.JobRole == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "Company, job role and status are required")
		return
	}
	switch req.Status {
	case "Selected", "Rejected", "Pending":
	default:
		writeError(w, http.StatusBadRequest, "Status must be Selected, Rejected or Pending")
		return
	}
	if req.OverallRating < 1 || req.OverallRating > 5 {
		writeError(w, http.StatusBadRequest, "Overall rating must be between 1 and 5")
		return
	}
	if err := validateSubmission(req.SelectedRounds, req.RoundsData); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	co, err := s.store.GetCompanyByRef(r.Context(), req.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Company not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Submission failed")
		return
	}

	now := time.Now().UTC()
	exp := model.Experience{
		ID:                uuid.NewString(),
		ExperienceID:      "exp_" + uuid.NewString(),
		UserID:            claims.UserID,
		CompanyID:         co.CompanyID,
		CompanyName:       co.Name,
		JobRole:           req.JobRole,
		Status:            req.Status,
		SelectedRounds:    req.SelectedRounds,
		RoundsData:        req.RoundsData,
		OverallRating:     req.OverallRating,
		ExperienceSummary: strings.TrimSpace(req.ExperienceSummary),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateExperience(r.Context(), exp); err != nil {
		log.Err(err).Str("company", co.CompanyID).Msg("experience create failed")
		writeError(w, http.StatusInternalServerError, "Submission failed")
		return
	}

	// Counter bumps are best effort; the submission itself already landed.
	if err := s.store.IncrementExperienceCount(r.Context(), co.CompanyID); err != nil {
		log.Err(err).Str("company", co.CompanyID).Msg("experience count bump failed")
	}
	for _, round := range exp.SelectedRounds {
		difficulty, _ := exp.RoundsData[round]["difficulty"].(string)
		if err := s.store.BumpRoundStat(r.Context(), co.CompanyID, round, difficulty); err != nil {
			log.Err(err).Str("company", co.CompanyID).Str("round", round).Msg("round stat bump failed")
		}
	}
	s.insights.Invalidate(r.Context(), co.CompanyID)

	writeSuccess(w, http.StatusCreated, "Experience submitted for verification", map[string]interface{}{
		"experience": experiencePayload(exp),
	})
}

func (s *Server) handleListMyExperiences(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	limit, offset := pagination(r, 10)

	exps, total, err := s.store.ListExperiencesByUser(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not load experiences")
		return
	}

	payload := make([]map[string]interface{}, 0, len(exps))
	for _, exp := range exps {
		payload = append(payload, experiencePayload(exp))
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"experiences": payload,
		"total":       total,
	})
}

func (s *Server) handleGetExperience(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	experienceID := chi.URLParam(r, "experienceId")

	exp, err := s.store.GetExperienceByExperienceID(r.Context(), experienceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Experience not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not load experience")
		return
	}

	if !canViewExperience(exp, claims) {
		writeError(w, http.StatusNotFound, "Experience not found")
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"experience": experiencePayload(exp)})
}

// canViewExperience hides unverified submissions from everyone but their
// author and moderators. Callers answer not-found rather than forbidden, the
// same response an id that never existed gets.
func canViewExperience(exp model.Experience, claims *auth.Claims) bool {
	if exp.IsVerified {
		return true
	}
	return exp.UserID == claims.UserID || auth.IsAdmin(claims)
}

// validateSubmission checks the round selection and the shape of every round
// record: the record keys must match the selected rounds exactly, each round
// must carry its required fields, and question lists respect their caps.
func validateSubmission(selectedRounds []string, roundsData model.RoundsData) error {
	if len(selectedRounds) == 0 {
		return errors.New("At least one round must be selected")
	}

	selected := make(map[string]bool, len(selectedRounds))
	for _, round := range selectedRounds {
		if _, known := roundRequiredFields[round]; !known {
			return fmt.Errorf("Unknown round type %q", round)
		}
		if selected[round] {
			return fmt.Errorf("Round %q selected more than once", round)
		}
		selected[round] = true
	}

	for round := range roundsData {
		if !selected[round] {
			return fmt.Errorf("Round data for %q was not selected", round)
		}
	}

	for _, round := range selectedRounds {
		record, ok := roundsData[round]
		if !ok {
			return fmt.Errorf("Missing details for the %s round", round)
		}
		for _, field := range roundRequiredFields[round] {
			if !fieldPresent(record[field]) {
				return fmt.Errorf("Field %q is required for the %s round", field, round)
			}
		}
		if qc, ok := roundQuestionCaps[round]; ok {
			if list, ok := record[qc.field].([]interface{}); ok && len(list) > qc.max {
				return fmt.Errorf("At most %d entries allowed in %q for the %s round", qc.max, qc.field, round)
			}
		}
	}
	return nil
}

func fieldPresent(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []interface{}:
		return len(v) > 0
	default:
		return true
	}
}

func experiencePayload(exp model.Experience) map[string]interface{} {
	payload := map[string]interface{}{
		"experienceId":      exp.ExperienceID,
		"companyId":         exp.CompanyID,
		"companyName":       exp.CompanyName,
		"jobRole":           exp.JobRole,
		"status":            exp.Status,
		"selectedRounds":    exp.SelectedRounds,
		"roundsData":        exp.RoundsData,
		"overallRating":     exp.OverallRating,
		"experienceSummary": exp.ExperienceSummary,
		"isVerified":        exp.IsVerified,
		"analytics":         exp.Analytics(),
		"likes":             exp.Likes,
		"views":             exp.Views,
		"createdAt":         exp.CreatedAt.UTC().Format(time.RFC3339),
	}
	if exp.RejectedAt != nil {
		payload["rejectionReason"] = exp.RejectionReason
	}
	return payload
}
