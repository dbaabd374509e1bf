package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/divyesh007-delta/Placify-1/internal/analytics"
	"github.com/divyesh007-delta/Placify-1/internal/model"
)

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	limit, offset := pagination(r, 20)

	companies, total, err := s.store.ListCompanies(r.Context(), search, limit, offset)
	if err != nil {
		log.Err(err).Msg("company list failed")
		writeError(w, http.StatusInternalServerError, "Could not load companies")
		return
	}

	payload := make([]map[string]interface{}, 0, len(companies))
	for _, co := range companies {
		payload = append(payload, companySummary(co))
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"companies": payload,
		"total":     total,
	})
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	co, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"company": companyDetail(co)})
}

func (s *Server) handleCompanyOverview(w http.ResponseWriter, r *http.Request) {
	co, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"overview": map[string]interface{}{
			"name":            co.Name,
			"description":     co.Description,
			"location":        co.Location,
			"website":         co.Website,
			"founded":         co.Founded,
			"employees":       co.Employees,
			"rating":          co.Rating,
			"experienceCount": co.ExperienceCount,
			"stats":           co.Stats,
		},
	})
}

func (s *Server) handleCompanyRounds(w http.ResponseWriter, r *http.Request) {
	s.writeRoundStats(w, r, "rounds")
}

func (s *Server) handleCompanyRoundStats(w http.ResponseWriter, r *http.Request) {
	s.writeRoundStats(w, r, "roundStats")
}

func (s *Server) writeRoundStats(w http.ResponseWriter, r *http.Request, key string) {
	companyRef := chi.URLParam(r, "companyRef")
	stats, err := s.store.ListRoundStats(r.Context(), companyRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Company not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Could not load round statistics")
		return
	}

	payload := make([]map[string]interface{}, 0, len(stats))
	for _, stat := range stats {
		payload = append(payload, map[string]interface{}{
			"roundName": stat.RoundName,
			"count":     stat.Count,
			"difficulty": map[string]int{
				"easy":   stat.Easy,
				"medium": stat.Medium,
				"hard":   stat.Hard,
			},
		})
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{key: payload})
}

func (s *Server) handleCompanyPlacedStudents(w http.ResponseWriter, r *http.Request) {
	co, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}
	placed := co.PlacedStudents
	if placed == nil {
		placed = []model.PlacedStudent{}
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"placedStudents": placed})
}

func (s *Server) handleCompanyJobRoles(w http.ResponseWriter, r *http.Request) {
	co, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}
	roles := co.JobRoles
	if roles == nil {
		roles = []string{}
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"jobRoles": roles})
}

func (s *Server) handleCompanyExperiences(w http.ResponseWriter, r *http.Request) {
	companyRef := chi.URLParam(r, "companyRef")
	limit, offset := pagination(r, 10)

	exps, total, err := s.store.ListVerifiedExperiencesByCompany(r.Context(), companyRef, limit, offset)
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

func (s *Server) handleCompanyInsights(w http.ResponseWriter, r *http.Request) {
	co, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}

	if insights, ok := s.insights.Get(r.Context(), co.CompanyID); ok {
		writeSuccess(w, http.StatusOK, "", map[string]interface{}{"insights": insights, "cached": true})
		return
	}

	exps, err := s.store.AllExperiencesByCompany(r.Context(), co.CompanyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not compute insights")
		return
	}
	insights := analytics.BuildInsights(co.Name, verifiedOnly(exps))
	if err := s.insights.Put(r.Context(), co.CompanyID, insights); err != nil {
		log.Err(err).Str("company", co.CompanyID).Msg("insights cache write failed")
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"insights": insights, "cached": false})
}

func (s *Server) handleCompanyRoundsAnalytics(w http.ResponseWriter, r *http.Request) {
	co, ok := s.companyFromRequest(w, r)
	if !ok {
		return
	}

	exps, err := s.store.AllExperiencesByCompany(r.Context(), co.CompanyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not compute round analytics")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"roundsAnalysis": analytics.GenerateRoundsAnalysis(verifiedOnly(exps)),
	})
}

// companyFromRequest resolves {companyRef} as either the public company id or
// the row id, writing the error response itself on failure.
func (s *Server) companyFromRequest(w http.ResponseWriter, r *http.Request) (model.Company, bool) {
	companyRef := chi.URLParam(r, "companyRef")
	if companyRef == "" {
		writeError(w, http.StatusBadRequest, "Company id is required")
		return model.Company{}, false
	}

	co, err := s.store.GetCompanyByRef(r.Context(), companyRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Company not found")
			return model.Company{}, false
		}
		writeError(w, http.StatusInternalServerError, "Could not load company")
		return model.Company{}, false
	}
	return co, true
}

func verifiedOnly(exps []model.Experience) []model.Experience {
	filtered := make([]model.Experience, 0, len(exps))
	for _, exp := range exps {
		if exp.IsVerified {
			filtered = append(filtered, exp)
		}
	}
	return filtered
}

func companySummary(co model.Company) map[string]interface{} {
	return map[string]interface{}{
		"id":              co.ID,
		"companyId":       co.CompanyID,
		"name":            co.Name,
		"logo":            co.Logo,
		"location":        co.Location,
		"tags":            co.Tags,
		"rating":          co.Rating,
		"experienceCount": co.ExperienceCount,
		"isVerified":      co.IsVerified,
	}
}

func companyDetail(co model.Company) map[string]interface{} {
	detail := companySummary(co)
	detail["description"] = co.Description
	detail["website"] = co.Website
	detail["founded"] = co.Founded
	detail["employees"] = co.Employees
	detail["jobRoles"] = co.JobRoles
	detail["stats"] = co.Stats
	detail["placedStudents"] = co.PlacedStudents
	return detail
}
