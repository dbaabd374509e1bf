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
	"github.com/xuri/excelize/v2"

	"github.com/divyesh007-delta/Placify-1/internal/auth"
	"github.com/divyesh007-delta/Placify-1/internal/model"
)

type createCompanyRequest struct {
	Name        string   `json:"name"`
	Logo        string   `json:"logo"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Website     string   `json:"website"`
	Founded     string   `json:"founded"`
	Employees   string   `json:"employees"`
	Tags        []string `json:"tags"`
	JobRoles    []string `json:"jobRoles"`
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Company name is required")
		return
	}

	now := time.Now().UTC()
	co := model.Company{
		ID:          uuid.NewString(),
		CompanyID:   "comp_" + uuid.NewString()[:8],
		Name:        req.Name,
		Logo:        req.Logo,
		Description: req.Description,
		Location:    req.Location,
		Website:     req.Website,
		Founded:     req.Founded,
		Employees:   req.Employees,
		Tags:        req.Tags,
		JobRoles:    req.JobRoles,
		IsVerified:  true,
		VerifiedBy:  &claims.Email,
		VerifiedAt:  &now,
		CreatedBy:   claims.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCompany(r.Context(), co); err != nil {
		log.Err(err).Str("company", co.Name).Msg("company create failed")
		writeError(w, http.StatusInternalServerError, "Company creation failed")
		return
	}

	writeSuccess(w, http.StatusCreated, "Company created", map[string]interface{}{
		"company": companyDetail(co),
	})
}

func (s *Server) handlePendingExperiences(w http.ResponseWriter, r *http.Request) {
	exps, err := s.store.ListPendingExperiences(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not load pending experiences")
		return
	}

	payload := make([]map[string]interface{}, 0, len(exps))
	for _, exp := range exps {
		payload = append(payload, experiencePayload(exp))
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"experiences": payload})
}

func (s *Server) handleVerifyExperience(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	experienceID := chi.URLParam(r, "experienceId")

	verified, err := s.store.VerifyExperience(r.Context(), experienceID, claims.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}
	if !verified {
		writeError(w, http.StatusNotFound, "Experience not found")
		return
	}

	if exp, err := s.store.GetExperienceByExperienceID(r.Context(), experienceID); err == nil {
		s.insights.Invalidate(r.Context(), exp.CompanyID)
	}
	writeSuccess(w, http.StatusOK, "Experience verified", nil)
}

type rejectExperienceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleRejectExperience(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	experienceID := chi.URLParam(r, "experienceId")

	var req rejectExperienceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "A rejection reason is required")
		return
	}

	rejected, err := s.store.RejectExperience(r.Context(), experienceID, claims.Email, req.Reason)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Rejection failed")
		return
	}
	if !rejected {
		writeError(w, http.StatusNotFound, "Experience not found")
		return
	}

	writeSuccess(w, http.StatusOK, "Experience rejected", nil)
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountExperienceVerification(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not load dashboard stats")
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"stats": map[string]int{
			"pending":  counts.Pending,
			"verified": counts.Verified,
			"rejected": counts.Rejected,
		},
	})
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	exps, err := s.store.ListRecentExperiences(r.Context(), 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not load recent activity")
		return
	}

	payload := make([]map[string]interface{}, 0, len(exps))
	for _, exp := range exps {
		entry := map[string]interface{}{
			"experienceId": exp.ExperienceID,
			"companyName":  exp.CompanyName,
			"jobRole":      exp.JobRole,
			"status":       exp.Status,
			"isVerified":   exp.IsVerified,
			"updatedAt":    exp.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if exp.RejectedAt != nil {
			entry["rejectionReason"] = exp.RejectionReason
		}
		payload = append(payload, entry)
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"activity": payload})
}

func (s *Server) handleListSubAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.store.ListSubAdmins(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not load sub-admins")
		return
	}

	payload := make([]map[string]interface{}, 0, len(admins))
	for _, ad := range admins {
		entry := adminPayload(ad)
		if ad.LastLogin != nil {
			entry["lastLogin"] = ad.LastLogin.UTC().Format(time.RFC3339)
		}
		payload = append(payload, entry)
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"subAdmins": payload})
}

type createSubAdminRequest struct {
	Email string `json:"email"`
}

// handleCreateSubAdmin promotes an existing student: the admins row reuses
// the student's password hash so their credentials keep working.
func (s *Server) handleCreateSubAdmin(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createSubAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	student, err := s.store.GetStudentByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "No student account with this email")
			return
		}
		writeError(w, http.StatusInternalServerError, "Sub-admin creation failed")
		return
	}
	if s.store.AdminWithRoleExists(r.Context(), req.Email, auth.RoleSubAdmin) {
		writeError(w, http.StatusConflict, "This student is already a sub-admin")
		return
	}

	now := time.Now().UTC()
	admin := model.Admin{
		ID:           uuid.NewString(),
		AdminID:      "SUB-" + strings.ToUpper(uuid.NewString()[:8]),
		Email:        student.Email,
		Name:         student.Name,
		PasswordHash: student.PasswordHash,
		StudentID:    &student.StudentID,
		Role:         auth.RoleSubAdmin,
		Department:   student.Branch,
		Permissions:  []string{"manage_companies", "verify_experiences"},
		IsActive:     true,
		CreatedBy:    claims.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAdmin(r.Context(), admin); err != nil {
		writeError(w, http.StatusInternalServerError, "Sub-admin creation failed")
		return
	}
	if err := s.store.SetStudentSubAdmin(r.Context(), req.Email, true); err != nil {
		log.Err(err).Str("email", req.Email).Msg("sub-admin flag update failed")
	}

	writeSuccess(w, http.StatusCreated, "Sub-admin created", map[string]interface{}{
		"subAdmin": adminPayload(admin),
	})
}

func (s *Server) handleDeleteSubAdmin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(chi.URLParam(r, "email")))
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	deleted, err := s.store.DeleteSubAdmin(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sub-admin removal failed")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Sub-admin not found")
		return
	}
	if err := s.store.SetStudentSubAdmin(r.Context(), email, false); err != nil {
		log.Err(err).Str("email", email).Msg("sub-admin flag update failed")
	}

	writeSuccess(w, http.StatusOK, "Sub-admin removed", nil)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	limit, offset := pagination(r, 20)

	students, total, err := s.store.ListStudents(r.Context(), search, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not load students")
		return
	}

	payload := make([]map[string]interface{}, 0, len(students))
	for _, st := range students {
		payload = append(payload, studentPayload(st, auth.RoleStudent))
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"students": payload,
		"total":    total,
	})
}

// handleExportStudents streams the full roster as an XLSX workbook.
func (s *Server) handleExportStudents(w http.ResponseWriter, r *http.Request) {
	students, _, err := s.store.ListStudents(r.Context(), "", 10000, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not export students")
		return
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	const sheet = "Students"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student ID", "Name", "Email", "Phone", "Branch", "Semester", "CGPA", "Career Path", "Placement Status", "Sub-Admin"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, st := range students {
		values := []interface{}{
			st.StudentID, st.Name, st.Email, st.Phone, st.Branch,
			st.Semester, st.CGPA, st.CareerPath, st.PlacementStatus, st.IsSubAdmin,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=students-%s.xlsx", time.Now().UTC().Format("2006-01-02")))
	if err := f.Write(w); err != nil {
		log.Err(err).Msg("student export write failed")
	}
}
