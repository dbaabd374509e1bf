package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/divyesh007-delta/Placify-1/internal/auth"
	"github.com/divyesh007-delta/Placify-1/internal/crypto"
	"github.com/divyesh007-delta/Placify-1/internal/model"
	"github.com/divyesh007-delta/Placify-1/internal/otp"
	"github.com/divyesh007-delta/Placify-1/internal/repository"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if !strings.HasSuffix(req.Email, "@"+s.cfg.CollegeEmailDomain) {
		writeError(w, http.StatusBadRequest, "Please use your college email address")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	if digitCount(req.Phone) < 10 {
		writeError(w, http.StatusBadRequest, "Please provide a valid phone number")
		return
	}

	if !s.otp.IsVerified(r.Context(), req.Email) {
		writeError(w, http.StatusForbidden, "Email not verified. Please verify your email first")
		return
	}
	if s.store.StudentEmailExists(r.Context(), req.Email) {
		writeError(w, http.StatusConflict, "An account with this email already exists")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	now := time.Now().UTC()
	student := model.Student{
		ID:              uuid.NewString(),
		StudentID:       strings.ToUpper(strings.SplitN(req.Email, "@", 2)[0]),
		Name:            req.Name,
		Email:           req.Email,
		PasswordHash:    hash,
		Phone:           req.Phone,
		PlacementStatus: "Not Placed",
		EmailVerified:   true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateStudent(r.Context(), student); err != nil {
		log.Err(err).Str("email", req.Email).Msg("student create failed")
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	_ = s.otp.Clear(r.Context(), req.Email)

	accessToken, refreshToken, err := s.issueTokens(r.Context(), student.ID, student.Email, auth.RoleStudent, false, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	writeSuccess(w, http.StatusCreated, "Registration successful", map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         studentPayload(student, auth.RoleStudent),
		"redirectUrl":  redirectPath(auth.RoleStudent, false),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin checks the admins table before students, so a sub-admin
// signing in gets the elevated role even though their student row remains.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	admin, err := s.store.GetActiveAdminByEmail(r.Context(), req.Email)
	if err == nil {
		if err := crypto.CheckPassword(admin.PasswordHash, req.Password); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		_ = s.store.TouchAdminLogin(r.Context(), admin.Email)

		accessToken, refreshToken, err := s.issueTokens(r.Context(), admin.ID, admin.Email, admin.Role, true, r.UserAgent(), clientIP(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		writeSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"user":         adminPayload(admin),
			"redirectUrl":  redirectPath(admin.Role, true),
		})
		return
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	student, err := s.store.GetStudentByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := crypto.CheckPassword(student.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), student.ID, student.Email, auth.RoleStudent, student.IsSetupComplete, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	writeSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         studentPayload(student, auth.RoleStudent),
		"redirectUrl":  redirectPath(auth.RoleStudent, student.IsSetupComplete),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	tokenHash := crypto.HashToken(req.RefreshToken)
	session, err := s.store.GetRefreshSession(r.Context(), tokenHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		writeError(w, http.StatusInternalServerError, "Token refresh failed")
		return
	}
	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now().UTC()) {
		writeError(w, http.StatusUnauthorized, "Refresh token expired")
		return
	}

	email, role, setupComplete, err := s.lookupUser(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Account no longer exists")
		return
	}

	if err := s.store.RevokeRefreshSession(r.Context(), session.ID, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "Token refresh failed")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), session.UserID, email, role, setupComplete, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Token refresh failed")
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	_ = s.store.RevokeRefreshSessionsByUser(r.Context(), claims.UserID, time.Now().UTC())
	s.blacklistClaims(r.Context(), claims)
	writeSuccess(w, http.StatusOK, "Logged out", nil)
}

type completeSetupRequest struct {
	Branch       string  `json:"branch"`
	Semester     int     `json:"semester"`
	CGPA         float64 `json:"cgpa"`
	Niche        string  `json:"niche"`
	CareerPath   string  `json:"careerPath"`
	Phone        *string `json:"phone,omitempty"`
	LinkedinURL  *string `json:"linkedinUrl,omitempty"`
	GithubURL    *string `json:"githubUrl,omitempty"`
	PortfolioURL *string `json:"portfolioUrl,omitempty"`
}

func (s *Server) handleCompleteSetup(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil || claims.Role != auth.RoleStudent {
		writeError(w, http.StatusForbidden, "Student account required")
		return
	}

	var req completeSetupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Branch = strings.TrimSpace(req.Branch)
	req.Niche = strings.TrimSpace(req.Niche)
	req.CareerPath = strings.TrimSpace(req.CareerPath)
	if req.Branch == "" || req.Niche == "" || req.CareerPath == "" {
		writeError(w, http.StatusBadRequest, "Branch, niche and career path are required")
		return
	}
	if req.Semester < 1 || req.Semester > 8 {
		writeError(w, http.StatusBadRequest, "Semester must be between 1 and 8")
		return
	}
	if req.CGPA < 0 || req.CGPA > 10 {
		writeError(w, http.StatusBadRequest, "CGPA must be between 0 and 10")
		return
	}

	updated, err := s.store.CompleteStudentSetup(r.Context(), claims.Email, repository.StudentSetup{
		Branch:       req.Branch,
		Semester:     req.Semester,
		CGPA:         req.CGPA,
		Niche:        req.Niche,
		CareerPath:   req.CareerPath,
		Phone:        req.Phone,
		LinkedinURL:  req.LinkedinURL,
		GithubURL:    req.GithubURL,
		PortfolioURL: req.PortfolioURL,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Setup failed")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	// Reissue the access token so the setup flag in the claims is current.
	accessToken, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, newClaims(claims.UserID, claims.Email, claims.Role, true))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Setup failed")
		return
	}

	writeSuccess(w, http.StatusOK, "Profile setup complete", map[string]interface{}{
		"accessToken": accessToken,
		"redirectUrl": redirectPath(claims.Role, true),
	})
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"user": map[string]interface{}{
			"id":              claims.UserID,
			"email":           claims.Email,
			"role":            claims.Role,
			"isSetupComplete": claims.SetupComplete,
		},
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if auth.IsAdmin(claims) {
		admin, err := s.store.GetActiveAdminByEmail(r.Context(), claims.Email)
		if err != nil {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		writeSuccess(w, http.StatusOK, "", map[string]interface{}{"user": adminPayload(admin)})
		return
	}

	student, err := s.store.GetStudentByEmail(r.Context(), claims.Email)
	if err != nil {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{"user": studentPayload(student, claims.Role)})
}

type updateProfileRequest struct {
	Name       *string  `json:"name,omitempty"`
	Branch     *string  `json:"branch,omitempty"`
	Semester   *int     `json:"semester,omitempty"`
	CGPA       *float64 `json:"cgpa,omitempty"`
	Niche      *string  `json:"niche,omitempty"`
	CareerPath *string  `json:"careerPath,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	Bio        *string  `json:"bio,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil || claims.Role != auth.RoleStudent {
		writeError(w, http.StatusForbidden, "Student account required")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Semester != nil && (*req.Semester < 1 || *req.Semester > 8) {
		writeError(w, http.StatusBadRequest, "Semester must be between 1 and 8")
		return
	}
	if req.CGPA != nil && (*req.CGPA < 0 || *req.CGPA > 10) {
		writeError(w, http.StatusBadRequest, "CGPA must be between 0 and 10")
		return
	}

	updated, err := s.store.UpdateStudentProfile(r.Context(), claims.Email, repository.StudentProfileUpdate{
		Name:       req.Name,
		Branch:     req.Branch,
		Semester:   req.Semester,
		CGPA:       req.CGPA,
		Niche:      req.Niche,
		CareerPath: req.CareerPath,
		Phone:      req.Phone,
		Bio:        req.Bio,
		Skills:     req.Skills,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Profile update failed")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	student, err := s.store.GetStudentByEmail(r.Context(), claims.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Profile update failed")
		return
	}
	writeSuccess(w, http.StatusOK, "Profile updated", map[string]interface{}{"user": studentPayload(student, claims.Role)})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleSendEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !strings.HasSuffix(req.Email, "@"+s.cfg.CollegeEmailDomain) {
		writeError(w, http.StatusBadRequest, "Please use your college email address")
		return
	}
	if s.store.StudentEmailExists(r.Context(), req.Email) {
		writeError(w, http.StatusConflict, "An account with this email already exists")
		return
	}

	code, err := s.otp.Issue(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not send verification code")
		return
	}
	if err := s.mail.Send(req.Email, "Your verification code",
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.cfg.OTPTTL.Minutes()))); err != nil {
		log.Err(err).Str("email", req.Email).Msg("otp mail send failed")
		writeError(w, http.StatusInternalServerError, "Could not send verification code")
		return
	}

	writeSuccess(w, http.StatusOK, "Verification code sent", nil)
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (s *Server) handleVerifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Email and code are required")
		return
	}

	switch err := s.otp.Verify(r.Context(), req.Email, req.Code); {
	case err == nil:
		writeSuccess(w, http.StatusOK, "Email verified", nil)
	case errors.Is(err, otp.ErrNotFound):
		writeError(w, http.StatusBadRequest, "No verification code issued for this email")
	case errors.Is(err, otp.ErrTooManyTries):
		writeError(w, http.StatusTooManyRequests, "Too many attempts. Please request a new code")
	case errors.Is(err, otp.ErrMismatch):
		writeError(w, http.StatusBadRequest, "Incorrect verification code")
	default:
		writeError(w, http.StatusInternalServerError, "Verification failed")
	}
}

// handleForgotPassword never reveals whether the account exists.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if s.store.StudentEmailExists(r.Context(), req.Email) {
		token, err := crypto.NewRefreshToken()
		if err == nil {
			if err := s.storeResetToken(r.Context(), token, req.Email); err == nil {
				if err := s.mail.Send(req.Email, "Password reset",
					fmt.Sprintf("Use this token to reset your password: %s. It expires in %d minutes.", token, int(s.cfg.ResetTokenTTL.Minutes()))); err != nil {
					log.Err(err).Str("email", req.Email).Msg("reset mail send failed")
				}
			}
		}
	}

	writeSuccess(w, http.StatusOK, "If an account exists, a reset link has been sent", nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Reset token is required")
		return
	}
	if len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	email, err := s.consumeResetToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Reset token invalid or expired")
		return
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Password reset failed")
		return
	}
	updated, err := s.store.UpdateStudentPassword(r.Context(), email, hash)
	if err != nil || !updated {
		writeError(w, http.StatusInternalServerError, "Password reset failed")
		return
	}

	// Force re-login everywhere the old password was in use.
	if student, err := s.store.GetStudentByEmail(r.Context(), email); err == nil {
		_ = s.store.RevokeRefreshSessionsByUser(r.Context(), student.ID, time.Now().UTC())
	}

	writeSuccess(w, http.StatusOK, "Password has been reset", nil)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil || claims.Role != auth.RoleStudent {
		writeError(w, http.StatusForbidden, "Student account required")
		return
	}

	deleted, err := s.store.DeleteStudentByEmail(r.Context(), claims.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Account deletion failed")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}

	_ = s.store.RevokeRefreshSessionsByUser(r.Context(), claims.UserID, time.Now().UTC())
	s.blacklistClaims(r.Context(), claims)
	writeSuccess(w, http.StatusOK, "Account deleted", nil)
}

func (s *Server) issueTokens(ctx context.Context, userID, email, role string, setupComplete bool, userAgent, ip string) (string, string, error) {
	accessToken, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, newClaims(userID, email, role, setupComplete))
	if err != nil {
		return "", "", err
	}

	refreshToken, err := crypto.NewRefreshToken()
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	session := model.RefreshSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: crypto.HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}
	if ip != "" {
		session.IPAddress = &ip
	}
	if err := s.store.CreateRefreshSession(ctx, session); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// lookupUser resolves a refresh session owner, admins first to mirror login.
func (s *Server) lookupUser(ctx context.Context, userID string) (email, role string, setupComplete bool, err error) {
	admin, err := s.store.GetAdminByID(ctx, userID)
	if err == nil {
		return admin.Email, admin.Role, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", "", false, err
	}

	student, err := s.store.GetStudentByID(ctx, userID)
	if err != nil {
		return "", "", false, err
	}
	return student.Email, auth.RoleStudent, student.IsSetupComplete, nil
}

func (s *Server) blacklistClaims(ctx context.Context, claims *auth.Claims) {
	if claims.ExpiresAt == nil {
		return
	}
	_ = s.blacklistToken(ctx, claims.RegisteredClaims.ID, time.Until(claims.ExpiresAt.Time))
}

func newClaims(userID, email, role string, setupComplete bool) auth.Claims {
	claims := auth.Claims{
		UserID:        userID,
		Email:         email,
		Role:          role,
		SetupComplete: setupComplete,
	}
	claims.RegisteredClaims.ID = uuid.NewString()
	return claims
}

func redirectPath(role string, setupComplete bool) string {
	switch role {
	case auth.RoleSuperAdmin:
		return "/super-admin/dashboard"
	case auth.RoleSubAdmin:
		return "/sub-admin/dashboard"
	default:
		if !setupComplete {
			return "/student-setup"
		}
		return "/dashboard"
	}
}

func studentPayload(st model.Student, role string) map[string]interface{} {
	return map[string]interface{}{
		"id":              st.ID,
		"studentId":       st.StudentID,
		"name":            st.Name,
		"email":           st.Email,
		"phone":           st.Phone,
		"branch":          st.Branch,
		"semester":        st.Semester,
		"cgpa":            st.CGPA,
		"niche":           st.Niche,
		"careerPath":      st.CareerPath,
		"skills":          st.Skills,
		"role":            role,
		"isSetupComplete": st.IsSetupComplete,
		"isSubAdmin":      st.IsSubAdmin,
	}
}

func adminPayload(ad model.Admin) map[string]interface{} {
	return map[string]interface{}{
		"id":          ad.ID,
		"adminId":     ad.AdminID,
		"name":        ad.Name,
		"email":       ad.Email,
		"role":        ad.Role,
		"department":  ad.Department,
		"permissions": ad.Permissions,
	}
}

func digitCount(value string) int {
	count := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			count++
		}
	}
	return count
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return ""
}
