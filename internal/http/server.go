// Package http carries the REST surface of the placement portal: auth and
// session management, company reads, experience submission, and the
// sub-admin/super-admin moderation endpoints.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/divyesh007-delta/Placify-1/internal/analytics"
	"github.com/divyesh007-delta/Placify-1/internal/auth"
	"github.com/divyesh007-delta/Placify-1/internal/config"
	"github.com/divyesh007-delta/Placify-1/internal/crypto"
	"github.com/divyesh007-delta/Placify-1/internal/mail"
	"github.com/divyesh007-delta/Placify-1/internal/model"
	"github.com/divyesh007-delta/Placify-1/internal/otp"
	"github.com/divyesh007-delta/Placify-1/internal/repository"
)

type Server struct {
	cfg      config.Config
	store    *repository.Store
	redis    *redis.Client
	otp      *otp.Service
	mail     mail.Sender
	insights *analytics.Cache
}

func NewServer(cfg config.Config, store *repository.Store, redisClient *redis.Client, otpService *otp.Service, sender mail.Sender) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		redis:    redisClient,
		otp:      otpService,
		mail:     sender,
		insights: analytics.NewCache(redisClient, cfg.InsightsCacheTTL),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/send-email-otp", s.handleSendEmailOTP)
			r.Post("/verify-email-otp", s.handleVerifyEmailOTP)
			r.Post("/forgot-password", s.handleForgotPassword)
			r.Post("/reset-password", s.handleResetPassword)

			r.With(s.authMiddleware).Post("/logout", s.handleLogout)
			r.With(s.authMiddleware).Post("/complete-setup", s.handleCompleteSetup)
			r.With(s.authMiddleware).Get("/check-auth", s.handleCheckAuth)
			r.With(s.authMiddleware).Get("/user/profile", s.handleGetProfile)
			r.With(s.authMiddleware).Put("/user/profile", s.handleUpdateProfile)
			r.With(s.authMiddleware).Delete("/delete-account", s.handleDeleteAccount)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", s.handleListCompanies)
			r.Get("/{companyRef}", s.handleGetCompany)
			r.Get("/{companyRef}/overview", s.handleCompanyOverview)
			r.Get("/{companyRef}/rounds", s.handleCompanyRounds)
			r.Get("/{companyRef}/placed-students", s.handleCompanyPlacedStudents)
			r.Get("/{companyRef}/job-roles", s.handleCompanyJobRoles)
			r.Get("/{companyRef}/experiences", s.handleCompanyExperiences)
			r.Get("/{companyRef}/round-stats", s.handleCompanyRoundStats)
			r.Get("/{companyRef}/insights", s.handleCompanyInsights)
			r.Get("/{companyRef}/rounds-analytics", s.handleCompanyRoundsAnalytics)
		})

		r.Route("/experiences", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/", s.handleCreateExperience)
			r.Get("/", s.handleListMyExperiences)
			r.Get("/{experienceId}", s.handleGetExperience)
		})

		r.Route("/sub-admin", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requireSubAdmin)
			r.Post("/companies", s.handleCreateCompany)
			r.Get("/experiences/pending", s.handlePendingExperiences)
			r.Post("/experiences/{experienceId}/verify", s.handleVerifyExperience)
			r.Post("/experiences/{experienceId}/reject", s.handleRejectExperience)
			r.Get("/dashboard/stats", s.handleAdminDashboard)
			r.Get("/dashboard/recent-activity", s.handleRecentActivity)
		})

		r.Route("/super-admin", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requireSuperAdmin)
			r.Get("/sub-admins", s.handleListSubAdmins)
			r.Post("/sub-admins", s.handleCreateSubAdmin)
			r.Delete("/sub-admins/{email}", s.handleDeleteSubAdmin)
			r.Get("/students", s.handleListStudents)
			r.Get("/students/export", s.handleExportStudents)
		})
	})

	return r
}

// Bootstrap seeds the training-and-placement-cell account so the portal is
// administrable on a fresh database.
func (s *Server) Bootstrap(ctx context.Context) error {
	if s.store.SuperAdminExists(ctx) {
		return nil
	}

	hash, err := crypto.HashPassword(s.cfg.SuperAdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.store.CreateAdmin(ctx, model.Admin{
		ID:           uuid.NewString(),
		AdminID:      "ADM-" + strings.ToUpper(uuid.NewString()[:8]),
		Email:        s.cfg.SuperAdminEmail,
		Name:         "Training & Placement Cell",
		PasswordHash: hash,
		Role:         auth.RoleSuperAdmin,
		Department:   "Training & Placement",
		Permissions:  []string{"manage_sub_admins", "manage_students", "manage_companies", "verify_experiences"},
		IsActive:     true,
		CreatedBy:    "system",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if s.isTokenBlacklisted(r.Context(), claims.RegisteredClaims.ID) {
			writeError(w, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireSubAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if !auth.IsAdmin(claims) {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != auth.RoleSuperAdmin {
			writeError(w, http.StatusForbidden, "Super admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	return limit, (page - 1) * limit
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSuccess wraps payloads in the envelope every portal response carries.
func writeSuccess(w http.ResponseWriter, status int, message string, extra map[string]interface{}) {
	payload := map[string]interface{}{"success": true}
	if message != "" {
		payload["message"] = message
	}
	for key, value := range extra {
		payload[key] = value
	}
	writeJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}
