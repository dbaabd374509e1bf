package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// These tests exercise a running portal instance end to end. Start the server
// with a seeded database and redis, then run with INTEGRATION_TESTS=1.

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type authEnvelope struct {
	envelope
	AccessToken  string                 `json:"accessToken"`
	RefreshToken string                 `json:"refreshToken"`
	User         map[string]interface{} `json:"user"`
	RedirectURL  string                 `json:"redirectUrl"`
}

func baseURL() string {
	if addr := os.Getenv("PORTAL_HTTP_ADDR"); addr != "" {
		return addr
	}
	return "http://127.0.0.1:8080"
}

func postJSON(t *testing.T, url, token string, payload interface{}, out interface{}) int {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode body %s: %v", data, err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, url, token string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode body %s: %v", data, err)
		}
	}
	return resp.StatusCode
}

func superAdminLogin(t *testing.T) string {
	t.Helper()
	var resp authEnvelope
	status := postJSON(t, baseURL()+"/api/auth/login", "", map[string]string{
		"email":    envOr("SUPER_ADMIN_EMAIL", "tpc@bvmengineering.ac.in"),
		"password": envOr("SUPER_ADMIN_PASSWORD", "admin123"),
	}, &resp)
	if status != http.StatusOK || resp.AccessToken == "" {
		t.Fatalf("super admin login failed: status=%d message=%s", status, resp.Message)
	}
	return resp.AccessToken
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	var resp envelope
	status := postJSON(t, baseURL()+"/api/auth/login", "", map[string]string{
		"email":    "nobody@bvmengineering.ac.in",
		"password": "wrong-password",
	}, &resp)
	if status != http.StatusUnauthorized || resp.Success {
		t.Fatalf("expected 401 with success=false, got status=%d success=%v", status, resp.Success)
	}
}

func TestRefreshRotation(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	var login authEnvelope
	status := postJSON(t, baseURL()+"/api/auth/login", "", map[string]string{
		"email":    envOr("SUPER_ADMIN_EMAIL", "tpc@bvmengineering.ac.in"),
		"password": envOr("SUPER_ADMIN_PASSWORD", "admin123"),
	}, &login)
	if status != http.StatusOK {
		t.Fatalf("login failed: %d", status)
	}

	var refreshed authEnvelope
	status = postJSON(t, baseURL()+"/api/auth/refresh", "", map[string]string{
		"refreshToken": login.RefreshToken,
	}, &refreshed)
	if status != http.StatusOK || refreshed.AccessToken == "" {
		t.Fatalf("refresh failed: %d", status)
	}

	// The old refresh token was rotated out and must no longer work.
	var replay envelope
	status = postJSON(t, baseURL()+"/api/auth/refresh", "", map[string]string{
		"refreshToken": login.RefreshToken,
	}, &replay)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected rotated refresh token to be rejected, got %d", status)
	}
}

func TestSubmissionAndModerationFlow(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	adminToken := superAdminLogin(t)

	var companyResp struct {
		envelope
		Company map[string]interface{} `json:"company"`
	}
	status := postJSON(t, baseURL()+"/api/sub-admin/companies", adminToken, map[string]interface{}{
		"name":     fmt.Sprintf("Acme %d", time.Now().UnixNano()),
		"location": "Pune",
		"jobRoles": []string{"SDE"},
	}, &companyResp)
	if status != http.StatusCreated {
		t.Fatalf("company create failed: status=%d message=%s", status, companyResp.Message)
	}
	companyID, _ := companyResp.Company["companyId"].(string)
	if companyID == "" {
		t.Fatalf("company id missing in response")
	}

	var expResp struct {
		envelope
		Experience map[string]interface{} `json:"experience"`
	}
	status = postJSON(t, baseURL()+"/api/experiences/", adminToken, map[string]interface{}{
		"companyId":     companyID,
		"companyName":   companyResp.Company["name"],
		"jobRole":       "SDE",
		"status":        "Selected",
		"overallRating": 4,
		"selectedRounds": []string{
			"aptitude",
		},
		"roundsData": map[string]interface{}{
			"aptitude": map[string]interface{}{
				"attemptedQ": "30",
				"correctQ":   "27",
				"difficulty": "Medium",
			},
		},
	}, &expResp)
	if status != http.StatusCreated {
		t.Fatalf("submission failed: status=%d message=%s", status, expResp.Message)
	}
	experienceID, _ := expResp.Experience["experienceId"].(string)
	if experienceID == "" {
		t.Fatalf("experience id missing in response")
	}

	// The public company listing carries verified experiences only, and its
	// total counts exactly what the pages return.
	var pendingList struct {
		envelope
		Experiences []map[string]interface{} `json:"experiences"`
		Total       int                      `json:"total"`
	}
	status = getJSON(t, baseURL()+"/api/companies/"+companyID+"/experiences", "", &pendingList)
	if status != http.StatusOK {
		t.Fatalf("company experiences failed: %d", status)
	}
	if pendingList.Total != 0 || len(pendingList.Experiences) != 0 {
		t.Fatalf("pending experience leaked into the public listing: total=%d items=%d", pendingList.Total, len(pendingList.Experiences))
	}

	var verifyResp envelope
	status = postJSON(t, baseURL()+"/api/sub-admin/experiences/"+experienceID+"/verify", adminToken, map[string]string{}, &verifyResp)
	if status != http.StatusOK {
		t.Fatalf("verify failed: status=%d message=%s", status, verifyResp.Message)
	}

	var verifiedList struct {
		envelope
		Experiences []map[string]interface{} `json:"experiences"`
		Total       int                      `json:"total"`
	}
	status = getJSON(t, baseURL()+"/api/companies/"+companyID+"/experiences", "", &verifiedList)
	if status != http.StatusOK {
		t.Fatalf("company experiences failed: %d", status)
	}
	if verifiedList.Total != 1 || len(verifiedList.Experiences) != verifiedList.Total {
		t.Fatalf("verified listing total must match its items: total=%d items=%d", verifiedList.Total, len(verifiedList.Experiences))
	}

	var statsResp struct {
		envelope
		RoundStats []map[string]interface{} `json:"roundStats"`
	}
	status = getJSON(t, baseURL()+"/api/companies/"+companyID+"/round-stats", "", &statsResp)
	if status != http.StatusOK || len(statsResp.RoundStats) == 0 {
		t.Fatalf("expected round stats after submission, got status=%d", status)
	}
}
