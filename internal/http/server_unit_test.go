package http

import (
	"net/http/httptest"
	"testing"

	"github.com/divyesh007-delta/Placify-1/internal/auth"
	"github.com/divyesh007-delta/Placify-1/internal/model"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
		"Bearer  x y": "x y",
	}
	for header, expect := range cases {
		if got := bearerToken(header); got != expect {
			t.Fatalf("header %q: expected %q, got %q", header, expect, got)
		}
	}
}

func TestRedirectPath(t *testing.T) {
	if got := redirectPath(auth.RoleSuperAdmin, true); got != "/super-admin/dashboard" {
		t.Fatalf("unexpected super admin redirect %q", got)
	}
	if got := redirectPath(auth.RoleSubAdmin, true); got != "/sub-admin/dashboard" {
		t.Fatalf("unexpected sub admin redirect %q", got)
	}
	if got := redirectPath(auth.RoleStudent, false); got != "/student-setup" {
		t.Fatalf("expected setup redirect for incomplete profile, got %q", got)
	}
	if got := redirectPath(auth.RoleStudent, true); got != "/dashboard" {
		t.Fatalf("unexpected student redirect %q", got)
	}
}

func TestDigitCount(t *testing.T) {
	if got := digitCount("+91 98765-43210"); got != 12 {
		t.Fatalf("expected 12 digits, got %d", got)
	}
	if got := digitCount("no digits"); got != 0 {
		t.Fatalf("expected 0 digits, got %d", got)
	}
}

func TestPagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/companies?page=3&limit=15", nil)
	limit, offset := pagination(r, 20)
	if limit != 15 || offset != 30 {
		t.Fatalf("expected limit=15 offset=30, got limit=%d offset=%d", limit, offset)
	}

	r = httptest.NewRequest("GET", "/api/companies?limit=500", nil)
	limit, offset = pagination(r, 20)
	if limit != 20 || offset != 0 {
		t.Fatalf("expected defaults for oversized limit, got limit=%d offset=%d", limit, offset)
	}
}

func TestValidateSubmissionRequiresRounds(t *testing.T) {
	if err := validateSubmission(nil, model.RoundsData{}); err == nil {
		t.Fatalf("expected error for empty round selection")
	}
	if err := validateSubmission([]string{"sorcery"}, model.RoundsData{}); err == nil {
		t.Fatalf("expected error for unknown round type")
	}
	if err := validateSubmission([]string{"hr", "hr"}, model.RoundsData{}); err == nil {
		t.Fatalf("expected error for duplicate round")
	}
}

func TestValidateSubmissionRoundKeyExactness(t *testing.T) {
	rounds := []string{"aptitude"}
	data := model.RoundsData{
		"aptitude": {"attemptedQ": "30", "correctQ": "25", "difficulty": "Medium"},
		"coding":   {"difficulty": "Hard"},
	}
	if err := validateSubmission(rounds, data); err == nil {
		t.Fatalf("expected error for round data outside the selection")
	}

	if err := validateSubmission([]string{"aptitude", "coding"}, model.RoundsData{
		"aptitude": {"attemptedQ": "30", "correctQ": "25", "difficulty": "Medium"},
	}); err == nil {
		t.Fatalf("expected error for a selected round without data")
	}
}

func TestValidateSubmissionRequiredFields(t *testing.T) {
	data := model.RoundsData{
		"coding": {"difficulty": "Hard", "timeLimit": "60"},
	}
	if err := validateSubmission([]string{"coding"}, data); err == nil {
		t.Fatalf("expected error for missing languagesUsed")
	}

	data["coding"]["languagesUsed"] = []interface{}{}
	if err := validateSubmission([]string{"coding"}, data); err == nil {
		t.Fatalf("expected error for empty languagesUsed")
	}

	data["coding"]["languagesUsed"] = []interface{}{"Go"}
	if err := validateSubmission([]string{"coding"}, data); err != nil {
		t.Fatalf("expected valid coding round, got %v", err)
	}
}

func TestValidateSubmissionQuestionCaps(t *testing.T) {
	questions := make([]interface{}, 4)
	for i := range questions {
		questions[i] = map[string]interface{}{"question": "q", "answer": "a"}
	}
	data := model.RoundsData{
		"coding": {
			"difficulty":    "Medium",
			"timeLimit":     "90",
			"languagesUsed": []interface{}{"Go"},
			"top3Questions": questions,
		},
	}
	if err := validateSubmission([]string{"coding"}, data); err == nil {
		t.Fatalf("expected error for more than 3 coding questions")
	}

	data["coding"]["top3Questions"] = questions[:3]
	if err := validateSubmission([]string{"coding"}, data); err != nil {
		t.Fatalf("expected 3 questions to pass, got %v", err)
	}
}

func TestCanViewExperience(t *testing.T) {
	verified := model.Experience{UserID: "author", IsVerified: true}
	pending := model.Experience{UserID: "author", IsVerified: false}

	author := &auth.Claims{UserID: "author", Role: auth.RoleStudent}
	stranger := &auth.Claims{UserID: "other", Role: auth.RoleStudent}
	moderator := &auth.Claims{UserID: "mod", Role: auth.RoleSubAdmin}

	if !canViewExperience(verified, stranger) {
		t.Fatalf("verified experiences are public to authenticated users")
	}
	if !canViewExperience(pending, author) {
		t.Fatalf("authors must see their own pending experience")
	}
	if !canViewExperience(pending, moderator) {
		t.Fatalf("moderators must see pending experiences")
	}
	if canViewExperience(pending, stranger) {
		t.Fatalf("pending experiences must stay hidden from other students")
	}
}

func TestValidateSubmissionFullInterview(t *testing.T) {
	rounds := []string{"aptitude", "technical", "hr", "group discussion"}
	data := model.RoundsData{
		"aptitude": {"attemptedQ": "40", "correctQ": "35", "difficulty": "Easy"},
		"technical": {
			"difficulty":  "Medium",
			"duration":    "45",
			"focusTopics": []interface{}{"DBMS", "OS"},
		},
		"hr":               {"duration": "30", "rating": float64(4)},
		"group discussion": {"topic": "Remote work", "duration": "20", "rating": float64(3)},
	}
	if err := validateSubmission(rounds, data); err != nil {
		t.Fatalf("expected full submission to validate, got %v", err)
	}
}
