package model

import "time"

type Student struct {
	ID              string
	StudentID       string
	Name            string
	Email           string
	PasswordHash    string
	Phone           string
	Branch          string
	Semester        int
	CGPA            float64
	Niche           string
	CareerPath      string
	Skills          []string
	Bio             string
	LinkedinURL     string
	GithubURL       string
	PortfolioURL    string
	PlacementStatus string
	IsSetupComplete bool
	IsSubAdmin      bool
	EmailVerified   bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Admin rows layer an elevated role over a student account. Sub-admins keep
// their student row; the seeded super admin has none.
type Admin struct {
	ID           string
	AdminID      string
	Email        string
	Name         string
	PasswordHash string
	StudentID    *string
	Role         string
	Department   string
	Permissions  []string
	IsActive     bool
	CreatedBy    string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent *string
	IPAddress *string
}

type CompanyStats struct {
	SuccessRate    float64 `json:"successRate"`
	TotalHired     int     `json:"totalHired"`
	AvgPackage     float64 `json:"avgPackage"`
	Difficulty     string  `json:"difficulty"`
	HighestPackage float64 `json:"highestPackage"`
	ThisYearHires  int     `json:"thisYearHires"`
}

type PlacedStudent struct {
	Name    string  `json:"name"`
	Role    string  `json:"role"`
	Package float64 `json:"package"`
	Year    int     `json:"year"`
}

type Company struct {
	ID              string
	CompanyID       string
	Name            string
	Logo            string
	Description     string
	Location        string
	Website         string
	Founded         string
	Employees       string
	Tags            []string
	JobRoles        []string
	Rating          float64
	ExperienceCount int
	Stats           CompanyStats
	PlacedStudents  []PlacedStudent
	IsVerified      bool
	VerifiedBy      *string
	VerifiedAt      *time.Time
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RoundStat is one row of a company's per-round submission counters.
type RoundStat struct {
	CompanyID string
	RoundName string
	Count     int
	Easy      int
	Medium    int
	Hard      int
}

// RoundsData keeps the round records schemaless on the server, the same way
// the submission payload carries them. Keys are round names from
// SelectedRounds.
type RoundsData map[string]map[string]interface{}

type ExperienceAnalytics struct {
	TotalRounds        int  `json:"totalRounds"`
	HasCodingRound     bool `json:"hasCodingRound"`
	HasTechnicalRound  bool `json:"hasTechnicalRound"`
	HasHRRound         bool `json:"hasHRRound"`
	HasAptitudeRound   bool `json:"hasAptitudeRound"`
	HasGroupDiscussion bool `json:"hasGroupDiscussion"`
}

type Experience struct {
	ID                string
	ExperienceID      string
	UserID            string
	CompanyID         string
	CompanyName       string
	JobRole           string
	Status            string
	SelectedRounds    []string
	RoundsData        RoundsData
	OverallRating     int
	ExperienceSummary string
	IsVerified        bool
	VerifiedBy        *string
	VerifiedAt        *time.Time
	RejectedBy        *string
	RejectedAt        *time.Time
	RejectionReason   string
	Likes             int
	Views             int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Analytics derives the flag block the original stored alongside each
// experience document.
func (e Experience) Analytics() ExperienceAnalytics {
	a := ExperienceAnalytics{TotalRounds: len(e.SelectedRounds)}
	for _, round := range e.SelectedRounds {
		switch round {
		case "coding":
			a.HasCodingRound = true
		case "technical":
			a.HasTechnicalRound = true
		case "hr":
			a.HasHRRound = true
		case "aptitude":
			a.HasAptitudeRound = true
		case "group discussion":
			a.HasGroupDiscussion = true
		}
	}
	return a
}
