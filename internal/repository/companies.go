package repository

import (
	"context"
	"strings"
	"time"

	"github.com/divyesh007-delta/Placify-1/internal/model"
)

const companyColumns = `
	id, company_id, name, logo, description, location, website, founded,
	employees, tags, job_roles, rating, experience_count, stats,
	placed_students, is_verified, verified_by, verified_at, created_by,
	created_at, updated_at`

func scanCompany(row interface{ Scan(...interface{}) error }) (model.Company, error) {
	var (
		co        model.Company
		statsRaw  []byte
		placedRaw []byte
	)
	err := row.Scan(
		&co.ID,
		&co.CompanyID,
		&co.Name,
		&co.Logo,
		&co.Description,
		&co.Location,
		&co.Website,
		&co.Founded,
		&co.Employees,
		&co.Tags,
		&co.JobRoles,
		&co.Rating,
		&co.ExperienceCount,
		&statsRaw,
		&placedRaw,
		&co.IsVerified,
		&co.VerifiedBy,
		&co.VerifiedAt,
		&co.CreatedBy,
		&co.CreatedAt,
		&co.UpdatedAt,
	)
	if err != nil {
		return co, err
	}
	unmarshalJSON(statsRaw, &co.Stats)
	unmarshalJSON(placedRaw, &co.PlacedStudents)
	return co, nil
}

func (s *Store) CreateCompany(ctx context.Context, co model.Company) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO companies (
			id, company_id, name, logo, description, location, website, founded,
			employees, tags, job_roles, rating, experience_count, stats,
			placed_students, is_verified, verified_by, verified_at, created_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
	`, co.ID, co.CompanyID, co.Name, co.Logo, co.Description, co.Location,
		co.Website, co.Founded, co.Employees, co.Tags, co.JobRoles, co.Rating,
		co.ExperienceCount, marshalJSON(co.Stats), marshalJSON(co.PlacedStudents),
		co.IsVerified, co.VerifiedBy, co.VerifiedAt, co.CreatedBy,
		co.CreatedAt, co.UpdatedAt)
	return err
}

// GetCompanyByRef resolves either the public company_id or the row id, the
// same dual lookup the original ran against Mongo.
func (s *Store) GetCompanyByRef(ctx context.Context, ref string) (model.Company, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE company_id = $1 OR id::text = $1
	`, ref)
	return scanCompany(row)
}

func (s *Store) ListCompanies(ctx context.Context, search string, limit, offset int) ([]model.Company, int, error) {
	filter := "%" + strings.TrimSpace(search) + "%"
	tag := strings.TrimSpace(search)

	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM companies
		WHERE $1 = '%%' OR name ILIKE $1 OR location ILIKE $1 OR $2 = ANY(tags)
	`, filter, tag).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE $1 = '%%' OR name ILIKE $1 OR location ILIKE $1 OR $2 = ANY(tags)
		ORDER BY name
		LIMIT $3 OFFSET $4
	`, filter, tag, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		co, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, co)
	}
	return companies, total, rows.Err()
}

func (s *Store) IncrementExperienceCount(ctx context.Context, companyRef string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE companies SET experience_count = experience_count + 1, updated_at = $2
		WHERE company_id = $1 OR id::text = $1
	`, companyRef, time.Now().UTC())
	return err
}

// BumpRoundStat increments the per-round submission counter and, when a
// difficulty is reported, its difficulty bucket.
func (s *Store) BumpRoundStat(ctx context.Context, companyRef, roundName, difficulty string) error {
	companyID, err := s.resolveCompanyID(ctx, companyRef)
	if err != nil {
		return err
	}

	easy, medium, hard := 0, 0, 0
	switch strings.ToLower(difficulty) {
	case "easy":
		easy = 1
	case "medium":
		medium = 1
	case "hard":
		hard = 1
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO company_round_stats (company_id, round_name, count, easy, medium, hard)
		VALUES ($1, $2, 1, $3, $4, $5)
		ON CONFLICT (company_id, round_name) DO UPDATE SET
			count = company_round_stats.count + 1,
			easy = company_round_stats.easy + $3,
			medium = company_round_stats.medium + $4,
			hard = company_round_stats.hard + $5
	`, companyID, roundName, easy, medium, hard)
	return err
}

func (s *Store) ListRoundStats(ctx context.Context, companyRef string) ([]model.RoundStat, error) {
	companyID, err := s.resolveCompanyID(ctx, companyRef)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT company_id, round_name, count, easy, medium, hard
		FROM company_round_stats
		WHERE company_id = $1
		ORDER BY count DESC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.RoundStat
	for rows.Next() {
		var st model.RoundStat
		if err := rows.Scan(&st.CompanyID, &st.RoundName, &st.Count, &st.Easy, &st.Medium, &st.Hard); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Store) resolveCompanyID(ctx context.Context, ref string) (string, error) {
	var companyID string
	err := s.pool.QueryRow(ctx, `
		SELECT company_id FROM companies WHERE company_id = $1 OR id::text = $1
	`, ref).Scan(&companyID)
	return companyID, err
}
