package repository

import (
	"context"
	"time"

	"github.com/divyesh007-delta/Placify-1/internal/model"
)

const experienceColumns = `
	id, experience_id, user_id, company_id, company_name, job_role, status,
	selected_rounds, rounds_data, overall_rating, experience_summary,
	is_verified, verified_by, verified_at, rejected_by, rejected_at,
	rejection_reason, likes, views, created_at, updated_at`

func scanExperience(row interface{ Scan(...interface{}) error }) (model.Experience, error) {
	var (
		exp       model.Experience
		roundsRaw []byte
	)
	err := row.Scan(
		&exp.ID,
		&exp.ExperienceID,
		&exp.UserID,
		&exp.CompanyID,
		&exp.CompanyName,
		&exp.JobRole,
		&exp.Status,
		&exp.SelectedRounds,
		&roundsRaw,
		&exp.OverallRating,
		&exp.ExperienceSummary,
		&exp.IsVerified,
		&exp.VerifiedBy,
		&exp.VerifiedAt,
		&exp.RejectedBy,
		&exp.RejectedAt,
		&exp.RejectionReason,
		&exp.Likes,
		&exp.Views,
		&exp.CreatedAt,
		&exp.UpdatedAt,
	)
	if err != nil {
		return exp, err
	}
	exp.RoundsData = model.RoundsData{}
	unmarshalJSON(roundsRaw, &exp.RoundsData)
	return exp, nil
}

func (s *Store) CreateExperience(ctx context.Context, exp model.Experience) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO experiences (
			id, experience_id, user_id, company_id, company_name, job_role,
			status, selected_rounds, rounds_data, overall_rating,
			experience_summary, is_verified, verified_by, verified_at,
			rejected_by, rejected_at, rejection_reason, likes, views,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
	`, exp.ID, exp.ExperienceID, exp.UserID, exp.CompanyID, exp.CompanyName,
		exp.JobRole, exp.Status, exp.SelectedRounds, marshalJSON(exp.RoundsData),
		exp.OverallRating, exp.ExperienceSummary, exp.IsVerified, exp.VerifiedBy,
		exp.VerifiedAt, exp.RejectedBy, exp.RejectedAt, exp.RejectionReason,
		exp.Likes, exp.Views, exp.CreatedAt, exp.UpdatedAt)
	return err
}

func (s *Store) GetExperienceByExperienceID(ctx context.Context, experienceID string) (model.Experience, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+experienceColumns+` FROM experiences WHERE experience_id = $1
	`, experienceID)
	return scanExperience(row)
}

func (s *Store) ListExperiencesByUser(ctx context.Context, userID string, limit, offset int) ([]model.Experience, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM experiences WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+experienceColumns+` FROM experiences
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectExperiences(rows, total)
}

func (s *Store) ListExperiencesByCompany(ctx context.Context, companyRef string, limit, offset int) ([]model.Experience, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM experiences WHERE company_id = $1 OR company_id IN
			(SELECT company_id FROM companies WHERE id::text = $1)
	`, companyRef).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+experienceColumns+` FROM experiences
		WHERE company_id = $1 OR company_id IN
			(SELECT company_id FROM companies WHERE id::text = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, companyRef, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectExperiences(rows, total)
}

// ListVerifiedExperiencesByCompany pages through a company's verified
// experiences; the returned total counts verified rows only, so it always
// agrees with what the pages add up to.
func (s *Store) ListVerifiedExperiencesByCompany(ctx context.Context, companyRef string, limit, offset int) ([]model.Experience, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM experiences
		WHERE is_verified = true AND (company_id = $1 OR company_id IN
			(SELECT company_id FROM companies WHERE id::text = $1))
	`, companyRef).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+experienceColumns+` FROM experiences
		WHERE is_verified = true AND (company_id = $1 OR company_id IN
			(SELECT company_id FROM companies WHERE id::text = $1))
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, companyRef, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectExperiences(rows, total)
}

// AllExperiencesByCompany feeds the analytics aggregation; no pagination.
func (s *Store) AllExperiencesByCompany(ctx context.Context, companyRef string) ([]model.Experience, error) {
	exps, _, err := s.ListExperiencesByCompany(ctx, companyRef, 10000, 0)
	return exps, err
}

func (s *Store) ListPendingExperiences(ctx context.Context, limit int) ([]model.Experience, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+experienceColumns+` FROM experiences
		WHERE is_verified = false AND rejected_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	exps, _, err := collectExperiences(rows, 0)
	return exps, err
}

func (s *Store) VerifyExperience(ctx context.Context, experienceID, verifiedBy string) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE experiences SET is_verified = true, verified_by = $2, verified_at = $3, updated_at = $3
		WHERE experience_id = $1
	`, experienceID, verifiedBy, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RejectExperience(ctx context.Context, experienceID, rejectedBy, reason string) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE experiences SET status = 'Rejected', rejected_by = $2, rejected_at = $3,
			rejection_reason = $4, updated_at = $3
		WHERE experience_id = $1
	`, experienceID, rejectedBy, now, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type VerificationCounts struct {
	Pending  int
	Verified int
	Rejected int
}

func (s *Store) CountExperienceVerification(ctx context.Context) (VerificationCounts, error) {
	var counts VerificationCounts
	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE is_verified = false AND rejected_at IS NULL),
			count(*) FILTER (WHERE is_verified = true),
			count(*) FILTER (WHERE rejected_at IS NOT NULL)
		FROM experiences
	`).Scan(&counts.Pending, &counts.Verified, &counts.Rejected)
	return counts, err
}

func (s *Store) ListRecentExperiences(ctx context.Context, limit int) ([]model.Experience, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+experienceColumns+` FROM experiences
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	exps, _, err := collectExperiences(rows, 0)
	return exps, err
}

func collectExperiences(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}, total int) ([]model.Experience, int, error) {
	var exps []model.Experience
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, 0, err
		}
		exps = append(exps, exp)
	}
	return exps, total, rows.Err()
}
