package repository

import (
	"context"
	"strings"
	"time"

	"github.com/divyesh007-delta/Placify-1/internal/model"
)

const studentColumns = `
	id, student_id, name, email, password_hash, phone, branch, semester, cgpa,
	niche, career_path, skills, bio, linkedin_url, github_url, portfolio_url,
	placement_status, is_setup_complete, is_sub_admin, email_verified,
	created_at, updated_at`

func scanStudent(row interface{ Scan(...interface{}) error }) (model.Student, error) {
	var st model.Student
	err := row.Scan(
		&st.ID,
		&st.StudentID,
		&st.Name,
		&st.Email,
		&st.PasswordHash,
		&st.Phone,
		&st.Branch,
		&st.Semester,
		&st.CGPA,
		&st.Niche,
		&st.CareerPath,
		&st.Skills,
		&st.Bio,
		&st.LinkedinURL,
		&st.GithubURL,
		&st.PortfolioURL,
		&st.PlacementStatus,
		&st.IsSetupComplete,
		&st.IsSubAdmin,
		&st.EmailVerified,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	return st, err
}

func (s *Store) CreateStudent(ctx context.Context, st model.Student) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (
			id, student_id, name, email, password_hash, phone, branch, semester,
			cgpa, niche, career_path, skills, bio, linkedin_url, github_url,
			portfolio_url, placement_status, is_setup_complete, is_sub_admin,
			email_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)
	`, st.ID, st.StudentID, st.Name, st.Email, st.PasswordHash, st.Phone,
		st.Branch, st.Semester, st.CGPA, st.Niche, st.CareerPath, st.Skills,
		st.Bio, st.LinkedinURL, st.GithubURL, st.PortfolioURL,
		st.PlacementStatus, st.IsSetupComplete, st.IsSubAdmin, st.EmailVerified,
		st.CreatedAt, st.UpdatedAt)
	return err
}

func (s *Store) GetStudentByID(ctx context.Context, id string) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

func (s *Store) GetStudentByEmail(ctx context.Context, email string) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE email = $1`, email)
	return scanStudent(row)
}

func (s *Store) StudentEmailExists(ctx context.Context, email string) bool {
	return exists(ctx, s.pool, `SELECT 1 FROM students WHERE email = $1`, email)
}

func (s *Store) StudentIDExists(ctx context.Context, studentID string) bool {
	return exists(ctx, s.pool, `SELECT 1 FROM students WHERE student_id = $1`, studentID)
}

type StudentSetup struct {
	Branch       string
	Semester     int
	CGPA         float64
	Niche        string
	CareerPath   string
	Phone        *string
	LinkedinURL  *string
	GithubURL    *string
	PortfolioURL *string
}

func (s *Store) CompleteStudentSetup(ctx context.Context, email string, setup StudentSetup) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE students SET
			branch = $2,
			semester = $3,
			cgpa = $4,
			niche = $5,
			career_path = $6,
			phone = COALESCE($7, phone),
			linkedin_url = COALESCE($8, linkedin_url),
			github_url = COALESCE($9, github_url),
			portfolio_url = COALESCE($10, portfolio_url),
			is_setup_complete = true,
			updated_at = $11
		WHERE email = $1
	`, email, setup.Branch, setup.Semester, setup.CGPA, setup.Niche,
		setup.CareerPath, setup.Phone, setup.LinkedinURL, setup.GithubURL,
		setup.PortfolioURL, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// StudentProfileUpdate carries only the fields the profile endpoint may
// change; nil means leave as is.
type StudentProfileUpdate struct {
	Name       *string
	Branch     *string
	Semester   *int
	CGPA       *float64
	Niche      *string
	CareerPath *string
	Phone      *string
	Bio        *string
	Skills     []string
}

func (s *Store) UpdateStudentProfile(ctx context.Context, email string, update StudentProfileUpdate) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE students SET
			name = COALESCE($2, name),
			branch = COALESCE($3, branch),
			semester = COALESCE($4, semester),
			cgpa = COALESCE($5, cgpa),
			niche = COALESCE($6, niche),
			career_path = COALESCE($7, career_path),
			phone = COALESCE($8, phone),
			bio = COALESCE($9, bio),
			skills = COALESCE($10, skills),
			updated_at = $11
		WHERE email = $1
	`, email, update.Name, update.Branch, update.Semester, update.CGPA,
		update.Niche, update.CareerPath, update.Phone, update.Bio,
		update.Skills, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) UpdateStudentPassword(ctx context.Context, email, passwordHash string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE students SET password_hash = $2, updated_at = $3 WHERE email = $1
	`, email, passwordHash, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetStudentSubAdmin(ctx context.Context, email string, isSubAdmin bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE students SET is_sub_admin = $2, updated_at = $3 WHERE email = $1
	`, email, isSubAdmin, time.Now().UTC())
	return err
}

func (s *Store) DeleteStudentByEmail(ctx context.Context, email string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM students WHERE email = $1`, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListStudents(ctx context.Context, search string, limit, offset int) ([]model.Student, int, error) {
	filter := "%" + strings.TrimSpace(search) + "%"

	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM students
		WHERE $1 = '%%' OR name ILIKE $1 OR email ILIKE $1 OR student_id ILIKE $1 OR branch ILIKE $1
	`, filter).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+studentColumns+` FROM students
		WHERE $1 = '%%' OR name ILIKE $1 OR email ILIKE $1 OR student_id ILIKE $1 OR branch ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, st)
	}
	return students, total, rows.Err()
}
