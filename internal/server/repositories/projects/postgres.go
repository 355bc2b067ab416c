package projects

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

const selectWithMembers = `SELECT p.id, p.project_name, p.project_description, p.project_client, p.created_by, p.created_at, w.user_id
		 FROM projects p
		 LEFT JOIN project_working_users w ON w.project_id = p.id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// query folds the joined project/member rows back into projects. Rows of
// one project must be adjacent, so every query orders by project id last.
func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var (
		result  []*models.Project
		current *models.Project
	)
	for rows.Next() {
		var (
			p                  models.Project
			client, by, member sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &client, &by, &p.CreatedAt, &member); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if current == nil || current.ID != p.ID {
			p.ClientID = nullable(client)
			p.CreatedBy = nullable(by)
			p.WorkingUserIDs = []string{}
			current = &p
			result = append(result, current)
		}
		if member.Valid {
			current.WorkingUserIDs = append(current.WorkingUserIDs, member.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) setMembers(ctx context.Context, projectID string, userIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM project_working_users WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, uid := range userIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO project_working_users (project_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			projectID, uid)
		if err != nil {
			if dbx.IsForeignKeyViolation(err) {
				return fmt.Errorf("working user %s: %w", uid, common.ErrNotFound)
			}
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	query :=
		`INSERT INTO projects (id, project_name, project_description, project_client, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		project.ID, project.Name, project.Description, project.ClientID, project.CreatedBy).
		Scan(&project.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("project client: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.setMembers(ctx, project.ID, project.WorkingUserIDs); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, project.ID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	result, err := r.query(ctx, selectWithMembers+`
		 WHERE p.id = $1
		 ORDER BY w.user_id`, id)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, common.ErrNotFound
	}
	return result[0], nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Project, error) {
	return r.query(ctx, selectWithMembers+`
		 ORDER BY p.created_at, p.id`)
}

func (r *PostgresRepository) ListByMember(ctx context.Context, userID string) ([]*models.Project, error) {
	return r.query(ctx, selectWithMembers+`
		 WHERE p.id IN (SELECT project_id FROM project_working_users WHERE user_id = $1)
		 ORDER BY p.created_at, p.id`, userID)
}

func (r *PostgresRepository) Update(ctx context.Context, project *models.Project) (*models.Project, error) {
	query :=
		`UPDATE projects
		 SET project_name = $2, project_description = $3, project_client = $4
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, project.ID, project.Name, project.Description, project.ClientID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("project client: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrNotFound
	}

	if err := r.setMembers(ctx, project.ID, project.WorkingUserIDs); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, project.ID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
