package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
)

const emailConstraint = "clients_client_email_key"

const selectColumns = `SELECT id, client_name, client_email, client_phone, address, created_by, created_at, updated_at
		 FROM clients`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	c := &models.Client{}
	var createdBy sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &createdBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		c.CreatedBy = &createdBy.String
	}
	return c, nil
}

func wrapWriteError(err error) error {
	if dbx.IsUniqueViolation(err, emailConstraint) {
		return common.ErrDuplicateEmail
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	query :=
		`INSERT INTO clients (id, client_name, client_email, client_phone, address, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		client.ID, client.Name, client.Email, client.Phone, client.Address, client.CreatedBy).
		Scan(&client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return client, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	client, err := scanClient(r.db.QueryRowContext(ctx, selectColumns+`
		 WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return client, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, client *models.Client) (*models.Client, error) {
	query :=
		`UPDATE clients
		 SET client_name = $2, client_email = $3, client_phone = $4, address = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_by, created_at, updated_at
		 `

	var createdBy sql.NullString
	err := r.db.QueryRowContext(ctx, query,
		client.ID, client.Name, client.Email, client.Phone, client.Address).
		Scan(&createdBy, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, wrapWriteError(err)
	}

	client.CreatedBy = nil
	if createdBy.Valid {
		client.CreatedBy = &createdBy.String
	}
	return client, nil
}

// Delete removes the client; its projects go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
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
