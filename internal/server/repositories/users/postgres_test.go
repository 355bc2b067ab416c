package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var userColumns = []string{"id", "email", "first_name", "last_name", "password_hash", "is_active", "is_staff", "is_admin", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*first_name,\s*last_name,\s*password_hash,\s*is_active,\s*is_staff,\s*is_admin\).*RETURNING\s+created_at,\s*updated_at`

	mock.ExpectQuery(q).
		WithArgs("u-1", "a@x.com", "Ann", "Lee", "$argon2id$hash", true, false, false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &models.User{ID: "u-1", Email: "a@x.com", FirstName: "Ann", LastName: "Lee", PasswordHash: "$argon2id$hash", IsActive: true}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not scanned: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "a@x.com"})
	if !errors.Is(err, common.ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "a@x.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "a@x.com", "Ann", "Lee", "hash", true, true, false, now, now))

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.PasswordHash != "hash" || !got.IsStaff || got.IsAdmin {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetByIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)WHERE\s+id\s+IN\s+\(\$1, \$2\)\s+ORDER BY email`).
		WithArgs("u-1", "u-2").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "a@x.com", "", "", "h", true, false, false, now, now).
			AddRow("u-2", "b@x.com", "", "", "h", true, false, false, now, now))

	got, err := repo.GetByIDs(context.Background(), []string{"u-1", "u-2"})
	if err != nil {
		t.Fatalf("GetByIDs error: %v", err)
	}
	if len(got) != 2 || got[1].Email != "b@x.com" {
		t.Fatalf("unexpected users: %+v", got)
	}
}

func TestGetByIDs_EmptyDoesNotQuery(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	got, err := repo.GetByIDs(context.Background(), nil)
	if err != nil || got != nil {
		t.Fatalf("want nil, nil; got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestList_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+users\s+ORDER BY created_at`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+email\s*=\s*\$2`).
		WithArgs("u-1", "new@x.com", "A", "B", true, false).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), &models.User{ID: "u-1", Email: "new@x.com", FirstName: "A", LastName: "B", IsActive: true})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Update(context.Background(), &models.User{ID: "u-1", Email: "b@x.com"})
	if !errors.Is(err, common.ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	q := `(?s)UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$3.*WHERE\s+id\s*=\s*\$1\s+AND\s+password_hash\s*=\s*\$2`

	t.Run("swapped", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("u-1", "old", "new").WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.UpdatePasswordHash(context.Background(), "u-1", "old", "new"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("stale hash", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("u-1", "stale", "new").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePasswordHash(context.Background(), "u-1", "stale", "new")
		if !errors.Is(err, common.ErrVersionConflict) {
			t.Fatalf("want ErrVersionConflict, got %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WillReturnError(errors.New("boom"))

		if err := repo.UpdatePasswordHash(context.Background(), "u-1", "a", "b"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs("u-2").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "u-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "u-2"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
