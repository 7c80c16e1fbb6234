//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailer8/mailer8/internal/database"
	"github.com/mailer8/mailer8/internal/model"
	"github.com/mailer8/mailer8/internal/repository"
)

const testDatabaseDSN = "host=localhost port=5432 user=postgres password=postgres dbname=mailer8_test sslmode=disable"

func newTestDB(t *testing.T) *database.Postgres {
	t.Helper()

	dsn := os.Getenv("MAILER8_TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = testDatabaseDSN
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.Ping(), "failed to ping test database")

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS customers (
			id         UUID PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name  TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			dob        DATE NOT NULL,
			is_active  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM customers`)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM customers`)
		_ = db.Close()
	})

	return &database.Postgres{DB: db}
}

func insertCustomer(t *testing.T, repo *repository.CustomerRepository, first, last, email string, dob time.Time, active bool) {
	t.Helper()

	now := time.Now()
	require.NoError(t, repo.Create(context.Background(), &model.Customer{
		ID:        uuid.New().String(),
		FirstName: first,
		LastName:  last,
		Email:     email,
		DOB:       dob,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func TestFindBirthdayCustomers(t *testing.T) {
	repo := repository.NewCustomerRepository(newTestDB(t))
	ctx := context.Background()

	march15 := func(year int) time.Time {
		return time.Date(year, time.March, 15, 0, 0, 0, 0, time.UTC)
	}

	// Two March 15 birthdays in different years, one sharing a first
	// name to exercise the last-name tiebreak.
	insertCustomer(t, repo, "Ada", "Zulu", "ada.zulu@example.com", march15(1990), true)
	insertCustomer(t, repo, "Ada", "Okafor", "ada.okafor@example.com", march15(1975), true)
	insertCustomer(t, repo, "Zed", "Abba", "zed.abba@example.com", march15(2001), true)
	// Same day but inactive: never selected.
	insertCustomer(t, repo, "Ben", "Musa", "ben.musa@example.com", march15(1990), false)
	// Adjacent day: not selected.
	insertCustomer(t, repo, "Chi", "Eze", "chi.eze@example.com",
		time.Date(1990, time.March, 16, 0, 0, 0, 0, time.UTC), true)

	got, err := repo.FindBirthdayCustomers(ctx, 3, 15)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Deterministic ordering: first name, then last name.
	assert.Equal(t, "ada.okafor@example.com", got[0].Email)
	assert.Equal(t, "ada.zulu@example.com", got[1].Email)
	assert.Equal(t, "zed.abba@example.com", got[2].Email)

	for _, c := range got {
		assert.True(t, c.IsActive)
		assert.Equal(t, time.March, c.DOB.Month())
		assert.Equal(t, 15, c.DOB.Day())
	}

	// Adjacent day only matches its own date.
	got, err = repo.FindBirthdayCustomers(ctx, 3, 16)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "chi.eze@example.com", got[0].Email)

	// No matches.
	got, err = repo.FindBirthdayCustomers(ctx, 12, 25)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCustomerCreateNormalizesAndDeduplicates(t *testing.T) {
	repo := repository.NewCustomerRepository(newTestDB(t))
	ctx := context.Background()

	dob := time.Date(1992, time.July, 21, 0, 0, 0, 0, time.UTC)
	insertCustomer(t, repo, "Ada", "Okafor", "Ada.Okafor@Example.com", dob, true)

	// Stored lowercased, and lookup normalizes too.
	c, err := repo.GetByEmail(ctx, "ADA.OKAFOR@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada.okafor@example.com", c.Email)

	// A second insert with the same address in different case collides.
	now := time.Now()
	err = repo.Create(ctx, &model.Customer{
		ID:        uuid.New().String(),
		FirstName: "Ada",
		LastName:  "Okafor",
		Email:     "ada.okafor@EXAMPLE.com",
		DOB:       dob,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.ErrorIs(t, err, repository.ErrDuplicate)
}
