package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailer8/mailer8/internal/database"
	"github.com/mailer8/mailer8/internal/model"
)

// CustomerRepository handles customer data persistence
type CustomerRepository struct {
	db *database.Postgres
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *database.Postgres) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a new customer into the database
func (r *CustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	query := `
		INSERT INTO customers (id, first_name, last_name, email, dob, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.FirstName,
		customer.LastName,
		model.NormalizeEmail(customer.Email),
		customer.DOB,
		customer.IsActive,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetByEmail retrieves a customer by email (case-normalized)
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	query := `
		SELECT id, first_name, last_name, email, dob, is_active, created_at, updated_at
		FROM customers
		WHERE email = $1
	`
	return r.scanCustomer(r.db.QueryRowContext(ctx, query, model.NormalizeEmail(email)))
}

// FindBirthdayCustomers returns all active customers whose date of birth
// falls on the given month and day, regardless of year. The selector
// order (first name, last name, then id as a stable tiebreaker) is part
// of the dispatch contract: runs process customers in this order.
func (r *CustomerRepository) FindBirthdayCustomers(ctx context.Context, month, day int) ([]model.Customer, error) {
	query := `
		SELECT id, first_name, last_name, email, dob, is_active, created_at, updated_at
		FROM customers
		WHERE is_active = true
		  AND EXTRACT(MONTH FROM dob) = $1
		  AND EXTRACT(DAY FROM dob) = $2
		ORDER BY first_name, last_name, id
	`
	rows, err := r.db.QueryContext(ctx, query, month, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query birthday customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.DOB, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}

func (r *CustomerRepository) scanCustomer(row *sql.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.DOB, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return &c, nil
}
