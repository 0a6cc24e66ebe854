// internal/store/customers.go
package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"scribe-api/internal/common/database"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/models"
)

// CustomerStore persists billed customers in Postgres.
type CustomerStore struct {
	db *database.PostgresClient
}

// NewCustomerStore returns a customer store on the given database.
func NewCustomerStore(db *database.PostgresClient) *CustomerStore {
	return &CustomerStore{db: db}
}

const customerColumns = `id, customer_abbr, partner_id, name, contact_email,
	priceplan, base_fee, realms, notes, blocks_purchased`

// Create inserts a customer.
func (s *CustomerStore) Create(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO customers (customer_abbr, partner_id, name, contact_email,
		        priceplan, base_fee, realms, notes, blocks_purchased)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+customerColumns,
		c.CustomerAbbr, c.PartnerID, c.Name, c.ContactEmail, c.PricePlan,
		c.BaseFee, c.Realms, c.Notes, c.BlocksPurchased)
	return scanCustomer(row)
}

// Update rewrites a customer's attributes.
func (s *CustomerStore) Update(ctx context.Context, id int64, c *models.Customer) (*models.Customer, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE customers SET customer_abbr = $2, partner_id = $3, name = $4,
		        contact_email = $5, priceplan = $6, base_fee = $7, realms = $8,
		        notes = $9, blocks_purchased = $10
		 WHERE id = $1
		 RETURNING `+customerColumns,
		id, c.CustomerAbbr, c.PartnerID, c.Name, c.ContactEmail, c.PricePlan,
		c.BaseFee, c.Realms, c.Notes, c.BlocksPurchased)
	return scanCustomer(row)
}

// Delete removes a customer.
func (s *CustomerStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete customer", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperrors.NewNotFoundError("customer")
	}
	return nil
}

// Get loads a customer by ID.
func (s *CustomerStore) Get(ctx context.Context, id int64) (*models.Customer, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

// List returns all customers ordered by abbreviation.
func (s *CustomerStore) List(ctx context.Context) ([]*models.Customer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY customer_abbr`)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list customers", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read customers", err)
	}
	return customers, nil
}

// Stats aggregates usage over all realms billed to the customer. External
// minutes come from jobs flagged as externally transcribed.
func (s *CustomerStore) Stats(ctx context.Context, customer *models.Customer, blockMinutes int) (*models.CustomerStats, error) {
	stats := models.CustomerStats{CustomerID: customer.ID}

	realms := customer.RealmList()
	if len(realms) == 0 {
		stats.ComputeBlockUsage(customer.BlocksPurchased, blockMinutes)
		return &stats, nil
	}

	err := s.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT u.username),
		        COALESCE(SUM(j.duration_seconds) FILTER (WHERE NOT COALESCE(j.external, false)), 0) / 60,
		        COALESCE(SUM(j.duration_seconds) FILTER (WHERE COALESCE(j.external, false)), 0) / 60
		 FROM users u
		 LEFT JOIN jobs j ON j.username = u.username AND j.status = $2
		 WHERE u.realm = ANY($1)`,
		realmsParam(realms), string(models.JobStatusCompleted)).
		Scan(&stats.TotalUsers, &stats.TranscribedMinutes, &stats.ExternalMinutes)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate customer stats", err)
	}

	stats.ComputeBlockUsage(customer.BlocksPurchased, blockMinutes)
	return &stats, nil
}

func realmsParam(realms []string) interface{} {
	return pq.Array(realms)
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var customer models.Customer
	var partnerID, contactEmail, notes sql.NullString

	err := row.Scan(&customer.ID, &customer.CustomerAbbr, &partnerID,
		&customer.Name, &contactEmail, &customer.PricePlan, &customer.BaseFee,
		&customer.Realms, &notes, &customer.BlocksPurchased)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("customer")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan customer", err)
	}

	customer.PartnerID = partnerID.String
	customer.ContactEmail = contactEmail.String
	customer.Notes = notes.String
	return &customer, nil
}
