package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NASWA-OpenUI/Playground/internal/models"
)

const queryTimeout = 5 * time.Second

// PostgresRepository implements ClaimStore and RegistryStore on a
// shared pgx connection pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Connection pool configuration
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

const claimColumns = `
	id, claim_reference_id, source_system,
	claimant_id, first_name, last_name, ssn, birth_date, email_address, phone_number,
	street_address, city, state, postal_code,
	employer_name, employer_id, employment_start_date, employment_end_date,
	separation_reason_code, separation_explanation,
	base_period_q4, total_annual_earnings, weekly_benefit_amount, maximum_benefit_amount,
	state_tax_amount, federal_tax_amount, total_tax_amount, tax_calculation_date,
	status_code, status_display_name, workflow_stage,
	received_timestamp, submission_timestamp, last_updated, created_by, updated_by,
	processing_notes, error_count, last_error_message`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var c models.Claim
	err := row.Scan(
		&c.ID, &c.ClaimReferenceID, &c.SourceSystem,
		&c.ClaimantID, &c.FirstName, &c.LastName, &c.SSN, &c.BirthDate, &c.EmailAddress, &c.PhoneNumber,
		&c.StreetAddress, &c.City, &c.State, &c.PostalCode,
		&c.EmployerName, &c.EmployerID, &c.EmploymentStartDate, &c.EmploymentEndDate,
		&c.SeparationReasonCode, &c.SeparationExplanation,
		&c.BasePeriodQ4, &c.TotalAnnualEarnings, &c.WeeklyBenefitAmount, &c.MaximumBenefitAmount,
		&c.StateTaxAmount, &c.FederalTaxAmount, &c.TotalTaxAmount, &c.TaxCalculationDate,
		&c.StatusCode, &c.StatusDisplayName, &c.WorkflowStage,
		&c.ReceivedTimestamp, &c.SubmissionTimestamp, &c.LastUpdated, &c.CreatedBy, &c.UpdatedBy,
		&c.ProcessingNotes, &c.ErrorCount, &c.LastErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func claimArgs(c *models.Claim) []any {
	return []any{
		c.ID, c.ClaimReferenceID, c.SourceSystem,
		c.ClaimantID, c.FirstName, c.LastName, c.SSN, c.BirthDate, c.EmailAddress, c.PhoneNumber,
		c.StreetAddress, c.City, c.State, c.PostalCode,
		c.EmployerName, c.EmployerID, c.EmploymentStartDate, c.EmploymentEndDate,
		c.SeparationReasonCode, c.SeparationExplanation,
		c.BasePeriodQ4, c.TotalAnnualEarnings, c.WeeklyBenefitAmount, c.MaximumBenefitAmount,
		c.StateTaxAmount, c.FederalTaxAmount, c.TotalTaxAmount, c.TaxCalculationDate,
		c.StatusCode, c.StatusDisplayName, c.WorkflowStage,
		c.ReceivedTimestamp, c.SubmissionTimestamp, c.LastUpdated, c.CreatedBy, c.UpdatedBy,
		c.ProcessingNotes, c.ErrorCount, c.LastErrorMessage,
	}
}

func (r *PostgresRepository) Create(ctx context.Context, claim *models.Claim) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO claims (` + claimColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39)
	`

	_, err := r.pool.Exec(ctx, query, claimArgs(claim)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrClaimExists
		}
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByReferenceID(ctx context.Context, ref string) (*models.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + claimColumns + ` FROM claims WHERE claim_reference_id = $1`

	claim, err := scanClaim(r.pool.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// Mutate locks the claim row, applies fn and writes the result back in
// one transaction. A failing fn rolls back with nothing persisted.
func (r *PostgresRepository) Mutate(ctx context.Context, ref string, fn func(*models.Claim) error) (*models.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + claimColumns + ` FROM claims WHERE claim_reference_id = $1 FOR UPDATE`
	claim, err := scanClaim(tx.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to lock claim: %w", err)
	}

	if err := fn(claim); err != nil {
		return nil, err
	}

	update := `
		UPDATE claims SET
			source_system = $2, claimant_id = $3, first_name = $4, last_name = $5,
			ssn = $6, birth_date = $7, email_address = $8, phone_number = $9,
			street_address = $10, city = $11, state = $12, postal_code = $13,
			employer_name = $14, employer_id = $15,
			employment_start_date = $16, employment_end_date = $17,
			separation_reason_code = $18, separation_explanation = $19,
			base_period_q4 = $20, total_annual_earnings = $21,
			weekly_benefit_amount = $22, maximum_benefit_amount = $23,
			state_tax_amount = $24, federal_tax_amount = $25, total_tax_amount = $26,
			tax_calculation_date = $27, status_code = $28, status_display_name = $29,
			workflow_stage = $30, submission_timestamp = $31, last_updated = $32,
			created_by = $33, updated_by = $34, processing_notes = $35,
			error_count = $36, last_error_message = $37
		WHERE claim_reference_id = $1
	`
	_, err = tx.Exec(ctx, update,
		claim.ClaimReferenceID, claim.SourceSystem,
		claim.ClaimantID, claim.FirstName, claim.LastName,
		claim.SSN, claim.BirthDate, claim.EmailAddress, claim.PhoneNumber,
		claim.StreetAddress, claim.City, claim.State, claim.PostalCode,
		claim.EmployerName, claim.EmployerID,
		claim.EmploymentStartDate, claim.EmploymentEndDate,
		claim.SeparationReasonCode, claim.SeparationExplanation,
		claim.BasePeriodQ4, claim.TotalAnnualEarnings,
		claim.WeeklyBenefitAmount, claim.MaximumBenefitAmount,
		claim.StateTaxAmount, claim.FederalTaxAmount, claim.TotalTaxAmount,
		claim.TaxCalculationDate, claim.StatusCode, claim.StatusDisplayName,
		claim.WorkflowStage, claim.SubmissionTimestamp, claim.LastUpdated,
		claim.CreatedBy, claim.UpdatedBy, claim.ProcessingNotes,
		claim.ErrorCount, claim.LastErrorMessage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update claim: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim update: %w", err)
	}

	return claim, nil
}

func (r *PostgresRepository) queryClaims(ctx context.Context, query string, args ...any) ([]*models.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	claims := make([]*models.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Claim, error) {
	return r.queryClaims(ctx, `SELECT `+claimColumns+` FROM claims ORDER BY received_timestamp ASC`)
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status models.ClaimStatus) ([]*models.Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE status_code = $1 ORDER BY received_timestamp ASC`, status)
}

func (r *PostgresRepository) ListByStatuses(ctx context.Context, statuses []models.ClaimStatus) ([]*models.Claim, error) {
	codes := make([]string, len(statuses))
	for i, s := range statuses {
		codes[i] = string(s)
	}
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE status_code = ANY($1) ORDER BY received_timestamp ASC`, codes)
}

func (r *PostgresRepository) ListByStage(ctx context.Context, stage models.WorkflowStage) ([]*models.Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE workflow_stage = $1 ORDER BY received_timestamp ASC`, stage)
}

func (r *PostgresRepository) ListByEmployer(ctx context.Context, employerID string) ([]*models.Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE employer_id = $1 ORDER BY received_timestamp ASC`, employerID)
}

func (r *PostgresRepository) ListBySourceSystem(ctx context.Context, sourceSystem string) ([]*models.Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE source_system = $1 ORDER BY received_timestamp ASC`, sourceSystem)
}

func (r *PostgresRepository) ListWithErrors(ctx context.Context) ([]*models.Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE error_count > 0 OR status_code = 'ERROR' ORDER BY received_timestamp ASC`)
}

func (r *PostgresRepository) ListReceivedBetween(ctx context.Context, from, to time.Time) ([]*models.Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE received_timestamp BETWEEN $1 AND $2 ORDER BY received_timestamp ASC`,
		from, to)
}

func (r *PostgresRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*models.Claim, error) {
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE last_updated < $1 AND status_code NOT IN ('APPROVED', 'DENIED')
		 ORDER BY received_timestamp ASC`, cutoff)
}

func (r *PostgresRepository) ListForProcessing(ctx context.Context, statuses []models.ClaimStatus, since time.Time, limit int) ([]*models.Claim, error) {
	codes := make([]string, len(statuses))
	for i, s := range statuses {
		codes[i] = string(s)
	}
	if limit <= 0 {
		limit = 100
	}
	return r.queryClaims(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE status_code = ANY($1) AND last_updated >= $2
		 ORDER BY received_timestamp ASC LIMIT $3`, codes, since, limit)
}

func (r *PostgresRepository) CountsByStatus(ctx context.Context) (map[models.ClaimStatus]int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT status_code, COUNT(*) FROM claims GROUP BY status_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to count claims by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ClaimStatus]int)
	for rows.Next() {
		var status models.ClaimStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *PostgresRepository) CountsBySourceSystem(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT source_system, COUNT(*) FROM claims GROUP BY source_system`)
	if err != nil {
		return nil, fmt.Errorf("failed to count claims by source system: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source system count: %w", err)
		}
		counts[source] = count
	}
	return counts, rows.Err()
}

const registrationColumns = `
	service_id, name, technology, protocol, endpoint, health_endpoint,
	status, last_message, registration_date, last_heartbeat, last_updated`

func scanRegistration(row rowScanner) (*models.ServiceRegistration, error) {
	var reg models.ServiceRegistration
	err := row.Scan(
		&reg.ServiceID, &reg.Name, &reg.Technology, &reg.Protocol,
		&reg.Endpoint, &reg.HealthEndpoint, &reg.Status, &reg.LastMessage,
		&reg.RegistrationDate, &reg.LastHeartbeat, &reg.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Save upserts the registration by service id.
func (r *PostgresRepository) Save(ctx context.Context, reg *models.ServiceRegistration) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO service_registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (service_id) DO UPDATE SET
			name = EXCLUDED.name, technology = EXCLUDED.technology,
			protocol = EXCLUDED.protocol, endpoint = EXCLUDED.endpoint,
			health_endpoint = EXCLUDED.health_endpoint, status = EXCLUDED.status,
			last_message = EXCLUDED.last_message,
			last_heartbeat = EXCLUDED.last_heartbeat,
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.pool.Exec(ctx, query,
		reg.ServiceID, reg.Name, reg.Technology, reg.Protocol,
		reg.Endpoint, reg.HealthEndpoint, reg.Status, reg.LastMessage,
		reg.RegistrationDate, reg.LastHeartbeat, reg.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save service registration: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + registrationColumns + ` FROM service_registrations WHERE service_id = $1`

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, serviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service registration: %w", err)
	}
	return reg, nil
}

func (r *PostgresRepository) MutateRegistration(ctx context.Context, serviceID string, fn func(*models.ServiceRegistration) error) (*models.ServiceRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + registrationColumns + ` FROM service_registrations WHERE service_id = $1 FOR UPDATE`
	reg, err := scanRegistration(tx.QueryRow(ctx, query, serviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to lock service registration: %w", err)
	}

	if err := fn(reg); err != nil {
		return nil, err
	}

	update := `
		UPDATE service_registrations SET
			name = $2, technology = $3, protocol = $4, endpoint = $5,
			health_endpoint = $6, status = $7, last_message = $8,
			last_heartbeat = $9, last_updated = $10
		WHERE service_id = $1
	`
	_, err = tx.Exec(ctx, update,
		reg.ServiceID, reg.Name, reg.Technology, reg.Protocol, reg.Endpoint,
		reg.HealthEndpoint, reg.Status, reg.LastMessage,
		reg.LastHeartbeat, reg.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update service registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration update: %w", err)
	}

	return reg, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, serviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM service_registrations WHERE service_id = $1`, serviceID)
	if err != nil {
		return fmt.Errorf("failed to delete service registration: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *PostgresRepository) queryRegistrations(ctx context.Context, query string, args ...any) ([]*models.ServiceRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query service registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]*models.ServiceRegistration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *PostgresRepository) ListRegistrations(ctx context.Context) ([]*models.ServiceRegistration, error) {
	return r.queryRegistrations(ctx,
		`SELECT `+registrationColumns+` FROM service_registrations ORDER BY service_id ASC`)
}

func (r *PostgresRepository) ListRegistrationsByStatus(ctx context.Context, status string) ([]*models.ServiceRegistration, error) {
	return r.queryRegistrations(ctx,
		`SELECT `+registrationColumns+` FROM service_registrations WHERE status = $1 ORDER BY service_id ASC`, status)
}

func (r *PostgresRepository) CountRegistrationsByStatus(ctx context.Context, status string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_registrations WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count service registrations: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) ListStaleRegistrations(ctx context.Context, cutoff time.Time) ([]*models.ServiceRegistration, error) {
	return r.queryRegistrations(ctx,
		`SELECT `+registrationColumns+` FROM service_registrations WHERE last_heartbeat < $1 ORDER BY service_id ASC`, cutoff)
}

// ClaimStore returns the repository as a ClaimStore.
func (r *PostgresRepository) ClaimStore() ClaimStore { return r }

// RegistryStore adapts the repository's registration methods to the
// RegistryStore interface.
func (r *PostgresRepository) RegistryStore() RegistryStore {
	return &postgresRegistryStore{repo: r}
}

type postgresRegistryStore struct {
	repo *PostgresRepository
}

func (s *postgresRegistryStore) Save(ctx context.Context, reg *models.ServiceRegistration) error {
	return s.repo.Save(ctx, reg)
}

func (s *postgresRegistryStore) GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceRegistration, error) {
	return s.repo.GetByServiceID(ctx, serviceID)
}

func (s *postgresRegistryStore) Mutate(ctx context.Context, serviceID string, fn func(*models.ServiceRegistration) error) (*models.ServiceRegistration, error) {
	return s.repo.MutateRegistration(ctx, serviceID, fn)
}

func (s *postgresRegistryStore) Delete(ctx context.Context, serviceID string) error {
	return s.repo.Delete(ctx, serviceID)
}

func (s *postgresRegistryStore) List(ctx context.Context) ([]*models.ServiceRegistration, error) {
	return s.repo.ListRegistrations(ctx)
}

func (s *postgresRegistryStore) ListByStatus(ctx context.Context, status string) ([]*models.ServiceRegistration, error) {
	return s.repo.ListRegistrationsByStatus(ctx, status)
}

func (s *postgresRegistryStore) CountByStatus(ctx context.Context, status string) (int, error) {
	return s.repo.CountRegistrationsByStatus(ctx, status)
}

func (s *postgresRegistryStore) ListStale(ctx context.Context, cutoff time.Time) ([]*models.ServiceRegistration, error) {
	return s.repo.ListStaleRegistrations(ctx, cutoff)
}
