package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/eventdesk/pkg/database"
	"github.com/diagnosis/eventdesk/services/events/internal/domain"
)

type RegistrationRepository interface {
	Create(ctx context.Context, eventID string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error)
	Reactivate(ctx context.Context, id string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error)
	Update(ctx context.Context, id string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error)
	SetStatus(ctx context.Context, eventID, id string, status domain.RegistrationStatus) (*domain.Registration, error)
	FindByID(ctx context.Context, eventID, id string) (*domain.Registration, error)
	FindLatestForUser(ctx context.Context, eventID, userID string) (*domain.Registration, error)
	FindActiveForUser(ctx context.Context, eventID, userID string) (*domain.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error)
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

const registrationCols = `id, event_id, user_id, first_name, last_name, email, phone, status, registered_at`

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var (
		reg    domain.Registration
		status string
	)
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID,
		&reg.FirstName, &reg.LastName, &reg.Email, &reg.Phone,
		&status, &reg.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	reg.Status = domain.RegistrationStatus(status)
	reg.Responses = []domain.FieldResponse{}
	return &reg, nil
}

func (r *registrationRepository) Create(ctx context.Context, eventID string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error) {
	const q = `INSERT INTO event_registrations (` + registrationCols + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'CONFIRMED',now())`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	id := uuid.NewString()
	err := database.WithTx(ctx, r.pool, func(tx database.DBTX) error {
		if _, err := tx.Exec(ctx, q, id, eventID, a.UserID, a.FirstName, a.LastName, a.Email, a.Phone); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
		return insertResponses(ctx, tx, id, responses)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, eventID, id)
}

// Reactivate turns a cancelled registration back into a confirmed one,
// overwriting attendee details and replacing every stored answer.
func (r *registrationRepository) Reactivate(ctx context.Context, id string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error) {
	const q = `UPDATE event_registrations SET
		first_name=$2, last_name=$3, email=$4, phone=$5,
		status='CONFIRMED', registered_at=now()
	WHERE id=$1
	RETURNING ` + registrationCols
	return r.rewrite(ctx, q, id, a, responses)
}

// Update overwrites attendee details. A nil responses slice leaves stored
// answers untouched; a non-nil one replaces them.
func (r *registrationRepository) Update(ctx context.Context, id string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error) {
	const q = `UPDATE event_registrations SET
		first_name=$2, last_name=$3, email=$4, phone=$5
	WHERE id=$1
	RETURNING ` + registrationCols
	return r.rewrite(ctx, q, id, a, responses)
}

func (r *registrationRepository) rewrite(ctx context.Context, q, id string, a domain.Attendee, responses []domain.FieldResponse) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var reg *domain.Registration
	err := database.WithTx(ctx, r.pool, func(tx database.DBTX) error {
		var err error
		reg, err = scanRegistration(tx.QueryRow(ctx, q, id, a.FirstName, a.LastName, a.Email, a.Phone))
		if err == pgx.ErrNoRows {
			reg = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("update registration: %w", err)
		}
		if responses == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM event_field_responses WHERE registration_id=$1`, id); err != nil {
			return fmt.Errorf("clear responses: %w", err)
		}
		return insertResponses(ctx, tx, id, responses)
	})
	if err != nil || reg == nil {
		return nil, err
	}
	return r.FindByID(ctx, reg.EventID, reg.ID)
}

func (r *registrationRepository) SetStatus(ctx context.Context, eventID, id string, status domain.RegistrationStatus) (*domain.Registration, error) {
	const q = `UPDATE event_registrations SET status=$3 WHERE id=$1 AND event_id=$2 RETURNING ` + registrationCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	reg, err := scanRegistration(r.pool.QueryRow(ctx, q, id, eventID, string(status)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.withResponses(ctx, reg)
}

func (r *registrationRepository) FindByID(ctx context.Context, eventID, id string) (*domain.Registration, error) {
	const q = `SELECT ` + registrationCols + ` FROM event_registrations WHERE id=$1 AND event_id=$2`
	return r.findOne(ctx, q, id, eventID)
}

func (r *registrationRepository) FindLatestForUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	const q = `SELECT ` + registrationCols + ` FROM event_registrations
		WHERE event_id=$1 AND user_id=$2
		ORDER BY registered_at DESC LIMIT 1`
	return r.findOne(ctx, q, eventID, userID)
}

func (r *registrationRepository) FindActiveForUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	const q = `SELECT ` + registrationCols + ` FROM event_registrations
		WHERE event_id=$1 AND user_id=$2 AND status <> 'CANCELLED'
		ORDER BY registered_at DESC LIMIT 1`
	return r.findOne(ctx, q, eventID, userID)
}

func (r *registrationRepository) findOne(ctx context.Context, q string, args ...any) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	reg, err := scanRegistration(r.pool.QueryRow(ctx, q, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.withResponses(ctx, reg)
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	const q = `SELECT ` + registrationCols + ` FROM event_registrations
		WHERE event_id=$1 ORDER BY registered_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := []domain.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return regs, nil
	}

	ids := make([]string, len(regs))
	for i := range regs {
		ids[i] = regs[i].ID
	}
	responses, err := r.responsesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range regs {
		if rs, ok := responses[regs[i].ID]; ok {
			regs[i].Responses = rs
		}
	}
	return regs, nil
}

func (r *registrationRepository) withResponses(ctx context.Context, reg *domain.Registration) (*domain.Registration, error) {
	responses, err := r.responsesFor(ctx, []string{reg.ID})
	if err != nil {
		return nil, err
	}
	if rs, ok := responses[reg.ID]; ok {
		reg.Responses = rs
	}
	return reg, nil
}

func (r *registrationRepository) responsesFor(ctx context.Context, registrationIDs []string) (map[string][]domain.FieldResponse, error) {
	const q = `SELECT fr.registration_id, fr.id, fr.field_id, fr.value
		FROM event_field_responses fr
		JOIN event_custom_fields f ON f.id = fr.field_id
		WHERE fr.registration_id = ANY($1)
		ORDER BY fr.registration_id, f.field_order ASC`

	rows, err := r.pool.Query(ctx, q, registrationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.FieldResponse, len(registrationIDs))
	for rows.Next() {
		var (
			regID string
			fr    domain.FieldResponse
		)
		if err := rows.Scan(&regID, &fr.ID, &fr.FieldID, &fr.Value); err != nil {
			return nil, err
		}
		out[regID] = append(out[regID], fr)
	}
	return out, rows.Err()
}

func insertResponses(ctx context.Context, tx database.DBTX, registrationID string, responses []domain.FieldResponse) error {
	const q = `INSERT INTO event_field_responses (id, registration_id, field_id, value) VALUES ($1,$2,$3,$4)`
	for _, fr := range responses {
		if _, err := tx.Exec(ctx, q, uuid.NewString(), registrationID, fr.FieldID, fr.Value); err != nil {
			return fmt.Errorf("insert response for field %s: %w", fr.FieldID, err)
		}
	}
	return nil
}
