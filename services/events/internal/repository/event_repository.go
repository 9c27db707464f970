package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/eventdesk/pkg/database"
	"github.com/diagnosis/eventdesk/services/events/internal/domain"
)

type EventRepository interface {
	Create(ctx context.Context, e *domain.Event) (*domain.Event, error)
	Update(ctx context.Context, e *domain.Event, plan domain.FieldPlan) (*domain.Event, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	ViewerStatuses(ctx context.Context, userID string) (map[string]domain.RegistrationStatus, error)
	Count(ctx context.Context) (int, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventCols = `e.id, e.label, e.description, e.short_description, e.avatar_url,
to_char(e.start_date, 'YYYY-MM-DD'), to_char(e.end_date, 'YYYY-MM-DD'),
e.start_time, e.end_time, e.location, e.max_capacity, e.is_active,
e.created_by_id, e.created_at, e.updated_at,
(SELECT count(*) FROM event_registrations r WHERE r.event_id = e.id AND r.status <> 'CANCELLED')`

const fieldCols = `id, event_id, label, control_type, is_required, options, field_order`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Label, &e.Description, &e.ShortDescription, &e.AvatarURL,
		&e.StartDate, &e.EndDate,
		&e.StartTime, &e.EndTime, &e.Location, &e.MaxCapacity, &e.IsActive,
		&e.CreatedByID, &e.CreatedAt, &e.UpdatedAt,
		&e.RegistrationCount,
	)
	if err != nil {
		return nil, err
	}
	e.CustomFields = []domain.CustomField{}
	return &e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	const q = `INSERT INTO events (
		id, label, description, short_description, avatar_url,
		start_date, end_date, start_time, end_time,
		location, max_capacity, is_active, created_by_id
	) VALUES ($1,$2,$3,$4,$5,$6::date,$7::date,$8,$9,$10,$11,$12,$13)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	id := uuid.NewString()
	err := database.WithTx(ctx, r.pool, func(tx database.DBTX) error {
		if _, err := tx.Exec(ctx, q, id,
			e.Label, e.Description, e.ShortDescription, e.AvatarURL,
			e.StartDate, e.EndDate, e.StartTime, e.EndTime,
			e.Location, e.MaxCapacity, e.IsActive, e.CreatedByID,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		for _, f := range e.CustomFields {
			if err := insertField(ctx, tx, id, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event, plan domain.FieldPlan) (*domain.Event, error) {
	const q = `UPDATE events SET
		label=$2, description=$3, short_description=$4, avatar_url=$5,
		start_date=$6::date, end_date=$7::date, start_time=$8, end_time=$9,
		location=$10, max_capacity=$11, is_active=$12, updated_at=now()
	WHERE id=$1`
	const updateField = `UPDATE event_custom_fields SET
		label=$3, control_type=$4, is_required=$5, options=$6::jsonb, field_order=$7
	WHERE id=$1 AND event_id=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	found := true
	err := database.WithTx(ctx, r.pool, func(tx database.DBTX) error {
		tag, err := tx.Exec(ctx, q, e.ID,
			e.Label, e.Description, e.ShortDescription, e.AvatarURL,
			e.StartDate, e.EndDate, e.StartTime, e.EndTime,
			e.Location, e.MaxCapacity, e.IsActive,
		)
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			found = false
			return nil
		}

		if len(plan.Delete) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM event_custom_fields WHERE event_id=$1 AND id = ANY($2)`, e.ID, plan.Delete); err != nil {
				return fmt.Errorf("delete fields: %w", err)
			}
		}
		for _, f := range plan.Update {
			if _, err := tx.Exec(ctx, updateField, f.ID, e.ID,
				f.Label, string(f.ControlType), f.IsRequired, encodeOptions(f.Options), f.Order,
			); err != nil {
				return fmt.Errorf("update field %s: %w", f.ID, err)
			}
		}
		for _, f := range plan.Create {
			if err := insertField(ctx, tx, e.ID, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return r.FindByID(ctx, e.ID)
}

func (r *eventRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *eventRepository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events e WHERE e.id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fields, err := r.fieldsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if fs, ok := fields[id]; ok {
		e.CustomFields = fs
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context) ([]domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events e ORDER BY e.start_date ASC, e.created_at ASC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return events, nil
	}

	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	fields, err := r.fieldsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if fs, ok := fields[events[i].ID]; ok {
			events[i].CustomFields = fs
		}
	}
	return events, nil
}

// ViewerStatuses returns, per event id, the status of the user's active
// registration. Events without one are absent.
func (r *eventRepository) ViewerStatuses(ctx context.Context, userID string) (map[string]domain.RegistrationStatus, error) {
	const q = `SELECT DISTINCT ON (event_id) event_id, status
		FROM event_registrations
		WHERE user_id=$1 AND status <> 'CANCELLED'
		ORDER BY event_id, registered_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.RegistrationStatus)
	for rows.Next() {
		var eventID, status string
		if err := rows.Scan(&eventID, &status); err != nil {
			return nil, err
		}
		out[eventID] = domain.RegistrationStatus(status)
	}
	return out, rows.Err()
}

func (r *eventRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&n)
	return n, err
}

func (r *eventRepository) fieldsFor(ctx context.Context, eventIDs []string) (map[string][]domain.CustomField, error) {
	const q = `SELECT ` + fieldCols + ` FROM event_custom_fields
		WHERE event_id = ANY($1) ORDER BY event_id, field_order ASC, id ASC`

	rows, err := r.pool.Query(ctx, q, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.CustomField, len(eventIDs))
	for rows.Next() {
		var (
			f           domain.CustomField
			controlType string
			options     []byte
		)
		if err := rows.Scan(&f.ID, &f.EventID, &f.Label, &controlType, &f.IsRequired, &options, &f.Order); err != nil {
			return nil, err
		}
		f.ControlType = domain.ParseControlType(controlType)
		f.Options = decodeOptions(options)
		out[f.EventID] = append(out[f.EventID], f)
	}
	return out, rows.Err()
}

func insertField(ctx context.Context, tx database.DBTX, eventID string, f domain.CustomField) error {
	const q = `INSERT INTO event_custom_fields (` + fieldCols + `)
		VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7)`
	_, err := tx.Exec(ctx, q, uuid.NewString(), eventID,
		f.Label, string(f.ControlType), f.IsRequired, encodeOptions(f.Options), f.Order,
	)
	if err != nil {
		return fmt.Errorf("insert field %q: %w", f.Label, err)
	}
	return nil
}

func encodeOptions(opts []string) string {
	if len(opts) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(opts)
	return string(b)
}

func decodeOptions(raw []byte) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
