package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/ghiseu/store"
)

func (d *DB) CreateCase(ctx context.Context, create *store.Case) (*store.Case, error) {
	person := create.Person
	if person == "" {
		person = "{}"
	}
	fields := []string{"uid", "session_id", "program", "type", "eligibility_reason", "slot_id", "person", "status"}
	args := []any{create.UID, create.SessionID, create.Program, create.Type, create.EligibilityReason, create.SlotID, person, create.Status}

	stmt := "INSERT INTO gov_case (" + strings.Join(fields, ", ") + ") VALUES (" + placeholders(len(args)) + ") RETURNING id, created_ts, updated_ts"
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}
	return create, nil
}

func (d *DB) ListCases(ctx context.Context, find *store.FindCase) ([]*store.Case, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.SessionID != nil {
		where, args = append(where, "session_id = "+placeholder(len(args)+1)), append(args, *find.SessionID)
	}
	if find.Program != nil {
		where, args = append(where, "program = "+placeholder(len(args)+1)), append(args, *find.Program)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *find.Status)
	}

	query := `SELECT id, uid, session_id, created_ts, updated_ts, program, type, eligibility_reason, slot_id, person::TEXT, status
		FROM gov_case WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Case, 0)
	for rows.Next() {
		c := &store.Case{}
		if err := rows.Scan(&c.ID, &c.UID, &c.SessionID, &c.CreatedTs, &c.UpdatedTs, &c.Program, &c.Type, &c.EligibilityReason, &c.SlotID, &c.Person, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cases: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateCase(ctx context.Context, update *store.UpdateCase) error {
	set, args := []string{}, []any{}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if update.Status != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *update.Status)
	}
	if update.SlotID != nil {
		set, args = append(set, "slot_id = "+placeholder(len(args)+1)), append(args, *update.SlotID)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := "UPDATE gov_case SET " + strings.Join(set, ", ") + " WHERE id = " + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	return nil
}
