package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/ghiseu/store"
)

func (d *DB) UpsertSession(ctx context.Context, upsert *store.SessionRecord) error {
	stmt := `INSERT INTO chat_session (id, data, created_ts, updated_ts) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_ts = excluded.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.ID, upsert.Data, upsert.CreatedTs, upsert.UpdatedTs); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.SessionRecord, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UpdatedBefore != nil {
		where, args = append(where, "updated_ts < ?"), append(args, *find.UpdatedBefore)
	}

	query := "SELECT id, data, created_ts, updated_ts FROM chat_session WHERE " + strings.Join(where, " AND ") + " ORDER BY updated_ts DESC"
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.SessionRecord, 0)
	for rows.Next() {
		r := &store.SessionRecord{}
		if err := rows.Scan(&r.ID, &r.Data, &r.CreatedTs, &r.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteSessions(ctx context.Context, delete *store.DeleteSession) (int64, error) {
	where, args := []string{}, []any{}
	if delete.ID != nil {
		where, args = append(where, "id = ?"), append(args, *delete.ID)
	}
	if delete.UpdatedBefore != nil {
		where, args = append(where, "updated_ts < ?"), append(args, *delete.UpdatedBefore)
	}
	if len(where) == 0 {
		return 0, fmt.Errorf("refusing to delete sessions without a filter")
	}
	result, err := d.db.ExecContext(ctx, "DELETE FROM chat_session WHERE "+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return result.RowsAffected()
}
