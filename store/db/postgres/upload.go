package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/ghiseu/store"
)

func (d *DB) CreateUpload(ctx context.Context, create *store.Upload) (*store.Upload, error) {
	fields := []string{"session_id", "filename", "content_type", "size", "kind_hint", "blob", "extracted_text", "status"}
	args := []any{create.SessionID, create.Filename, create.ContentType, create.Size, create.KindHint, create.Blob, create.ExtractedText, create.Status}

	stmt := "INSERT INTO upload (" + strings.Join(fields, ", ") + ") VALUES (" + placeholders(len(args)) + ") RETURNING id, created_ts, updated_ts"
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to create upload: %w", err)
	}
	return create, nil
}

func (d *DB) ListUploads(ctx context.Context, find *store.FindUpload) ([]*store.Upload, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.SessionID != nil {
		where, args = append(where, "session_id = "+placeholder(len(args)+1)), append(args, *find.SessionID)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *find.Status)
	}

	fields := []string{"id", "session_id", "created_ts", "updated_ts", "filename", "content_type", "size", "kind_hint", "extracted_text", "status"}
	if find.GetBlob {
		fields = append(fields, "blob")
	}
	query := "SELECT " + strings.Join(fields, ", ") + " FROM upload WHERE " + strings.Join(where, " AND ") + " ORDER BY id ASC"
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Upload, 0)
	for rows.Next() {
		u := &store.Upload{}
		dest := []any{&u.ID, &u.SessionID, &u.CreatedTs, &u.UpdatedTs, &u.Filename, &u.ContentType, &u.Size, &u.KindHint, &u.ExtractedText, &u.Status}
		if find.GetBlob {
			dest = append(dest, &u.Blob)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate uploads: %w", err)
	}
	return list, nil
}

func (d *DB) LatestUploadID(ctx context.Context, sessionID string) (int64, error) {
	var id sql.NullInt64
	if err := d.db.QueryRowContext(ctx, "SELECT MAX(id) FROM upload WHERE session_id = $1", sessionID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get latest upload id: %w", err)
	}
	return id.Int64, nil
}

func (d *DB) UpdateUpload(ctx context.Context, update *store.UpdateUpload) error {
	set, args := []string{}, []any{}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if update.ExtractedText != nil {
		set, args = append(set, "extracted_text = "+placeholder(len(args)+1)), append(args, *update.ExtractedText)
	}
	if update.Status != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *update.Status)
	}
	if update.ClearBlob {
		set = append(set, "blob = NULL")
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := "UPDATE upload SET " + strings.Join(set, ", ") + " WHERE id = " + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}
	return nil
}

func (d *DB) DeleteUpload(ctx context.Context, delete *store.DeleteUpload) error {
	where, args := []string{}, []any{}
	if delete.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *delete.ID)
	}
	if delete.SessionID != nil {
		where, args = append(where, "session_id = "+placeholder(len(args)+1)), append(args, *delete.SessionID)
	}
	if len(where) == 0 {
		return fmt.Errorf("refusing to delete uploads without a filter")
	}
	if _, err := d.db.ExecContext(ctx, "DELETE FROM upload WHERE "+strings.Join(where, " AND "), args...); err != nil {
		return fmt.Errorf("failed to delete uploads: %w", err)
	}
	return nil
}
