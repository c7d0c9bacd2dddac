package storage

import (
	"context"
	"fmt"
)

// LoadFormValues returns the cached field values of form.
func (s *SQLiteStorage) LoadFormValues(ctx context.Context, form string) (map[string]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(form, "form"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT field, value
		FROM form_cache
		WHERE form = ?
	`, form)
	if err != nil {
		return nil, fmt.Errorf("failed to query form cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("failed to scan form cache row: %w", err)
		}
		values[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read form cache: %w", err)
	}
	return values, nil
}

// SaveFormValues upserts the given field values of form. Fields not in
// values are left as they are.
func (s *SQLiteStorage) SaveFormValues(ctx context.Context, form string, values map[string]string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(form, "form"); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_cache (form, field, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(form, field) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for field, value := range values {
		if err := validateString(field, "field"); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, form, field, value); err != nil {
			return fmt.Errorf("failed to save form value %s.%s: %w", form, field, err)
		}
	}

	return tx.Commit()
}
