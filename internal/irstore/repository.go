package irstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
)

// StoredCode is one learned IR code row.
type StoredCode struct {
	DeviceID  string
	Name      string
	Protocol  ircodec.Protocol
	Sequence  ircodec.TimingSequence
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Code converts the row into the codec's value type.
func (s StoredCode) Code() ircodec.Code {
	return ircodec.Code{
		Name:     s.Name,
		DeviceID: s.DeviceID,
		Sequence: s.Sequence.Clone(),
	}
}

// Repository defines the interface for IR code persistence. The SQLite
// implementation below is the production one; tests elsewhere substitute
// in-memory fakes.
type Repository interface {
	// Get retrieves a code by device and name.
	// Returns ErrCodeNotFound if it does not exist.
	Get(ctx context.Context, deviceID, name string) (*StoredCode, error)

	// List retrieves all codes, ordered by device then name.
	List(ctx context.Context) ([]StoredCode, error)

	// ListByDevice retrieves all codes for one device.
	ListByDevice(ctx context.Context, deviceID string) ([]StoredCode, error)

	// Save inserts a code, replacing any existing code with the same
	// device and name.
	Save(ctx context.Context, code *StoredCode) error

	// Delete removes a code.
	// Returns ErrCodeNotFound if it does not exist.
	Delete(ctx context.Context, deviceID, name string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves a code by device and name.
func (r *SQLiteRepository) Get(ctx context.Context, deviceID, name string) (*StoredCode, error) {
	query := `
		SELECT device_id, name, protocol, sequence, created_at, updated_at
		FROM ir_codes
		WHERE device_id = ? AND name = ?`

	row := r.db.QueryRowContext(ctx, query, deviceID, name)
	code, err := scanCode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("querying ir code: %w", err)
	}
	return code, nil
}

// List retrieves all codes.
func (r *SQLiteRepository) List(ctx context.Context) ([]StoredCode, error) {
	query := `
		SELECT device_id, name, protocol, sequence, created_at, updated_at
		FROM ir_codes
		ORDER BY device_id, name`

	return r.queryCodes(ctx, query)
}

// ListByDevice retrieves all codes for one device.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, deviceID string) ([]StoredCode, error) {
	query := `
		SELECT device_id, name, protocol, sequence, created_at, updated_at
		FROM ir_codes
		WHERE device_id = ?
		ORDER BY name`

	return r.queryCodes(ctx, query, deviceID)
}

// Save inserts or replaces a code.
func (r *SQLiteRepository) Save(ctx context.Context, code *StoredCode) error {
	if err := code.Sequence.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO ir_codes (device_id, name, protocol, sequence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, name) DO UPDATE SET
			protocol = excluded.protocol,
			sequence = excluded.sequence,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		code.DeviceID,
		code.Name,
		string(code.Protocol),
		ircodec.FormatTimings(code.Sequence),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving ir code: %w", err)
	}
	return nil
}

// Delete removes a code.
func (r *SQLiteRepository) Delete(ctx context.Context, deviceID, name string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ir_codes WHERE device_id = ? AND name = ?`, deviceID, name)
	if err != nil {
		return fmt.Errorf("deleting ir code: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (r *SQLiteRepository) queryCodes(ctx context.Context, query string, args ...interface{}) ([]StoredCode, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ir codes: %w", err)
	}
	defer rows.Close()

	var codes []StoredCode
	for rows.Next() {
		code, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ir codes: %w", err)
	}
	return codes, nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCode(row scanner) (*StoredCode, error) {
	var (
		code      StoredCode
		protocol  string
		sequence  string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&code.DeviceID, &code.Name, &protocol, &sequence, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	code.Protocol = ircodec.Protocol(protocol)

	seq, err := ircodec.ParseTimings(strings.TrimSpace(sequence))
	if err != nil {
		return nil, fmt.Errorf("parsing stored sequence for %s/%s: %w", code.DeviceID, code.Name, err)
	}
	code.Sequence = seq

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		code.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		code.UpdatedAt = t
	}
	return &code, nil
}
