package irstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wehrfritz/equilibrium-core/internal/ircodec"
)

// setupTestDB creates an in-memory SQLite database with the ir_codes table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE ir_codes (
			device_id TEXT NOT NULL,
			name TEXT NOT NULL,
			protocol TEXT NOT NULL DEFAULT 'unknown',
			sequence TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (device_id, name)
		) STRICT;
		CREATE INDEX idx_ir_codes_device_id ON ir_codes(device_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func testCode(deviceID, name string) *StoredCode {
	return &StoredCode{
		DeviceID: deviceID,
		Name:     name,
		Protocol: ircodec.ProtocolNEC,
		Sequence: ircodec.TimingSequence{9000, 4500, 560, 1690, 560, 560},
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	want := testCode("living_room_tv", "power")
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx, "living_room_tv", "power")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Protocol != ircodec.ProtocolNEC {
		t.Errorf("Protocol = %s, want %s", got.Protocol, ircodec.ProtocolNEC)
	}
	if len(got.Sequence) != len(want.Sequence) {
		t.Fatalf("Sequence length = %d, want %d", len(got.Sequence), len(want.Sequence))
	}
	for i := range want.Sequence {
		if got.Sequence[i] != want.Sequence[i] {
			t.Errorf("Sequence[%d] = %d, want %d", i, got.Sequence[i], want.Sequence[i])
		}
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not populated")
	}
}

func TestGetNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.Get(context.Background(), "nope", "power")
	if !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("Get() error = %v, want ErrCodeNotFound", err)
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, testCode("tv", "power")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	relearned := testCode("tv", "power")
	relearned.Sequence = ircodec.TimingSequence{8900, 4400, 570, 1700, 555, 570}
	if err := repo.Save(ctx, relearned); err != nil {
		t.Fatalf("Save(replace) error = %v", err)
	}

	got, err := repo.Get(ctx, "tv", "power")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Sequence[0] != 8900 {
		t.Errorf("Sequence[0] = %d, want the relearned 8900", got.Sequence[0])
	}

	codes, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(codes) != 1 {
		t.Errorf("List() returned %d codes, want 1", len(codes))
	}
}

func TestSaveRejectsInvalidSequence(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	bad := testCode("tv", "power")
	bad.Sequence = ircodec.TimingSequence{9000, 4500}
	if err := repo.Save(context.Background(), bad); !errors.Is(err, ircodec.ErrSequenceTooShort) {
		t.Errorf("Save() error = %v, want ErrSequenceTooShort", err)
	}
}

func TestListByDevice(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, c := range []*StoredCode{
		testCode("tv", "power"),
		testCode("tv", "volume_up"),
		testCode("amp", "power"),
	} {
		if err := repo.Save(ctx, c); err != nil {
			t.Fatalf("Save(%s/%s) error = %v", c.DeviceID, c.Name, err)
		}
	}

	codes, err := repo.ListByDevice(ctx, "tv")
	if err != nil {
		t.Fatalf("ListByDevice() error = %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("ListByDevice() returned %d codes, want 2", len(codes))
	}
	if codes[0].Name != "power" || codes[1].Name != "volume_up" {
		t.Errorf("codes out of order: %s, %s", codes[0].Name, codes[1].Name)
	}
}

func TestDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, testCode("tv", "power")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Delete(ctx, "tv", "power"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "tv", "power"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrCodeNotFound", err)
	}
	if err := repo.Delete(ctx, "tv", "power"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrCodeNotFound", err)
	}
}
