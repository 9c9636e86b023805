// Package sqlitetest provides in-memory CRM stores seeded with fixture rows, for tests of
// packages that read from db.Store.
package sqlitetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/db/sqlite"
)

// NewStore opens an in-memory SQLite database with the CRM tables created. The database is
// closed when the test completes.
func NewStore(t testing.TB) sqlite.SQLiteDB {
	t.Helper()

	ctx := context.Background()

	store, err := sqlite.NewSQLiteDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.CreateTables(ctx, db.CRMSchema))
	return store
}

type Seeder struct {
	t     testing.TB
	store sqlite.SQLiteDB
}

func NewSeeder(t testing.TB, store sqlite.SQLiteDB) Seeder {
	return Seeder{t: t, store: store}
}

// User inserts a user and returns its ID.
func (seeder Seeder) User(name string, role string) string {
	seeder.t.Helper()

	id := uuid.NewString()
	seeder.insert(db.TableUsers, db.Row{
		"id":         id,
		"name":       name,
		"email":      name + "@example.com",
		"role":       role,
		"created_at": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	return id
}

type Lead struct {
	Name       string
	Status     string
	BookerID   string
	AssignedAt time.Time
	BookedAt   time.Time
}

// Lead inserts a lead and returns its ID. Zero times and an empty booker ID are stored as NULL.
func (seeder Seeder) Lead(lead Lead) string {
	seeder.t.Helper()

	id := uuid.NewString()
	row := db.Row{
		"id":         id,
		"name":       lead.Name,
		"status":     lead.Status,
		"created_at": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if row["name"] == "" {
		row["name"] = "Lead " + id[:8]
	}
	if lead.BookerID != "" {
		row["booker_id"] = lead.BookerID
	}
	if !lead.AssignedAt.IsZero() {
		row["assigned_at"] = lead.AssignedAt
	}
	if !lead.BookedAt.IsZero() {
		row["booked_at"] = lead.BookedAt
	}

	seeder.insert(db.TableLeads, row)
	return id
}

// Sale inserts a sale for the given lead and returns its ID.
func (seeder Seeder) Sale(leadID string, amount float64, createdAt time.Time) string {
	seeder.t.Helper()

	id := uuid.NewString()
	seeder.insert(db.TableSales, db.Row{
		"id":         id,
		"lead_id":    leadID,
		"amount":     amount,
		"created_at": createdAt,
	})
	return id
}

func (seeder Seeder) insert(table string, row db.Row) {
	seeder.t.Helper()
	require.NoError(seeder.t, seeder.store.InsertRows(context.Background(), table, row))
}
