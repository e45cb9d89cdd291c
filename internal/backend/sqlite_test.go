package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paglaumhub/reliefmap/internal/models"
)

func setupTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_InsertAssignsAuthoritativeID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pending := models.HelpRequest{
		ID:       "local-abc",
		Need:     "water",
		Name:     "Ana",
		Barangay: "Lahug",
		Urgency:  models.UrgencyHigh,
		Pending:  true,
	}

	confirmed, err := db.Requests().Insert(ctx, pending)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if confirmed.ID == "" || confirmed.ID == "local-abc" {
		t.Errorf("expected a server-assigned id, got %q", confirmed.ID)
	}
	if confirmed.Pending {
		t.Error("confirmed record must not be pending")
	}
	if confirmed.CreatedAt.IsZero() {
		t.Error("confirmed record must carry created_at")
	}
}

func TestSQLite_SelectAllNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := db.Requests()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i, need := range []string{"water", "food", "rescue"} {
		_, err := svc.Insert(ctx, models.HelpRequest{
			Need: need, Name: "Ana", Barangay: "Lahug",
			Urgency:   models.UrgencyMedium,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	recs, err := svc.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Need != "rescue" || recs[2].Need != "water" {
		t.Errorf("expected newest first, got %s .. %s", recs[0].Need, recs[2].Need)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].CreatedAt.After(recs[i-1].CreatedAt) {
			t.Errorf("records out of order at %d", i)
		}
	}
}

func TestSQLite_UpdateMergesMutableFieldsOnly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := db.Shelters()

	confirmed, err := svc.Insert(ctx, models.Shelter{
		Name: "Lahug Gym", Barangay: "Lahug",
		Capacity: "200", Status: models.ShelterAvailable,
		Coords: &models.Coordinates{Lat: 10.33, Lng: 123.9},
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	patch := models.Shelter{Name: "SHOULD NOT STICK", Status: models.ShelterFull, Capacity: "250"}
	if err := svc.Update(ctx, confirmed.ID, patch); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	recs, err := svc.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	got := recs[0]
	if got.Status != models.ShelterFull || got.Capacity != "250" {
		t.Errorf("mutable fields not applied: %+v", got)
	}
	if got.Name != "Lahug Gym" {
		t.Errorf("immutable field overwritten: %q", got.Name)
	}
	if got.Coords == nil || got.Coords.Lat != 10.33 {
		t.Errorf("coordinates must survive update: %+v", got.Coords)
	}
}

func TestSQLite_UpdateMissingIsNotFound(t *testing.T) {
	db := setupTestDB(t)

	err := db.Requests().Update(context.Background(), "nope", models.HelpRequest{Urgency: models.UrgencyLow})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_DeleteAbsentIsNoOp(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Requests().Delete(context.Background(), "nope"); err != nil {
		t.Fatalf("deleting an absent id must not error: %v", err)
	}
}

func TestSQLite_WritesReachSubscribers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := db.Requests()

	sub, err := svc.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	confirmed, err := svc.Insert(ctx, models.HelpRequest{
		Need: "water", Name: "Ana", Barangay: "Lahug", Urgency: models.UrgencyHigh,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := svc.Delete(ctx, confirmed.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	wantOps := []models.Op{models.OpInsert, models.OpDelete}
	for _, want := range wantOps {
		select {
		case ev := <-sub.Events():
			if ev.Op != want {
				t.Errorf("expected op %s, got %s", want, ev.Op)
			}
			if ev.Record.EntityID() != confirmed.ID {
				t.Errorf("expected id %s, got %s", confirmed.ID, ev.Record.EntityID())
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s event", want)
		}
	}
}

func TestSQLite_KindsAreIsolated(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.Requests().Insert(ctx, models.HelpRequest{
		Need: "water", Name: "Ana", Barangay: "Lahug", Urgency: models.UrgencyHigh,
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	shelters, err := db.Shelters().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(shelters) != 0 {
		t.Errorf("expected no shelters, got %d", len(shelters))
	}
}
