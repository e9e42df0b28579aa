//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chachabrian/carpool-backend/internal/database"
	"github.com/chachabrian/carpool-backend/internal/models"
)

// Run with: TEST_DATABASE_DSN=postgres://... go test -tags integration ./internal/repository/
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, repo *Repository, name string) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.NewString(), FirstName: name, Email: uuid.NewString() + "@example.test"}
	if err := repo.User.Upsert(context.Background(), u); err != nil {
		t.Fatalf("upsert %s: %v", name, err)
	}
	return u
}

func TestRequestClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))

	driverA := seedUser(t, repo, "Ana")
	driverB := seedUser(t, repo, "Ben")
	parent := seedUser(t, repo, "Cal")

	group := &models.Group{Name: "Maple Elementary"}
	if err := repo.Group.Create(ctx, group, parent.ID); err != nil {
		t.Fatal(err)
	}

	req := &models.Request{
		ParentID:        parent.ID,
		GroupID:         group.ID,
		StartingAddress: "1 Elm St",
		EndingAddress:   "Maple Elementary",
		PickupTime:      time.Now().Add(time.Hour).UTC(),
	}
	if err := repo.Request.Create(ctx, req); err != nil {
		t.Fatal(err)
	}

	newCarpool := func(driver *models.User) *models.Carpool {
		v := &models.Vehicle{UserID: driver.ID, Make: "Honda", Model: "Odyssey", Seats: 7}
		if err := repo.Vehicle.Create(ctx, v); err != nil {
			t.Fatal(err)
		}
		c := &models.Carpool{
			DriverID:      driver.ID,
			VehicleID:     v.ID,
			GroupID:       group.ID,
			StartAddress:  "1 Elm St",
			EndAddress:    "Maple Elementary",
			DepartureDate: "2026-10-20",
			DepartureTime: "08:00",
		}
		if err := repo.Carpool.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
		return c
	}
	first := newCarpool(driverA)
	second := newCarpool(driverB)

	ok, err := repo.Request.ClaimForCarpool(ctx, req.ID, first.ID)
	if err != nil || !ok {
		t.Fatalf("first claim ok=%v err=%v", ok, err)
	}
	ok, err = repo.Request.ClaimForCarpool(ctx, req.ID, first.ID)
	if err != nil || !ok {
		t.Fatalf("re-claim by same carpool ok=%v err=%v", ok, err)
	}
	ok, err = repo.Request.ClaimForCarpool(ctx, req.ID, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second carpool stole an absorbed request")
	}

	got, err := repo.Request.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CarpoolID == nil || *got.CarpoolID != first.ID || !got.IsApproved {
		t.Fatalf("request = %+v", got)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))
	id := uuid.NewString()

	_ = repo.Tx.Transaction(ctx, func(tx *Repository) error {
		if err := tx.User.Upsert(ctx, &models.User{ID: id, FirstName: "Dee", Email: id + "@example.test"}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})

	if _, err := repo.User.GetByID(ctx, id); err == nil {
		t.Fatal("user survived a rolled back transaction")
	}
}
