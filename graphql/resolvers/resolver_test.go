package resolvers

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"remanerp/core/alerts"
	partEntity "remanerp/model/entity/part"
	stockEntity "remanerp/model/entity/stock"
	stockSvc "remanerp/service/stock"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&partEntity.Part{}, &stockEntity.Movement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedPart(t *testing.T, db *gorm.DB, orgID uint, code string, qty int64) *partEntity.Part {
	t.Helper()
	p := &partEntity.Part{OrgID: orgID, Code: code, Name: "part " + code, Quantity: qty, IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed part: %v", err)
	}
	return p
}

func TestPartsCachedUntilMovementCommits(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	const orgID = uint(41)
	part := seedPart(t, db, orgID, "PST-041", 10)
	r := NewResolver(db, orgID)

	first, err := r.Parts(ctx, "")
	if err != nil {
		t.Fatalf("parts: %v", err)
	}
	if len(first) != 1 || first[0].Quantity != 10 {
		t.Fatalf("parts = %+v", first)
	}

	// A write that bypasses the ledger must be invisible: the resolver
	// serves the cached projection.
	if err := db.Model(part).Update("quantity", 99).Error; err != nil {
		t.Fatalf("raw update: %v", err)
	}
	cached, err := r.Parts(ctx, "")
	if err != nil {
		t.Fatalf("parts cached: %v", err)
	}
	if cached[0].Quantity != 10 {
		t.Fatalf("expected cached quantity 10, got %d", cached[0].Quantity)
	}

	// Recording a movement invalidates the org's parts tag post-commit.
	svc, err := stockSvc.NewService(db, alerts.New())
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	if _, _, err := svc.RecordMovement(ctx, orgID, 7, stockSvc.MovementInput{PartID: part.PartID, Type: stockEntity.TypeEntry, Quantity: 5}); err != nil {
		t.Fatalf("record movement: %v", err)
	}
	fresh, err := r.Parts(ctx, "")
	if err != nil {
		t.Fatalf("parts fresh: %v", err)
	}
	if fresh[0].Quantity != 104 {
		t.Fatalf("expected fresh quantity 104, got %d", fresh[0].Quantity)
	}
}

func TestPartCacheScopedByOrg(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedPart(t, db, 51, "VLV-051", 3)
	seedPart(t, db, 52, "VLV-051", 8)

	p1, err := NewResolver(db, 51).Part(ctx, "VLV-051")
	if err != nil {
		t.Fatalf("org 51: %v", err)
	}
	p2, err := NewResolver(db, 52).Part(ctx, "VLV-051")
	if err != nil {
		t.Fatalf("org 52: %v", err)
	}
	if p1.Quantity != 3 || p2.Quantity != 8 {
		t.Fatalf("quantities = %d, %d", p1.Quantity, p2.Quantity)
	}
}
