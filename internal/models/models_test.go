package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestBaseModelBeforeCreateAssignsID(t *testing.T) {
	m := &BaseModel{}
	if err := m.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate failed: %v", err)
	}
	if m.ID == uuid.Nil {
		t.Fatal("expected a generated id")
	}
}

func TestBaseModelBeforeCreateKeepsExistingID(t *testing.T) {
	preset := uuid.New()
	m := &BaseModel{ID: preset}
	if err := m.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate failed: %v", err)
	}
	if m.ID != preset {
		t.Fatalf("existing id must be preserved, got %s", m.ID)
	}
}

func TestCategoryIsSystem(t *testing.T) {
	system := Category{OwnerID: SystemOwnerID}
	if !system.IsSystem() {
		t.Fatal("system-owned category must read as system")
	}

	personal := Category{OwnerID: uuid.New()}
	if personal.IsSystem() {
		t.Fatal("user-owned category must not read as system")
	}
}

func TestAccessLogBeforeCreateFillsDefaults(t *testing.T) {
	row := &AccessLog{FileID: uuid.New(), Action: AccessActionView}
	if err := row.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate failed: %v", err)
	}
	if row.ID == uuid.Nil {
		t.Fatal("expected a generated id")
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected a timestamp")
	}
}
