package database

import (
	"path/filepath"
	"testing"

	"github.com/Sarita-021/mediSyncAI-App/internal/model"
)

func TestInitDBSqliteMigrates(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "usage.db")
	db, err := InitDB("sqlite", dsn)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	if !db.Migrator().HasTable(&model.ModelUsage{}) {
		t.Fatalf("expected model_usages table to exist")
	}
}
