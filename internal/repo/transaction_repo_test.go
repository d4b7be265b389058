package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shemnduati/AiImageApp/internal/domain"
)

func newTxDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("transaction_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Transaction{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreatePendingTransaction_Defaults(t *testing.T) {
	db := newTxDB(t)

	tx, err := CreatePendingTransaction(context.Background(), db, "u1", "pi_123", 50, 9.99, "USD")
	if err != nil {
		t.Fatalf("CreatePendingTransaction: %v", err)
	}
	if tx.Status != domain.TxPending {
		t.Fatalf("expected pending, got %q", tx.Status)
	}
	if tx.Currency != "usd" {
		t.Fatalf("currency not lowercased: %q", tx.Currency)
	}
	if tx.PaidAt != nil {
		t.Fatalf("PaidAt must be unset at creation: %v", tx.PaidAt)
	}

	var got domain.Transaction
	if err := db.First(&got, "id = ?", tx.ID).Error; err != nil {
		t.Fatalf("load created tx: %v", err)
	}
	if got.CreditsAmount != 50 || got.AmountPaid != 9.99 || got.UserID != "u1" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreatePendingTransaction_DuplicateIntent(t *testing.T) {
	db := newTxDB(t)

	if _, err := CreatePendingTransaction(context.Background(), db, "u1", "pi_dup", 10, 1.99, "usd"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// payment_intent_id is unique: one intent maps to one transaction, ever.
	if _, err := CreatePendingTransaction(context.Background(), db, "u2", "pi_dup", 10, 1.99, "usd"); err == nil {
		t.Fatalf("expected unique constraint violation")
	}
}

func TestFindPendingTransaction_FoundAndUnknown(t *testing.T) {
	db := newTxDB(t)

	seeded, err := CreatePendingTransaction(context.Background(), db, "u1", "pi_find", 25, 4.99, "usd")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := FindPendingTransaction(context.Background(), db, "pi_find")
	if err != nil {
		t.Fatalf("FindPendingTransaction: %v", err)
	}
	if got.ID != seeded.ID {
		t.Fatalf("wrong row: %+v", got)
	}

	if _, err := FindPendingTransaction(context.Background(), db, "pi_unknown"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestMarkTransactionCompleted_FlipsExactlyOnce(t *testing.T) {
	db := newTxDB(t)

	seeded, err := CreatePendingTransaction(context.Background(), db, "u1", "pi_once", 100, 19.99, "usd")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	done, err := MarkTransactionCompleted(context.Background(), db, seeded.ID)
	if err != nil {
		t.Fatalf("MarkTransactionCompleted: %v", err)
	}
	if done.Status != domain.TxCompleted {
		t.Fatalf("expected completed, got %q", done.Status)
	}
	if done.PaidAt == nil {
		t.Fatalf("PaidAt not stamped")
	}

	// The status guard makes a second flip a no-op.
	if _, err := MarkTransactionCompleted(context.Background(), db, seeded.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found on second flip, got %v", err)
	}

	// A completed row is invisible to the pending lookup, so a redelivered
	// callback finds nothing to do.
	if _, err := FindPendingTransaction(context.Background(), db, "pi_once"); !IsNotFound(err) {
		t.Fatalf("completed tx still visible as pending: %v", err)
	}
}

func TestMarkTransactionCompleted_UnknownID(t *testing.T) {
	db := newTxDB(t)
	if _, err := MarkTransactionCompleted(context.Background(), db, "ghost"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
