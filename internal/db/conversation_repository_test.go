package db

import (
	"fmt"
	"sync"
	"testing"
)

func TestFindOrCreateNewPair(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	conv, err := repo.FindOrCreate("+17185551234", "+15135559999", "50004", "4.07")
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if conv.ID == 0 {
		t.Error("expected an assigned row id")
	}
	if conv.BankID != "50004" || conv.SimPort != "4.07" {
		t.Errorf("conv = %+v", conv)
	}
	if conv.ThreadRef != nil {
		t.Error("thread ref must be nil until the first post succeeds")
	}
}

func TestFindOrCreateExistingPairKeepsOriginalMetadata(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	first, err := repo.FindOrCreate("+17185551234", "+15135559999", "50004", "4.07")
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}

	second, err := repo.FindOrCreate("+17185551234", "+15135559999", "50005", "1.01")
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected the same row, got ids %d and %d", first.ID, second.ID)
	}
	if second.BankID != "50004" {
		t.Errorf("bank id = %q, existing row must win", second.BankID)
	}
}

// At-most-one conversation per pair: concurrent FindOrCreate calls with the
// same pair and differing metadata converge on a single row.
func TestFindOrCreateConcurrent(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	const n = 16
	ids := make([]int64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := repo.FindOrCreate("+17185551234", "+15135559999", fmt.Sprintf("bank-%d", i), "4.07")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("call %d returned id %d, call 0 returned %d", i, ids[i], ids[0])
		}
	}
}

func TestFindOrCreateDifferentPairsAreDistinct(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	a, err := repo.FindOrCreate("+17185551234", "+15135559999", "50004", "4.07")
	if err != nil {
		t.Fatal(err)
	}
	b, err := repo.FindOrCreate("+15135559999", "+17185551234", "50004", "4.07")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Error("reversed pair must be a distinct conversation")
	}
}

func TestUpdateThreadRef(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	conv, err := repo.FindOrCreate("+17185551234", "+15135559999", "50004", "4.07")
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.UpdateThreadRef(conv.ID, "thread-123"); err != nil {
		t.Fatalf("UpdateThreadRef() error = %v", err)
	}

	got, err := repo.GetByID(conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ThreadRef == nil || *got.ThreadRef != "thread-123" {
		t.Errorf("thread ref = %v, want thread-123", got.ThreadRef)
	}
}

func TestUpdateICCID(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	conv, err := repo.FindOrCreate("+17185551234", "+15135559999", "50004", "4.07")
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.UpdateICCID(conv.ID, "8901260123456789012"); err != nil {
		t.Fatalf("UpdateICCID() error = %v", err)
	}

	got, _ := repo.GetByID(conv.ID)
	if got.ICCID == nil || *got.ICCID != "8901260123456789012" {
		t.Errorf("iccid = %v", got.ICCID)
	}
}

func TestUpdateMissingConversation(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	if err := repo.Touch(12345); err == nil {
		t.Error("Touch on a missing row must fail")
	}
}

func TestGetByPairAbsent(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	conv, err := repo.GetByPair("+10000000000", "+10000000001")
	if err != nil {
		t.Fatalf("GetByPair() error = %v", err)
	}
	if conv != nil {
		t.Errorf("expected nil for absent pair, got %+v", conv)
	}
}

func TestFindLatestByPhone(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConversationRepository(db)

	older, err := repo.FindOrCreate("+17185551234", "+15135559999", "50004", "4.07")
	if err != nil {
		t.Fatal(err)
	}
	newer, err := repo.FindOrCreate("+17185551234", "+15135550000", "50004", "4.08")
	if err != nil {
		t.Fatal(err)
	}

	// Force distinct last_activity values.
	if _, err := db.Exec(`UPDATE conversations SET last_activity = last_activity - 100 WHERE id = ?`, older.ID); err != nil {
		t.Fatal(err)
	}

	got, err := repo.FindLatestByPhone("+17185551234")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != newer.ID {
		t.Errorf("FindLatestByPhone() = %+v, want conversation %d", got, newer.ID)
	}
}
