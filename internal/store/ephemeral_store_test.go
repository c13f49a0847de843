package store_test

import (
	"testing"

	"deaddrop/internal/domain"
	"deaddrop/internal/store"
)

func TestEphemeral_SaveListConsume(t *testing.T) {
	var es domain.EphemeralKeyStore = store.NewEphemeralFileStore(t.TempDir(), "pass", fastKDF())

	recs := []domain.EphemeralKeyRecord{
		{ID: "a", Public: domain.Point{1}, Private: domain.Scalar{1}},
		{ID: "b", Public: domain.Point{2}, Private: domain.Scalar{2}},
		{ID: "c", Public: domain.Point{3}, Private: domain.Scalar{3}},
	}
	if err := es.SaveEphemeralKeys(0, recs); err != nil {
		t.Fatalf("save: %v", err)
	}

	ok, err := es.ConsumeEphemeralKey(0, "b")
	if err != nil || !ok {
		t.Fatalf("consume b: ok=%v err=%v", ok, err)
	}
	ok, err = es.ConsumeEphemeralKey(0, "b")
	if err != nil || ok {
		t.Fatalf("second consume of b: ok=%v err=%v", ok, err)
	}

	got, err := es.ListEphemeralKeys(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected pool after consume: %+v", got)
	}
	if got[1].Private != recs[2].Private {
		t.Fatalf("private half not preserved")
	}
}

func TestEphemeral_PoolsArePerJournalist(t *testing.T) {
	es := store.NewEphemeralFileStore(t.TempDir(), "pass", fastKDF())

	if err := es.SaveEphemeralKeys(0, []domain.EphemeralKeyRecord{{ID: "x"}}); err != nil {
		t.Fatal(err)
	}
	got, err := es.ListEphemeralKeys(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("journalist 1 should have no keys, got %d", len(got))
	}
}

func TestEphemeral_WrongPassphrase_Fails(t *testing.T) {
	dir := t.TempDir()
	if err := store.NewEphemeralFileStore(dir, "right", fastKDF()).SaveEphemeralKeys(0, []domain.EphemeralKeyRecord{{ID: "x"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.NewEphemeralFileStore(dir, "wrong", fastKDF()).ListEphemeralKeys(0); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}
