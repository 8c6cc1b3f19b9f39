package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashStorePutGet(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "chessplay-hashstore-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	hs, err := Open(filepath.Join(tmpDir, "hashdb"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer hs.Close()

	const posHash = uint64(0x0123456789abcdef)

	if _, found := hs.Get(posHash); found {
		t.Error("expected miss before any Put")
	}

	entry := Entry{Depth: 18, Score: -123, Eval: 45, Bound: 1, BestMove: 0xABCD}
	if err := hs.Put(posHash, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found := hs.Get(posHash)
	if !found {
		t.Fatal("expected hit after Put")
	}
	if got.Depth != entry.Depth || got.Score != entry.Score || got.Eval != entry.Eval ||
		got.Bound != entry.Bound || got.BestMove != entry.BestMove {
		t.Errorf("round-trip mismatch: got %+v, want depth/score/eval/bound/move from %+v", got, entry)
	}
}

func TestHashStoreKeyDistinctPerHash(t *testing.T) {
	a := key(1)
	b := key(2)
	if string(a) == string(b) {
		t.Error("expected distinct keys for distinct position hashes")
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}
	t.Logf("Data directory: %s", dataDir)
}
