package monitoring

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestArtifactWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "trained_model.json")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(model, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	watcher, err := NewArtifactWatcher(zap.NewNop(), model)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	if err := os.WriteFile(other, []byte("ignored"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(model, []byte(`{"type":"logistic_regression"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case changed := <-watcher.Changes():
		if filepath.Base(changed) != "trained_model.json" {
			t.Fatalf("unexpected change reported: %s", changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}
