package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

type mockReconciler struct {
	deleted int64
	err     error
	calls   int
}

func (m *mockReconciler) DeleteSettledCartLines(ctx context.Context) (int64, error) {
	m.calls++
	return m.deleted, m.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func TestReconcileJob_Run_LogsDeletedCount(t *testing.T) {
	var buf bytes.Buffer
	reconciler := &mockReconciler{deleted: 3}
	recorder := &mockRecorder{}
	job := NewReconcileJob(reconciler, recorder, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if reconciler.calls != 1 {
		t.Errorf("calls = %d, want 1", reconciler.calls)
	}
	if recorder.cleared != 3 {
		t.Errorf("cleared metric = %d, want 3", recorder.cleared)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v\nraw: %s", err, buf.String())
	}
	if count, ok := entry["deleted_count"].(float64); !ok || count != 3 {
		t.Errorf("deleted_count = %v, want 3", entry["deleted_count"])
	}
}

func TestReconcileJob_Run_NothingToDo(t *testing.T) {
	var buf bytes.Buffer
	recorder := &mockRecorder{}
	job := NewReconcileJob(&mockReconciler{}, recorder, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if recorder.cleared != 0 {
		t.Errorf("cleared metric = %d, want 0", recorder.cleared)
	}
}

func TestReconcileJob_Run_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	job := NewReconcileJob(&mockReconciler{err: errors.New("connection refused")}, nil, newTestLogger(&buf))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run")
	}
	if job.Name() != "settlement_reconcile" {
		t.Errorf("Name = %q", job.Name())
	}
}
