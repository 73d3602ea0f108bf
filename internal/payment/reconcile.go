package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/foodcapital/internal/repository"
)

// CartLinesClearedRecorder は照合で削除したカート行数の記録先。
type CartLinesClearedRecorder interface {
	RecordCartLinesCleared(count int64)
}

// ReconcileJob は決済記録が参照しているのに残っているカート行を削除するジョブ。
// 決済確定でカート削除だけが失敗した行を、クライアントの再試行なしに回収する。
// 冪等: 削除対象がない場合でもエラーにならない。
type ReconcileJob struct {
	reconciler repository.SettlementReconciler
	recorder   CartLinesClearedRecorder
	logger     *slog.Logger
}

// NewReconcileJob は新しいReconcileJobを生成する。recorderはnilでもよい。
func NewReconcileJob(reconciler repository.SettlementReconciler, recorder CartLinesClearedRecorder, logger *slog.Logger) *ReconcileJob {
	return &ReconcileJob{
		reconciler: reconciler,
		recorder:   recorder,
		logger:     logger,
	}
}

// Name はジョブ名を返す。
func (j *ReconcileJob) Name() string {
	return "settlement_reconcile"
}

// Run は照合を1回実行する。
func (j *ReconcileJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.reconciler.DeleteSettledCartLines(ctx)
	if err != nil {
		j.logger.Error("決済済みカート行の照合に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("決済済みカート行の照合に失敗: %w", err)
	}

	if j.recorder != nil && deleted > 0 {
		j.recorder.RecordCartLinesCleared(deleted)
	}

	j.logger.Info("決済済みカート行の照合が完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}
