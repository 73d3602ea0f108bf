// Package worker はバックグラウンドジョブの定期実行を提供する。
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job は定期実行されるジョブ。
type Job interface {
	// Name はログ出力に使うジョブ名を返す。
	Name() string
	// Run はジョブを1回実行する。冪等であること。
	Run(ctx context.Context) error
}

// Scheduler は登録されたジョブを一定間隔で実行する。
// 1サイクル内のジョブは並列に実行し、全ジョブの完了を待ってから次のサイクルに進む。
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		logger: logger,
	}
}

// Start はintervalごとにジョブを実行する。起動直後にも1回実行する。
// コンテキストがキャンセルされるまで戻らない。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("ジョブスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("job_count", len(s.jobs)),
	)

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ジョブスケジューラを停止しました")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は全ジョブを1回ずつ実行し、失敗したジョブの数を返す。
// 1つのジョブの失敗は他のジョブの実行を妨げない。
func (s *Scheduler) RunOnce(ctx context.Context) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	for _, job := range s.jobs {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()

			if err := j.Run(ctx); err != nil {
				s.logger.Error("ジョブの実行に失敗しました",
					slog.String("job", j.Name()),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(job)
	}

	wg.Wait()
	return failed
}
