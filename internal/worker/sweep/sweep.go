// Package sweep は未サインアウト記録の自動クローズ処理を提供する。
// 一定間隔で勤怠サービスの走査を呼び出すバックグラウンドワーカー。
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/kintai/internal/metrics"
)

// AutoSignOutService は自動サインアウト走査の実行インターフェース。
type AutoSignOutService interface {
	// SweepAutoSignOuts は指定時刻を基準に未サインアウト記録を閉じ、件数を返す。
	SweepAutoSignOuts(ctx context.Context, asOf time.Time) (int, error)
}

// Sweeper は自動サインアウト走査のスケジューリングを行う。
// 走査自体が冪等なため、間隔や多重起動を厳密に制御する必要はない。
type Sweeper struct {
	service   AutoSignOutService
	collector metrics.MetricsCollector
	logger    *slog.Logger

	// nowFn はテストで現在時刻を差し替えるためのフック。
	nowFn func() time.Time
}

// NewSweeper はSweeperの新しいインスタンスを生成する。
func NewSweeper(service AutoSignOutService, collector metrics.MetricsCollector, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		service:   service,
		collector: collector,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// Start は指定間隔のティッカーでワーカーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("自動サインアウトワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("自動サインアウト走査に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("自動サインアウトワーカーを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("自動サインアウト走査に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は走査を1回実行し、所要時間と閉じた件数を記録する。
func (s *Sweeper) RunOnce(ctx context.Context) error {
	start := s.nowFn()

	closed, err := s.service.SweepAutoSignOuts(ctx, start)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	s.collector.RecordSweepDuration(duration)

	if closed > 0 {
		s.logger.Info("自動サインアウト走査が完了しました",
			slog.Int("closed", closed),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
	}

	return nil
}
