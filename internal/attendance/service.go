// Package attendance は勤怠打刻のドメインロジックを提供する。
// サインイン・サインアウト・自動サインアウト走査の状態遷移を担う。
package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kintai/internal/geo"
	"github.com/hitoshi/kintai/internal/metrics"
	"github.com/hitoshi/kintai/internal/model"
	"github.com/hitoshi/kintai/internal/repository"
)

// Windows は勤怠の時刻ポリシーを表す。
// SignOutStart < AutoSignOutTime が常に成り立つ（設定ロード時に検証済み）。
type Windows struct {
	// SignInDeadline はこの時刻より後のサインインを遅刻として扱う締め切り。
	SignInDeadline model.TimeOfDay
	// SignOutStart はサインアウトが可能になる時刻。
	SignOutStart model.TimeOfDay
	// AutoSignOutTime は自動サインアウトの打刻時刻。
	// この時刻以降のサインアウトはこの時刻に切り詰めて記録する。
	AutoSignOutTime model.TimeOfDay
	// Location は営業日の判定に使用するタイムゾーン。
	Location *time.Location
}

// TodayStatus は当日の勤怠状態を表す。
type TodayStatus struct {
	// Record は当日の記録。存在しない場合はnil。
	Record *model.AttendanceRecord
	// State は導出された当日の状態。
	State model.AttendanceState
	// SignedInLate はサインインが締め切りを過ぎていたか。
	SignedInLate bool
}

// Service は勤怠打刻のサービス層。
// 状態遷移の判定はすべてここで行い、リポジトリは記録の読み書きのみを担う。
type Service struct {
	records   repository.AttendanceRepository
	validator *geo.Validator
	windows   Windows
	collector metrics.MetricsCollector
	logger    *slog.Logger

	// nowFn はテストで現在時刻を差し替えるためのフック。
	nowFn func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	records repository.AttendanceRepository,
	validator *geo.Validator,
	windows Windows,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if windows.Location == nil {
		windows.Location = time.Local
	}
	return &Service{
		records:   records,
		validator: validator,
		windows:   windows,
		collector: collector,
		logger:    logger,
		nowFn:     time.Now,
	}
}

// SignIn は当日のサインインを記録する。
// 座標検証、ジオフェンス判定、重複判定の順に行い、
// いずれかに失敗した場合は記録を作成せずAPIErrorを返す。
func (s *Service) SignIn(ctx context.Context, userID string, lat, lon float64) (*model.AttendanceRecord, error) {
	point := geo.Point{Lat: lat, Lon: lon}
	if !point.Valid() {
		return nil, s.reject(model.NewInvalidCoordinatesError())
	}

	now := s.nowFn().In(s.windows.Location)
	date := s.dateOf(now)

	existing, err := s.records.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("勤怠記録の取得に失敗しました: %w", err)
	}
	if existing != nil {
		// サインアウト済みでも当日の再サインインは許可しない。
		return nil, s.reject(model.NewAlreadySignedInError())
	}

	if !s.validator.Contains(point) {
		distance := s.validator.DistanceFrom(point)
		return nil, s.reject(model.NewLocationOutOfRangeError(distance, s.validator.RadiusMeters))
	}

	record := &model.AttendanceRecord{
		ID:         uuid.New().String(),
		UserID:     userID,
		Date:       date,
		SignInTime: &now,
		Latitude:   lat,
		Longitude:  lon,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.records.Create(ctx, record); err != nil {
		// 同時リクエストが先に記録を作成した場合はユニーク制約違反になる。
		if err == repository.ErrDuplicateRecord {
			return nil, s.reject(model.NewAlreadySignedInError())
		}
		return nil, fmt.Errorf("勤怠記録の作成に失敗しました: %w", err)
	}

	late := record.SignedInLate(s.windows.SignInDeadline)
	s.collector.RecordSignIn(late)
	s.logger.Info("サインインを記録しました",
		"user_id", userID,
		"date", date.Format("2006-01-02"),
		"late", late,
	)

	return record, nil
}

// SignOut は当日のサインアウトを記録する。
// サインアウト開始時刻前は拒否し、自動サインアウト時刻以降は
// 打刻時刻を自動サインアウト時刻に切り詰めてジオフェンス判定を省略する。
func (s *Service) SignOut(ctx context.Context, userID string, lat, lon float64) (*model.AttendanceRecord, error) {
	point := geo.Point{Lat: lat, Lon: lon}
	if !point.Valid() {
		return nil, s.reject(model.NewInvalidCoordinatesError())
	}

	now := s.nowFn().In(s.windows.Location)
	date := s.dateOf(now)

	record, err := s.records.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("勤怠記録の取得に失敗しました: %w", err)
	}
	if record == nil {
		return nil, s.reject(model.NewNoActiveSignInError())
	}
	if record.State() == model.AttendanceStateSignedOut {
		return nil, s.reject(model.NewAlreadySignedOutError())
	}

	timeOfDay := model.FromTime(now)
	if timeOfDay.Before(s.windows.SignOutStart) {
		return nil, s.reject(model.NewTooEarlyToSignOutError(s.windows.SignOutStart))
	}

	signOutTime := now
	auto := false
	if !timeOfDay.Before(s.windows.AutoSignOutTime) {
		// 自動サインアウト時刻以降は位置を問わず打刻を受け付け、
		// 時刻を自動サインアウト時刻に切り詰める。
		signOutTime = s.windows.AutoSignOutTime.On(date, s.windows.Location)
		auto = true
	} else if !s.validator.Contains(point) {
		distance := s.validator.DistanceFrom(point)
		return nil, s.reject(model.NewLocationOutOfRangeError(distance, s.validator.RadiusMeters))
	}

	// サインアウト時刻がサインイン時刻を下回らないよう保証する。
	if record.SignInTime != nil && signOutTime.Before(*record.SignInTime) {
		signOutTime = *record.SignInTime
	}

	closed, err := s.records.Close(ctx, record.ID, signOutTime, auto)
	if err != nil {
		return nil, fmt.Errorf("勤怠記録の更新に失敗しました: %w", err)
	}
	if !closed {
		// 自動サインアウト走査か並行リクエストが先に閉じた場合。
		return nil, s.reject(model.NewAlreadySignedOutError())
	}

	record.SignOutTime = &signOutTime
	record.AutoSignedOut = auto
	record.UpdatedAt = now

	s.collector.RecordSignOut(auto)
	s.logger.Info("サインアウトを記録しました",
		"user_id", userID,
		"date", date.Format("2006-01-02"),
		"auto", auto,
	)

	return record, nil
}

// Today は当日の勤怠状態を返す。記録が存在しない場合もエラーにはしない。
func (s *Service) Today(ctx context.Context, userID string) (*TodayStatus, error) {
	now := s.nowFn().In(s.windows.Location)
	date := s.dateOf(now)

	record, err := s.records.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("勤怠記録の取得に失敗しました: %w", err)
	}

	return &TodayStatus{
		Record:       record,
		State:        record.State(),
		SignedInLate: record.SignedInLate(s.windows.SignInDeadline),
	}, nil
}

// ListRecords は指定ユーザーの月次勤怠一覧を返す。
func (s *Service) ListRecords(ctx context.Context, userID string, month time.Time) ([]*model.AttendanceRecord, error) {
	records, err := s.records.ListByUserAndMonth(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("勤怠一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}

// ListAllRecords は全ユーザーの月次勤怠一覧をユーザー情報付きで返す。
// 管理者用。
func (s *Service) ListAllRecords(ctx context.Context, month time.Time) ([]repository.RecordWithUser, error) {
	records, err := s.records.ListAllWithUserByMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("全体勤怠一覧の取得に失敗しました: %w", err)
	}
	return records, nil
}

// SweepAutoSignOuts は当日の未サインアウト記録を自動サインアウト時刻で閉じる。
// 自動サインアウト時刻前に呼ばれた場合は何もしない。
// 個別の記録の更新失敗は記録して処理を継続し、閉じた件数を返す。
// 既に閉じられた記録は比較交換が失敗するだけなので、走査は何度実行しても安全。
func (s *Service) SweepAutoSignOuts(ctx context.Context, asOf time.Time) (int, error) {
	now := asOf.In(s.windows.Location)
	if model.FromTime(now).Before(s.windows.AutoSignOutTime) {
		return 0, nil
	}

	date := s.dateOf(now)
	open, err := s.records.ListOpenByDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("未サインアウト記録の取得に失敗しました: %w", err)
	}

	cutoff := s.windows.AutoSignOutTime.On(date, s.windows.Location)

	closed := 0
	for _, record := range open {
		signOutTime := cutoff
		if record.SignInTime != nil && signOutTime.Before(*record.SignInTime) {
			signOutTime = *record.SignInTime
		}

		ok, err := s.records.Close(ctx, record.ID, signOutTime, true)
		if err != nil {
			s.logger.Error("自動サインアウトの記録に失敗しました",
				"record_id", record.ID,
				"user_id", record.UserID,
				"error", err,
			)
			continue
		}
		if !ok {
			// 手動サインアウトか別の走査が先に閉じた。
			continue
		}

		closed++
		s.collector.RecordSignOut(true)
	}

	if closed > 0 {
		s.collector.RecordSweepClosed(closed)
		s.logger.Info("自動サインアウト走査が完了しました",
			"date", date.Format("2006-01-02"),
			"closed", closed,
			"scanned", len(open),
		)
	}

	return closed, nil
}

// reject は打刻拒否のメトリクスを記録してエラーをそのまま返す。
func (s *Service) reject(apiErr *model.APIError) error {
	s.collector.RecordRejection(apiErr.Code)
	return apiErr
}

// dateOf は営業日のタイムゾーンにおける日付（0時0分）を返す。
func (s *Service) dateOf(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.windows.Location)
}
