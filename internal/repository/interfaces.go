// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/kintai/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、attendance_recordsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// AttendanceRepository は勤怠記録の永続化インターフェース。
type AttendanceRepository interface {
	// FindByUserAndDate は指定ユーザー・指定日の記録を取得する。
	// 見つからない場合はnilを返す。
	FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.AttendanceRecord, error)

	// Create は勤怠記録を作成する。
	// (user_id, date) のユニーク制約に違反した場合はErrDuplicateRecordを返す。
	Create(ctx context.Context, record *model.AttendanceRecord) error

	// Close は未サインアウトの記録にサインアウト時刻を書き込む。
	// sign_out_time IS NULL の場合にのみ更新する比較交換であり、
	// 既に閉じられていた場合はfalseを返す。一度閉じた記録は二度と変更されない。
	Close(ctx context.Context, id string, signOutTime time.Time, auto bool) (bool, error)

	// ListByUserAndMonth は指定ユーザーの月次記録一覧を日付昇順で返す。
	// monthは対象月の任意の時刻でよく、年月のみが使用される。
	ListByUserAndMonth(ctx context.Context, userID string, month time.Time) ([]*model.AttendanceRecord, error)

	// ListOpenByDate は指定日の未サインアウト記録を取得する。
	// 自動サインアウト処理の走査対象となる。
	ListOpenByDate(ctx context.Context, date time.Time) ([]*model.AttendanceRecord, error)

	// ListAllWithUserByMonth は全ユーザーの月次記録一覧をユーザー情報付きで返す。
	// 管理者用の一覧取得に使用する。日付昇順、同日内はユーザー名昇順。
	ListAllWithUserByMonth(ctx context.Context, month time.Time) ([]RecordWithUser, error)
}

// RecordWithUser は勤怠記録とユーザー情報を結合した構造体。
type RecordWithUser struct {
	model.AttendanceRecord
	UserEmail string
	UserName  string
}
