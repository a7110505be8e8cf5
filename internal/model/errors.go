// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 勤怠ステートマシンの却下結果はすべてこの型で表現し、
// panicや未分類のエラーとして伝播させない。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, attendance, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeLocationOutOfRange = "LOCATION_OUT_OF_RANGE"
	ErrCodeAlreadySignedIn    = "ALREADY_SIGNED_IN"
	ErrCodeNoActiveSignIn     = "NO_ACTIVE_SIGN_IN"
	ErrCodeAlreadySignedOut   = "ALREADY_SIGNED_OUT"
	ErrCodeTooEarlyToSignOut  = "TOO_EARLY_TO_SIGN_OUT"
	ErrCodeInvalidCoordinates = "INVALID_COORDINATES"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeForbidden          = "FORBIDDEN"
)

// NewLocationOutOfRangeError は勤務地ジオフェンス外エラーを生成する。
func NewLocationOutOfRangeError(distanceMeters, radiusMeters float64) *APIError {
	return &APIError{
		Code:     ErrCodeLocationOutOfRange,
		Message:  fmt.Sprintf("勤務地から%.0fm離れています（許容範囲: %.0fm）。", distanceMeters, radiusMeters),
		Category: "attendance",
		Action:   "勤務地の近くで再度お試しください。",
	}
}

// NewAlreadySignedInError は当日すでにサインイン済みのエラーを生成する。
func NewAlreadySignedInError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySignedIn,
		Message:  "本日はすでにサインイン済みです。",
		Category: "attendance",
		Action:   "サインインは1日1回のみです。",
	}
}

// NewNoActiveSignInError は当日のサインイン記録が存在しないエラーを生成する。
func NewNoActiveSignInError() *APIError {
	return &APIError{
		Code:     ErrCodeNoActiveSignIn,
		Message:  "本日のサインイン記録が見つかりません。",
		Category: "attendance",
		Action:   "先にサインインしてください。",
	}
}

// NewAlreadySignedOutError は当日すでにサインアウト済みのエラーを生成する。
func NewAlreadySignedOutError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySignedOut,
		Message:  "本日はすでにサインアウト済みです。",
		Category: "attendance",
		Action:   "サインアウトは1日1回のみです。",
	}
}

// NewTooEarlyToSignOutError はサインアウト可能時刻前のエラーを生成する。
func NewTooEarlyToSignOutError(start TimeOfDay) *APIError {
	return &APIError{
		Code:     ErrCodeTooEarlyToSignOut,
		Message:  fmt.Sprintf("サインアウトは%sから可能です。", start),
		Category: "attendance",
		Action:   "サインアウト開始時刻以降に再度お試しください。",
	}
}

// NewInvalidCoordinatesError は不正な座標入力のエラーを生成する。
// NaN・無限大・範囲外の緯度経度は状態を読み取る前に却下する。
func NewInvalidCoordinatesError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCoordinates,
		Message:  "位置情報が不正です。",
		Category: "validation",
		Action:   "位置情報の利用を許可し、再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewForbiddenError は権限不足のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}
