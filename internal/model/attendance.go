// Package model はドメインモデルを定義する。
package model

import "time"

// AttendanceState は1日分の勤怠記録の状態を表す。
type AttendanceState string

const (
	// AttendanceStateNone は当日の記録が存在しない状態。
	AttendanceStateNone AttendanceState = "none"
	// AttendanceStateSignedIn はサインイン済み・サインアウト前の状態。
	AttendanceStateSignedIn AttendanceState = "signed_in"
	// AttendanceStateSignedOut はサインアウト済みの終端状態。
	// 当日中に再度サインイン/サインアウトすることはできない。
	AttendanceStateSignedOut AttendanceState = "signed_out"
)

// AttendanceRecord は1ユーザー・1日の勤怠記録を表す。
// (user_id, date) の組につき最大1件のみ存在する。
// sign_out_time は sign_in_time が存在する場合にのみ設定され、
// 一度設定されたら上書きされない。
type AttendanceRecord struct {
	ID     string
	UserID string
	// Date は記録の対象日。作成時に確定し、以後変更されない。
	Date time.Time
	// SignInTime はサインイン時刻。記録はサインイン成功時にのみ作成されるため
	// 通常は必ず設定されているが、永続層の不整合に備えてポインタで扱う。
	SignInTime *time.Time
	// SignOutTime はサインアウト時刻。未サインアウトの場合はnil。
	SignOutTime *time.Time
	// Latitude / Longitude はサインイン時に記録した位置。作成後は変更されない。
	Latitude  float64
	Longitude float64
	// AutoSignedOut はサインアウトがシステムによる強制打刻だった場合にtrue。
	AutoSignedOut bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// State は記録の現在の状態を返す。
func (r *AttendanceRecord) State() AttendanceState {
	if r == nil || r.SignInTime == nil {
		return AttendanceStateNone
	}
	if r.SignOutTime != nil {
		return AttendanceStateSignedOut
	}
	return AttendanceStateSignedIn
}

// SignedInLate はサインイン時刻が締め切りを過ぎていたかを返す。
// 記録には保存せず、参照のたびに導出する。
func (r *AttendanceRecord) SignedInLate(deadline TimeOfDay) bool {
	if r == nil || r.SignInTime == nil {
		return false
	}
	return FromTime(*r.SignInTime).After(deadline)
}
