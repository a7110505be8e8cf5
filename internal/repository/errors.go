package repository

import "errors"

// ErrDuplicateRecord は (user_id, date) のユニーク制約違反を表す。
// 同一ユーザーが同日に2回サインインしようとした場合に返る。
var ErrDuplicateRecord = errors.New("repository: duplicate attendance record")
