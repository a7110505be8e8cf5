package model

import (
	"fmt"
	"time"
)

// TimeOfDay は日付に依存しない壁時計時刻（時・分）を表す。
// サインイン締め切りやサインアウト開始時刻など、勤怠の時間帯判定に使用する。
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay は"15:04"形式の文字列からTimeOfDayを生成する。
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// FromTime はタイムスタンプの壁時計部分を取り出す。
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes は0:00からの経過分数を返す。
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before はtがoより前かを返す。
func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Minutes() < o.Minutes()
}

// After はtがoより後かを返す。同時刻はfalse。
func (t TimeOfDay) After(o TimeOfDay) bool {
	return t.Minutes() > o.Minutes()
}

// On は指定日の指定タイムゾーンにおける時刻へ変換する。
// 強制サインアウトの打刻時刻（カットオフへのクランプ）の算出に使用する。
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// String は"15:04"形式の文字列を返す。
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
