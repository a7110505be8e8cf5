package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/kintai/internal/model"
)

// pgUniqueViolation はPostgreSQLのunique_violationエラーコード。
const pgUniqueViolation = "23505"

// dateFormat はDATEカラムへの受け渡しに使用する書式。
// タイムゾーン変換による日付ずれを避けるため、文字列で受け渡す。
const dateFormat = "2006-01-02"

// PostgresAttendanceRepo はPostgreSQLを使用した勤怠記録リポジトリ。
type PostgresAttendanceRepo struct {
	db *sql.DB
}

// NewPostgresAttendanceRepo はPostgresAttendanceRepoを生成する。
func NewPostgresAttendanceRepo(db *sql.DB) *PostgresAttendanceRepo {
	return &PostgresAttendanceRepo{db: db}
}

const attendanceColumns = `id, user_id, date, sign_in_time, sign_out_time, latitude, longitude, auto_signed_out, created_at, updated_at`

// FindByUserAndDate は指定ユーザー・指定日の記録を取得する。見つからない場合はnilを返す。
func (r *PostgresAttendanceRepo) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+`
		 FROM attendance_records
		 WHERE user_id = $1 AND date = $2`,
		userID, date.Format(dateFormat),
	)

	record, err := scanAttendanceRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance record: %w", err)
	}

	return record, nil
}

// Create は勤怠記録を作成する。
// (user_id, date) のユニーク制約に違反した場合はErrDuplicateRecordを返す。
func (r *PostgresAttendanceRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attendance_records
		 (id, user_id, date, sign_in_time, sign_out_time, latitude, longitude, auto_signed_out, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.UserID, record.Date.Format(dateFormat),
		record.SignInTime, record.SignOutTime,
		record.Latitude, record.Longitude, record.AutoSignedOut,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return ErrDuplicateRecord
		}
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}
	return nil
}

// Close は未サインアウトの記録にサインアウト時刻を書き込む。
// sign_out_time IS NULL の場合にのみ更新し、既に閉じられていた場合はfalseを返す。
func (r *PostgresAttendanceRepo) Close(ctx context.Context, id string, signOutTime time.Time, auto bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE attendance_records
		 SET sign_out_time = $2, auto_signed_out = $3, updated_at = now()
		 WHERE id = $1 AND sign_out_time IS NULL`,
		id, signOutTime, auto,
	)
	if err != nil {
		return false, fmt.Errorf("failed to close attendance record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListByUserAndMonth は指定ユーザーの月次記録一覧を日付降順（新しい順）で返す。
func (r *PostgresAttendanceRepo) ListByUserAndMonth(ctx context.Context, userID string, month time.Time) ([]*model.AttendanceRecord, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+`
		 FROM attendance_records
		 WHERE user_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date DESC`,
		userID, first.Format(dateFormat), next.Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []*model.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendanceRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	return records, nil
}

// ListOpenByDate は指定日の未サインアウト記録を取得する。
func (r *PostgresAttendanceRepo) ListOpenByDate(ctx context.Context, date time.Time) ([]*model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+`
		 FROM attendance_records
		 WHERE date = $1 AND sign_out_time IS NULL
		 ORDER BY sign_in_time ASC`,
		date.Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance records: %w", err)
	}
	defer rows.Close()

	var records []*model.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendanceRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate open attendance records: %w", err)
	}

	return records, nil
}

// ListAllWithUserByMonth は全ユーザーの月次記録一覧をユーザー情報付きで返す。
func (r *PostgresAttendanceRepo) ListAllWithUserByMonth(ctx context.Context, month time.Time) ([]RecordWithUser, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.date, a.sign_in_time, a.sign_out_time,
		        a.latitude, a.longitude, a.auto_signed_out, a.created_at, a.updated_at,
		        u.email, u.name
		 FROM attendance_records a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.date >= $1 AND a.date < $2
		 ORDER BY a.date ASC, u.name ASC`,
		first.Format(dateFormat), next.Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records with user: %w", err)
	}
	defer rows.Close()

	var records []RecordWithUser
	for rows.Next() {
		var rec RecordWithUser
		var signIn, signOut sql.NullTime
		err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Date, &signIn, &signOut,
			&rec.Latitude, &rec.Longitude, &rec.AutoSignedOut, &rec.CreatedAt, &rec.UpdatedAt,
			&rec.UserEmail, &rec.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record with user: %w", err)
		}
		if signIn.Valid {
			rec.SignInTime = &signIn.Time
		}
		if signOut.Valid {
			rec.SignOutTime = &signOut.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records with user: %w", err)
	}

	return records, nil
}

// rowScanner はsql.Rowとsql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAttendanceRecord は1行分の勤怠記録をスキャンする。
func scanAttendanceRecord(row rowScanner) (*model.AttendanceRecord, error) {
	record := &model.AttendanceRecord{}
	var signIn, signOut sql.NullTime
	err := row.Scan(
		&record.ID, &record.UserID, &record.Date, &signIn, &signOut,
		&record.Latitude, &record.Longitude, &record.AutoSignedOut,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if signIn.Valid {
		record.SignInTime = &signIn.Time
	}
	if signOut.Valid {
		record.SignOutTime = &signOut.Time
	}
	return record, nil
}

// compile-time interface check
var _ AttendanceRepository = (*PostgresAttendanceRepo)(nil)
