package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/kintai/internal/attendance"
	"github.com/hitoshi/kintai/internal/middleware"
	"github.com/hitoshi/kintai/internal/model"
)

// monthParamFormat は月指定クエリパラメータの形式。
const monthParamFormat = "2006-01"

// AttendanceServiceInterface は勤怠ハンドラーが必要とするサービスインターフェース。
type AttendanceServiceInterface interface {
	// SignIn は当日のサインインを記録する。
	SignIn(ctx context.Context, userID string, lat, lon float64) (*model.AttendanceRecord, error)
	// SignOut は当日のサインアウトを記録する。
	SignOut(ctx context.Context, userID string, lat, lon float64) (*model.AttendanceRecord, error)
	// Today は当日の勤怠状態を返す。
	Today(ctx context.Context, userID string) (*attendance.TodayStatus, error)
	// ListRecords は指定月の勤怠記録一覧を返す。
	ListRecords(ctx context.Context, userID string, month time.Time) ([]*model.AttendanceRecord, error)
}

// AttendanceHandler は勤怠打刻のHTTPハンドラー。
type AttendanceHandler struct {
	service AttendanceServiceInterface
	// signInDeadline は一覧レスポンスの遅刻フラグ導出に使用する。
	signInDeadline model.TimeOfDay
}

// NewAttendanceHandler はAttendanceHandlerを生成する。
func NewAttendanceHandler(service AttendanceServiceInterface, signInDeadline model.TimeOfDay) *AttendanceHandler {
	return &AttendanceHandler{
		service:        service,
		signInDeadline: signInDeadline,
	}
}

// punchRequest は打刻リクエストのボディ。
type punchRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// attendanceRecordResponse は勤怠記録のAPIレスポンス。
type attendanceRecordResponse struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	SignInTime    *string `json:"sign_in_time"`
	SignOutTime   *string `json:"sign_out_time"`
	AutoSignedOut bool    `json:"auto_signed_out"`
	State         string  `json:"state"`
	Late          bool    `json:"late"`
}

// todayResponse は当日状態のAPIレスポンス。
type todayResponse struct {
	State        string                    `json:"state"`
	SignedInLate bool                      `json:"signed_in_late"`
	Record       *attendanceRecordResponse `json:"record"`
}

// recordListResponse は月次一覧のAPIレスポンス。
type recordListResponse struct {
	Month   string                     `json:"month"`
	Records []attendanceRecordResponse `json:"records"`
}

// SignIn はサインイン打刻を処理する。
// POST /api/attendance/sign-in
func (h *AttendanceHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	req, ok := decodePunchRequest(w, r)
	if !ok {
		return
	}

	record, err := h.service.SignIn(r.Context(), userID, req.Latitude, req.Longitude)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toRecordResponse(record))
}

// SignOut はサインアウト打刻を処理する。
// POST /api/attendance/sign-out
func (h *AttendanceHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	req, ok := decodePunchRequest(w, r)
	if !ok {
		return
	}

	record, err := h.service.SignOut(r.Context(), userID, req.Latitude, req.Longitude)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toRecordResponse(record))
}

// Today は当日の勤怠状態を返す。
// GET /api/attendance/today
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	status, err := h.service.Today(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := todayResponse{
		State:        string(status.State),
		SignedInLate: status.SignedInLate,
	}
	if status.Record != nil {
		rec := h.toRecordResponse(status.Record)
		resp.Record = &rec
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListRecords は指定月の勤怠記録一覧を返す。
// GET /api/attendance/records?month=YYYY-MM
func (h *AttendanceHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	month, ok := parseMonthParam(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListRecords(r.Context(), userID, month)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := recordListResponse{
		Month:   month.Format(monthParamFormat),
		Records: make([]attendanceRecordResponse, 0, len(records)),
	}
	for _, record := range records {
		resp.Records = append(resp.Records, h.toRecordResponse(record))
	}

	writeJSON(w, http.StatusOK, resp)
}

// toRecordResponse はmodel.AttendanceRecordからAPIレスポンスに変換する。
func (h *AttendanceHandler) toRecordResponse(record *model.AttendanceRecord) attendanceRecordResponse {
	return attendanceRecordResponse{
		ID:            record.ID,
		Date:          record.Date.Format("2006-01-02"),
		SignInTime:    formatTimePtr(record.SignInTime),
		SignOutTime:   formatTimePtr(record.SignOutTime),
		AutoSignedOut: record.AutoSignedOut,
		State:         string(record.State()),
		Late:          record.SignedInLate(h.signInDeadline),
	}
}

// --- ヘルパー関数 ---

// requireUserID はコンテキストからユーザーIDを取得する。
// 取得できない場合は401を書き込み、okにfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return "", false
	}
	return userID, true
}

// decodePunchRequest は打刻リクエストのボディを解析する。
// 解析に失敗した場合は400を書き込み、okにfalseを返す。
func decodePunchRequest(w http.ResponseWriter, r *http.Request) (punchRequest, bool) {
	var req punchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return punchRequest{}, false
	}
	return req, true
}

// parseMonthParam はmonthクエリパラメータを解析する。
// 省略時は現在の月を返す。不正な形式の場合は400を書き込み、okにfalseを返す。
func parseMonthParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	monthStr := r.URL.Query().Get("month")
	if monthStr == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), true
	}

	month, err := time.Parse(monthParamFormat, monthStr)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "月の指定が不正です。",
			Category: "validation",
			Action:   "YYYY-MM形式で指定してください。",
		})
		return time.Time{}, false
	}
	return month, true
}

// formatTimePtr は時刻ポインタをRFC3339文字列ポインタに変換する。
func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCoordinates, "INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodeLocationOutOfRange, model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNoActiveSignIn, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeAlreadySignedIn, model.ErrCodeAlreadySignedOut:
		return http.StatusConflict
	case model.ErrCodeTooEarlyToSignOut:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
