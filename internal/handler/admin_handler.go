package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/kintai/internal/model"
	"github.com/hitoshi/kintai/internal/repository"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	// ListAllRecords は全ユーザーの指定月の勤怠記録一覧を返す。
	ListAllRecords(ctx context.Context, month time.Time) ([]repository.RecordWithUser, error)
}

// AdminHandler は管理者向けのHTTPハンドラー。
// 管理者権限の検証はAdminMiddlewareで行い、ここでは行わない。
type AdminHandler struct {
	service AdminServiceInterface
	// signInDeadline は一覧レスポンスの遅刻フラグ導出に使用する。
	signInDeadline model.TimeOfDay
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface, signInDeadline model.TimeOfDay) *AdminHandler {
	return &AdminHandler{
		service:        service,
		signInDeadline: signInDeadline,
	}
}

// adminRecordResponse はユーザー情報を含む勤怠記録のAPIレスポンス。
type adminRecordResponse struct {
	attendanceRecordResponse
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}

// adminRecordListResponse は全ユーザーの月次一覧のAPIレスポンス。
type adminRecordListResponse struct {
	Month   string                `json:"month"`
	Records []adminRecordResponse `json:"records"`
}

// ListAllRecords は全ユーザーの指定月の勤怠記録一覧を返す。
// GET /api/admin/records?month=YYYY-MM
func (h *AdminHandler) ListAllRecords(w http.ResponseWriter, r *http.Request) {
	month, ok := parseMonthParam(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListAllRecords(r.Context(), month)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := adminRecordListResponse{
		Month:   month.Format(monthParamFormat),
		Records: make([]adminRecordResponse, 0, len(records)),
	}
	for _, record := range records {
		resp.Records = append(resp.Records, adminRecordResponse{
			attendanceRecordResponse: attendanceRecordResponse{
				ID:            record.ID,
				Date:          record.Date.Format("2006-01-02"),
				SignInTime:    formatTimePtr(record.SignInTime),
				SignOutTime:   formatTimePtr(record.SignOutTime),
				AutoSignedOut: record.AutoSignedOut,
				State:         string(record.State()),
				Late:          record.SignedInLate(h.signInDeadline),
			},
			UserID:    record.UserID,
			UserEmail: record.UserEmail,
			UserName:  record.UserName,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
