package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/kintai/internal/model"
	"github.com/hitoshi/kintai/internal/repository"
)

// mockAdminService はAdminServiceInterfaceのモック実装。
type mockAdminService struct {
	listAllRecordsFn func(ctx context.Context, month time.Time) ([]repository.RecordWithUser, error)
}

func (m *mockAdminService) ListAllRecords(ctx context.Context, month time.Time) ([]repository.RecordWithUser, error) {
	if m.listAllRecordsFn != nil {
		return m.listAllRecordsFn(ctx, month)
	}
	return nil, nil
}

var _ AdminServiceInterface = (*mockAdminService)(nil)

func TestAdminHandler_ListAllRecords_Success(t *testing.T) {
	svc := &mockAdminService{
		listAllRecordsFn: func(ctx context.Context, month time.Time) ([]repository.RecordWithUser, error) {
			if month.Year() != 2026 || month.Month() != time.January {
				t.Errorf("month = %v, want 2026-01", month)
			}
			return []repository.RecordWithUser{
				{
					AttendanceRecord: model.AttendanceRecord{
						ID:            "record-1",
						UserID:        "user-1",
						Date:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
						SignInTime:    timePtr(time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)),
						SignOutTime:   timePtr(time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)),
						AutoSignedOut: true,
					},
					UserEmail: "taro@example.com",
					UserName:  "Taro",
				},
				{
					AttendanceRecord: model.AttendanceRecord{
						ID:         "record-2",
						UserID:     "user-2",
						Date:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
						SignInTime: timePtr(time.Date(2026, 1, 15, 8, 45, 0, 0, time.UTC)),
					},
					UserEmail: "hanako@example.com",
					UserName:  "Hanako",
				},
			}, nil
		},
	}

	h := NewAdminHandler(svc, testDeadline(t))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/records?month=2026-01", nil)
	req = withUserID(req, "admin-1")
	w := httptest.NewRecorder()

	h.ListAllRecords(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result adminRecordListResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Month != "2026-01" {
		t.Errorf("month = %q, want 2026-01", result.Month)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}

	first := result.Records[0]
	if first.UserEmail != "taro@example.com" {
		t.Errorf("user_email = %q, want taro@example.com", first.UserEmail)
	}
	if !first.AutoSignedOut {
		t.Error("expected auto_signed_out true")
	}
	// 09:30サインインは09:00締め切りに対して遅刻
	if !first.Late {
		t.Error("expected late true for 09:30 sign-in")
	}

	second := result.Records[1]
	if second.State != "signed_in" {
		t.Errorf("state = %q, want signed_in", second.State)
	}
	if second.Late {
		t.Error("expected late false for 08:45 sign-in")
	}
}

func TestAdminHandler_ListAllRecords_InvalidMonth_ReturnsBadRequest(t *testing.T) {
	h := NewAdminHandler(&mockAdminService{}, testDeadline(t))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/records?month=2026-13-01", nil)
	req = withUserID(req, "admin-1")
	w := httptest.NewRecorder()

	h.ListAllRecords(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAdminHandler_ListAllRecords_ServiceError_ReturnsInternalError(t *testing.T) {
	svc := &mockAdminService{
		listAllRecordsFn: func(ctx context.Context, month time.Time) ([]repository.RecordWithUser, error) {
			return nil, errors.New("db connection lost")
		},
	}

	h := NewAdminHandler(svc, testDeadline(t))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/records?month=2026-01", nil)
	req = withUserID(req, "admin-1")
	w := httptest.NewRecorder()

	h.ListAllRecords(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
