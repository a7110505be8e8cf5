// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/kintai/internal/model"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 勤怠の時間帯定数や勤務地座標はプロセスワイドのグローバルではなく、
// この構造体を通じて各コンポーネントへ注入する。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Session
	SessionMaxAge int

	// Attendance
	CompanyLatitude      float64
	CompanyLongitude     float64
	GeofenceRadiusMeters float64
	SignInDeadline       model.TimeOfDay
	SignOutStart         model.TimeOfDay
	AutoSignOutTime      model.TimeOfDay
	SweepInterval        time.Duration
	Location             *time.Location

	// Admin
	AdminEmails []string

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitSignIn  int

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// デフォルトの勤怠設定。ドラフト版の定数は矛盾していたため、
// ここで一貫した1組に確定し、環境変数で上書き可能とする。
const (
	defaultCompanyLatitude  = 7.130402
	defaultCompanyLongitude = 3.362196
	defaultGeofenceRadius   = 100.0 // メートル
	defaultSignInDeadline   = "09:00"
	defaultSignOutStart     = "17:00"
	defaultAutoSignOutTime  = "19:00"
)

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、および勤怠の時間帯設定が矛盾する場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}

	cfg.GoogleRedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")
	if cfg.GoogleRedirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Attendance
	var err error
	cfg.CompanyLatitude, err = getEnvFloat("COMPANY_LATITUDE", defaultCompanyLatitude)
	if err != nil {
		return nil, err
	}
	cfg.CompanyLongitude, err = getEnvFloat("COMPANY_LONGITUDE", defaultCompanyLongitude)
	if err != nil {
		return nil, err
	}
	cfg.GeofenceRadiusMeters, err = getEnvFloat("GEOFENCE_RADIUS_METERS", defaultGeofenceRadius)
	if err != nil {
		return nil, err
	}
	if cfg.GeofenceRadiusMeters <= 0 {
		return nil, fmt.Errorf("GEOFENCE_RADIUS_METERS must be positive, got %v", cfg.GeofenceRadiusMeters)
	}

	cfg.SignInDeadline, err = getEnvTimeOfDay("SIGN_IN_DEADLINE", defaultSignInDeadline)
	if err != nil {
		return nil, err
	}
	cfg.SignOutStart, err = getEnvTimeOfDay("SIGN_OUT_START", defaultSignOutStart)
	if err != nil {
		return nil, err
	}
	cfg.AutoSignOutTime, err = getEnvTimeOfDay("AUTO_SIGN_OUT_TIME", defaultAutoSignOutTime)
	if err != nil {
		return nil, err
	}
	if !cfg.SignOutStart.Before(cfg.AutoSignOutTime) {
		return nil, fmt.Errorf("SIGN_OUT_START (%s) must be before AUTO_SIGN_OUT_TIME (%s)",
			cfg.SignOutStart, cfg.AutoSignOutTime)
	}

	cfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", time.Minute)

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	// Admin
	if emails := os.Getenv("ADMIN_EMAILS"); emails != "" {
		for _, e := range strings.Split(emails, ",") {
			if e = strings.TrimSpace(e); e != "" {
				cfg.AdminEmails = append(cfg.AdminEmails, e)
			}
		}
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSignIn = getEnvInt("RATE_LIMIT_SIGN_IN", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvFloat は浮動小数点の環境変数を読み込む。
// 座標や半径の誤設定は黙って既定値に落とさず、起動エラーにする。
func getEnvFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

// getEnvTimeOfDay は"15:04"形式の環境変数を読み込む。
// 時間帯の誤設定も起動エラーにする。
func getEnvTimeOfDay(key, defaultVal string) (model.TimeOfDay, error) {
	v := os.Getenv(key)
	if v == "" {
		v = defaultVal
	}
	t, err := model.ParseTimeOfDay(v)
	if err != nil {
		return model.TimeOfDay{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}
