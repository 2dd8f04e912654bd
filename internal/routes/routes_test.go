package routes

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"studyroom-backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// newApp wires the real container against a gorm handle that never connects. Only paths
// rejected before any query are exercised here.
func newApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:1)/none?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	cfg := config.Load()
	cfg.Jobs.CronSecret = "s3cret"
	cfg.JWTSecret = "jwt-secret"

	c := NewContainer(db, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	app := fiber.New()
	SetupSystemRoutes(app)
	SetupCronRoutes(app, c)
	SetupAttendanceRoutes(app, c)
	SetupReportRoutes(app, c)
	return app
}

func TestRoutes_Wiring(t *testing.T) {
	app := newApp(t)

	tests := []struct {
		name   string
		method string
		target string
		auth   string
		want   int
	}{
		{name: "health", method: fiber.MethodGet, target: "/health", want: fiber.StatusOK},
		{name: "metrics", method: fiber.MethodGet, target: "/metrics", want: fiber.StatusOK},
		{name: "sync without secret", method: fiber.MethodPost, target: "/api/cron/sync-access", want: fiber.StatusUnauthorized},
		{name: "sync wrong secret", method: fiber.MethodPost, target: "/api/cron/sync-access", auth: "Bearer nope", want: fiber.StatusUnauthorized},
		{name: "weekly without secret", method: fiber.MethodPost, target: "/api/cron/weekly-goals", want: fiber.StatusUnauthorized},
		{name: "study time without token", method: fiber.MethodGet, target: "/api/attendance/study-time", want: fiber.StatusUnauthorized},
		{name: "weekly report without token", method: fiber.MethodGet, target: "/api/admin/reports/weekly", want: fiber.StatusUnauthorized},
		{name: "unknown route", method: fiber.MethodGet, target: "/api/nope", want: fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
