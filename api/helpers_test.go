package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatdesk/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupMockStore gorm + sqlmock 组成的存储
func setupMockStore(t *testing.T) (*store.Store, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return store.New(gormDB), mock, func() {
		sqlDB.Close()
	}
}

var botColumns = []string{"id", "name", "description", "provider", "settings", "theme", "embed", "api_key", "created_at", "updated_at"}

func botRow(rows *sqlmock.Rows, id uint, provider, settings string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "Suporte", "FAQ bot", provider, settings, `{}`, `{"position":"bottom-left"}`, "", now, now)
}

func expectGetBot(mock sqlmock.Sqlmock, id uint, provider, settings string) {
	mock.ExpectQuery("SELECT .* FROM `bots` WHERE `bots`.`id` = \\?").
		WithArgs(id).
		WillReturnRows(botRow(sqlmock.NewRows(botColumns), id, provider, settings))
}

func expectBotMissing(mock sqlmock.Sqlmock, id uint) {
	mock.ExpectQuery("SELECT .* FROM `bots` WHERE `bots`.`id` = \\?").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(botColumns))
}

func newJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doJSONReq(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return serve(router, newJSONRequest(method, path, body))
}
