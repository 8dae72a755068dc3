package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dobroplatform/dobro-max-bot/internal/db"
	"github.com/gin-gonic/gin"
)

func newMockDB(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return &db.DB{DB: mockDB}, mock
}

func newRequestsRouter(database *db.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewRequestsHandler(database)

	router := gin.New()
	router.GET("/api/requests", handler.List)
	router.GET("/api/requests/:id", handler.Get)
	router.POST("/api/requests/:id/respond", handler.Respond)
	return router
}

func requestRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "category", "type", "region", "description",
		"full_description", "date", "time", "location", "requirements", "reward",
		"verified", "created_at",
	})
	for _, id := range ids {
		rows.AddRow(id, "42", "Помощь приюту", "Животные", "разовая", "Москва",
			"Описание", "Полное описание", "2024-12-15", nil, nil, nil,
			"бесплатно", true, time.Now())
	}
	return rows
}

func TestListRequests(t *testing.T) {
	database, mock := newMockDB(t)
	router := newRequestsRouter(database)

	mock.ExpectQuery(`SELECT (.+) FROM requests\s+WHERE verified = 1`).
		WithArgs(20).
		WillReturnRows(requestRows(1, 2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM requests`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", w.Code, w.Body.String())
	}

	var body struct {
		Requests []RequestView `json:"requests"`
		Total    int           `json:"total"`
		Limit    int           `json:"limit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Requests) != 2 || body.Total != 2 || body.Limit != 20 {
		t.Fatalf("body = %+v", body)
	}
	if body.Requests[0].Title != "Помощь приюту" {
		t.Fatalf("request = %+v", body.Requests[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListRequestsWithFilter(t *testing.T) {
	database, mock := newMockDB(t)
	router := newRequestsRouter(database)

	mock.ExpectQuery(`AND category = \?`).
		WithArgs("Животные", 20).
		WillReturnRows(requestRows(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM requests`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/requests?category=Животные", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	router := newRequestsRouter(database)

	mock.ExpectQuery(`SELECT (.+) FROM requests`).
		WithArgs(int64(404)).
		WillReturnRows(requestRows())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/requests/404", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRespondToRequest(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		database, mock := newMockDB(t)
		router := newRequestsRouter(database)

		mock.ExpectQuery(`SELECT (.+) FROM requests`).
			WithArgs(int64(7)).
			WillReturnRows(requestRows(7))
		mock.ExpectExec(`INSERT INTO responses`).
			WithArgs(sqlmock.AnyArg(), int64(7), "42", "Готова помочь", "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/requests/7/respond",
			strings.NewReader(`{"user_id": "42", "message": "Готова помочь"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d (body: %s)", w.Code, w.Body.String())
		}

		var body struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.ID == "" || body.Status != "pending" {
			t.Fatalf("body = %+v", body)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("missing user_id", func(t *testing.T) {
		database, _ := newMockDB(t)
		router := newRequestsRouter(database)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/requests/7/respond",
			strings.NewReader(`{"message": "Готова помочь"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		database, mock := newMockDB(t)
		router := newRequestsRouter(database)

		mock.ExpectQuery(`SELECT (.+) FROM requests`).
			WithArgs(int64(404)).
			WillReturnRows(requestRows())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/requests/404/respond",
			strings.NewReader(`{"user_id": "42"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}
