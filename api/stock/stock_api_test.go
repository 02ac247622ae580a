package stock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"remanerp/core/auth"
	partEntity "remanerp/model/entity/part"
	stockEntity "remanerp/model/entity/stock"
)

func TestMain(m *testing.M) {
	os.Setenv("AUTH_TYPE", "basic")
	os.Setenv("API_USER", "apiuser")
	os.Setenv("API_PASS", "apipass")
	os.Setenv("MOVEMENT_APPROVAL_THRESHOLD", "100")
	os.Exit(m.Run())
}

func setupServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&partEntity.Part{}, &stockEntity.Movement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	e := echo.New()
	g := e.Group("/api", auth.Middleware(db))
	RegisterMovementRoutes(g, db)
	return e, db
}

func seedPart(t *testing.T, db *gorm.DB, orgID uint, code string, qty int64) *partEntity.Part {
	t.Helper()
	p := &partEntity.Part{OrgID: orgID, Code: code, Name: "part " + code, Quantity: qty, IsActive: true}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed part: %v", err)
	}
	return p
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.SetBasicAuth("apiuser", "apipass")
	req.Header.Set("X-Org-ID", "1")
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMovementsRequireAuth(t *testing.T) {
	e, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/movements", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRecordMovementEndToEnd(t *testing.T) {
	e, db := setupServer(t)
	p := seedPart(t, db, 1, "ROD-001", 5)

	rec := doJSON(t, e, http.MethodPost, "/api/movements", map[string]interface{}{
		"part_id": p.PartID, "type": "entry", "quantity": 10, "reason": "receiving",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Movement     stockEntity.Movement `json:"movement"`
		PartQuantity int64                `json:"part_quantity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.PartQuantity != 15 || out.Movement.NewQuantity != 15 {
		t.Fatalf("response = %+v", out)
	}
}

func TestRecordMovementErrorMapping(t *testing.T) {
	e, db := setupServer(t)
	p := seedPart(t, db, 1, "ROD-002", 3)

	cases := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"bad type", map[string]interface{}{"part_id": p.PartID, "type": "move", "quantity": 1}, http.StatusBadRequest},
		{"zero quantity", map[string]interface{}{"part_id": p.PartID, "type": "entry", "quantity": 0}, http.StatusBadRequest},
		{"missing part", map[string]interface{}{"part_id": 9999, "type": "entry", "quantity": 1}, http.StatusNotFound},
		{"insufficient", map[string]interface{}{"part_id": p.PartID, "type": "exit", "quantity": 50}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		rec := doJSON(t, e, http.MethodPost, "/api/movements", tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.name, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestApprovalEndpoints(t *testing.T) {
	e, db := setupServer(t)
	p := seedPart(t, db, 1, "ROD-003", 0)

	rec := doJSON(t, e, http.MethodPost, "/api/movements", map[string]interface{}{
		"part_id": p.PartID, "type": "entry", "quantity": 500, "reason": "bulk",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record: %d", rec.Code)
	}
	var out struct {
		Movement stockEntity.Movement `json:"movement"`
	}
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Movement.ApprovalStatus != stockEntity.ApprovalPending {
		t.Fatalf("movement above threshold should be pending")
	}

	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/movements/%d/approve", out.Movement.MovementID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: %d (%s)", rec.Code, rec.Body.String())
	}
	// A second approval conflicts.
	rec = doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/movements/%d/approve", out.Movement.MovementID), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double approve: %d", rec.Code)
	}

	var fresh partEntity.Part
	db.First(&fresh, p.PartID)
	if fresh.Quantity != 500 {
		t.Fatalf("quantity = %d, want 500", fresh.Quantity)
	}
}

func TestListMovements(t *testing.T) {
	e, db := setupServer(t)
	p := seedPart(t, db, 1, "ROD-004", 0)
	for i := 0; i < 3; i++ {
		rec := doJSON(t, e, http.MethodPost, "/api/movements", map[string]interface{}{
			"part_id": p.PartID, "type": "entry", "quantity": 2, "reason": "batch",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("record %d: %d", i, rec.Code)
		}
	}

	rec := doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/movements?part_id=%d&type=entry", p.PartID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var out struct {
		Items []stockEntity.Movement `json:"items"`
		Total int64                  `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 3 || len(out.Items) != 3 {
		t.Fatalf("list = %d items, total %d", len(out.Items), out.Total)
	}
}
