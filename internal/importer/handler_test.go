package importer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestServer(f *fixture) *echo.Echo {
	e := echo.New()
	runner := NewRunner(f.persist, 2, zerolog.Nop(), nil)
	NewHandler(runner).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func TestRunImport_ReturnsPerRowReport(t *testing.T) {
	f := newFixture()
	f.addPatient("PAT-1001")
	e := newTestServer(f)

	body := `{"rows":[
		{"patient_identifier":"PAT-1001","encounters":[{"encounter_date":"2024-02-10T00:00:00Z","observations":[{"concept":"Weight","value":"72"}]}]},
		{"patient_identifier":"PAT-404","encounters":[{"encounter_date":"2024-02-10T00:00:00Z","observations":[{"concept":"Weight","value":"80"}]}]}
	]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 2 || resp.Succeeded != 1 || resp.Failed != 1 {
		t.Errorf("unexpected report: %+v", resp)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if !resp.Results[0].Success || resp.Results[0].Message != "" {
		t.Errorf("expected first row to succeed, got %+v", resp.Results[0])
	}
	if resp.Results[1].Success {
		t.Error("expected second row to fail")
	}
	if !strings.Contains(resp.Results[1].Message, "No matching patients found with ID:'PAT-404'") {
		t.Errorf("unexpected failure message: %q", resp.Results[1].Message)
	}
}

func TestRunImport_NullRowElement(t *testing.T) {
	e := newTestServer(newFixture())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(`{"rows":[null]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 1 || resp.Failed != 1 {
		t.Errorf("expected the null row reported as failed, got %+v", resp)
	}
	if len(resp.Results) != 1 || resp.Results[0].Success {
		t.Error("expected a failed per-row result for the null row")
	}
}

func TestRunImport_MalformedBody(t *testing.T) {
	e := newTestServer(newFixture())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRunImport_EmptyBatch(t *testing.T) {
	e := newTestServer(newFixture())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(`{"rows":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
