package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/catalise/fundingest/internal/models"
	"github.com/catalise/fundingest/internal/schema"
	"github.com/catalise/fundingest/internal/services"
	"github.com/catalise/fundingest/internal/source"
)

type stubSource struct {
	batches []source.FileBatch
}

func (s *stubSource) ReadBatches(extract models.ExtractType, date string) ([]source.FileBatch, error) {
	return s.batches, nil
}

type stubRecordStore struct{}

func (stubRecordStore) InsertBatch(ctx context.Context, def *models.SchemaDefinition, records []models.TargetRecord) (int, error) {
	return len(records), nil
}

type stubRunStore struct{}

func (stubRunStore) InsertRunSummary(ctx context.Context, summary *models.RunSummary) error {
	return nil
}

func (stubRunStore) LatestRunSummary(ctx context.Context) (*models.RunSummary, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *services.RunService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	def := &models.SchemaDefinition{
		Extract: models.ExtractPortfolio,
		ColumnMapping: []models.ColumnMapping{
			{Source: "Nome Fundo", Target: "NmFundo"},
			{Source: "Data", Target: "DtPosicao"},
		},
		DataTypes:       map[string]models.ColumnType{"DtPosicao": models.ColumnDate},
		RequiredColumns: []string{"NmFundo", "DtPosicao"},
		FundColumn:      "NmFundo",
		NaturalKey:      []string{"NmFundo", "DtPosicao"},
	}
	reg, err := schema.New(def)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	rosters := map[models.ExtractType]models.Roster{
		models.ExtractPortfolio: {Funds: []string{"AURORA FIA"}},
	}
	src := &stubSource{batches: []source.FileBatch{{
		File:          "aurora.json",
		ReferenceDate: "2025-05-29",
		Records: []models.SourceRecord{{
			"Nome Fundo": "AURORA FIA",
			"Data":       "2025-05-29T00:00:00",
		}},
	}}}

	svc := services.NewRunService(reg, rosters, src, stubRecordStore{}, stubRunStore{}, &services.LogNotifier{})
	h := NewRunHandler(svc)

	r := gin.New()
	r.POST("/runs", h.Trigger)
	r.GET("/runs/latest", h.Latest)
	return r, svc
}

func TestTrigger_SingleDate(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"date": "2025-05-29", "extracts": ["portfolio"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var summary models.RunSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if summary.Status != models.StatusSuccess {
		t.Errorf("expected %s, got %s", models.StatusSuccess, summary.Status)
	}
	if len(summary.ReferenceDates) != 1 || summary.ReferenceDates[0] != "2025-05-29" {
		t.Errorf("reference dates: %v", summary.ReferenceDates)
	}
}

func TestTrigger_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{`},
		{"bad date", `{"date": "29/05/2025"}`},
		{"inverted range", `{"start": "2025-05-30", "end": "2025-05-29"}`},
		{"unknown extract", `{"date": "2025-05-29", "extracts": ["dividends"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(tc.body))
			r.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestLatest_NotFoundBeforeAnyRun(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestLatest_AfterRun(t *testing.T) {
	r, svc := newTestRouter(t)

	if _, err := svc.Execute(context.Background(), services.RunRequest{
		Dates:    []string{"2025-05-29"},
		Extracts: []models.ExtractType{models.ExtractPortfolio},
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var summary models.RunSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if summary.Status != models.StatusSuccess {
		t.Errorf("expected %s, got %s", models.StatusSuccess, summary.Status)
	}
}
