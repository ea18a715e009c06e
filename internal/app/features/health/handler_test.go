package health_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/app/features/health"
	"github.com/spanexx/KolocollectV1-sub001/internal/testutil"
)

func TestServe(t *testing.T) {
	db := testutil.SetupTestDB(t)

	router := health.Routes(health.NewHandler(db.Client(), zap.NewNop()))
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))

	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	rec.DecodeJSON(t, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Database != "connected" {
		t.Errorf("database = %q, want connected", body.Database)
	}
}
