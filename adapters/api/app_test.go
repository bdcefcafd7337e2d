package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"qmrisk/adapters/scenariofile"
	"qmrisk/app"
	"qmrisk/domain/risk"
	"qmrisk/internal"
	"qmrisk/internal/testkit"
)

const listingScenarioYAML = `name: Reclaimed water irrigation
pathogen: norovirus
route: direct
concentration:
  kind: fixed
  value: 1.0e6
lrv:
  kind: fixed
  value: 3
mhf:
  kind: fixed
  value: 18.5
dilution:
  kind: fixed
  value: 100
volume:
  kind: fixed
  value: 50
iterations: 200
individuals: 10
events_per_year: 20
`

func newTestApp(t *testing.T, withRepo bool) (*App, *testkit.TestKit) {
	t.Helper()
	kit := testkit.NewTestKit()
	logger := internal.NewLogger(internal.LogLevelError)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "reclaimed.yaml"), []byte(listingScenarioYAML), 0o644); err != nil {
		t.Fatalf("write scenario fixture: %v", err)
	}
	cfg := Config{Port: "0", ScenarioDir: dir}

	if !withRepo {
		runs := app.NewRunService(kit.RNGAdapter(), nil, logger, 50_000_000)
		return NewApp(cfg, runs, nil, scenariofile.NewLoader(nil), logger), kit
	}

	repo := kit.SummaryRepository()
	runs := app.NewRunService(kit.RNGAdapter(), repo, logger, 50_000_000)
	return NewApp(cfg, runs, repo, scenariofile.NewLoader(nil), logger), kit
}

func doJSON(t *testing.T, a *App, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func smallScenario() *risk.Scenario {
	sc := testkit.ReclaimedWaterScenario()
	sc.Iterations = 200
	sc.Individuals = 5
	return sc
}

func TestCreateRun_ReturnsSummary(t *testing.T) {
	a, _ := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodPost, "/api/v1/runs", createRunRequest{Scenario: smallScenario()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var summary risk.Summary
	decodeBody(t, rec, &summary)
	if summary.RunID == "" {
		t.Error("summary should carry a run ID")
	}
	if summary.Fingerprint.IsEmpty() {
		t.Error("summary should carry a fingerprint")
	}
	if summary.Pathogen != "norovirus" {
		t.Errorf("pathogen = %s", summary.Pathogen)
	}
}

func TestCreateRun_PersistThenFetch(t *testing.T) {
	a, kit := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodPost, "/api/v1/runs", createRunRequest{Scenario: smallScenario(), Persist: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created risk.Summary
	decodeBody(t, rec, &created)

	if kit.SummaryRepository().Len() != 1 {
		t.Fatalf("repository holds %d summaries, want 1", kit.SummaryRepository().Len())
	}

	rec = doJSON(t, a, http.MethodGet, "/api/v1/runs/"+created.RunID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch status = %d, body %s", rec.Code, rec.Body.String())
	}
	var fetched risk.Summary
	decodeBody(t, rec, &fetched)
	if fetched.Fingerprint != created.Fingerprint {
		t.Error("stored summary should match the created one")
	}
}

func TestCreateRun_SeedOverride(t *testing.T) {
	a, _ := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodPost, "/api/v1/runs", createRunRequest{Scenario: smallScenario(), Seed: 4242})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var summary risk.Summary
	decodeBody(t, rec, &summary)
	if summary.Seed != 4242 {
		t.Errorf("seed = %d, want override 4242", summary.Seed)
	}
}

func TestCreateRun_RejectsInvalidScenario(t *testing.T) {
	a, _ := newTestApp(t, true)

	sc := smallScenario()
	sc.Pathogen = ""
	rec := doJSON(t, a, http.MethodPost, "/api/v1/runs", createRunRequest{Scenario: sc})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code == "" || resp.Error == "" {
		t.Errorf("error response should carry code and message: %+v", resp)
	}
}

func TestCreateRun_RejectsMalformedBody(t *testing.T) {
	a, _ := newTestApp(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateRun_RejectsMissingScenario(t *testing.T) {
	a, _ := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodPost, "/api/v1/runs", createRunRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	a, _ := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodGet, "/api/v1/runs/does-not-exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRunEndpoints_WithoutRepository(t *testing.T) {
	a, _ := newTestApp(t, false)

	rec := doJSON(t, a, http.MethodGet, "/api/v1/runs/some-id", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("get status = %d, want 503", rec.Code)
	}

	rec = doJSON(t, a, http.MethodGet, "/api/v1/runs", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("list status = %d, want 503", rec.Code)
	}
}

func TestListRuns_FiltersByPathogen(t *testing.T) {
	a, _ := newTestApp(t, true)

	noro := smallScenario()
	crypto := testkit.RiverSwimmingScenario()
	crypto.Iterations = 200
	crypto.Individuals = 5

	for _, sc := range []*risk.Scenario{noro, crypto} {
		rec := doJSON(t, a, http.MethodPost, "/api/v1/runs", createRunRequest{Scenario: sc, Persist: true})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed run failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, a, http.MethodGet, "/api/v1/runs?pathogen=cryptosporidium", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var filtered []*risk.Summary
	decodeBody(t, rec, &filtered)
	if len(filtered) != 1 || filtered[0].Pathogen != "cryptosporidium" {
		t.Fatalf("filtered list = %d entries", len(filtered))
	}

	rec = doJSON(t, a, http.MethodGet, "/api/v1/runs", nil)
	var all []*risk.Summary
	decodeBody(t, rec, &all)
	if len(all) != 2 {
		t.Fatalf("full list = %d entries, want 2", len(all))
	}
	// Newest first.
	if all[0].Pathogen != "cryptosporidium" {
		t.Errorf("first entry = %s, want the later run", all[0].Pathogen)
	}
}

func TestListRuns_RejectsBadLimit(t *testing.T) {
	a, _ := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodGet, "/api/v1/runs?limit=zero", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListPathogens(t *testing.T) {
	a, _ := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodGet, "/api/v1/pathogens", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var pathogens []risk.Pathogen
	decodeBody(t, rec, &pathogens)
	if len(pathogens) < 5 {
		t.Fatalf("catalog has %d entries", len(pathogens))
	}
	found := false
	for _, p := range pathogens {
		if p.ID == "norovirus" {
			found = true
		}
	}
	if !found {
		t.Error("catalog should include norovirus")
	}
}

func TestListScenarios(t *testing.T) {
	a, _ := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodGet, "/api/v1/scenarios", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var infos []scenarioInfo
	decodeBody(t, rec, &infos)
	if len(infos) != 1 {
		t.Fatalf("listing has %d entries, want 1", len(infos))
	}
	if infos[0].ID != "reclaimed" || infos[0].Pathogen != "norovirus" {
		t.Errorf("unexpected listing entry: %+v", infos[0])
	}
}

func TestHealth(t *testing.T) {
	a, _ := newTestApp(t, true)

	rec := doJSON(t, a, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["persistence"] != true {
		t.Errorf("persistence field = %v", body["persistence"])
	}
}
