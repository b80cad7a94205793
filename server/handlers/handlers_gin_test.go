package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"

	"bglserver/database"
	"bglserver/internal/config"
	"bglserver/matching"
)

// setupGinTestRouter создает тестовый Gin роутер
func setupGinTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func newTestEngine(t *testing.T) (*matching.Engine, *database.ServiceDB) {
	t.Helper()
	db, err := database.NewServiceDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	matchingCfg := config.MatchingConfig{
		ReviewThreshold:   0.80,
		AutoThreshold:     0.90,
		StrongThreshold:   0.90,
		ConflictDelta:     0.10,
		BankShortFuzzyMin: 0.90,
		BankFullFuzzyMin:  0.95,
		WeightOfficial:    1.0,
		WeightAltConfirm:  0.95,
		WeightFuzzy:       0.90,
	}
	suggestionCfg := config.SuggestionConfig{
		WeightLearning:    100,
		WeightUserHistory: 80,
		WeightAlternative: 60,
		WeightDictionary:  40,
	}
	return matching.NewEngine(db, matchingCfg, suggestionCfg), db
}

func seedSupplier(t *testing.T, engine *matching.Engine, db *database.ServiceDB, name string) int {
	t.Helper()
	id, err := db.SaveSupplier(name, "", engine.Normalizer().Normalize(name), true)
	if err != nil {
		t.Fatalf("SaveSupplier failed: %v", err)
	}
	return id
}

func urlEncode(value string) string {
	return url.QueryEscape(value)
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req, _ := http.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleResolveSupplierGin(t *testing.T) {
	engine, db := newTestEngine(t)
	seedSupplier(t, engine, db, `ООО "Ромашка"`)

	router := setupGinTestRouter()
	handler := NewResolutionHandler(engine)
	router.POST("/resolve/supplier", handler.HandleResolveSupplierGin)

	t.Run("returns candidates for known supplier", func(t *testing.T) {
		w := postJSON(t, router, "/resolve/supplier", ResolveRequest{RawName: `ооо "ромашка"`})
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp ResolveResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(resp.Candidates))
		}
		if resp.Candidates[0].Source != matching.SourceOfficial {
			t.Errorf("expected official source, got %q", resp.Candidates[0].Source)
		}
	})

	t.Run("rejects missing raw_name", func(t *testing.T) {
		w := postJSON(t, router, "/resolve/supplier", gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestHandleRecalculateRecordGin(t *testing.T) {
	engine, _ := newTestEngine(t)

	router := setupGinTestRouter()
	handler := NewResolutionHandler(engine)
	router.POST("/records/:id/recalculate", handler.HandleRecalculateRecordGin)

	t.Run("unknown record returns 404", func(t *testing.T) {
		w := postJSON(t, router, "/records/9999/recalculate", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		w := postJSON(t, router, "/records/abc/recalculate", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestHandleGetSuggestionsGin(t *testing.T) {
	engine, db := newTestEngine(t)
	seedSupplier(t, engine, db, `ООО "Ромашка"`)

	router := setupGinTestRouter()
	handler := NewSuggestionHandler(engine)
	router.GET("/suggestions/:kind", handler.HandleGetSuggestionsGin)

	get := func(path string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("cold cache computes and stores suggestions", func(t *testing.T) {
		w := get("/suggestions/supplier?input=" + urlEncode(`ооо ромашка`))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp SuggestionsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Cached {
			t.Error("first lookup must report a cold cache")
		}
		if len(resp.Suggestions) == 0 {
			t.Fatal("expected computed suggestions on cold cache")
		}
	})

	t.Run("second lookup is served from cache", func(t *testing.T) {
		w := get("/suggestions/supplier?input=" + urlEncode(`ооо ромашка`))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp SuggestionsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Cached {
			t.Error("second lookup must be served from cache")
		}
	})

	t.Run("invalid kind returns 400", func(t *testing.T) {
		w := get("/suggestions/warehouse?input=x")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("missing input returns 400", func(t *testing.T) {
		w := get("/suggestions/supplier")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestHandleRecordSelectionGin(t *testing.T) {
	engine, db := newTestEngine(t)
	supplierID := seedSupplier(t, engine, db, `ООО "Ромашка"`)

	router := setupGinTestRouter()
	handler := NewSuggestionHandler(engine)
	router.POST("/suggestions/:kind/selection", handler.HandleRecordSelectionGin)

	w := postJSON(t, router, "/suggestions/supplier/selection", SelectionRequest{
		RawInput: "Ромашка",
		EntityID: supplierID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Выбор без строки кэша синтезирует строку user_history
	normalized := engine.Normalizer().Normalize("Ромашка")
	rows, err := db.GetSuggestions(database.KindSupplier, normalized)
	if err != nil {
		t.Fatalf("GetSuggestions failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 synthesized suggestion row, got %d", len(rows))
	}
	if rows[0].Source != matching.SuggestSourceUserHistory {
		t.Errorf("expected user_history source, got %q", rows[0].Source)
	}
}

func TestHandleRecordDecisionGin(t *testing.T) {
	engine, db := newTestEngine(t)
	supplierID := seedSupplier(t, engine, db, `ООО "Ромашка"`)

	router := setupGinTestRouter()
	handler := NewLearningHandler(engine, db)
	router.POST("/learning/:kind", handler.HandleRecordDecisionGin)
	router.GET("/learning/:kind", handler.HandleListDecisionsGin)
	router.DELETE("/learning/:kind", handler.HandleDeleteDecisionGin)

	t.Run("alias decision is stored", func(t *testing.T) {
		w := postJSON(t, router, "/learning/supplier", LearningDecisionRequest{
			RawInput: "Рамашка",
			Status:   database.LearningStatusAlias,
			EntityID: &supplierID,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		req, _ := http.NewRequest("GET", "/learning/supplier", nil)
		lw := httptest.NewRecorder()
		router.ServeHTTP(lw, req)
		if lw.Code != http.StatusOK {
			t.Fatalf("Expected status 200 on list, got %d", lw.Code)
		}
		var decisions []*database.LearningDecision
		if err := json.Unmarshal(lw.Body.Bytes(), &decisions); err != nil {
			t.Fatalf("failed to decode decisions: %v", err)
		}
		if len(decisions) != 1 {
			t.Fatalf("expected 1 decision, got %d", len(decisions))
		}
	})

	t.Run("invalid status returns 400", func(t *testing.T) {
		w := postJSON(t, router, "/learning/supplier", LearningDecisionRequest{
			RawInput: "Рамашка",
			Status:   "maybe",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("global block allowed only for banks", func(t *testing.T) {
		w := postJSON(t, router, "/learning/supplier", LearningDecisionRequest{
			RawInput: "мусорный ввод",
			Status:   database.LearningStatusBlocked,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for supplier global block, got %d", w.Code)
		}

		w = postJSON(t, router, "/learning/bank", LearningDecisionRequest{
			RawInput: "не банк вовсе",
			Status:   database.LearningStatusBlocked,
		})
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200 for bank global block, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("delete removes decision", func(t *testing.T) {
		req, _ := http.NewRequest("DELETE", "/learning/supplier?input="+urlEncode("Рамашка"), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		decision, err := db.GetLearningDecision(database.KindSupplier, engine.Normalizer().Normalize("Рамашка"))
		if err != nil {
			t.Fatalf("GetLearningDecision failed: %v", err)
		}
		if decision != nil {
			t.Error("decision should be deleted")
		}
	})
}

func TestHandleDetectConflictsGin(t *testing.T) {
	engine, _ := newTestEngine(t)

	router := setupGinTestRouter()
	handler := NewResolutionHandler(engine)
	router.POST("/resolve/conflicts", handler.HandleDetectConflictsGin)

	w := postJSON(t, router, "/resolve/conflicts", ConflictsRequest{
		RawSupplierName: "",
		RawBankName:     "",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ConflictsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Conflicts) != 2 {
		t.Fatalf("expected 2 conflicts for empty names, got %d: %v", len(resp.Conflicts), resp.Conflicts)
	}
}
