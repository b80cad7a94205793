package matching

import (
	"testing"

	"bglserver/database"
	"bglserver/internal/config"
)

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
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
}

func testSuggestionConfig() config.SuggestionConfig {
	return config.SuggestionConfig{
		WeightLearning:    100,
		WeightUserHistory: 80,
		WeightAlternative: 60,
		WeightDictionary:  40,
	}
}

// newTestEngine движок поверх in-memory БД с дефолтными порогами
func newTestEngine(t *testing.T) (*Engine, *database.ServiceDB) {
	t.Helper()
	db, err := database.NewServiceDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEngine(db, testMatchingConfig(), testSuggestionConfig()), db
}

func mustSaveSupplier(t *testing.T, db *database.ServiceDB, officialName, normalizedName string) int {
	t.Helper()
	id, err := db.SaveSupplier(officialName, "", normalizedName, true)
	if err != nil {
		t.Fatalf("failed to seed supplier %q: %v", officialName, err)
	}
	return id
}

func mustSaveBank(t *testing.T, db *database.ServiceDB, officialName, normalizedName, shortCode string) int {
	t.Helper()
	id, err := db.SaveBank(officialName, "", normalizedName, shortCode, shortCode, true)
	if err != nil {
		t.Fatalf("failed to seed bank %q: %v", officialName, err)
	}
	return id
}

func TestResolveSupplier_EmptyInput(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.ResolveSupplier("   ")
	if err != nil {
		t.Fatalf("empty input must not fail: %v", err)
	}
	if result.Normalized != "" {
		t.Errorf("expected empty normalized form, got %q", result.Normalized)
	}
	if len(result.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(result.Candidates))
	}
}

func TestResolveSupplier_ExactOfficialMatch(t *testing.T) {
	engine, db := newTestEngine(t)
	id := mustSaveSupplier(t, db, `ООО "Ромашка"`, "ромашка")

	result, err := engine.ResolveSupplier("РОМАШКА")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(result.Candidates) == 0 {
		t.Fatal("expected candidates for exact match")
	}
	top := result.Candidates[0]
	if top.EntityID != id || top.Source != SourceOfficial {
		t.Errorf("expected official candidate for %d, got %+v", id, top)
	}
	if top.ScoreRaw != 1.0 {
		t.Errorf("expected raw score 1.0 for exact match, got %v", top.ScoreRaw)
	}
}

func TestResolveSupplier_LearningShortCircuit(t *testing.T) {
	engine, db := newTestEngine(t)
	// Справочник содержит точное совпадение, но решение обучения
	// указывает на другую сущность и обрывает конвейер
	mustSaveSupplier(t, db, "Ромашка", "ромашка")
	targetID := mustSaveSupplier(t, db, "Ромашка Групп", "ромашка групп")

	if err := engine.RecordLearningDecision(database.KindSupplier, "Ромашка", "Ромашка Групп", database.LearningStatusAlias, &targetID); err != nil {
		t.Fatalf("failed to record decision: %v", err)
	}

	result, err := engine.ResolveSupplier("Ромашка")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected single learning candidate, got %d", len(result.Candidates))
	}
	top := result.Candidates[0]
	if top.Source != SourceLearning || top.ScoreRaw != 1.0 || top.EntityID != targetID {
		t.Errorf("unexpected learning candidate: %+v", top)
	}
}

func TestResolveSupplier_BlockExclusion(t *testing.T) {
	engine, db := newTestEngine(t)
	blockedID := mustSaveSupplier(t, db, "Ромашка", "ромашка")
	otherID := mustSaveSupplier(t, db, "Ромашка Плюс", "ромашка плюс")

	if err := engine.RecordLearningDecision(database.KindSupplier, "Ромашка", "Ромашка", database.LearningStatusBlocked, &blockedID); err != nil {
		t.Fatalf("failed to record block: %v", err)
	}

	result, err := engine.ResolveSupplier("Ромашка")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	for _, candidate := range result.Candidates {
		if candidate.EntityID == blockedID {
			t.Errorf("blocked entity %d leaked into candidates: %+v", blockedID, candidate)
		}
	}
	// Незаблокированная сущность остается доступной
	found := false
	for _, candidate := range result.Candidates {
		if candidate.EntityID == otherID {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unblocked entity %d among candidates", otherID)
	}
}

func TestResolveSupplier_DedupKeepsBest(t *testing.T) {
	engine, db := newTestEngine(t)
	id := mustSaveSupplier(t, db, "Ромашка", "ромашка")
	// Та же сущность достижима и точным совпадением, и альтернативным
	// названием, и fuzzy-проходом
	if err := db.SaveAlternativeName(database.KindSupplier, id, "Ромашка", "ромашка", database.AltSourceManual); err != nil {
		t.Fatalf("failed to seed alternative: %v", err)
	}

	result, err := engine.ResolveSupplier("Ромашка")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	seen := make(map[int]bool)
	for _, candidate := range result.Candidates {
		if seen[candidate.EntityID] {
			t.Fatalf("duplicate entity %d in candidates", candidate.EntityID)
		}
		seen[candidate.EntityID] = true
	}
	// Побеждает самый тяжелый источник: официальное точное совпадение
	if result.Candidates[0].Source != SourceOfficial {
		t.Errorf("expected official source to win dedup, got %q", result.Candidates[0].Source)
	}
}

func TestResolveSupplier_FuzzyBelowThresholdFiltered(t *testing.T) {
	engine, db := newTestEngine(t)
	mustSaveSupplier(t, db, "Совершенно Другое Название", "совершенно другое название")

	result, err := engine.ResolveSupplier("Ромашка")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(result.Candidates) != 0 {
		t.Errorf("expected unrelated name filtered out, got %+v", result.Candidates)
	}
}

func TestResolveSupplier_DeterministicTiebreak(t *testing.T) {
	engine, db := newTestEngine(t)
	// Две сущности с одинаковым нормализованным названием: равные баллы,
	// порядок по возрастанию id
	firstID := mustSaveSupplier(t, db, "Ромашка", "ромашка")
	secondID := mustSaveSupplier(t, db, "Ромашка (дубль)", "ромашка")
	if secondID < firstID {
		t.Fatalf("expected ascending ids, got %d then %d", firstID, secondID)
	}

	for i := 0; i < 5; i++ {
		result, err := engine.ResolveSupplier("Ромашка")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if len(result.Candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(result.Candidates))
		}
		if result.Candidates[0].EntityID != firstID || result.Candidates[1].EntityID != secondID {
			t.Fatalf("unstable order on run %d: %d, %d", i, result.Candidates[0].EntityID, result.Candidates[1].EntityID)
		}
	}
}

func TestResolveSupplier_OverrideBeatsFuzzy(t *testing.T) {
	engine, db := newTestEngine(t)
	fuzzyID := mustSaveSupplier(t, db, "Ромашка Трейд", "ромашка трейд")
	overrideID := mustSaveSupplier(t, db, "ТД Ромашка", "тд ромашка")
	if err := db.SaveOverride(database.KindSupplier, overrideID, "Ромашка Трейдинг", "ромашка трейдинг", ""); err != nil {
		t.Fatalf("failed to seed override: %v", err)
	}

	result, err := engine.ResolveSupplier("Ромашка Трейдинг")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(result.Candidates) == 0 {
		t.Fatal("expected candidates")
	}
	top := result.Candidates[0]
	if top.Source != SourceOverride || top.EntityID != overrideID {
		t.Errorf("expected override on top, got %+v", top)
	}
	// Fuzzy-кандидат присутствует, но ниже
	foundFuzzy := false
	for _, candidate := range result.Candidates[1:] {
		if candidate.EntityID == fuzzyID {
			foundFuzzy = true
		}
	}
	if !foundFuzzy {
		t.Error("expected fuzzy candidate below the override")
	}
}

func TestResolveBank_WaterfallShortCircuit(t *testing.T) {
	engine, db := newTestEngine(t)
	shortID := mustSaveBank(t, db, "Коммерческий Банк Открытие", "коммерческий банк открытие", "КБО")
	// Вторая сущность с полным названием, точно равным вводу: без
	// водопада она бы выиграла, но ступень аббревиатур уже дала результат
	fullID := mustSaveBank(t, db, "КБО Банк", "кбо", "")

	result, err := engine.ResolveBank("КБО")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected single short-code candidate, got %+v", result.Candidates)
	}
	top := result.Candidates[0]
	if top.EntityID != shortID || top.Source != SourceShortExact {
		t.Errorf("expected short-code exact match for %d, got %+v", shortID, top)
	}
	for _, candidate := range result.Candidates {
		if candidate.EntityID == fullID {
			t.Errorf("full-name stage must not run after short-code hit")
		}
	}
}

func TestResolveBank_FallsThroughToFullName(t *testing.T) {
	engine, db := newTestEngine(t)
	id := mustSaveBank(t, db, "ПАО Сбербанк", "пао сбербанк", "СБ")

	// Извлеченные инициалы не совпадают с аббревиатурой банка:
	// водопад доходит до ступени полного названия
	result, err := engine.ResolveBank("ПАО Сбербанк")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected single full-name candidate, got %+v", result.Candidates)
	}
	if result.Candidates[0].EntityID != id || result.Candidates[0].Source != SourceOfficial {
		t.Errorf("expected official full-name match, got %+v", result.Candidates[0])
	}
}

func TestResolveBank_GlobalBlock(t *testing.T) {
	engine, db := newTestEngine(t)
	mustSaveBank(t, db, "ПАО Сбербанк", "пао сбербанк", "СБ")

	// Глобальная блокировка: ввод не банк, подсказок быть не должно
	if err := engine.RecordLearningDecision(database.KindBank, "ПАО Сбербанк", "ПАО Сбербанк", database.LearningStatusBlocked, nil); err != nil {
		t.Fatalf("failed to record global block: %v", err)
	}

	result, err := engine.ResolveBank("ПАО Сбербанк")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(result.Candidates) != 0 {
		t.Errorf("expected no candidates under global block, got %+v", result.Candidates)
	}
}

func TestRecordLearningDecision_CreatesAlternativeName(t *testing.T) {
	engine, db := newTestEngine(t)
	id := mustSaveSupplier(t, db, "Ромашка", "ромашка")

	if err := engine.RecordLearningDecision(database.KindSupplier, "Ромашка ЛТД", "Ромашка", database.LearningStatusAlias, &id); err != nil {
		t.Fatalf("failed to record alias: %v", err)
	}

	names, err := db.GetAlternativeNamesByNormalized(database.KindSupplier, "ромашка лтд")
	if err != nil {
		t.Fatalf("failed to lookup alternative names: %v", err)
	}
	if len(names) != 1 || names[0].EntityID != id || names[0].Source != database.AltSourceLearned {
		t.Errorf("expected learned alternative name for %d, got %+v", id, names)
	}
}
