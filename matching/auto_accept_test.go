package matching

import (
	"testing"

	"bglserver/database"
)

func seedRecord(t *testing.T, db *database.ServiceDB, supplierName, bankName string) int {
	t.Helper()
	id, err := db.SaveGuaranteeRecord("test-session", supplierName, bankName)
	if err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
	return id
}

func TestTryAutoAccept_CommitsConfidentOfficialMatch(t *testing.T) {
	engine, db := newTestEngine(t)
	recordID := seedRecord(t, db, `ООО "Ромашка"`, "ПАО Сбербанк")

	result := &Result{
		Raw:        `ООО "Ромашка"`,
		Normalized: "ромашка",
		Candidates: []Candidate{
			{Source: SourceOfficial, EntityID: 1, Name: "Ромашка", ScoreRaw: 0.95, Score: 0.95},
			{Source: SourceFuzzyOfficial, EntityID: 2, Name: "Ромашка Плюс", ScoreRaw: 0.44, Score: 0.40},
		},
	}

	accepted, err := engine.TryAutoAcceptSupplier(recordID, result, nil)
	if err != nil {
		t.Fatalf("auto-accept failed: %v", err)
	}
	if !accepted {
		t.Fatal("expected confident official match to be accepted")
	}

	record, err := db.GetGuaranteeRecord(recordID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if record.SupplierID == nil || *record.SupplierID != 1 {
		t.Errorf("expected supplier 1 assigned, got %v", record.SupplierID)
	}
	if record.SupplierMatchStatus != database.MatchStatusReady {
		t.Errorf("expected match status ready, got %q", record.SupplierMatchStatus)
	}
	if record.SupplierDecisionResult != database.DecisionResultAuto {
		t.Errorf("expected auto decision tag, got %q", record.SupplierDecisionResult)
	}

	// Журнал решений получил строку с источником и обоими баллами
	entries, err := db.ListLearningLog(database.KindSupplier, 10)
	if err != nil {
		t.Fatalf("failed to list log: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.CandidateSource != SourceOfficial || entry.DecisionResult != database.DecisionResultAuto {
		t.Errorf("unexpected audit entry: %+v", entry)
	}
	if entry.ScoreRaw != 0.95 || entry.ScoreWeighted != 0.95 {
		t.Errorf("expected both scores captured, got %v/%v", entry.ScoreRaw, entry.ScoreWeighted)
	}
}

func TestTryAutoAccept_ConflictBlocksCommit(t *testing.T) {
	engine, db := newTestEngine(t)
	recordID := seedRecord(t, db, `ООО "Ромашка"`, "ПАО Сбербанк")

	result := &Result{
		Normalized: "ромашка",
		Candidates: []Candidate{
			{Source: SourceOfficial, EntityID: 1, ScoreRaw: 0.95, Score: 0.95},
		},
	}

	accepted, err := engine.TryAutoAcceptSupplier(recordID, result, []string{"ambiguous supplier candidates"})
	if err != nil {
		t.Fatalf("auto-accept failed: %v", err)
	}
	if accepted {
		t.Fatal("conflicts must block auto-accept")
	}

	record, err := db.GetGuaranteeRecord(recordID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if record.SupplierID != nil || record.SupplierMatchStatus != database.MatchStatusPending {
		t.Errorf("expected record untouched, got %+v", record)
	}
}

func TestTryAutoAccept_FuzzyTopNeverAccepted(t *testing.T) {
	engine, db := newTestEngine(t)
	recordID := seedRecord(t, db, "Ромашка", "Сбербанк")

	// Даже идеальный fuzzy-балл идет на ручной просмотр
	result := &Result{
		Normalized: "ромашка",
		Candidates: []Candidate{
			{Source: SourceFuzzyOfficial, EntityID: 1, ScoreRaw: 1.0, Score: 0.95},
		},
	}
	accepted, err := engine.TryAutoAcceptSupplier(recordID, result, nil)
	if err != nil {
		t.Fatalf("auto-accept failed: %v", err)
	}
	if accepted {
		t.Error("fuzzy-only top candidate must not be auto-accepted")
	}
}

func TestTryAutoAccept_BelowThresholdRejected(t *testing.T) {
	engine, db := newTestEngine(t)
	recordID := seedRecord(t, db, "Ромашка", "Сбербанк")

	result := &Result{
		Normalized: "ромашка",
		Candidates: []Candidate{
			{Source: SourceAlternative, EntityID: 1, ScoreRaw: 0.93, Score: 0.88},
		},
	}
	accepted, err := engine.TryAutoAcceptSupplier(recordID, result, nil)
	if err != nil {
		t.Fatalf("auto-accept failed: %v", err)
	}
	if accepted {
		t.Error("score below auto threshold must not be accepted")
	}
}

func TestTryAutoAccept_SmallDeltaRejected(t *testing.T) {
	engine, db := newTestEngine(t)
	recordID := seedRecord(t, db, "Ромашка", "Сбербанк")

	result := &Result{
		Normalized: "ромашка",
		Candidates: []Candidate{
			{Source: SourceOfficial, EntityID: 1, ScoreRaw: 0.96, Score: 0.96},
			{Source: SourceOfficial, EntityID: 2, ScoreRaw: 0.93, Score: 0.93},
		},
	}
	accepted, err := engine.TryAutoAcceptSupplier(recordID, result, nil)
	if err != nil {
		t.Fatalf("auto-accept failed: %v", err)
	}
	if accepted {
		t.Error("leader within conflict delta of runner-up must not be accepted")
	}
}

func TestTryAutoAccept_SingleCandidateDeltaIsOne(t *testing.T) {
	engine, db := newTestEngine(t)
	recordID := seedRecord(t, db, "Ромашка", "Сбербанк")

	// Единственный кандидат: отрыв считается равным 1
	result := &Result{
		Normalized: "ромашка",
		Candidates: []Candidate{
			{Source: SourceOfficial, EntityID: 1, ScoreRaw: 0.92, Score: 0.92},
		},
	}
	accepted, err := engine.TryAutoAcceptSupplier(recordID, result, nil)
	if err != nil {
		t.Fatalf("auto-accept failed: %v", err)
	}
	if !accepted {
		t.Error("single confident candidate must be accepted")
	}
}

func TestTryAutoAccept_BankIndependentOfSupplier(t *testing.T) {
	engine, db := newTestEngine(t)
	recordID := seedRecord(t, db, "Ромашка", "Сбербанк")

	bankResult := &Result{
		Normalized: "сбербанк",
		Candidates: []Candidate{
			{Source: SourceShortExact, EntityID: 4, ScoreRaw: 1.0, Score: 1.0},
		},
	}
	accepted, err := engine.TryAutoAcceptBank(recordID, bankResult, nil)
	if err != nil {
		t.Fatalf("bank auto-accept failed: %v", err)
	}
	if !accepted {
		t.Fatal("expected bank side accepted")
	}

	record, err := db.GetGuaranteeRecord(recordID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if record.BankID == nil || *record.BankID != 4 {
		t.Errorf("expected bank 4 assigned, got %v", record.BankID)
	}
	if record.BankMatchStatus != database.MatchStatusReady {
		t.Errorf("expected bank status ready, got %q", record.BankMatchStatus)
	}
	// Сторона поставщика не затронута
	if record.SupplierMatchStatus != database.MatchStatusPending {
		t.Errorf("expected supplier still pending, got %q", record.SupplierMatchStatus)
	}
}

func TestResolveRecord_FullCycle(t *testing.T) {
	engine, db := newTestEngine(t)
	supplierID := mustSaveSupplier(t, db, `ООО "Ромашка"`, "ромашка")
	bankID := mustSaveBank(t, db, "Коммерческий Банк Открытие", "коммерческий банк открытие", "КБО")
	recordID := seedRecord(t, db, "РОМАШКА", "КБО")

	resolution, err := engine.ResolveRecord(recordID)
	if err != nil {
		t.Fatalf("resolve record failed: %v", err)
	}
	if !resolution.SupplierAccepted || !resolution.BankAccepted {
		t.Fatalf("expected both sides accepted, got %+v", resolution)
	}

	record, err := db.GetGuaranteeRecord(recordID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if record.SupplierID == nil || *record.SupplierID != supplierID {
		t.Errorf("expected supplier %d, got %v", supplierID, record.SupplierID)
	}
	if record.BankID == nil || *record.BankID != bankID {
		t.Errorf("expected bank %d, got %v", bankID, record.BankID)
	}

	// Живой результат закэширован для повторных запросов
	cached, err := engine.HasCachedSuggestions(database.KindSupplier, "ромашка")
	if err != nil {
		t.Fatalf("cache check failed: %v", err)
	}
	if !cached {
		t.Error("expected supplier suggestions cached after resolution")
	}
}

func TestResolveRecord_NotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	if _, err := engine.ResolveRecord(12345); err != ErrRecordNotFound {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestResolveAllPending_SkipsResolvedSides(t *testing.T) {
	engine, db := newTestEngine(t)
	mustSaveSupplier(t, db, "Ромашка", "ромашка")
	mustSaveBank(t, db, "Сбербанк", "сбербанк", "СБ")
	first := seedRecord(t, db, "Ромашка", "Сбербанк")
	second := seedRecord(t, db, "Ромашка", "Сбербанк")

	resolutions, err := engine.ResolveAllPending()
	if err != nil {
		t.Fatalf("recalculate all failed: %v", err)
	}
	if len(resolutions) != 2 {
		t.Fatalf("expected 2 resolutions, got %d", len(resolutions))
	}

	for _, id := range []int{first, second} {
		record, err := db.GetGuaranteeRecord(id)
		if err != nil {
			t.Fatalf("failed to reload record %d: %v", id, err)
		}
		if record.SupplierMatchStatus != database.MatchStatusReady {
			t.Errorf("record %d supplier not resolved: %q", id, record.SupplierMatchStatus)
		}
	}

	// Повторный пересчет: нерешенных больше нет
	resolutions, err = engine.ResolveAllPending()
	if err != nil {
		t.Fatalf("second recalculate failed: %v", err)
	}
	if len(resolutions) != 0 {
		t.Errorf("expected no pending records, got %d", len(resolutions))
	}
}
