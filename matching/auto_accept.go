package matching

import (
	"fmt"

	"bglserver/database"
)

// TryAutoAcceptSupplier принимает сторону поставщика записи без участия
// человека, если уверенность достаточна. Возвращает true при принятии.
// Назначение сущности — первичная запись, ее ошибки поднимаются наверх;
// журнал решений и метка provenance пишутся следом и при сбое только
// логируются: корректное назначение важнее потерянной аннотации.
func (e *Engine) TryAutoAcceptSupplier(recordID int, supplierResult *Result, conflicts []string) (bool, error) {
	return e.tryAutoAccept(database.KindSupplier, recordID, supplierResult, conflicts)
}

// TryAutoAcceptBank принимает сторону банка записи, независимо от
// стороны поставщика
func (e *Engine) TryAutoAcceptBank(recordID int, bankResult *Result, conflicts []string) (bool, error) {
	return e.tryAutoAccept(database.KindBank, recordID, bankResult, conflicts)
}

func (e *Engine) tryAutoAccept(kind database.EntityKind, recordID int, result *Result, conflicts []string) (bool, error) {
	if result == nil || !e.shouldAutoAccept(result.Candidates, conflicts) {
		return false, nil
	}
	top := result.Candidates[0]

	// Первичная запись: назначение сущности и статус ready
	var err error
	switch kind {
	case database.KindSupplier:
		err = e.db.AssignRecordSupplier(recordID, top.EntityID)
	case database.KindBank:
		err = e.db.AssignRecordBank(recordID, top.EntityID)
	default:
		return false, fmt.Errorf("unknown entity kind: %q", kind)
	}
	if err != nil {
		return false, fmt.Errorf("failed to commit auto-accept for record %d: %w", recordID, err)
	}

	// Вторичные записи: журнал решений и метка auto. Их сбой не
	// откатывает назначение: запись остается корректно разрешенной,
	// теряется только provenance.
	entityID := top.EntityID
	logEntry := &database.LearningLogEntry{
		EntityKind:      kind,
		RecordID:        &recordID,
		RawInput:        result.Raw,
		NormalizedInput: result.Normalized,
		EntityID:        &entityID,
		DecisionResult:  database.DecisionResultAuto,
		CandidateSource: top.Source,
		ScoreRaw:        top.ScoreRaw,
		ScoreWeighted:   top.Score,
	}
	if logErr := e.db.AppendLearningLog(logEntry); logErr != nil {
		e.logger.Error("failed to append auto-accept audit entry",
			"record_id", recordID,
			"kind", string(kind),
			"error", logErr)
	}

	var tagErr error
	switch kind {
	case database.KindSupplier:
		tagErr = e.db.SetRecordSupplierDecision(recordID, database.DecisionResultAuto)
	case database.KindBank:
		tagErr = e.db.SetRecordBankDecision(recordID, database.DecisionResultAuto)
	}
	if tagErr != nil {
		e.logger.Error("failed to tag auto decision on record",
			"record_id", recordID,
			"kind", string(kind),
			"error", tagErr)
	}

	e.logger.Info("record auto-accepted",
		"record_id", recordID,
		"kind", string(kind),
		"entity_id", top.EntityID,
		"source", top.Source,
		"score", top.Score)
	return true, nil
}

// shouldAutoAccept проверяет все условия авто-принятия разом:
// кандидаты есть, конфликтов нет, лидер из доверенного источника
// (fuzzy-совпадения всегда идут на ручной просмотр), балл не ниже
// порога и отрыв от второго кандидата достаточен
func (e *Engine) shouldAutoAccept(candidates []Candidate, conflicts []string) bool {
	if len(candidates) == 0 || len(conflicts) > 0 {
		return false
	}

	top := candidates[0]
	// Доверенные источники — только точные совпадения: словарь,
	// ручной override, альтернативное имя, закрепленное решение
	// человека (learning) и точный код банка (short_exact). Любая
	// нечеткость — на ручной просмотр
	switch top.Source {
	case SourceOfficial, SourceOverride, SourceAlternative, SourceLearning, SourceShortExact:
	default:
		return false
	}
	if isFuzzySource(top.Source) {
		return false
	}
	if top.Score < e.matching.AutoThreshold {
		return false
	}
	if top.EntityID <= 0 {
		return false
	}

	delta := 1.0
	if len(candidates) > 1 {
		delta = top.Score - candidates[1].Score
	}
	return delta >= e.matching.ConflictDelta
}
