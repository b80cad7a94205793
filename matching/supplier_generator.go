package matching

import (
	"fmt"

	"bglserver/database"
)

// generateSupplierCandidates строит список кандидатов-поставщиков.
// Источники объединяются: обучение → кураторские сопоставления →
// точные совпадения справочника → точные совпадения альтернативных
// названий → fuzzy-проход. Решение обучения со статусом alias обрывает
// конвейер, блокировка исключает сущность из всех последующих ступеней.
func (e *Engine) generateSupplierCandidates(rawName string) (*Result, error) {
	result := &Result{
		Raw:        rawName,
		Normalized: e.normalizer.Normalize(rawName),
		Candidates: []Candidate{},
	}
	if result.Normalized == "" {
		return result, nil
	}

	decision, err := e.db.GetLearningDecision(database.KindSupplier, result.Normalized)
	if err != nil {
		return nil, fmt.Errorf("learning lookup failed for %q: %w", result.Normalized, err)
	}

	blockedEntity, blockedAll := blockState(decision)
	if blockedAll {
		return result, nil
	}

	if decision != nil && decision.Status == database.LearningStatusAlias {
		candidate, err := e.learningCandidate(database.KindSupplier, decision)
		if err != nil {
			return nil, err
		}
		result.Candidates = []Candidate{candidate}
		return result, nil
	}

	candidates := make([]Candidate, 0, 8)

	overrides, err := e.overrideCandidates(database.KindSupplier, result.Normalized, blockedEntity)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, overrides...)

	exact, err := e.db.GetSuppliersByNormalizedName(result.Normalized)
	if err != nil {
		return nil, fmt.Errorf("supplier exact lookup failed: %w", err)
	}
	for _, supplier := range exact {
		if isBlocked(blockedEntity, supplier.ID) {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceOfficial,
			MatchType: "exact",
			EntityID:  supplier.ID,
			Name:      supplierDisplayName(supplier),
			ScoreRaw:  1.0,
			Score:     e.matching.WeightOfficial,
		})
	}

	altExact, err := e.db.GetAlternativeNamesByNormalized(database.KindSupplier, result.Normalized)
	if err != nil {
		return nil, fmt.Errorf("alternative name lookup failed: %w", err)
	}
	for _, alt := range altExact {
		if isBlocked(blockedEntity, alt.EntityID) {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceAlternative,
			MatchType: "exact",
			EntityID:  alt.EntityID,
			Name:      alt.RawName,
			ScoreRaw:  1.0,
			Score:     e.matching.WeightAltConfirm,
		})
	}

	fuzzy, err := e.supplierFuzzyCandidates(result.Normalized, blockedEntity)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, fuzzy...)

	candidates = dedupeBest(candidates)
	candidates = filterWeak(candidates, e.matching.ReviewThreshold)
	sortCandidates(candidates)
	result.Candidates = candidates
	return result, nil
}

// supplierFuzzyCandidates полный проход по справочнику и альтернативным
// названиям; кандидат принимается от порога WEAK по чистой схожести
func (e *Engine) supplierFuzzyCandidates(normalized string, blockedEntity *int) ([]Candidate, error) {
	suppliers, err := e.db.ListSuppliers()
	if err != nil {
		return nil, fmt.Errorf("supplier directory scan failed: %w", err)
	}

	candidates := make([]Candidate, 0)
	for _, supplier := range suppliers {
		if isBlocked(blockedEntity, supplier.ID) {
			continue
		}
		scoreRaw := e.scorer.Similarity(normalized, supplier.NormalizedName)
		if scoreRaw < e.matching.ReviewThreshold {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceFuzzyOfficial,
			MatchType: "fuzzy",
			Strength:  strengthFor(scoreRaw, e.matching.StrongThreshold),
			EntityID:  supplier.ID,
			Name:      supplierDisplayName(supplier),
			ScoreRaw:  scoreRaw,
			Score:     scoreRaw * e.matching.WeightFuzzy,
		})
	}

	alternatives, err := e.db.ListAlternativeNames(database.KindSupplier)
	if err != nil {
		return nil, fmt.Errorf("alternative name scan failed: %w", err)
	}
	for _, alt := range alternatives {
		if isBlocked(blockedEntity, alt.EntityID) {
			continue
		}
		scoreRaw := e.scorer.Similarity(normalized, alt.NormalizedRawName)
		if scoreRaw < e.matching.ReviewThreshold {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceFuzzyAlternative,
			MatchType: "fuzzy",
			Strength:  strengthFor(scoreRaw, e.matching.StrongThreshold),
			EntityID:  alt.EntityID,
			Name:      alt.RawName,
			ScoreRaw:  scoreRaw,
			Score:     scoreRaw * e.matching.WeightFuzzy,
		})
	}

	return candidates, nil
}

// overrideCandidates кураторские сопоставления, схожие с вводом не ниже
// порога WEAK. Вес — как у официального справочника.
func (e *Engine) overrideCandidates(kind database.EntityKind, normalized string, blockedEntity *int) ([]Candidate, error) {
	overrides, err := e.db.ListOverrides(kind)
	if err != nil {
		return nil, fmt.Errorf("override scan failed: %w", err)
	}

	candidates := make([]Candidate, 0)
	for _, override := range overrides {
		if isBlocked(blockedEntity, override.EntityID) {
			continue
		}
		scoreRaw := e.scorer.Similarity(normalized, override.NormalizedOverride)
		if scoreRaw < e.matching.ReviewThreshold {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceOverride,
			MatchType: "override",
			EntityID:  override.EntityID,
			Name:      override.OverrideName,
			ScoreRaw:  scoreRaw,
			Score:     scoreRaw * e.matching.WeightOfficial,
		})
	}
	return candidates, nil
}

// learningCandidate синтетический кандидат из решения обучения:
// полная уверенность, остальные ступени не выполняются
func (e *Engine) learningCandidate(kind database.EntityKind, decision *database.LearningDecision) (Candidate, error) {
	name := decision.InputName
	switch kind {
	case database.KindSupplier:
		supplier, err := e.db.GetSupplier(*decision.EntityID)
		if err != nil {
			return Candidate{}, fmt.Errorf("supplier lookup for learning decision failed: %w", err)
		}
		if supplier != nil {
			name = supplierDisplayName(supplier)
		}
	case database.KindBank:
		bank, err := e.db.GetBank(*decision.EntityID)
		if err != nil {
			return Candidate{}, fmt.Errorf("bank lookup for learning decision failed: %w", err)
		}
		if bank != nil {
			name = bankDisplayName(bank)
		}
	}

	return Candidate{
		Source:    SourceLearning,
		MatchType: "learning",
		EntityID:  *decision.EntityID,
		Name:      name,
		ScoreRaw:  1.0,
		Score:     1.0,
	}, nil
}

// blockState разбирает решение обучения со статусом blocked.
// Блокировка без сущности глобальна: ввод не дает подсказок вообще.
func blockState(decision *database.LearningDecision) (blockedEntity *int, blockedAll bool) {
	if decision == nil || decision.Status != database.LearningStatusBlocked {
		return nil, false
	}
	if decision.EntityID == nil {
		return nil, true
	}
	return decision.EntityID, false
}

func isBlocked(blockedEntity *int, entityID int) bool {
	return blockedEntity != nil && *blockedEntity == entityID
}

func supplierDisplayName(s *database.Supplier) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.OfficialName
}

func bankDisplayName(b *database.Bank) string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.OfficialName
}
