package matching

import (
	"fmt"

	"bglserver/database"
)

// generateBankCandidates строит список кандидатов-банков по водопадной
// схеме: точная аббревиатура → fuzzy-аббревиатура → точное полное
// название → fuzzy полное название. Каждая следующая ступень выполняется
// только при пустом результате предыдущей: реестр банков мал и
// аббревиатуры надежны, поэтому сильный сигнал не должен конкурировать
// с шумом fuzzy-прохода.
func (e *Engine) generateBankCandidates(rawName string) (*Result, error) {
	result := &Result{
		Raw:        rawName,
		Normalized: e.normalizer.Normalize(rawName),
		Candidates: []Candidate{},
	}
	if result.Normalized == "" {
		return result, nil
	}

	decision, err := e.db.GetLearningDecision(database.KindBank, result.Normalized)
	if err != nil {
		return nil, fmt.Errorf("learning lookup failed for %q: %w", result.Normalized, err)
	}

	blockedEntity, blockedAll := blockState(decision)
	if blockedAll {
		return result, nil
	}

	if decision != nil && decision.Status == database.LearningStatusAlias {
		candidate, err := e.learningCandidate(database.KindBank, decision)
		if err != nil {
			return nil, err
		}
		result.Candidates = []Candidate{candidate}
		return result, nil
	}

	shortCode := e.normalizer.NormalizeShortCode(rawName)

	stages := []func() ([]Candidate, error){
		func() ([]Candidate, error) { return e.bankShortExact(shortCode, blockedEntity) },
		func() ([]Candidate, error) { return e.bankShortFuzzy(shortCode, blockedEntity) },
		func() ([]Candidate, error) { return e.bankFullExact(result.Normalized, blockedEntity) },
		func() ([]Candidate, error) { return e.bankFullFuzzy(result.Normalized, blockedEntity) },
	}

	for _, stage := range stages {
		candidates, err := stage()
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			candidates = dedupeBest(candidates)
			sortCandidates(candidates)
			result.Candidates = candidates
			return result, nil
		}
	}

	return result, nil
}

// bankShortExact первая ступень: точное совпадение аббревиатуры
func (e *Engine) bankShortExact(shortCode string, blockedEntity *int) ([]Candidate, error) {
	if shortCode == "" {
		return nil, nil
	}
	banks, err := e.db.GetBanksByShortCode(shortCode)
	if err != nil {
		return nil, fmt.Errorf("bank short code lookup failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(banks))
	for _, bank := range banks {
		if isBlocked(blockedEntity, bank.ID) {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceShortExact,
			MatchType: "short_code_exact",
			EntityID:  bank.ID,
			Name:      bankDisplayName(bank),
			ScoreRaw:  1.0,
			Score:     e.matching.WeightOfficial,
		})
	}
	return candidates, nil
}

// bankShortFuzzy вторая ступень: fuzzy-сопоставление аббревиатур
func (e *Engine) bankShortFuzzy(shortCode string, blockedEntity *int) ([]Candidate, error) {
	if shortCode == "" {
		return nil, nil
	}
	banks, err := e.db.ListBanks()
	if err != nil {
		return nil, fmt.Errorf("bank directory scan failed: %w", err)
	}

	candidates := make([]Candidate, 0)
	for _, bank := range banks {
		if bank.NormalizedShortCode == "" || isBlocked(blockedEntity, bank.ID) {
			continue
		}
		scoreRaw := e.scorer.Similarity(shortCode, bank.NormalizedShortCode)
		if scoreRaw < e.matching.BankShortFuzzyMin {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceShortFuzzy,
			MatchType: "short_code_fuzzy",
			Strength:  strengthFor(scoreRaw, e.matching.StrongThreshold),
			EntityID:  bank.ID,
			Name:      bankDisplayName(bank),
			ScoreRaw:  scoreRaw,
			Score:     scoreRaw * e.matching.WeightFuzzy,
		})
	}
	return candidates, nil
}

// bankFullExact третья ступень: точное совпадение полного названия
// (официального или подтвержденного альтернативного)
func (e *Engine) bankFullExact(normalized string, blockedEntity *int) ([]Candidate, error) {
	banks, err := e.db.GetBanksByNormalizedName(normalized)
	if err != nil {
		return nil, fmt.Errorf("bank exact lookup failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(banks))
	for _, bank := range banks {
		if isBlocked(blockedEntity, bank.ID) {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceOfficial,
			MatchType: "exact",
			EntityID:  bank.ID,
			Name:      bankDisplayName(bank),
			ScoreRaw:  1.0,
			Score:     e.matching.WeightOfficial,
		})
	}

	alternatives, err := e.db.GetAlternativeNamesByNormalized(database.KindBank, normalized)
	if err != nil {
		return nil, fmt.Errorf("bank alternative name lookup failed: %w", err)
	}
	for _, alt := range alternatives {
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
	return candidates, nil
}

// bankFullFuzzy последняя ступень: fuzzy-проход по полным названиям.
// Порог выше поставщицкого: реестр банков мал и ложные срабатывания
// дороже пропуска.
func (e *Engine) bankFullFuzzy(normalized string, blockedEntity *int) ([]Candidate, error) {
	banks, err := e.db.ListBanks()
	if err != nil {
		return nil, fmt.Errorf("bank directory scan failed: %w", err)
	}

	candidates := make([]Candidate, 0)
	for _, bank := range banks {
		if isBlocked(blockedEntity, bank.ID) {
			continue
		}
		scoreRaw := e.scorer.Similarity(normalized, bank.NormalizedName)
		if scoreRaw < e.matching.BankFullFuzzyMin {
			continue
		}
		candidates = append(candidates, Candidate{
			Source:    SourceFuzzyOfficial,
			MatchType: "fuzzy",
			Strength:  strengthFor(scoreRaw, e.matching.StrongThreshold),
			EntityID:  bank.ID,
			Name:      bankDisplayName(bank),
			ScoreRaw:  scoreRaw,
			Score:     scoreRaw * e.matching.WeightFuzzy,
		})
	}
	return candidates, nil
}
