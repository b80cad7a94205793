package matching

import (
	"fmt"

	"bglserver/database"
)

// Источники строк кэша подсказок
const (
	SuggestSourceLearning    = "learning"
	SuggestSourceUserHistory = "user_history"
	SuggestSourceAlternative = "alternatives"
	SuggestSourceDictionary  = "dictionary"
)

// Потолок вклада повторных выборов: одно лишь повторение не должно
// перебивать схожесть и доверие источника
const usageBonusCap = 75

// Пороги звездности по итоговому баллу
const (
	threeStarScore = 220
	twoStarScore   = 160
)

// SuggestionInput строка подсказки от вызывающего. Итоговый балл и
// звезды не принимаются извне: формула всегда пересчитывается здесь.
type SuggestionInput struct {
	EntityID    int     `json:"entity_id"`
	DisplayName string  `json:"display_name"`
	Source      string  `json:"source"`
	FuzzyScore  float64 `json:"fuzzy_score"`
	UsageCount  int     `json:"usage_count"`
}

// totalScore итоговый балл подсказки: схожесть, доверие источника и
// ограниченный бонус за повторные выборы
func totalScore(fuzzyScore float64, sourceWeight, usageCount int) float64 {
	usageBonus := usageCount * 15
	if usageBonus > usageBonusCap {
		usageBonus = usageBonusCap
	}
	return fuzzyScore*100 + float64(sourceWeight) + float64(usageBonus)
}

func starRating(total float64) int {
	switch {
	case total >= threeStarScore:
		return 3
	case total >= twoStarScore:
		return 2
	default:
		return 1
	}
}

// sourceWeightFor вес доверия источника подсказки; неизвестный источник
// получает минимальный вес словаря
func (e *Engine) sourceWeightFor(source string) int {
	switch source {
	case SuggestSourceLearning:
		return e.suggestions.WeightLearning
	case SuggestSourceUserHistory:
		return e.suggestions.WeightUserHistory
	case SuggestSourceAlternative:
		return e.suggestions.WeightAlternative
	default:
		return e.suggestions.WeightDictionary
	}
}

// HasCachedSuggestions проверяет, есть ли кэш для нормализованного ввода
func (e *Engine) HasCachedSuggestions(kind database.EntityKind, normalizedInput string) (bool, error) {
	return e.db.HasSuggestions(kind, normalizedInput)
}

// GetCachedSuggestions возвращает до limit кэшированных подсказок в
// порядке убывания итогового балла
func (e *Engine) GetCachedSuggestions(kind database.EntityKind, normalizedInput string, limit int) ([]*database.SuggestionRow, error) {
	rows, err := e.db.GetSuggestions(kind, normalizedInput)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// SaveSuggestions сохраняет набор подсказок для нормализованного ввода.
// По одной строке на (ввод, сущность); балл и звезды вычисляются из
// переданных полей, кэш — оптимизация, а не источник истины.
func (e *Engine) SaveSuggestions(kind database.EntityKind, normalizedInput string, inputs []SuggestionInput) error {
	if normalizedInput == "" {
		return ErrEmptyInput
	}

	for _, input := range inputs {
		if input.EntityID <= 0 {
			return fmt.Errorf("suggestion for %q has invalid entity id %d", normalizedInput, input.EntityID)
		}
		weight := e.sourceWeightFor(input.Source)
		total := totalScore(input.FuzzyScore, weight, input.UsageCount)
		row := &database.SuggestionRow{
			EntityKind:      kind,
			NormalizedInput: normalizedInput,
			EntityID:        input.EntityID,
			DisplayName:     input.DisplayName,
			Source:          input.Source,
			FuzzyScore:      input.FuzzyScore,
			SourceWeight:    weight,
			UsageCount:      input.UsageCount,
			TotalScore:      total,
			StarRating:      starRating(total),
		}
		if err := e.db.UpsertSuggestion(row); err != nil {
			return err
		}
	}
	return nil
}

// SaveResolvedSuggestions переводит результат генерации кандидатов в
// строки кэша (после живого вычисления; следующий запрос того же ввода
// пойдет из кэша)
func (e *Engine) SaveResolvedSuggestions(kind database.EntityKind, result *Result) error {
	if result == nil || result.Normalized == "" || len(result.Candidates) == 0 {
		return nil
	}
	inputs := make([]SuggestionInput, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		inputs = append(inputs, SuggestionInput{
			EntityID:    candidate.EntityID,
			DisplayName: candidate.Name,
			Source:      suggestionSourceFor(candidate.Source),
			FuzzyScore:  candidate.ScoreRaw,
		})
	}
	return e.SaveSuggestions(kind, result.Normalized, inputs)
}

// suggestionSourceFor сводит источники кандидатов к источникам кэша
func suggestionSourceFor(candidateSource string) string {
	switch candidateSource {
	case SourceLearning:
		return SuggestSourceLearning
	case SourceAlternative, SourceFuzzyAlternative:
		return SuggestSourceAlternative
	default:
		return SuggestSourceDictionary
	}
}

// RecordSelection фиксирует выбор подсказки человеком. Существующая
// строка получает +1 к счетчику и пересчет балла; отсутствующая
// вставляется как user_history с полной схожестью: явный выбор
// человека — свидетельство полной уверенности. Инкремент и пересчет
// идут одной транзакцией в БД.
func (e *Engine) RecordSelection(kind database.EntityKind, normalizedInput string, entityID int) error {
	if normalizedInput == "" {
		return ErrEmptyInput
	}

	weight := e.sourceWeightFor(SuggestSourceUserHistory)
	firstTotal := totalScore(1.0, weight, 1)
	seed := &database.SuggestionRow{
		EntityKind:      kind,
		NormalizedInput: normalizedInput,
		EntityID:        entityID,
		DisplayName:     e.entityDisplayName(kind, entityID),
		Source:          SuggestSourceUserHistory,
		FuzzyScore:      1.0,
		SourceWeight:    weight,
		UsageCount:      1,
		TotalScore:      firstTotal,
		StarRating:      starRating(firstTotal),
	}
	_, err := e.db.RecordSuggestionSelection(seed, func(fuzzyScore float64, sourceWeight, usageCount int) (float64, int) {
		total := totalScore(fuzzyScore, sourceWeight, usageCount)
		return total, starRating(total)
	})
	return err
}

// ClearSuggestions инвалидирует кэш по вводу (после правок справочника)
func (e *Engine) ClearSuggestions(kind database.EntityKind, normalizedInput string) error {
	return e.db.ClearSuggestions(kind, normalizedInput)
}

func (e *Engine) entityDisplayName(kind database.EntityKind, entityID int) string {
	switch kind {
	case database.KindSupplier:
		if supplier, err := e.db.GetSupplier(entityID); err == nil && supplier != nil {
			return supplierDisplayName(supplier)
		}
	case database.KindBank:
		if bank, err := e.db.GetBank(entityID); err == nil && bank != nil {
			return bankDisplayName(bank)
		}
	}
	return ""
}
