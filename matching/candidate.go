package matching

import "sort"

// Источники кандидатов в порядке убывания доверия
const (
	SourceLearning         = "learning"
	SourceOverride         = "override"
	SourceOfficial         = "official"
	SourceAlternative      = "alternative"
	SourceFuzzyOfficial    = "fuzzy_official"
	SourceFuzzyAlternative = "fuzzy_alternative"
	SourceShortExact       = "short_exact"
	SourceShortFuzzy       = "short_fuzzy"
)

// Сила fuzzy-совпадения
const (
	StrengthStrong = "strong"
	StrengthWeak   = "weak"
)

// Candidate предложение связать сырой ввод с сущностью справочника.
// ScoreRaw — чистая схожесть строк, Score — схожесть с учетом веса
// доверия источника. Сортировка и отсечение идут по Score, фильтр
// слабых совпадений — по ScoreRaw.
type Candidate struct {
	Source    string  `json:"source"`
	MatchType string  `json:"match_type"`
	Strength  string  `json:"strength,omitempty"`
	EntityID  int     `json:"entity_id"`
	Name      string  `json:"name"`
	ScoreRaw  float64 `json:"score_raw"`
	Score     float64 `json:"score"`
}

// Result результат генерации кандидатов для одного сырого названия
type Result struct {
	Raw        string      `json:"raw"`
	Normalized string      `json:"normalized"`
	Candidates []Candidate `json:"candidates"`
}

// isFuzzySource сообщает, получен ли кандидат fuzzy-проходом.
// Такие кандидаты никогда не принимаются автоматически.
func isFuzzySource(source string) bool {
	switch source {
	case SourceFuzzyOfficial, SourceFuzzyAlternative, SourceShortFuzzy:
		return true
	}
	return false
}

// dedupeBest оставляет на каждую сущность одного кандидата с наибольшим
// взвешенным баллом. Порядок входа не важен: результат детерминирован.
func dedupeBest(candidates []Candidate) []Candidate {
	best := make(map[int]Candidate, len(candidates))
	for _, candidate := range candidates {
		existing, ok := best[candidate.EntityID]
		if !ok || candidate.Score > existing.Score {
			best[candidate.EntityID] = candidate
		}
	}

	result := make([]Candidate, 0, len(best))
	for _, candidate := range best {
		result = append(result, candidate)
	}
	return result
}

// sortCandidates сортирует по убыванию взвешенного балла; при равных
// баллах — по возрастанию id сущности, чтобы порядок был воспроизводим
func sortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].EntityID < candidates[j].EntityID
	})
}

// filterWeak отбрасывает кандидатов с чистой схожестью ниже порога
func filterWeak(candidates []Candidate, reviewThreshold float64) []Candidate {
	filtered := candidates[:0]
	for _, candidate := range candidates {
		if candidate.ScoreRaw >= reviewThreshold {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

// strengthFor классифицирует силу совпадения по чистой схожести
func strengthFor(scoreRaw, strongThreshold float64) string {
	if scoreRaw >= strongThreshold {
		return StrengthStrong
	}
	return StrengthWeak
}
