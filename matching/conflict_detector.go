package matching

import "strings"

// DetectConflicts проверяет результаты разрешения записи на признаки,
// требующие ручного просмотра. Чистая функция: ничего не разрешает и
// не пишет, только перечисляет причины в фиксированном порядке. Пустой
// список означает отсутствие препятствий для авто-принятия.
func (e *Engine) DetectConflicts(supplierResult, bankResult *Result, rawSupplierName, rawBankName string) []string {
	reasons := make([]string, 0)

	if strings.TrimSpace(rawSupplierName) == "" {
		reasons = append(reasons, "raw supplier name is empty")
	}
	if strings.TrimSpace(rawBankName) == "" {
		reasons = append(reasons, "raw bank name is empty")
	}

	if supplierResult != nil {
		if ambiguousTop(supplierResult.Candidates, e.matching.ConflictDelta) {
			reasons = append(reasons, "ambiguous supplier candidates")
		}
		if lowConfidenceAlternative(supplierResult.Candidates, e.matching.AutoThreshold) {
			reasons = append(reasons, "low-confidence alternative supplier match, needs review")
		}
	}

	if bankResult != nil && ambiguousTop(bankResult.Candidates, e.matching.ConflictDelta) {
		reasons = append(reasons, "ambiguous bank candidates")
	}

	return reasons
}

// ambiguousTop лидер оторвался от второго кандидата меньше чем на дельту
func ambiguousTop(candidates []Candidate, conflictDelta float64) bool {
	if len(candidates) < 2 {
		return false
	}
	return candidates[0].Score-candidates[1].Score < conflictDelta
}

// lowConfidenceAlternative лидер — альтернативное название с баллом ниже
// порога авто-принятия
func lowConfidenceAlternative(candidates []Candidate, autoThreshold float64) bool {
	if len(candidates) == 0 {
		return false
	}
	top := candidates[0]
	return top.Source == SourceAlternative && top.Score < autoThreshold
}
