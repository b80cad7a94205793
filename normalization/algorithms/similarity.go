package algorithms

import (
	"strings"
)

// Пороги компонент композитной схожести. Максимум из компонент, а не
// среднее: лучший сигнал выигрывает, частичное вхождение типа
// "Компания X" / "Компания X Лтд" не размывается слабыми метриками.
const (
	scoreExact     = 1.0
	scorePrefix    = 0.85
	scoreSubstring = 0.75
)

// SimilarityScorer вычисляет композитную схожесть двух нормализованных строк
type SimilarityScorer struct{}

// NewSimilarityScorer создает новый вычислитель схожести
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

// Similarity возвращает схожесть в диапазоне [0, 1] как максимум
// независимых компонент: точное совпадение, префиксное вхождение,
// подстрока, нормализованное расстояние Левенштейна и индекс Жаккара
// по множествам токенов.
func (ss *SimilarityScorer) Similarity(input, candidate string) float64 {
	best := 0.0

	if score := ss.ExactScore(input, candidate); score > best {
		best = score
	}
	// Точное совпадение дальше улучшить нельзя
	if best == scoreExact {
		return best
	}
	if score := ss.ContainmentScore(input, candidate); score > best {
		best = score
	}
	if score := ss.LevenshteinScore(input, candidate); score > best {
		best = score
	}
	if score := ss.TokenSetScore(input, candidate); score > best {
		best = score
	}

	return best
}

// ExactScore возвращает 1.0 при точном совпадении строк, иначе 0.0
func (ss *SimilarityScorer) ExactScore(s1, s2 string) float64 {
	if s1 == s2 {
		return scoreExact
	}
	return 0.0
}

// ContainmentScore оценивает префиксное вхождение (0.85) и вхождение
// подстрокой (0.75). Пустые строки вхождением не считаются.
func (ss *SimilarityScorer) ContainmentScore(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}
	if strings.HasPrefix(s1, s2) || strings.HasPrefix(s2, s1) {
		return scorePrefix
	}
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		return scoreSubstring
	}
	return 0.0
}

// LevenshteinScore возвращает 1 − distance/maxLen; 0.0 для двух пустых строк
func (ss *SimilarityScorer) LevenshteinScore(s1, s2 string) float64 {
	len1 := len([]rune(s1))
	len2 := len([]rune(s2))
	maxLen := len1
	if len2 > maxLen {
		maxLen = len2
	}
	if maxLen == 0 {
		return 0.0
	}

	distance := LevenshteinDistance(s1, s2)
	return 1.0 - float64(distance)/float64(maxLen)
}

// TokenSetScore вычисляет индекс Жаккара по множествам токенов,
// разделенных пробелами; 0.0 если хотя бы одна сторона без токенов
func (ss *SimilarityScorer) TokenSetScore(s1, s2 string) float64 {
	tokens1 := tokenSet(s1)
	tokens2 := tokenSet(s2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range tokens1 {
		if _, exists := tokens2[token]; exists {
			intersection++
		}
	}

	union := len(tokens1) + len(tokens2) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}

// tokenSet разбивает строку на множество токенов по пробелам
func tokenSet(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Fields(text) {
		tokens[token] = struct{}{}
	}
	return tokens
}

// LevenshteinDistance вычисляет классическое редакционное расстояние.
// Работает по рунам, чтобы кириллица считалась посимвольно.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	// Две строки матрицы достаточно
	prev := make([]int, len2+1)
	curr := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
