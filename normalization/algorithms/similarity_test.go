package algorithms

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestSimilarity_ExactMatch проверяет, что совпадающие строки дают 1.0
func TestSimilarity_ExactMatch(t *testing.T) {
	ss := NewSimilarityScorer()

	if got := ss.Similarity("ооо ромашка", "ооо ромашка"); got != 1.0 {
		t.Errorf("Expected 1.0 for exact match, got %v", got)
	}
}

// TestSimilarity_Prefix проверяет префиксное вхождение
func TestSimilarity_Prefix(t *testing.T) {
	ss := NewSimilarityScorer()

	got := ss.Similarity("компания x", "компания x лтд")
	if got != 0.85 {
		t.Errorf("Expected 0.85 for prefix containment, got %v", got)
	}
}

// TestSimilarity_Substring проверяет вхождение подстрокой
func TestSimilarity_Substring(t *testing.T) {
	ss := NewSimilarityScorer()

	// "ромашка" входит в середину, префиксом не является
	got := ss.ContainmentScore("торговый дом ромашка плюс", "ромашка")
	if got != 0.75 {
		t.Errorf("Expected 0.75 for substring containment, got %v", got)
	}
}

// TestSimilarity_EmptyStrings проверяет поведение на пустых строках
func TestSimilarity_EmptyStrings(t *testing.T) {
	ss := NewSimilarityScorer()

	if got := ss.LevenshteinScore("", ""); got != 0.0 {
		t.Errorf("Expected 0.0 levenshtein score for two empty strings, got %v", got)
	}
	if got := ss.TokenSetScore("", "абв"); got != 0.0 {
		t.Errorf("Expected 0.0 token score when one side has no tokens, got %v", got)
	}
	if got := ss.ContainmentScore("", "абв"); got != 0.0 {
		t.Errorf("Expected 0.0 containment score for empty side, got %v", got)
	}
}

// TestLevenshteinDistance проверяет редакционное расстояние
func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2   string
		expected int
	}{
		{"", "", 0},
		{"банк", "", 4},
		{"", "банк", 4},
		{"банк", "банк", 0},
		{"банк", "бонк", 1},
		{"kitten", "sitting", 3},
		{"ромашка", "ромажка", 1},
	}

	for _, tt := range tests {
		if got := LevenshteinDistance(tt.s1, tt.s2); got != tt.expected {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.expected)
		}
	}
}

// TestLevenshteinScore проверяет нормализацию расстояния
func TestLevenshteinScore(t *testing.T) {
	ss := NewSimilarityScorer()

	// 1 правка на 7 символов
	got := ss.LevenshteinScore("ромашка", "ромажка")
	want := 1.0 - 1.0/7.0
	if !almostEqual(got, want) {
		t.Errorf("LevenshteinScore = %v, want %v", got, want)
	}
}

// TestTokenSetScore проверяет индекс Жаккара по токенам
func TestTokenSetScore(t *testing.T) {
	ss := NewSimilarityScorer()

	// {ооо, ромашка} vs {ромашка, ооо}: перестановка токенов — полное совпадение
	if got := ss.TokenSetScore("ооо ромашка", "ромашка ооо"); got != 1.0 {
		t.Errorf("Expected 1.0 for token permutation, got %v", got)
	}

	// {а, б} vs {б, в}: пересечение 1, объединение 3
	got := ss.TokenSetScore("а б", "б в")
	if !almostEqual(got, 1.0/3.0) {
		t.Errorf("Expected 1/3, got %v", got)
	}
}

// TestSimilarity_BestComponentWins проверяет, что берется максимум компонент
func TestSimilarity_BestComponentWins(t *testing.T) {
	ss := NewSimilarityScorer()

	// Перестановка токенов: Жаккар дает 1.0 и перекрывает слабый Левенштейн
	got := ss.Similarity("банк альфа", "альфа банк")
	if got != 1.0 {
		t.Errorf("Expected token component to win with 1.0, got %v", got)
	}

	// Опечатка: Левенштейн выше контейнмента и Жаккара
	got = ss.Similarity("ромашка", "ромажка")
	want := 1.0 - 1.0/7.0
	if !almostEqual(got, want) {
		t.Errorf("Expected levenshtein component %v, got %v", want, got)
	}
}
