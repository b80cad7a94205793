package matching

import (
	"log/slog"

	"bglserver/database"
	"bglserver/internal/config"
	"bglserver/normalization"
	"bglserver/normalization/algorithms"
)

// Engine движок разрешения контрагентов и банков: генерация кандидатов,
// детекция конфликтов, авто-принятие и кэш подсказок за одним фасадом.
// Все вычисления синхронны в рамках запроса; блокировки только на
// границе персистентности.
type Engine struct {
	db          *database.ServiceDB
	normalizer  *normalization.Normalizer
	scorer      *algorithms.SimilarityScorer
	matching    config.MatchingConfig
	suggestions config.SuggestionConfig
	logger      *slog.Logger
}

// NewEngine создает движок разрешения поверх подключенной БД
func NewEngine(db *database.ServiceDB, matching config.MatchingConfig, suggestions config.SuggestionConfig) *Engine {
	return &Engine{
		db:          db,
		normalizer:  normalization.NewNormalizer(),
		scorer:      algorithms.NewSimilarityScorer(),
		matching:    matching,
		suggestions: suggestions,
		logger:      slog.Default().With("component", "matching_engine"),
	}
}

// Normalizer возвращает нормализатор движка (для импортеров и хендлеров,
// которым нужен тот же ключ сравнения)
func (e *Engine) Normalizer() *normalization.Normalizer {
	return e.normalizer
}

// ResolveSupplier генерирует ранжированный список кандидатов-поставщиков
// для сырого названия
func (e *Engine) ResolveSupplier(rawName string) (*Result, error) {
	return e.generateSupplierCandidates(rawName)
}

// ResolveBank генерирует ранжированный список кандидатов-банков по
// водопадной схеме
func (e *Engine) ResolveBank(rawName string) (*Result, error) {
	return e.generateBankCandidates(rawName)
}

// RecordLearningDecision фиксирует решение человека по нормализованному
// вводу и инвалидирует кэш подсказок для него. Alias дополнительно
// закрепляет вариант написания как альтернативное название сущности.
func (e *Engine) RecordLearningDecision(kind database.EntityKind, rawInput, displayName, status string, entityID *int) error {
	normalized := e.normalizer.Normalize(rawInput)
	if normalized == "" {
		return ErrEmptyInput
	}

	decision := &database.LearningDecision{
		EntityKind:      kind,
		NormalizedInput: normalized,
		InputName:       displayName,
		Status:          status,
		EntityID:        entityID,
	}
	if err := e.db.SaveLearningDecision(decision); err != nil {
		return err
	}

	if status == database.LearningStatusAlias && entityID != nil {
		if err := e.db.SaveAlternativeName(kind, *entityID, rawInput, normalized, database.AltSourceLearned); err != nil {
			return err
		}
	}

	// Старые подсказки для этого ввода больше не отражают решение
	if err := e.db.ClearSuggestions(kind, normalized); err != nil {
		return err
	}

	e.logger.Info("learning decision recorded",
		"kind", string(kind),
		"normalized_input", normalized,
		"status", status)
	return nil
}
