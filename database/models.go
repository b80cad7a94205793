package database

import "time"

// EntityKind тип справочника: поставщик или банк
type EntityKind string

const (
	KindSupplier EntityKind = "supplier"
	KindBank     EntityKind = "bank"
)

// Статусы записи обучения
const (
	LearningStatusAlias   = "alias"
	LearningStatusBlocked = "blocked"
)

// Статусы сопоставления записи
const (
	MatchStatusPending = "pending"
	MatchStatusReady   = "ready"
)

// Результаты решения по записи
const (
	DecisionResultAuto   = "auto"
	DecisionResultManual = "manual"
)

// Источники альтернативных названий
const (
	AltSourceManual  = "manual"
	AltSourceLearned = "learned"
)

// Supplier каноническая запись справочника поставщиков
type Supplier struct {
	ID             int       `json:"id"`
	OfficialName   string    `json:"official_name"`
	DisplayName    string    `json:"display_name,omitempty"`
	NormalizedName string    `json:"normalized_name"`
	Confirmed      bool      `json:"confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

// Bank каноническая запись справочника банков.
// В отличие от поставщиков, у банка есть аббревиатура (short code),
// по которой идет первая ступень водопада сопоставления.
type Bank struct {
	ID                  int       `json:"id"`
	OfficialName        string    `json:"official_name"`
	DisplayName         string    `json:"display_name,omitempty"`
	NormalizedName      string    `json:"normalized_name"`
	ShortCode           string    `json:"short_code,omitempty"`
	NormalizedShortCode string    `json:"normalized_short_code,omitempty"`
	Confirmed           bool      `json:"confirmed"`
	CreatedAt           time.Time `json:"created_at"`
}

// AlternativeName подтвержденный исторический вариант написания
type AlternativeName struct {
	ID                int        `json:"id"`
	EntityKind        EntityKind `json:"entity_kind"`
	EntityID          int        `json:"entity_id"`
	RawName           string     `json:"raw_name"`
	NormalizedRawName string     `json:"normalized_raw_name"`
	Source            string     `json:"source"`
	OccurrenceCount   int        `json:"occurrence_count"`
	LastSeenAt        time.Time  `json:"last_seen_at"`
}

// Override кураторское сопоставление с наивысшим доверием.
// Вводится администратором вручную и побеждает fuzzy-совпадения,
// но не решение обучения.
type Override struct {
	ID                 int        `json:"id"`
	EntityKind         EntityKind `json:"entity_kind"`
	EntityID           int        `json:"entity_id"`
	OverrideName       string     `json:"override_name"`
	NormalizedOverride string     `json:"normalized_override"`
	Notes              string     `json:"notes,omitempty"`
}

// LearningDecision текущее решение человека по нормализованному вводу.
// Одна строка на (kind, normalized_input): новое решение перезаписывает
// старое. Для банков допускается глобальная блокировка: status=blocked
// без entity_id — ввод вообще не должен давать подсказок.
type LearningDecision struct {
	EntityKind      EntityKind `json:"entity_kind"`
	NormalizedInput string     `json:"normalized_input"`
	InputName       string     `json:"input_name"`
	Status          string     `json:"status"`
	EntityID        *int       `json:"entity_id,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SuggestionRow строка кэша подсказок: топ кандидатов для нормализованного
// ввода с учетом количества выборов пользователями
type SuggestionRow struct {
	EntityKind      EntityKind `json:"entity_kind"`
	NormalizedInput string     `json:"normalized_input"`
	EntityID        int        `json:"entity_id"`
	DisplayName     string     `json:"display_name"`
	Source          string     `json:"source"`
	FuzzyScore      float64    `json:"fuzzy_score"`
	SourceWeight    int        `json:"source_weight"`
	UsageCount      int        `json:"usage_count"`
	TotalScore      float64    `json:"total_score"`
	StarRating      int        `json:"star_rating"`
	LastUpdated     time.Time  `json:"last_updated"`
}

// GuaranteeRecord импортированная строка, для которой разрешаются
// поставщик и банк. Статусы и результаты решений ведутся независимо
// по каждому виду сущности.
type GuaranteeRecord struct {
	ID                     int       `json:"id"`
	SessionID              string    `json:"session_id"`
	RawSupplierName        string    `json:"raw_supplier_name"`
	RawBankName            string    `json:"raw_bank_name"`
	SupplierID             *int      `json:"supplier_id,omitempty"`
	BankID                 *int      `json:"bank_id,omitempty"`
	SupplierMatchStatus    string    `json:"supplier_match_status"`
	BankMatchStatus        string    `json:"bank_match_status"`
	SupplierDecisionResult string    `json:"supplier_decision_result,omitempty"`
	BankDecisionResult     string    `json:"bank_decision_result,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// LearningLogEntry строка журнала решений (append-only)
type LearningLogEntry struct {
	ID              int        `json:"id"`
	EntityKind      EntityKind `json:"entity_kind"`
	RecordID        *int       `json:"record_id,omitempty"`
	RawInput        string     `json:"raw_input"`
	NormalizedInput string     `json:"normalized_input"`
	EntityID        *int       `json:"entity_id,omitempty"`
	DecisionResult  string     `json:"decision_result"`
	CandidateSource string     `json:"candidate_source"`
	ScoreRaw        float64    `json:"score_raw"`
	ScoreWeighted   float64    `json:"score_weighted"`
	CreatedAt       time.Time  `json:"created_at"`
}
