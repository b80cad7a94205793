package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer приводит сырые названия поставщиков и банков к канонической
// форме, используемой как ключ сравнения и поиска. Нормализация
// детерминирована, идемпотентна и никогда не завершается ошибкой:
// пустой или мусорный ввод дает пустую строку.
type Normalizer struct{}

// NewNormalizer создает новый нормализатор
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize выполняет полную нормализацию названия
func (n *Normalizer) Normalize(raw string) string {
	// 1. Приведение к нижнему регистру
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}

	// 2. Нормализация кавычек и дефисов
	text = normalizeQuotes(text)
	text = normalizeHyphens(text)

	// 3. Удаление диакритических знаков для латиницы.
	// Кириллица не трогается: NFD раскладывает й/ё на базу + модификатор,
	// удалять который нельзя.
	text = removeDiacritics(text)

	// 4. Пунктуация заменяется пробелами: для ключа сравнения значимы
	// только буквы и цифры.
	var builder strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	// 5. Схлопывание пробелов
	return strings.Join(strings.Fields(builder.String()), " ")
}

// NormalizeShortCode извлекает кандидата-аббревиатуру банка из сырого названия.
// Возвращает пустую строку, если аббревиатуру выделить нельзя.
func (n *Normalizer) NormalizeShortCode(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(tokens) == 0 {
		return ""
	}

	// Одиночный буквенный токен разумной длины — уже аббревиатура
	if len(tokens) == 1 {
		code := strings.ToUpper(tokens[0])
		if runeLen := len([]rune(code)); runeLen >= 2 && runeLen <= 10 {
			return code
		}
		return ""
	}

	// Несколько слов: берем первые буквы
	var builder strings.Builder
	for _, token := range tokens {
		runes := []rune(token)
		if len(runes) == 0 {
			continue
		}
		builder.WriteRune(unicode.ToUpper(runes[0]))
	}
	code := builder.String()
	if runeLen := len([]rune(code)); runeLen >= 2 && runeLen <= 10 {
		return code
	}
	return ""
}

// normalizeQuotes нормализует различные типы кавычек
func normalizeQuotes(text string) string {
	replacements := map[rune]rune{
		'“': '"',  // left double quotation mark
		'”': '"',  // right double quotation mark
		'‘': '\'', // left single quotation mark
		'’': '\'', // right single quotation mark
		'«': '"',
		'»': '"',
		'„': '"',
		'‚': '\'',
	}

	var builder strings.Builder
	for _, r := range text {
		if replacement, ok := replacements[r]; ok {
			builder.WriteRune(replacement)
		} else {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// normalizeHyphens приводит длинные тире к обычному дефису
func normalizeHyphens(text string) string {
	text = strings.ReplaceAll(text, "—", "-")
	text = strings.ReplaceAll(text, "–", "-")
	text = strings.ReplaceAll(text, "−", "-")
	return text
}

// removeDiacritics удаляет комбинируемые диакритические знаки после
// латинских базовых букв. Раскладка NFD + обратная сборка NFC.
func removeDiacritics(text string) string {
	decomposed := norm.NFD.String(text)

	var builder strings.Builder
	var lastBase rune
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			if lastBase < 128 {
				// Модификатор латинской буквы — отбрасываем
				continue
			}
			builder.WriteRune(r)
			continue
		}
		lastBase = r
		builder.WriteRune(r)
	}

	return norm.NFC.String(builder.String())
}
