// Генератор демонстрационных данных: наполняет базу случайными
// поставщиками, банками и импортированными записями с искаженными
// написаниями, чтобы было на чем смотреть разрешение.
//
//	go run scripts/generate_test_data.go -db demo.db -suppliers 200 -records 500
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"bglserver/database"
	"bglserver/normalization"
)

var legalForms = []string{"ООО", "АО", "ПАО", "ИП", "ТОО"}

var bankSeed = []struct {
	name      string
	shortCode string
}{
	{"Сбербанк", "СБ"},
	{"Альфа-Банк", "АБ"},
	{"Коммерческий Банк Открытие", "КБО"},
	{"Промышленный Строительный Банк", "ПСБ"},
	{"Народный Банк", "НБ"},
	{"Евразийский Банк Развития", "ЕБР"},
}

func main() {
	dbPath := flag.String("db", "bgl_demo.db", "путь к базе данных SQLite")
	supplierCount := flag.Int("suppliers", 200, "количество поставщиков")
	recordCount := flag.Int("records", 500, "количество импортируемых записей")
	flag.Parse()

	gofakeit.Seed(0)

	db, err := database.NewServiceDB(*dbPath)
	if err != nil {
		log.Fatalf("Ошибка открытия базы данных: %v", err)
	}
	defer db.Close()

	normalizer := normalization.NewNormalizer()

	// Справочник поставщиков
	supplierNames := make([]string, 0, *supplierCount)
	for i := 0; i < *supplierCount; i++ {
		form := legalForms[gofakeit.Number(0, len(legalForms)-1)]
		name := fmt.Sprintf(`%s "%s"`, form, gofakeit.Company())
		normalized := normalizer.Normalize(name)
		if normalized == "" {
			continue
		}
		if _, err := db.SaveSupplier(name, "", normalized, true); err != nil {
			log.Fatalf("Ошибка создания поставщика: %v", err)
		}
		supplierNames = append(supplierNames, name)
	}
	log.Printf("Создано поставщиков: %d", len(supplierNames))

	// Справочник банков
	bankNames := make([]string, 0, len(bankSeed))
	for _, seed := range bankSeed {
		normalized := normalizer.Normalize(seed.name)
		code := normalizer.NormalizeShortCode(seed.shortCode)
		if _, err := db.SaveBank(seed.name, "", normalized, seed.shortCode, code, true); err != nil {
			log.Fatalf("Ошибка создания банка: %v", err)
		}
		bankNames = append(bankNames, seed.name)
	}
	log.Printf("Создано банков: %d", len(bankNames))

	// Записи с искаженными написаниями
	session := "demo-seed"
	for i := 0; i < *recordCount; i++ {
		supplierName := mangle(supplierNames[gofakeit.Number(0, len(supplierNames)-1)])
		bankName := mangle(bankNames[gofakeit.Number(0, len(bankNames)-1)])
		if _, err := db.SaveGuaranteeRecord(session, supplierName, bankName); err != nil {
			log.Fatalf("Ошибка создания записи: %v", err)
		}
	}
	log.Printf("Создано записей: %d (session_id=%s)", *recordCount, session)
}

// mangle имитирует типичные искажения ручного ввода
func mangle(name string) string {
	switch gofakeit.Number(0, 3) {
	case 0:
		return strings.ToUpper(name)
	case 1:
		return strings.ToLower(name)
	case 2:
		return "  " + name + "  "
	default:
		return name
	}
}
