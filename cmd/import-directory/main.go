// Загрузка справочников поставщиков и банков из .xlsx без запуска
// HTTP сервера:
//
//	import-directory -suppliers suppliers.xlsx -banks banks.xlsx [-db bgl_data.db]
package main

import (
	"flag"
	"log"

	"bglserver/database"
	"bglserver/importer"
)

func main() {
	suppliersPath := flag.String("suppliers", "", "путь к .xlsx со справочником поставщиков")
	banksPath := flag.String("banks", "", "путь к .xlsx со справочником банков")
	dbPath := flag.String("db", "bgl_data.db", "путь к базе данных SQLite")
	flag.Parse()

	if *suppliersPath == "" && *banksPath == "" {
		log.Fatal("Укажите хотя бы один файл: -suppliers и/или -banks")
	}

	db, err := database.NewServiceDB(*dbPath)
	if err != nil {
		log.Fatalf("Ошибка открытия базы данных: %v", err)
	}
	defer db.Close()

	di := importer.NewDirectoryImporter(db)

	if *suppliersPath != "" {
		result, err := di.ImportSuppliersFromFile(*suppliersPath)
		if err != nil {
			log.Fatalf("Ошибка импорта поставщиков: %v", err)
		}
		log.Printf("Поставщики: %d загружено, %d пропущено, %d ошибок",
			result.Success, result.Skipped, len(result.Errors))
		for _, importErr := range result.Errors {
			log.Printf("  %s", importErr)
		}
	}

	if *banksPath != "" {
		result, err := di.ImportBanksFromFile(*banksPath)
		if err != nil {
			log.Fatalf("Ошибка импорта банков: %v", err)
		}
		log.Printf("Банки: %d загружено, %d пропущено, %d ошибок",
			result.Success, result.Skipped, len(result.Errors))
		for _, importErr := range result.Errors {
			log.Printf("  %s", importErr)
		}
	}
}
