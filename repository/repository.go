// Package repository — veri erişim katmanı.
//
// Her domain için bir arayüz ve SQLite implementasyonu vardır. Servisler
// arayüzlere bağımlıdır; testlerde in-memory fake geçilebilir. Metodlar
// database.Querier alan varyantlar sunmaz; transaction gereken akışlar
// service katmanında database.WithTx ile kurulur ve buradaki *sql.DB yerine
// tx geçen özel metodlar kullanılır.
package repository

import (
	"database/sql"
	"strings"
	"time"
)

// SQLite'ın datetime('now') çıktısıyla aynı format.
const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}

// isUniqueViolation, modernc.org/sqlite'ın UNIQUE constraint hatasını yakalar.
// Driver tipik sqlite3.Error tipini export etmediği için mesaj kontrolü yapılır.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// sortPair, (a, b) çiftini deterministik sıraya sokar. Match ve conversation
// tablolarında aynı çift için tek satır garantisi bu sıralamaya dayanır.
func sortPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}
