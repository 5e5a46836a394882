package migrations

import "embed"

// FS SQL миграции схемы задач конвертации
//
//go:embed *.sql
var FS embed.FS
