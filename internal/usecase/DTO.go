package usecase

import (
	"io"
)

// CreateTaskInput входные данные для создания задачи
type CreateTaskInput struct {
	FileName   string    // Имя файла
	Format     string    // Явно указанный формат, пустой: определить по имени
	FileSize   int64     // Размер файла
	FileReader io.Reader // Содержимое файла
	Sidecars   []SidecarInput
}

// SidecarInput сопутствующий файл Shapefile (.dbf, .shx, .prj, .cpg)
type SidecarInput struct {
	FileName   string
	FileSize   int64
	FileReader io.Reader
}

