package domain

// TaskStatus представляет статус задачи конвертации
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"    // Задача создана, ожидает обработки
	TaskStatusProcessing TaskStatus = "processing" // Идёт конвертация
	TaskStatusCompleted  TaskStatus = "completed"  // TopoJSON записан в хранилище
	TaskStatusFailed     TaskStatus = "failed"     // Конвертация завершилась с ошибкой
)

// IsValid проверяет валидность статуса
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	}
	return false
}

// IsFinal проверяет, является ли статус финальным
func (s TaskStatus) IsFinal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

func (s TaskStatus) String() string {
	return string(s)
}