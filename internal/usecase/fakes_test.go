package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/plastinin/geo2topo/internal/domain"
)

type fakeTaskRepo struct {
	mu        sync.Mutex
	tasks     map[uuid.UUID]*domain.Task
	createErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) List(_ context.Context, _ domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := &domain.TaskListResult{Pagination: pagination}
	for _, task := range r.tasks {
		result.Tasks = append(result.Tasks, task)
	}
	result.Total = len(result.Tasks)
	return result, nil
}

type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	downloadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *fakeStorage) Upload(_ context.Context, key, contentType string, reader io.Reader, _ int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) GetURL(_ context.Context, key string) (string, error) {
	return "https://storage.local/" + key, nil
}

type fakeQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (q *fakeQueue) Enqueue(_ context.Context, taskID uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, taskID)
	return nil
}

// fakeStep конвертер, записывающий фиксированное содержимое и запоминающий вызовы
type fakeStep struct {
	mu     sync.Mutex
	output string
	err    error
	inputs []string
	seen   []string
}

func (f *fakeStep) run(_ context.Context, source, dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, source)
	if data, err := os.ReadFile(source); err == nil {
		f.seen = append(f.seen, string(data))
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte(f.output), 0o644)
}

func (f *fakeStep) CopyFile(ctx context.Context, source, dest string) error {
	return f.run(ctx, source, dest)
}

func (f *fakeStep) ConvertToGeoJSON(ctx context.Context, source, dest string) error {
	return f.run(ctx, source, dest)
}

func (f *fakeStep) ConvertGeoJSONToTopoJSON(ctx context.Context, source, dest string) error {
	return f.run(ctx, source, dest)
}

func (f *fakeStep) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}
