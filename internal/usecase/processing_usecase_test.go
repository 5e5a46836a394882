package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/plastinin/geo2topo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFileConverter struct {
	err    error
	source string
	format string
	files  []string
	stages []string
}

func (c *fakeFileConverter) ConvertFileWithFormat(_ context.Context, source, format, dest string, opts ...ConvertOption) error {
	c.source = source
	c.format = format

	entries, err := os.ReadDir(filepath.Dir(source))
	if err != nil {
		return err
	}
	for _, e := range entries {
		c.files = append(c.files, e.Name())
	}

	o := convertOptions{progress: noopProgress{}}
	for _, opt := range opts {
		opt(&o)
	}
	o.progress.Stage(StageGeoJSONToTopoJSON)
	c.stages = append(c.stages, StageGeoJSONToTopoJSON)

	if c.err != nil {
		return c.err
	}
	return os.WriteFile(dest, []byte(`{"type":"Topology"}`), 0o644)
}

func seedTask(t *testing.T, repo *fakeTaskRepo, storage *fakeStorage, name string, format domain.Format, sidecars ...string) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(name, format)
	require.NoError(t, err)
	storage.objects[task.FileKey] = []byte("source")
	for _, s := range sidecars {
		key, err := task.AddSidecar(s)
		require.NoError(t, err)
		storage.objects[key] = []byte(s)
	}
	require.NoError(t, repo.Create(context.Background(), task))
	return task
}

func TestProcessTask(t *testing.T) {
	repo, storage := newFakeTaskRepo(), newFakeStorage()
	converter := &fakeFileConverter{}
	workDir := t.TempDir()
	uc := NewProcessingUseCase(repo, storage, converter, workDir, zap.NewNop())

	task := seedTask(t, repo, storage, "roads.kml", domain.FormatKML)

	require.NoError(t, uc.ProcessTask(context.Background(), task.ID))

	stored, err := repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	assert.Equal(t, task.ResultKeyFor(), stored.ResultKey)
	assert.EqualValues(t, len(`{"type":"Topology"}`), stored.ResultSize)
	assert.Equal(t, `{"type":"Topology"}`, string(storage.objects[stored.ResultKey]))
	assert.Equal(t, domain.TopoJSONContentType, storage.types[stored.ResultKey])
	assert.Equal(t, "kml", converter.format)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Повторная обработка завершённой задачи ничего не делает
	require.NoError(t, uc.ProcessTask(context.Background(), task.ID))
}

func TestProcessTaskShapefileSidecars(t *testing.T) {
	repo, storage := newFakeTaskRepo(), newFakeStorage()
	converter := &fakeFileConverter{}
	uc := NewProcessingUseCase(repo, storage, converter, t.TempDir(), zap.NewNop())

	task := seedTask(t, repo, storage, "Parcels.SHP", domain.FormatShapefile, "parcels_attrs.DBF", "other.shx")

	require.NoError(t, uc.ProcessTask(context.Background(), task.ID))

	assert.Equal(t, "Parcels.shp", filepath.Base(converter.source))
	assert.ElementsMatch(t, []string{"Parcels.shp", "Parcels.dbf", "Parcels.shx"}, converter.files)
}

func TestProcessTaskConversionError(t *testing.T) {
	repo, storage := newFakeTaskRepo(), newFakeStorage()
	converter := &fakeFileConverter{err: &domain.StageError{Stage: StageKMLToGeoJSON, Err: errors.New("bad kml")}}
	uc := NewProcessingUseCase(repo, storage, converter, t.TempDir(), zap.NewNop())

	task := seedTask(t, repo, storage, "roads.kml", domain.FormatKML)

	err := uc.ProcessTask(context.Background(), task.ID)
	assert.ErrorIs(t, err, domain.ErrStageFailed)

	stored, err := repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "bad kml")
}

func TestProcessTaskInfrastructureError(t *testing.T) {
	repo, storage := newFakeTaskRepo(), newFakeStorage()
	storage.downloadErr = errors.New("timeout")
	uc := NewProcessingUseCase(repo, storage, &fakeFileConverter{}, t.TempDir(), zap.NewNop())

	task := seedTask(t, repo, storage, "roads.kml", domain.FormatKML)

	assert.Error(t, uc.ProcessTask(context.Background(), task.ID))

	stored, err := repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusProcessing, stored.Status, "task stays processing for a retry")

	storage.downloadErr = nil
	require.NoError(t, uc.ProcessTask(context.Background(), task.ID))

	stored, err = repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
}

func TestFailTask(t *testing.T) {
	repo, storage := newFakeTaskRepo(), newFakeStorage()
	uc := NewProcessingUseCase(repo, storage, &fakeFileConverter{}, t.TempDir(), zap.NewNop())

	task := seedTask(t, repo, storage, "roads.kml", domain.FormatKML)

	require.NoError(t, uc.FailTask(context.Background(), task.ID, "retries exhausted"))

	stored, err := repo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, stored.Status)
	assert.Equal(t, "retries exhausted", stored.Error)

	require.NoError(t, uc.FailTask(context.Background(), task.ID, "again"))
}
