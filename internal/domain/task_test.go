package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask("roads.kml", FormatKML)
	require.NoError(t, err)

	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, FormatKML, task.Format)
	assert.Equal(t, "sources/"+task.ID.String()+"/roads.kml", task.FileKey)
	assert.Equal(t, "results/"+task.ID.String()+"/roads.topojson", task.ResultKeyFor())

	_, err = NewTask("", FormatKML)
	assert.ErrorIs(t, err, ErrEmptyFileName)

	_, err = NewTask("roads.gpkg", Format("geopackage"))
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestTaskLifecycle(t *testing.T) {
	task, err := NewTask("parcels.shp", FormatShapefile)
	require.NoError(t, err)

	assert.ErrorIs(t, task.MarkCompleted("k", 1), ErrInvalidTaskStatus)

	require.NoError(t, task.MarkProcessing())
	assert.ErrorIs(t, task.MarkProcessing(), ErrInvalidTaskStatus)
	assert.ErrorIs(t, task.MarkCompleted("", 1), ErrEmptyFileKey)

	require.NoError(t, task.MarkCompleted(task.ResultKeyFor(), 42))
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.EqualValues(t, 42, task.ResultSize)
	assert.NotNil(t, task.CompletedAt)
	assert.True(t, task.Status.IsFinal())

	assert.ErrorIs(t, task.MarkFailed("late"), ErrInvalidTaskStatus)
}

func TestTaskSidecars(t *testing.T) {
	task, err := NewTask("parcels.shp", FormatShapefile)
	require.NoError(t, err)

	key, err := task.AddSidecar("parcels.dbf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "/parcels.dbf"))

	_, err = task.AddSidecar("parcels.exe")
	assert.ErrorIs(t, err, ErrInvalidSidecar)

	assert.Equal(t, []string{task.FileKey, key}, task.Keys())
	assert.True(t, HasDBFSidecar([]string{"a.shx", "A.DBF"}))
	assert.False(t, HasDBFSidecar([]string{"a.shx"}))
}

func TestResultFileName(t *testing.T) {
	assert.Equal(t, "world.topojson", ResultFileName("dir/world.geojson"))
	assert.Equal(t, "parcels.topojson", ResultFileName("parcels.shp"))
	assert.Equal(t, "noext.topojson", ResultFileName("noext"))
}
