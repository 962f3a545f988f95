package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/teamtrack/internal/models"
)

func sample() []models.Task {
	nine := int64(9)
	return []models.Task{
		{ID: 1, ProjectID: 7, Priority: models.PriorityMedium, Status: models.StatusToDo, AuthorUserID: 5},
		{ID: 2, ProjectID: 7, Priority: models.PriorityUrgent, Status: models.StatusCompleted, AuthorUserID: 1, AssignedUserID: &nine},
		{ID: 3, ProjectID: 8, Priority: models.PriorityMedium, Status: models.StatusUnderReview, AuthorUserID: 9},
	}
}

func ids(tasks []models.Task) []int64 {
	out := []int64{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestByPriority_ExactSubset(t *testing.T) {
	tasks := sample()
	for _, p := range models.Priorities {
		got := ByPriority(tasks, p)
		for _, task := range got {
			assert.Equal(t, p, task.Priority)
		}
		want := 0
		for _, task := range tasks {
			if task.Priority == p {
				want++
			}
		}
		assert.Len(t, got, want, p.String())
	}
	assert.Equal(t, []int64{1, 3}, ids(ByPriority(tasks, models.PriorityMedium)))
}

func TestByPriority_NoMatchIsEmptyNotNil(t *testing.T) {
	got := ByPriority(sample(), models.PriorityLow)
	require.NotNil(t, got)
	assert.Empty(t, got)

	assert.NotNil(t, ByPriority(nil, models.PriorityLow))
}

func TestByProjectAndUser(t *testing.T) {
	tasks := sample()
	assert.Equal(t, []int64{1, 2}, ids(ByProject(tasks, 7)))
	assert.Equal(t, []int64{2, 3}, ids(ByUser(tasks, 9)))
	assert.Empty(t, ByUser(tasks, 42))
}

func TestBoard_OneColumnPerStatus(t *testing.T) {
	cols := Board(sample())
	require.Len(t, cols, 4)
	assert.Equal(t, models.StatusToDo, cols[0].Status)
	assert.Equal(t, []int64{1}, ids(cols[0].Tasks))
	assert.Empty(t, cols[1].Tasks)
	assert.Equal(t, []int64{3}, ids(cols[2].Tasks))
	assert.Equal(t, []int64{2}, ids(cols[3].Tasks))
}

func TestSortByPriority_DoesNotMutateInput(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 1, 0)
	tasks := []models.Task{
		{ID: 1, Priority: models.PriorityLow},
		{ID: 2, Priority: models.PriorityUrgent},
		{ID: 3, Priority: models.PriorityLow, DueDate: &d2},
		{ID: 4, Priority: models.PriorityLow, DueDate: &d1},
	}

	sorted := SortByPriority(tasks)
	assert.Equal(t, []int64{2, 4, 3, 1}, ids(sorted))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(tasks))
}
