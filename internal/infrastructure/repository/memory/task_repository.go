package memory

import (
	"context"
	"sync"

	"github.com/keyquest/keyquest/internal/domain/task"
)

type TaskRepository struct {
	mu    sync.RWMutex
	tasks []task.Task
}

func NewTaskRepository(tasks []task.Task) *TaskRepository {
	return &TaskRepository{tasks: append([]task.Task(nil), tasks...)}
}

func (r *TaskRepository) GetByID(_ context.Context, taskID string) (task.Task, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.tasks {
		if item.ID == taskID {
			return item, true, nil
		}
	}
	return task.Task{}, false, nil
}

func (r *TaskRepository) ListByLevel(_ context.Context, levelID string) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]task.Task, 0, len(r.tasks))
	for _, item := range r.tasks {
		if item.LevelID == levelID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *TaskRepository) CountKeyBearingByLevel(_ context.Context, levelID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.tasks {
		if item.LevelID == levelID && item.HasKey() {
			count++
		}
	}
	return count, nil
}
