package cache

// MutationKind identifies a successful mutation for invalidation purposes
type MutationKind int

const (
	TaskCreated MutationKind = iota + 1
	TaskUpdated
	TaskDeleted
	CommentAdded
	CommentDeleted
	ProjectCreated
)

func (m MutationKind) String() string {
	switch m {
	case TaskCreated:
		return "task-created"
	case TaskUpdated:
		return "task-updated"
	case TaskDeleted:
		return "task-deleted"
	case CommentAdded:
		return "comment-added"
	case CommentDeleted:
		return "comment-deleted"
	case ProjectCreated:
		return "project-created"
	}
	return "unknown"
}

// Affected describes the entity a mutation touched. Zero ids mean unknown.
type Affected struct {
	TaskID    int64
	ProjectID int64
}

type rule func(Affected) func(Key) bool

func allOf(kind Kind) rule {
	return func(Affected) func(Key) bool {
		return func(k Key) bool { return k.Kind == kind }
	}
}

// projectTasks targets the task's project, or every project when unknown
func projectTasks(a Affected) func(Key) bool {
	return func(k Key) bool {
		return k.Kind == KindTasksByProject && (a.ProjectID == 0 || k.ID == a.ProjectID)
	}
}

func taskComments(a Affected) func(Key) bool {
	return func(k Key) bool {
		return k.Kind == KindCommentsByTask && k.ID == a.TaskID
	}
}

// Assignment can move a task between users without us knowing the previous
// assignee, so every tasks-by-user collection is dropped on task writes.
var invalidationRules = map[MutationKind][]rule{
	TaskCreated:    {projectTasks, allOf(KindTasksByUser)},
	TaskUpdated:    {projectTasks, allOf(KindTasksByUser)},
	TaskDeleted:    {allOf(KindTasksByProject), allOf(KindTasksByUser), taskComments},
	CommentAdded:   {taskComments},
	CommentDeleted: {taskComments},
	ProjectCreated: {allOf(KindProjects)},
}

// Apply marks stale every collection that could contain the mutated entity
func (c *Cache) Apply(kind MutationKind, a Affected) int {
	rules := invalidationRules[kind]
	preds := make([]func(Key) bool, len(rules))
	for i, r := range rules {
		preds[i] = r(a)
	}

	n := c.Invalidate(func(k Key) bool {
		for _, p := range preds {
			if p(k) {
				return true
			}
		}
		return false
	})
	c.log.Debug("cache invalidated", "mutation", kind.String(), "task", a.TaskID, "project", a.ProjectID, "stale", n)
	return n
}
