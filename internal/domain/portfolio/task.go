package portfolio

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/orgplan/orgplan/internal/domain"
)

const maxTaskNameLength = 256

// Task is one node of a project's work breakdown.
type Task struct {
	id       uuid.UUID
	parentID uuid.UUID
	number   int
	key      string
	name     string
	order    int
}

// ID returns the task id.
func (t *Task) ID() uuid.UUID { return t.id }

// ParentID returns the parent task id, or false for a root task.
func (t *Task) ParentID() (uuid.UUID, bool) { return t.parentID, t.parentID != uuid.Nil }

// Number returns the task's sequence number within its project.
func (t *Task) Number() int { return t.number }

// Key returns the display key, e.g. "APOLLO-12".
func (t *Task) Key() string { return t.key }

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Order returns the position among siblings, starting at 1.
func (t *Task) Order() int { return t.order }

// TaskSnapshot is the persisted state of a task.
type TaskSnapshot struct {
	ID       uuid.UUID
	ParentID uuid.UUID
	Number   int
	Name     string
	Order    int
}

// TaskTree is an arena of tasks linked by id. Children are kept as adjacency
// lists keyed by parent id; uuid.Nil holds the roots.
//
// A TaskTree is not safe for concurrent use.
type TaskTree struct {
	projectKey ProjectKey
	tasks      map[uuid.UUID]*Task
	children   map[uuid.UUID][]uuid.UUID
	lastNumber int
	maxDepth   int
}

func newTaskTree(key ProjectKey) *TaskTree {
	return &TaskTree{
		projectKey: key,
		tasks:      make(map[uuid.UUID]*Task),
		children:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func rehydrateTaskTree(key ProjectKey, snaps []TaskSnapshot) (*TaskTree, error) {
	tree := newTaskTree(key)
	for _, s := range snaps {
		if s.Order <= 0 || s.Number <= 0 {
			return nil, fmt.Errorf("task %s: order and number must be positive: %w", s.ID, domain.ErrValidation)
		}
		tree.tasks[s.ID] = &Task{
			id:       s.ID,
			parentID: s.ParentID,
			number:   s.Number,
			key:      key.TaskKey(s.Number),
			name:     s.Name,
			order:    s.Order,
		}
		tree.lastNumber = max(tree.lastNumber, s.Number)
	}
	for _, s := range snaps {
		if s.ParentID != uuid.Nil {
			if _, ok := tree.tasks[s.ParentID]; !ok {
				return nil, fmt.Errorf("task %s: parent %s missing: %w", s.ID, s.ParentID, domain.ErrValidation)
			}
		}
		tree.children[s.ParentID] = append(tree.children[s.ParentID], s.ID)
	}
	for _, s := range snaps {
		if tree.isDescendant(s.ID, s.ParentID) {
			return nil, fmt.Errorf("task %s: cyclic parent chain: %w", s.ID, domain.ErrValidation)
		}
	}
	for parent := range tree.children {
		tree.sortChildren(parent)
	}
	return tree, nil
}

// SetMaxDepth limits how deep the hierarchy may grow. Roots are at depth 1.
// Zero or less disables the limit.
func (tr *TaskTree) SetMaxDepth(n int) { tr.maxDepth = n }

// Len returns the number of tasks.
func (tr *TaskTree) Len() int { return len(tr.tasks) }

// Task returns the task with id.
func (tr *TaskTree) Task(id uuid.UUID) (*Task, bool) {
	t, ok := tr.tasks[id]
	return t, ok
}

// Roots returns the root tasks in order.
func (tr *TaskTree) Roots() []*Task { return tr.Children(uuid.Nil) }

// Children returns the direct children of parentID in order.
func (tr *TaskTree) Children(parentID uuid.UUID) []*Task {
	ids := tr.children[parentID]
	out := make([]*Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, tr.tasks[id])
	}
	return out
}

// Snapshot returns every task ordered by number.
func (tr *TaskTree) Snapshot() []TaskSnapshot {
	out := make([]TaskSnapshot, 0, len(tr.tasks))
	for _, t := range tr.tasks {
		out = append(out, TaskSnapshot{ID: t.id, ParentID: t.parentID, Number: t.number, Name: t.name, Order: t.order})
	}
	slices.SortFunc(out, func(a, b TaskSnapshot) int { return cmp.Compare(a.Number, b.Number) })
	return out
}

// Descendants returns every task below id, depth first.
func (tr *TaskTree) Descendants(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	seen := map[uuid.UUID]bool{id: true}
	stack := slices.Clone(tr.children[id])
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		stack = append(stack, tr.children[cur]...)
	}
	return out
}

// Depth returns the depth of id, 1 for a root task, 0 when unknown.
func (tr *TaskTree) Depth(id uuid.UUID) int {
	depth := 0
	for cur, ok := tr.tasks[id]; ok; cur, ok = tr.tasks[cur.parentID] {
		depth++
	}
	return depth
}

// AddTask creates a root task.
func (tr *TaskTree) AddTask(name string, order int) (*Task, error) {
	return tr.add(uuid.Nil, name, order)
}

// AddChild creates a task under parentID.
func (tr *TaskTree) AddChild(parentID uuid.UUID, name string, order int) (*Task, error) {
	if _, ok := tr.tasks[parentID]; !ok {
		return nil, ErrTaskNotFound.Violationf("Parent task %s was not found.", parentID)
	}
	return tr.add(parentID, name, order)
}

func (tr *TaskTree) add(parentID uuid.UUID, name string, order int) (*Task, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, &domain.ValidationError{Fields: map[string]string{"name": domain.MsgRequired}}
	case len(name) > maxTaskNameLength:
		return nil, &domain.ValidationError{Fields: map[string]string{
			"name": fmt.Sprintf("must be at most %d characters", maxTaskNameLength),
		}}
	}
	if err := validateOrder(order); err != nil {
		return nil, err
	}
	if err := tr.checkDepth(tr.Depth(parentID) + 1); err != nil {
		return nil, err
	}

	tr.lastNumber++
	t := &Task{
		id:       uuid.New(),
		parentID: parentID,
		number:   tr.lastNumber,
		key:      tr.projectKey.TaskKey(tr.lastNumber),
		name:     name,
		order:    order,
	}
	tr.tasks[t.id] = t
	tr.children[parentID] = append(tr.children[parentID], t.id)
	tr.sortChildren(parentID)
	return t, nil
}

// ChangeOrder moves a task to a new position among its siblings.
func (tr *TaskTree) ChangeOrder(id uuid.UUID, order int) error {
	t, ok := tr.tasks[id]
	if !ok {
		return ErrTaskNotFound.Violationf("Task %s was not found.", id)
	}
	if err := validateOrder(order); err != nil {
		return err
	}
	t.order = order
	tr.sortChildren(t.parentID)
	return nil
}

// ChangeParent moves a task, with its subtree, under newParentID (uuid.Nil for
// the root level) at position order.
//
// Every check runs before anything is mutated: a failed move leaves the tree
// exactly as it was. Cycles are detected by walking the children linked in
// this tree below the moved task.
func (tr *TaskTree) ChangeParent(id, newParentID uuid.UUID, order int) error {
	t, ok := tr.tasks[id]
	if !ok {
		return ErrTaskNotFound.Violationf("Task %s was not found.", id)
	}
	if newParentID == id {
		return ErrSelfParent.Violation("A task cannot be its own parent.")
	}
	if tr.isDescendant(id, newParentID) {
		return ErrDescendantCycle.Violation("The parent task cannot be a descendant of the task.")
	}
	if err := validateOrder(order); err != nil {
		return err
	}
	if newParentID != uuid.Nil {
		if _, ok := tr.tasks[newParentID]; !ok {
			return ErrTaskNotFound.Violationf("Parent task %s was not found.", newParentID)
		}
	}
	if err := tr.checkDepth(tr.Depth(newParentID) + tr.height(id)); err != nil {
		return err
	}

	old := t.parentID
	tr.children[old] = slices.DeleteFunc(tr.children[old], func(c uuid.UUID) bool { return c == id })
	if len(tr.children[old]) == 0 {
		delete(tr.children, old)
	}
	t.parentID = newParentID
	t.order = order
	tr.children[newParentID] = append(tr.children[newParentID], id)
	tr.sortChildren(newParentID)
	return nil
}

// RemoveTask deletes a leaf task.
func (tr *TaskTree) RemoveTask(id uuid.UUID) error {
	t, ok := tr.tasks[id]
	if !ok {
		return ErrTaskNotFound.Violationf("Task %s was not found.", id)
	}
	if len(tr.children[id]) > 0 {
		return ErrHasChildren.Violationf("Task %s has child tasks and cannot be deleted.", t.key)
	}
	tr.children[t.parentID] = slices.DeleteFunc(tr.children[t.parentID], func(c uuid.UUID) bool { return c == id })
	if len(tr.children[t.parentID]) == 0 {
		delete(tr.children, t.parentID)
	}
	delete(tr.tasks, id)
	return nil
}

// isDescendant reports whether candidate is ancestor or one of its linked
// descendants.
func (tr *TaskTree) isDescendant(ancestor, candidate uuid.UUID) bool {
	if candidate == uuid.Nil {
		return false
	}
	if candidate == ancestor {
		return true
	}
	return slices.Contains(tr.Descendants(ancestor), candidate)
}

// height is the number of levels in the subtree rooted at id, itself included.
func (tr *TaskTree) height(id uuid.UUID) int {
	h := 0
	for _, c := range tr.children[id] {
		h = max(h, tr.height(c))
	}
	return h + 1
}

func (tr *TaskTree) checkDepth(depth int) error {
	if tr.maxDepth > 0 && depth > tr.maxDepth {
		return ErrMaxDepthExceeded.Violationf("Tasks cannot be nested more than %d levels deep.", tr.maxDepth)
	}
	return nil
}

func (tr *TaskTree) sortChildren(parentID uuid.UUID) {
	slices.SortStableFunc(tr.children[parentID], func(a, b uuid.UUID) int {
		ta, tb := tr.tasks[a], tr.tasks[b]
		if c := cmp.Compare(ta.order, tb.order); c != 0 {
			return c
		}
		return cmp.Compare(ta.number, tb.number)
	})
}

func validateOrder(order int) error {
	if order <= 0 {
		return ErrInvalidOrder.Violationf("The order must be greater than 0, got %d.", order)
	}
	return nil
}
