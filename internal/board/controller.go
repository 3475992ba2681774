package board

import (
	"context"
	"fmt"

	"prism/internal/task"
)

// Gateway is the subset of the API client the board needs.
type Gateway interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, in task.Input) (task.Task, error)
	UpdateTask(ctx context.Context, id int64, p task.Patch) (task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ToggleComplete(ctx context.Context, id int64) (task.Task, error)
}

// Controller runs task operations against the gateway and applies the
// results to the board. A failed call leaves the board untouched.
type Controller struct {
	gw    Gateway
	board *Board
}

func NewController(gw Gateway, b *Board) *Controller {
	return &Controller{gw: gw, board: b}
}

func (c *Controller) Board() *Board {
	return c.board
}

func (c *Controller) Refresh(ctx context.Context) error {
	return c.board.Loaded(c.gw.ListTasks(ctx))
}

func (c *Controller) Create(ctx context.Context, in task.Input) (task.Task, error) {
	if err := in.Validate(); err != nil {
		return task.Task{}, err
	}
	created, err := c.gw.CreateTask(ctx, in.Normalize())
	if err := c.board.Created(created, err); err != nil {
		return task.Task{}, err
	}
	return created, nil
}

// Update validates the title and description the task would end up with
// before sending the patch.
func (c *Controller) Update(ctx context.Context, id int64, p task.Patch) (task.Task, error) {
	current, ok := c.board.Get(id)
	if !ok {
		return task.Task{}, fmt.Errorf("task %d is not on the board", id)
	}
	if p.Empty() {
		return current, nil
	}
	if err := task.Validate(p.Draft(current)); err != nil {
		return task.Task{}, err
	}
	updated, err := c.gw.UpdateTask(ctx, id, p)
	if err := c.board.Saved(updated, err); err != nil {
		return task.Task{}, err
	}
	return updated, nil
}

func (c *Controller) Toggle(ctx context.Context, id int64) (task.Task, error) {
	toggled, err := c.gw.ToggleComplete(ctx, id)
	if err := c.board.Saved(toggled, err); err != nil {
		return task.Task{}, err
	}
	return toggled, nil
}

func (c *Controller) Delete(ctx context.Context, id int64) error {
	return c.board.Deleted(id, c.gw.DeleteTask(ctx, id))
}
