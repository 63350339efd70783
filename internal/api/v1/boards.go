package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/taskboard/internal/board"
	"github.com/gosuda/taskboard/internal/domain"
)

type GetBoardOutput struct {
	Body struct {
		Revision uint64          `json:"revision" doc:"Monotonic board revision"`
		Columns  []domain.Column `json:"columns" doc:"Columns in display order"`
	}
}

// MutationBody is returned by every write operation.
type MutationBody struct {
	Revision uint64        `json:"revision" doc:"Board revision after the change"`
	Board    *domain.Board `json:"board" doc:"Full board after the change"`
	Task     *domain.Task  `json:"task,omitempty" doc:"Created or edited task"`
	Warning  string        `json:"warning,omitempty" doc:"Set when the change could not be persisted"`
}

type MutationOutput struct {
	Body MutationBody
}

type CreateTaskInput struct {
	ColumnID string `path:"columnID" doc:"Column ID"`
	Body     struct {
		Title       string `json:"title" maxLength:"500" doc:"Task title"`
		Description string `json:"description,omitempty" doc:"Task description"`
	}
}

type EditTaskInput struct {
	ColumnID string `path:"columnID" doc:"Column ID"`
	TaskID   string `path:"taskID" doc:"Task ID"`
	Body     struct {
		Title       string `json:"title" maxLength:"500" doc:"New title"`
		Description string `json:"description,omitempty" doc:"New description"`
	}
}

type DeleteTaskInput struct {
	ColumnID string `path:"columnID" doc:"Column ID"`
	TaskID   string `path:"taskID" doc:"Task ID"`
}

type MoveTaskInput struct {
	Body struct {
		SourceColumnID string `json:"source_column_id" minLength:"1" doc:"Column the task is taken from"`
		SourceIndex    int    `json:"source_index" doc:"Position in the source column"`
		DestColumnID   string `json:"dest_column_id" minLength:"1" doc:"Column the task is placed in"`
		DestIndex      int    `json:"dest_index" doc:"Position in the destination column after removal"`
	}
}

func mutationOutput(res board.Result) *MutationOutput {
	return &MutationOutput{Body: MutationBody{
		Revision: res.Revision,
		Board:    res.Board,
		Task:     res.Task,
		Warning:  warning(res.SaveErr),
	}}
}

func RegisterBoardRoutes(api huma.API, svc BoardService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/board",
		Summary:     "Get the current board",
		Tags:        []string{"Board"},
	}, func(_ context.Context, _ *struct{}) (*GetBoardOutput, error) {
		b, rev := svc.Snapshot()
		out := &GetBoardOutput{}
		out.Body.Revision = rev
		out.Body.Columns = b.Columns
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/columns/{columnID}/tasks",
		Summary:       "Append a task to a column",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*MutationOutput, error) {
		res, err := svc.AddTask(ctx, input.ColumnID, input.Body.Title, input.Body.Description)
		if err != nil {
			return nil, toHTTPError(err)
		}
		return mutationOutput(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "edit-task",
		Method:      http.MethodPut,
		Path:        "/columns/{columnID}/tasks/{taskID}",
		Summary:     "Replace a task's title and description",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *EditTaskInput) (*MutationOutput, error) {
		res, err := svc.EditTask(ctx, input.ColumnID, input.TaskID, input.Body.Title, input.Body.Description)
		if err != nil {
			return nil, toHTTPError(err)
		}
		return mutationOutput(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/columns/{columnID}/tasks/{taskID}",
		Summary:     "Remove a task; missing tasks are ignored",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*MutationOutput, error) {
		res, err := svc.DeleteTask(ctx, input.ColumnID, input.TaskID)
		if err != nil {
			return nil, toHTTPError(err)
		}
		return mutationOutput(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-task",
		Method:      http.MethodPost,
		Path:        "/moves",
		Summary:     "Move a task between or within columns",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *MoveTaskInput) (*MutationOutput, error) {
		res, err := svc.MoveTask(ctx,
			input.Body.SourceColumnID, input.Body.SourceIndex,
			input.Body.DestColumnID, input.Body.DestIndex,
		)
		if err != nil {
			return nil, toHTTPError(err)
		}
		return mutationOutput(res), nil
	})
}
