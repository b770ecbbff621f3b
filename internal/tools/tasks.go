package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is one to-do item created by voice command.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority"`
	Due       *string   `json:"due,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Done      bool      `json:"done"`
	Principal string    `json:"principal,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type taskFile struct {
	Version int    `json:"version"`
	Tasks   []Task `json:"tasks"`
}

// TaskStore persists tasks as a single JSON file under the data directory.
type TaskStore struct {
	path string
	mu   sync.Mutex
}

// NewTaskStore creates a TaskStore writing to path (e.g. ~/.voicebridge/tasks.json).
func NewTaskStore(path string) *TaskStore {
	return &TaskStore{path: path}
}

func (s *TaskStore) load() taskFile {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return taskFile{Version: 1}
	}
	var tf taskFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return taskFile{Version: 1}
	}
	if tf.Version == 0 {
		tf.Version = 1
	}
	return tf
}

func (s *TaskStore) save(tf taskFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write tasks %s: %w", s.path, err)
	}
	return nil
}

// Add appends a task and returns it with ID and timestamp set.
func (s *TaskStore) Add(t Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()[:8]
	t.CreatedAt = time.Now()
	tf := s.load()
	tf.Tasks = append(tf.Tasks, t)
	return t, s.save(tf)
}

// List returns tasks, optionally filtered to open ones.
func (s *TaskStore) List(openOnly bool) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf := s.load()
	if !openOnly {
		return tf.Tasks
	}
	var out []Task
	for _, t := range tf.Tasks {
		if !t.Done {
			out = append(out, t)
		}
	}
	return out
}

// Complete marks the task with id done. Returns false if no such task.
func (s *TaskStore) Complete(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf := s.load()
	for i := range tf.Tasks {
		if tf.Tasks[i].ID == id {
			tf.Tasks[i].Done = true
			_ = s.save(tf)
			return tf.Tasks[i], true
		}
	}
	return Task{}, false
}

// NewCreateTaskTool builds the create_task definition.
func NewCreateTaskTool(store *TaskStore) *Definition {
	schema := NewSchema().
		String("title", Describe("Short task title")).
		String("priority",
			Describe("Task priority"),
			Enum("low", "medium", "high"),
			Default("medium")).
		String("due", Describe("Due date/time, ISO 8601"), Nullable()).
		Array("tags", Items(KindString), Describe("Free-form labels"), Default([]any{})).
		MustBuild()

	return NewDefinition(
		DeriveName("CreateTaskTool"),
		"Create a to-do task for the current user.",
		schema,
		func(_ context.Context, args map[string]any, req RequestContext) (string, error) {
			task := Task{
				Title:     args["title"].(string),
				Priority:  args["priority"].(string),
				Principal: req.Principal(),
			}
			if due, ok := args["due"].(string); ok {
				task.Due = &due
			}
			if tags, ok := args["tags"].([]any); ok {
				for _, tag := range tags {
					if s, ok := tag.(string); ok {
						task.Tags = append(task.Tags, s)
					}
				}
			}
			created, err := store.Add(task)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Created task %q (id: %s, priority: %s)", created.Title, created.ID, created.Priority), nil
		},
	)
}

// NewListTasksTool builds the list_tasks definition.
func NewListTasksTool(store *TaskStore) *Definition {
	schema := NewSchema().
		Boolean("include_done", Describe("Include completed tasks"), Default(false)).
		MustBuild()

	return NewDefinition(
		DeriveName("ListTasksTool"),
		"List the user's tasks.",
		schema,
		func(_ context.Context, args map[string]any, _ RequestContext) (string, error) {
			includeDone := args["include_done"].(bool)
			tasks := store.List(!includeDone)
			if len(tasks) == 0 {
				return "No tasks.", nil
			}
			var sb strings.Builder
			sb.WriteString("Tasks:\n")
			for _, t := range tasks {
				status := " "
				if t.Done {
					status = "x"
				}
				sb.WriteString(fmt.Sprintf("- [%s] %s (id: %s, %s)", status, t.Title, t.ID, t.Priority))
				if t.Due != nil {
					sb.WriteString(", due " + *t.Due)
				}
				sb.WriteString("\n")
			}
			return sb.String(), nil
		},
	)
}

// NewCompleteTaskTool builds the complete_task definition.
func NewCompleteTaskTool(store *TaskStore) *Definition {
	schema := NewSchema().
		String("task_id", Describe("ID of the task to complete")).
		MustBuild()

	return NewDefinition(
		DeriveName("CompleteTaskTool"),
		"Mark a task as done.",
		schema,
		func(_ context.Context, args map[string]any, _ RequestContext) (string, error) {
			id := args["task_id"].(string)
			task, ok := store.Complete(id)
			if !ok {
				return fmt.Sprintf("Task %s not found", id), nil
			}
			return fmt.Sprintf("Completed task %q (id: %s)", task.Title, task.ID), nil
		},
	)
}
