// Package mirror contains the clients for the smart-mirror backend services
// the voice session collaborates with: task storage, weather, news, the joke
// API, the user session store and view navigation. All of them are opaque
// request/response collaborators; none owns audio state.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Task is one to-do entry as stored by the backend. Date is an ISO date
// (yyyy-mm-dd) or nil for "sin fecha".
type Task struct {
	Title  string  `json:"title"`
	Date   *string `json:"date"`
	Time   *string `json:"time"`
	Repeat string  `json:"repeat"`
}

// TaskStore is the task-storage collaborator. Delete is positional: the
// backend stores tasks as an array per user and removes by index.
type TaskStore interface {
	List(ctx context.Context, userID string) ([]Task, error)
	Add(ctx context.Context, userID string, task Task) ([]Task, error)
	Delete(ctx context.Context, userID string, index int) ([]Task, error)
}

// TaskClient talks to the mirror backend task API.
type TaskClient struct {
	baseURL string
	client  *http.Client
}

// NewTaskClient creates a task API client. baseURL is the backend root,
// e.g. "http://localhost:5001".
func NewTaskClient(baseURL string) *TaskClient {
	return &TaskClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type taskListResponse struct {
	Tasks []Task `json:"tasks"`
}

func (c *TaskClient) List(ctx context.Context, userID string) ([]Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tasks/"+userID, nil)
	if err != nil {
		return nil, err
	}
	var out taskListResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return out.Tasks, nil
}

func (c *TaskClient) Add(ctx context.Context, userID string, task Task) ([]Task, error) {
	body, err := json.Marshal(map[string]any{
		"userId": userID,
		"title":  task.Title,
		"date":   task.Date,
		"time":   task.Time,
		"repeat": task.Repeat,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tasks/add", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out taskListResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}
	return out.Tasks, nil
}

func (c *TaskClient) Delete(ctx context.Context, userID string, index int) ([]Task, error) {
	body, err := json.Marshal(map[string]any{"userId": userID, "index": index})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/tasks/delete", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out taskListResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	return out.Tasks, nil
}

func (c *TaskClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// MemoryTaskStore is an in-process TaskStore used in tests and demo mode.
type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[string][]Task
}

// NewMemoryTaskStore creates an empty in-memory store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string][]Task)}
}

func (s *MemoryTaskStore) List(ctx context.Context, userID string) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.tasks[userID]...), nil
}

func (s *MemoryTaskStore) Add(ctx context.Context, userID string, task Task) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.Repeat == "" {
		task.Repeat = "none"
	}
	s.tasks[userID] = append(s.tasks[userID], task)
	return append([]Task(nil), s.tasks[userID]...), nil
}

func (s *MemoryTaskStore) Delete(ctx context.Context, userID string, index int) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.tasks[userID]
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("task index %d out of range", index)
	}
	s.tasks[userID] = append(list[:index], list[index+1:]...)
	return append([]Task(nil), s.tasks[userID]...), nil
}
