package async

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestRunParallel_Success(t *testing.T) {
	var count atomic.Int32

	tasks := []Task{
		{Name: "ll-win-client-1", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
		{Name: "ll-win-client-2", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
		{Name: "ll-win-client-3", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
	}

	err := RunParallel(context.Background(), tasks)
	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}

	if count.Load() != 3 {
		t.Errorf("expected 3 tasks to run, got %d", count.Load())
	}
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	if err := RunParallel(context.Background(), nil); err != nil {
		t.Errorf("expected no error for empty tasks, got: %v", err)
	}

	if err := RunParallel(context.Background(), []Task{}); err != nil {
		t.Errorf("expected no error for empty slice, got: %v", err)
	}
}

func TestRunParallel_SingleError(t *testing.T) {
	expectedErr := errors.New("task failed")

	tasks := []Task{
		{Name: "ok", Func: func(_ context.Context) error {
			return nil
		}},
		{Name: "failing", Func: func(_ context.Context) error {
			return expectedErr
		}},
	}

	err := RunParallel(context.Background(), tasks)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error to wrap %v, got: %v", expectedErr, err)
	}
	if !strings.Contains(err.Error(), "failing") {
		t.Errorf("expected error to name the failed task, got: %v", err)
	}
}

func TestRunParallel_AllRunDespiteError(t *testing.T) {
	var count atomic.Int32

	tasks := []Task{
		{Name: "failing", Func: func(_ context.Context) error {
			count.Add(1)
			return errors.New("boom")
		}},
		{Name: "slow", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
	}

	err := RunParallel(context.Background(), tasks)
	if err == nil {
		t.Fatal("expected error")
	}
	if count.Load() != 2 {
		t.Errorf("expected all tasks to complete, got %d", count.Load())
	}
}
