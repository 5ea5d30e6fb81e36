package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrUnknownTask is returned when a task name has not been registered
var ErrUnknownTask = errors.New("unknown task")

// Task is a named job triggered by a cron spec
type Task struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs registered tasks on their cron specs. A task whose previous
// invocation is still running skips the tick.
type Scheduler struct {
	cron  *cron.Cron
	log   *logrus.Logger
	tasks map[string]Task
}

// New creates a scheduler logging through log
func New(log *logrus.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log:   log,
		tasks: make(map[string]Task),
	}
}

// Register adds a task. The spec is validated immediately.
func (s *Scheduler) Register(task Task) error {
	if task.Name == "" || task.Run == nil {
		return fmt.Errorf("task needs a name and a run function")
	}
	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("task %s already registered", task.Name)
	}
	_, err := s.cron.AddFunc(task.Spec, func() {
		_ = s.execute(context.Background(), task)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for task %s: %w", task.Spec, task.Name, err)
	}
	s.tasks[task.Name] = task
	return nil
}

// Tasks returns the registered task names in order
func (s *Scheduler) Tasks() []string {
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins running tasks in the background
func (s *Scheduler) Start() {
	s.log.WithField("tasks", s.Tasks()).Info("Scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once running
// invocations have finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Scheduler stopping")
	return s.cron.Stop()
}

// RunOnce runs a registered task immediately in the calling goroutine
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	task, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.execute(ctx, task)
}

func (s *Scheduler) execute(ctx context.Context, task Task) error {
	log := s.log.WithField("task", task.Name)
	log.Info("Task running")

	start := time.Now()
	err := task.Run(ctx)
	log = log.WithField("duration", time.Since(start).String())
	if err != nil {
		log.WithError(err).Error("Task failed")
		return err
	}
	log.Info("Task completed")
	return nil
}
