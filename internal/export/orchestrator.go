// Copyright (c) 2019, Gareth Watts
// All rights reserved.

// Package export runs the per-category exports against an open backup session.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Category is a kind of data that can be exported from a backup.
type Category int

const (
	Messages Category = iota + 1
	Chat
	History
)

func (c Category) String() string {
	switch c {
	case Messages:
		return "iMessage"
	case Chat:
		return "WhatsApp"
	case History:
		return "Safari history"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Task describes one export to perform.
type Task struct {
	Category Category
	// Subpath is the task's output location relative to the destination root.
	Subpath string
}

var (
	messagesTask = Task{Category: Messages, Subpath: "iMessage"}
	chatTask     = Task{Category: Chat, Subpath: "WhatsApp"}
	historyTask  = Task{Category: History, Subpath: "Safari History.csv"}
)

// AllOption is the menu answer that selects every category.
const AllOption = "4"

// TasksFor maps an export menu answer to the tasks to run.
// Unrecognised answers select everything.
func TasksFor(choice string) []Task {
	switch strings.TrimSpace(choice) {
	case "1":
		return []Task{messagesTask}
	case "2":
		return []Task{chatTask}
	case "3":
		return []Task{historyTask}
	}
	return []Task{messagesTask, chatTask, historyTask}
}

// Outcome is the result state of a single task.
type Outcome int

const (
	Success Outcome = iota
	Failed
)

// Result records how one task went.
type Result struct {
	Task    Task
	Outcome Outcome
	Err     error
}

// Reason returns the failure message, or the empty string on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s export failed: %v", r.Task.Category, r.Err)
}

func (r Result) String() string {
	if r.Outcome == Success {
		return fmt.Sprintf("%s: ok", r.Task.Category)
	}
	return fmt.Sprintf("%s: failed: %v", r.Task.Category, r.Err)
}

// Source is the extraction interface exporters use. *session.Session implements it.
type Source interface {
	ExtractByPathGlob(pattern, dest string, preserve bool) (int, error)
	ExtractByDomain(domain, dest string, preserve bool) (int, error)
	ExtractSingleFile(relPath, destFile string) error
}

// Exporter exports a single category.
//
// workDir is an empty scratch directory owned by the task; out is the
// task's output path under the destination root.
type Exporter interface {
	Export(src Source, workDir, out string) error
}

// Orchestrator runs export tasks one after another.
type Orchestrator struct {
	Exporters map[Category]Exporter
	// WorkDir is where per-task scratch directories are created. Empty means os.TempDir.
	WorkDir string
	// Out receives a progress line per task and a line per failure. May be nil.
	Out io.Writer
}

func (o *Orchestrator) printf(format string, args ...interface{}) {
	if o.Out != nil {
		fmt.Fprintf(o.Out, format, args...)
	}
}

// Run recreates destRoot and runs each task in order, returning exactly one
// Result per task. A failing or panicking exporter does not stop later tasks.
func (o *Orchestrator) Run(src Source, tasks []Task, destRoot string) []Result {
	results := make([]Result, 0, len(tasks))

	if err := PrepareDestination(destRoot); err != nil {
		log.Error().Err(err).Str("dest", destRoot).Msg("failed to prepare export directory")
		for _, t := range tasks {
			results = append(results, Result{Task: t, Outcome: Failed, Err: err})
		}
		return results
	}

	for _, t := range tasks {
		logger := log.With().Str("category", t.Category.String()).Logger()
		logger.Info().Msg("starting export")
		o.printf("Exporting %s...\n", t.Category)

		err := o.runTask(src, t, destRoot)
		if err != nil {
			logger.Error().Err(err).Msg("export failed")
			o.printf("%s export failed! %v\n", t.Category, err)
			results = append(results, Result{Task: t, Outcome: Failed, Err: err})
			continue
		}
		logger.Info().Msg("export finished")
		results = append(results, Result{Task: t, Outcome: Success})
	}
	return results
}

func (o *Orchestrator) runTask(src Source, t Task, destRoot string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	exp, ok := o.Exporters[t.Category]
	if !ok {
		return fmt.Errorf("no exporter registered for %s", t.Category)
	}

	work, err := os.MkdirTemp(o.WorkDir, "iosexport-")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(work)

	return exp.Export(src, work, joinOut(destRoot, t.Subpath))
}

// PrepareDestination removes dir and anything in it, then creates it empty.
func PrepareDestination(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
