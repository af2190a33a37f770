package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitForJob(t *testing.T, o *Orchestrator, id string) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := o.GetJob(id).Snapshot()
		switch snap.Status {
		case StatusCompleted, StatusPartial, StatusFailed:
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return JobSnapshot{}
}

func TestOrchestrator_ProcessesJob(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{WorkerCount: 2, MaxQueueSize: 4, MaxConcurrentDocs: 2, JobTTL: time.Hour},
		testAnalyzer(&keywordClassifier{}), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob([]FileInput{
		{Filename: "a.txt", Data: []byte("robot words")},
		{Filename: "b.txt", Data: []byte("human words")},
	}, Overrides{})
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := waitForJob(t, o, job.ID)
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Completed != 2 {
		t.Errorf("expected 2 completed documents, got %d", snap.Progress.Completed)
	}
	if snap.Documents[0].Report.Score != 100 {
		t.Errorf("expected robot doc score 100, got %v", snap.Documents[0].Report.Score)
	}
	if job.Inputs() != nil {
		t.Error("expected file data released after processing")
	}
}

func TestOrchestrator_PartialAndFailed(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{WorkerCount: 1, MaxQueueSize: 4, MaxConcurrentDocs: 1, JobTTL: time.Hour},
		testAnalyzer(&keywordClassifier{}), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	partial := NewJob([]FileInput{
		{Filename: "a.txt", Data: []byte("fine")},
		{Filename: "b.exe", Data: []byte("MZ")},
	}, Overrides{})
	failed := NewJob([]FileInput{{Filename: "c.pdf", Data: []byte("not a pdf")}}, Overrides{})
	for _, j := range []*Job{partial, failed} {
		if err := o.Submit(j); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	if snap := waitForJob(t, o, partial.ID); snap.Status != StatusPartial {
		t.Errorf("expected partial, got %s", snap.Status)
	}
	if snap := waitForJob(t, o, failed.ID); snap.Status != StatusFailed || snap.Documents[0].Error == "" {
		t.Errorf("expected failed with error, got %+v", snap)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	o := NewOrchestrator(OrchestratorConfig{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour},
		testAnalyzer(&keywordClassifier{}), testLogger())

	if err := o.Submit(NewJob(nil, Overrides{})); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewJob(nil, Overrides{})
	err := o.Submit(second)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if snap := o.GetJob(second.ID).Snapshot(); snap.Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %s", snap.Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
	o.Stop()
}
