package querydispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caio-sobreiro/pacs/dicom"
	"github.com/caio-sobreiro/pacs/types"
)

func TestDispatchPreservesInputOrder(t *testing.T) {
	run := func(ctx context.Context, req Request) ([]*dicom.DataSet, error) {
		return []*dicom.DataSet{dicom.NewDataSet()}, nil
	}
	exec := New(2, run)

	reqs := []Request{
		{QueryID: "a", Priority: types.QueryPriorityLow},
		{QueryID: "b", Priority: types.QueryPriorityHigh},
		{QueryID: "c", Priority: types.QueryPriorityMedium},
	}
	results := exec.Dispatch(context.Background(), reqs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"a", "b", "c"} {
		if results[i].QueryID != want {
			t.Errorf("result[%d].QueryID = %q, want %q", i, results[i].QueryID, want)
		}
	}
}

func TestDispatchReportsFailureWithoutHaltingBatch(t *testing.T) {
	run := func(ctx context.Context, req Request) ([]*dicom.DataSet, error) {
		if req.QueryID == "bad" {
			return nil, errors.New("boom")
		}
		return []*dicom.DataSet{dicom.NewDataSet()}, nil
	}
	exec := New(4, run)

	results := exec.Dispatch(context.Background(), []Request{
		{QueryID: "good1"},
		{QueryID: "bad"},
		{QueryID: "good2"},
	})

	if results[1].Err == nil {
		t.Fatalf("expected result[1] to carry an error")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("failure of one request must not affect siblings: %+v", results)
	}
}

func TestDispatchReportsTimeout(t *testing.T) {
	run := func(ctx context.Context, req Request) ([]*dicom.DataSet, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return nil, nil
		}
	}
	exec := New(1, run)

	results := exec.Dispatch(context.Background(), []Request{
		{QueryID: "slow", Timeout: 5 * time.Millisecond},
	})

	if !results[0].TimedOut {
		t.Fatalf("expected TimedOut=true, got %+v", results[0])
	}
}

func TestCancelAllMarksInFlightRequestsCancelled(t *testing.T) {
	started := make(chan struct{})
	run := func(ctx context.Context, req Request) ([]*dicom.DataSet, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	exec := New(1, run)

	done := make(chan []Result, 1)
	go func() {
		done <- exec.Dispatch(context.Background(), []Request{{QueryID: "x"}})
	}()

	<-started
	exec.CancelAll()

	results := <-done
	if !results[0].Cancelled {
		t.Fatalf("expected Cancelled=true, got %+v", results[0])
	}
}
