package renderer

import (
	"reflect"
	"testing"
)

func TestDeletionQueueFlushIsLIFO(t *testing.T) {
	var order []string
	rec := destroyRecorder{order: &order}

	var q DeletionQueue
	q.PushBuffer(AllocatedBuffer{Buffer: &fakeBuffer{destroyRecorder: rec, name: "buffer-a"}})
	q.PushFence(&fakeFence{destroyRecorder: rec, name: "fence"})
	q.PushSemaphore(&fakeSemaphore{destroyRecorder: rec, name: "semaphore"})
	q.PushBuffer(AllocatedBuffer{Buffer: &fakeBuffer{destroyRecorder: rec, name: "buffer-b"}})

	if q.Len() != 4 {
		t.Fatalf("expected 4 pending entries, got %d", q.Len())
	}

	q.Flush()

	want := []string{"buffer-b", "semaphore", "fence", "buffer-a"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("destroy order = %v, want %v", order, want)
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after flush: %d entries", q.Len())
	}
}

func TestDeletionQueueSingleEntry(t *testing.T) {
	var order []string
	rec := destroyRecorder{order: &order}

	var q DeletionQueue
	q.PushBuffer(AllocatedBuffer{Buffer: &fakeBuffer{destroyRecorder: rec, name: "only"}})
	q.Flush()

	if len(order) != 1 || order[0] != "only" {
		t.Errorf("destroy order = %v, want [only]", order)
	}
}

func TestDeletionQueueFlushEmptyIsNoop(t *testing.T) {
	var q DeletionQueue
	q.Flush()
	q.Flush()

	if q.Len() != 0 {
		t.Errorf("empty queue has %d entries after flush", q.Len())
	}
}

func TestDeletionQueueReusableAfterFlush(t *testing.T) {
	var order []string
	rec := destroyRecorder{order: &order}

	var q DeletionQueue
	q.PushBuffer(AllocatedBuffer{Buffer: &fakeBuffer{destroyRecorder: rec, name: "first"}})
	q.Flush()

	q.PushBuffer(AllocatedBuffer{Buffer: &fakeBuffer{destroyRecorder: rec, name: "second"}})
	q.Flush()

	want := []string{"first", "second"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("destroy order = %v, want %v", order, want)
	}
}
