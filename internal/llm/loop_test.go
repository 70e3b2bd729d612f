package llm

import (
	"reflect"
	"testing"
)

func TestParseLoopMatchesMockedLoop(t *testing.T) {
	l, err := ParseLoop(MockedLoopJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(l, MockedLoop()) {
		t.Fatalf("parsed loop mismatch: %#v", l)
	}
}

func TestMockedLoopTaskOrder(t *testing.T) {
	l, err := ParseLoop(MockedLoopJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(l.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(l.Tasks))
	}
	want := []LoopTask{
		{Description: "Mocked task 1", Type: "recurring"},
		{Description: "Mocked task 2", Type: "one-time"},
	}
	for i := range want {
		if l.Tasks[i] != want[i] {
			t.Fatalf("task %d: got %+v want %+v", i, l.Tasks[i], want[i])
		}
	}
}

func TestMockedLoopReturnsFreshSlice(t *testing.T) {
	a := MockedLoop()
	a.Tasks[0].Description = "changed"
	if MockedLoop().Tasks[0].Description != "Mocked task 1" {
		t.Fatalf("MockedLoop shares its task slice")
	}
}

func TestParseLoopInvalid(t *testing.T) {
	if _, err := ParseLoop("not json"); err == nil {
		t.Fatalf("expected error for invalid payload")
	}
}
