package memory

import (
	"fmt"
	"testing"
	"time"

	"emergence-monitor-be/internal/model"

	"github.com/google/uuid"
)

func TestInteractionLogEvictsOldestAtCapacity(t *testing.T) {
	log := NewInteractionLog(3)
	for i := 0; i < 5; i++ {
		log.Append(model.Interaction{
			ID:        uuid.New(),
			Prompt:    fmt.Sprintf("prompt-%d", i),
			Response:  fmt.Sprintf("response-%d", i),
			Timestamp: time.Now(),
		})
	}

	entries := log.List()
	if len(entries) != 3 {
		t.Fatalf("expected log capped at 3, got %d", len(entries))
	}
	for i, want := range []string{"prompt-2", "prompt-3", "prompt-4"} {
		if entries[i].Prompt != want {
			t.Errorf("position %d: expected %s, got %s", i, want, entries[i].Prompt)
		}
	}
}

func TestInteractionLogListReturnsCopy(t *testing.T) {
	log := NewInteractionLog(10)
	log.Append(model.Interaction{ID: uuid.New(), Prompt: "original"})

	entries := log.List()
	entries[0].Prompt = "mutated"

	if got := log.List()[0].Prompt; got != "original" {
		t.Errorf("expected internal state untouched, got %s", got)
	}
}

func TestInteractionLogReset(t *testing.T) {
	log := NewInteractionLog(10)
	log.Append(model.Interaction{ID: uuid.New(), Prompt: "one"})
	log.Append(model.Interaction{ID: uuid.New(), Prompt: "two"})

	log.Reset()

	if log.Len() != 0 {
		t.Errorf("expected empty log after reset, got %d entries", log.Len())
	}
}
