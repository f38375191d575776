package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/planit/backend/domain"
)

func TestParser_CreateGetsCallerDefaults(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	command := NewParser(Options{Policy: PolicyUnconstrained, DefaultPriority: domain.PriorityMedium})
	assistant := NewParser(Options{Policy: PolicyTaskContext, DefaultPriority: domain.PriorityLow})

	got := command.Parse(`create "Pay rent" tomorrow`, now)
	assert.Equal(t, IntentCreateTask, got.Intent)
	assert.Equal(t, "Pay rent", got.Entities.Title)
	assert.Equal(t, "2024-03-16", got.Entities.DueDate)
	assert.Equal(t, domain.PriorityMedium, got.Entities.Priority)
	assert.Equal(t, domain.StatusPending, got.Entities.Status)
	assert.Equal(t, "09:30", got.Entities.StartTime)
	assert.Equal(t, "10:30", got.Entities.EndTime)

	got = assistant.Parse(`create a task "Pay rent"`, now)
	assert.Equal(t, IntentCreateTask, got.Intent)
	assert.Equal(t, domain.PriorityLow, got.Entities.Priority)
	assert.Equal(t, "2024-03-15", got.Entities.DueDate)
}

func TestParser_InvalidDefaultFallsBackToMedium(t *testing.T) {
	p := NewParser(Options{DefaultPriority: "urgent"})
	assert.Equal(t, domain.PriorityMedium, p.DefaultPriority())
	assert.Equal(t, PolicyUnconstrained, p.Policy())
}

func TestParser_NonTaskIntentsCarryNoEntities(t *testing.T) {
	p := NewParser(Options{Policy: PolicyTaskContext})
	now := time.Now()

	got := p.Parse("what is 2 + 2", now)
	assert.Equal(t, IntentCalculator, got.Intent)
	assert.Equal(t, Entities{}, got.Entities)

	got = p.Parse("hello", now)
	assert.Equal(t, IntentChat, got.Intent)
	assert.Equal(t, Entities{}, got.Entities)
}
