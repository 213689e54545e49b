// Package workflow holds explicit transition tables for quote and job statuses.
// A table is built once, is immutable afterwards, and is consulted before every
// status mutation.
package workflow

import (
	"fmt"
	"sort"

	"github.com/brushline/paintquote/internal/domain/apperr"
)

// Status is any string-backed status enum
type Status interface {
	~string
}

// Builder collects state configurations for a table
type Builder[S Status] struct {
	entity         string
	states         map[S]bool
	terminal       map[S]bool
	configurations map[S]*StateConfiguration[S]
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration[S Status] struct {
	fromState   S
	states      map[S]bool
	transitions map[Trigger][]S
}

// Table is a built, read-only transition table
type Table[S Status] struct {
	entity         string
	states         map[S]bool
	configurations map[S]map[Trigger][]S
}

// NewBuilder creates a builder for the named entity over the given states
func NewBuilder[S Status](entity string, states ...S) *Builder[S] {
	valid := make(map[S]bool, len(states))
	for _, s := range states {
		valid[s] = true
	}
	return &Builder[S]{
		entity:         entity,
		states:         valid,
		terminal:       make(map[S]bool),
		configurations: make(map[S]*StateConfiguration[S]),
	}
}

// Configure returns a state configuration for the given state
func (b *Builder[S]) Configure(state S) *StateConfiguration[S] {
	if !b.states[state] {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &StateConfiguration[S]{
			fromState:   state,
			states:      b.states,
			transitions: make(map[Trigger][]S),
		}
		b.configurations[state] = config
	}

	return config
}

// Terminal marks states that accept no trigger. Build panics if one was configured.
func (b *Builder[S]) Terminal(states ...S) *Builder[S] {
	for _, s := range states {
		if !b.states[s] {
			panic(fmt.Sprintf("invalid terminal state: %s", s))
		}
		b.terminal[s] = true
	}
	return b
}

// Build freezes the configuration into a Table
func (b *Builder[S]) Build() *Table[S] {
	configs := make(map[S]map[Trigger][]S, len(b.configurations))
	for state, config := range b.configurations {
		if b.terminal[state] && len(config.transitions) > 0 {
			panic(fmt.Sprintf("terminal state %s has transitions", state))
		}
		transitions := make(map[Trigger][]S, len(config.transitions))
		for trigger, targets := range config.transitions {
			transitions[trigger] = append([]S{}, targets...)
		}
		configs[state] = transitions
	}

	states := make(map[S]bool, len(b.states))
	for s := range b.states {
		states[s] = true
	}

	return &Table[S]{
		entity:         b.entity,
		states:         states,
		configurations: configs,
	}
}

// Permit allows a trigger to transition to the target state. A trigger permitted
// to several targets needs FireTo to pick one.
func (c *StateConfiguration[S]) Permit(trigger Trigger, toState S) *StateConfiguration[S] {
	if !c.states[toState] {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	c.transitions[trigger] = append(c.transitions[trigger], toState)
	return c
}

// Entity returns the entity name used in errors
func (t *Table[S]) Entity() string {
	return t.entity
}

// IsValid reports whether s belongs to the table
func (t *Table[S]) IsValid(s S) bool {
	return t.states[s]
}

// CanFire returns true if the trigger is permitted from state
func (t *Table[S]) CanFire(from S, trigger Trigger) bool {
	return len(t.configurations[from][trigger]) > 0
}

// Fire returns the first target of trigger from state
func (t *Table[S]) Fire(from S, trigger Trigger) (S, error) {
	var zero S
	if !t.states[from] {
		return zero, fmt.Errorf("%w: %s %q", ErrInvalidState, t.entity, from)
	}

	targets := t.configurations[from][trigger]
	if len(targets) == 0 {
		return zero, t.rejected(from, trigger, "")
	}
	return targets[0], nil
}

// FireTo validates a move from state to an explicit target of trigger
func (t *Table[S]) FireTo(from S, trigger Trigger, to S) error {
	if !t.states[from] {
		return fmt.Errorf("%w: %s %q", ErrInvalidState, t.entity, from)
	}
	for _, target := range t.configurations[from][trigger] {
		if target == to {
			return nil
		}
	}
	return t.rejected(from, trigger, to)
}

// PermittedTriggers returns the triggers configured for state in a stable order
func (t *Table[S]) PermittedTriggers(from S) []Trigger {
	config := t.configurations[from]
	triggers := make([]Trigger, 0, len(config))
	for trigger := range config {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

func (t *Table[S]) rejected(from S, trigger Trigger, to S) error {
	return &apperr.InvalidTransitionError{
		Entity:  t.entity,
		From:    string(from),
		To:      string(to),
		Trigger: string(trigger),
	}
}
