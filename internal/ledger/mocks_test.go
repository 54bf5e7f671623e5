package ledger

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/gigboard/backend/internal/models"
)

type MockTreasury struct {
	mock.Mock
}

func (m *MockTreasury) Collect(ctx context.Context, from string, amount int64, reference string) error {
	args := m.Called(ctx, from, amount, reference)
	return args.Error(0)
}

func (m *MockTreasury) Disburse(ctx context.Context, to string, amount int64, reference string) error {
	args := m.Called(ctx, to, amount, reference)
	return args.Error(0)
}

type MockRoleChecker struct {
	mock.Mock
}

func (m *MockRoleChecker) HasRole(ctx context.Context, role, identity string) (bool, error) {
	args := m.Called(ctx, role, identity)
	return args.Bool(0), args.Error(1)
}

// recordingNotifier collects emitted events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Emit(ctx context.Context, event models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) byType(eventType string) []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Event
	for _, ev := range n.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}
