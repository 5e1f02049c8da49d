package provisioning

import (
	"context"
	"sync"
)

// MockHostAPI is a mock implementation of HostAPI for testing.
type MockHostAPI struct {
	mu sync.Mutex

	PatchImageFunc func(ctx context.Context, name string, target ImageTarget) error
	HostStatusFunc func(ctx context.Context, name string) (HostStatus, error)

	PatchImageCalls []PatchImageCall
	HostStatusCalls []string
}

// PatchImageCall tracks arguments to PatchImage.
type PatchImageCall struct {
	Name   string
	Target ImageTarget
}

func (m *MockHostAPI) PatchImage(ctx context.Context, name string, target ImageTarget) error {
	m.mu.Lock()
	m.PatchImageCalls = append(m.PatchImageCalls, PatchImageCall{Name: name, Target: target})
	m.mu.Unlock()

	if m.PatchImageFunc != nil {
		return m.PatchImageFunc(ctx, name, target)
	}
	return nil
}

func (m *MockHostAPI) HostStatus(ctx context.Context, name string) (HostStatus, error) {
	m.mu.Lock()
	m.HostStatusCalls = append(m.HostStatusCalls, name)
	m.mu.Unlock()

	if m.HostStatusFunc != nil {
		return m.HostStatusFunc(ctx, name)
	}
	return HostStatus{Phase: PhaseReady, State: "provisioned"}, nil
}

func (m *MockHostAPI) patchCalls() []PatchImageCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PatchImageCall(nil), m.PatchImageCalls...)
}

func (m *MockHostAPI) statusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.HostStatusCalls)
}

// scriptedStatus returns a HostStatusFunc that replays results in order,
// repeating the last one, and signals every call on polled.
func scriptedStatus(polled chan<- int, results ...statusResult) func(context.Context, string) (HostStatus, error) {
	var mu sync.Mutex
	n := 0
	return func(context.Context, string) (HostStatus, error) {
		mu.Lock()
		i := n
		n++
		mu.Unlock()

		r := results[min(i, len(results)-1)]
		if polled != nil {
			polled <- i
		}
		return r.status, r.err
	}
}

type statusResult struct {
	status HostStatus
	err    error
}

func observed(phase HostPhase, state string) statusResult {
	return statusResult{status: HostStatus{Phase: phase, State: state}}
}

func failedWith(err error) statusResult {
	return statusResult{err: err}
}
