package claims

import "context"

// mockBackend is a Backend with overridable behaviour.
type mockBackend struct {
	ProbeFunc  func(ctx context.Context, req Request) (ProbeResult, error)
	CreateFunc func(ctx context.Context, req Request) (ProbeResult, error)

	probed  []string
	created []string
}

func (m *mockBackend) Probe(ctx context.Context, req Request) (ProbeResult, error) {
	m.probed = append(m.probed, req.LogicalName)
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, req)
	}
	return ProbeResult{}, nil
}

func (m *mockBackend) Create(ctx context.Context, req Request) (ProbeResult, error) {
	m.created = append(m.created, req.LogicalName)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return ProbeResult{Found: true, ResourceID: "new-" + req.LogicalName}, nil
}
