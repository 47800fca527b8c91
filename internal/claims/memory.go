package claims

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// memoryNamespace seeds deterministic identifiers for in-memory resources.
var memoryNamespace = uuid.MustParse("6f1c2a8e-4d0b-5b7e-9a43-2c1f0e8d7b61")

// Memory is an in-process Backend used for offline planning and tests.
// Identifiers are derived from kind, name and creation generation, so two
// stores fed the same calls hand out the same identifiers.
type Memory struct {
	mu             sync.Mutex
	resources      map[string]ProbeResult
	generations    map[string]int
	assumeExisting bool
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// AssumeExisting makes every probe succeed, as if the cluster had been
// provisioned before. Offline plans use it so reuse-if-exists claims bind.
func AssumeExisting() MemoryOption {
	return func(m *Memory) {
		m.assumeExisting = true
	}
}

// NewMemory creates an empty in-memory backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		resources:   make(map[string]ProbeResult),
		generations: make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func memoryKey(req Request) string {
	return string(req.Kind) + "/" + req.LogicalName
}

// Seed records an existing resource.
func (m *Memory) Seed(kind Kind, name, id, secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[memoryKey(Request{Kind: kind, LogicalName: name})] = ProbeResult{Found: true, ResourceID: id, Secret: secret}
}

// Probe implements Backend.
func (m *Memory) Probe(_ context.Context, req Request) (ProbeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[memoryKey(req)]; ok {
		return r, nil
	}
	if m.assumeExisting {
		return m.derive(req, 0), nil
	}
	return ProbeResult{}, nil
}

// Create implements Backend. A second Create under the same name yields a
// new identifier, mirroring force-recreate against a real provider. Object
// containers are named globally, so a second Create keeps the first one.
func (m *Memory) Create(_ context.Context, req Request) (ProbeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey(req)
	if req.Kind == KindObjectContainer {
		if r, ok := m.resources[key]; ok {
			r.Existed = true
			return r, nil
		}
	}
	m.generations[key]++
	r := m.derive(req, m.generations[key])
	m.resources[key] = r
	return r, nil
}

func (m *Memory) derive(req Request, generation int) ProbeResult {
	seed := memoryKey(req) + "#" + strconv.Itoa(generation)
	r := ProbeResult{
		Found:      true,
		ResourceID: uuid.NewSHA1(memoryNamespace, []byte(seed)).String(),
	}
	if req.Kind == KindObjectContainer {
		r.ResourceID = req.LogicalName
	}
	if req.Kind == KindCredential {
		r.Secret = strings.ReplaceAll(uuid.NewSHA1(memoryNamespace, []byte("secret:"+seed)).String(), "-", "")
	}
	return r
}
