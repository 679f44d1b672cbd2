package archive

import "sort"

// NewMem creates an empty in-memory archive. Used by tests and as the staging
// target of the schema translator.
func NewMem(opts ...Option) *Archive {
	return &Archive{
		Group: &Group{n: newMemNode(), opts: applyOptions(opts)},
	}
}

type memNode struct {
	subs map[string]*memNode
	data map[string][]byte
}

func newMemNode() *memNode {
	return &memNode{
		subs: make(map[string]*memNode),
		data: make(map[string][]byte),
	}
}

func (m *memNode) group(name string, create bool) (node, error) {
	if sub, ok := m.subs[name]; ok {
		return sub, nil
	}
	if !create {
		return nil, ErrNotExist
	}
	sub := newMemNode()
	m.subs[name] = sub
	return sub, nil
}

func (m *memNode) hasGroup(name string) bool {
	_, ok := m.subs[name]
	return ok
}

func (m *memNode) groups() ([]string, error) {
	out := make([]string, 0, len(m.subs))
	for name := range m.subs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memNode) put(name string, data []byte) error {
	copied := make([]byte, len(data))
	copy(copied, data)
	m.data[name] = copied
	return nil
}

func (m *memNode) get(name string) ([]byte, error) {
	data, ok := m.data[name]
	if !ok {
		return nil, ErrNotExist
	}
	return data, nil
}

func (m *memNode) hasDataset(name string) bool {
	_, ok := m.data[name]
	return ok
}

func (m *memNode) datasets() ([]string, error) {
	out := make([]string, 0, len(m.data))
	for name := range m.data {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
