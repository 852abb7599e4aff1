package rtdb

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// memoryDB is a JSON tree behaving like the Realtime Database for Get/Set/Update/Delete.
type memoryDB struct {
	mu      sync.Mutex
	root    map[string]any
	failErr error
}

func newMemoryDB(seed map[string]any) *memoryDB {
	db := &memoryDB{root: map[string]any{}}
	for k, v := range seed {
		db.set(splitPath(k), v)
	}
	return db
}

func (m *memoryDB) Ref(path string) Node {
	return &memoryNode{db: m, segs: splitPath(path)}
}

func splitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func (m *memoryDB) lookup(segs []string) any {
	var cur any = m.root
	for _, s := range segs {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = node[s]
	}
	return cur
}

func (m *memoryDB) set(segs []string, value any) {
	data, _ := json.Marshal(value)
	var normalized any
	_ = json.Unmarshal(data, &normalized)

	if len(segs) == 0 {
		root, _ := normalized.(map[string]any)
		if root == nil {
			root = map[string]any{}
		}
		m.root = root
		return
	}
	node := m.root
	for _, s := range segs[:len(segs)-1] {
		child, ok := node[s].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[s] = child
		}
		node = child
	}
	last := segs[len(segs)-1]
	if normalized == nil {
		delete(node, last)
		return
	}
	node[last] = normalized
}

type memoryNode struct {
	db   *memoryDB
	segs []string
}

func (n *memoryNode) Get(_ context.Context, v interface{}) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if n.db.failErr != nil {
		return n.db.failErr
	}
	data, err := json.Marshal(n.db.lookup(n.segs))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (n *memoryNode) Set(_ context.Context, v interface{}) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if n.db.failErr != nil {
		return n.db.failErr
	}
	n.db.set(n.segs, v)
	return nil
}

func (n *memoryNode) Update(_ context.Context, v map[string]interface{}) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if n.db.failErr != nil {
		return n.db.failErr
	}
	for key, value := range v {
		n.db.set(append(append([]string{}, n.segs...), splitPath(key)...), value)
	}
	return nil
}

func (n *memoryNode) Delete(_ context.Context) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if n.db.failErr != nil {
		return n.db.failErr
	}
	n.db.set(n.segs, nil)
	return nil
}
