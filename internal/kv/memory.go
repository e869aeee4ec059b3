package kv

import (
	"bytes"
	"sync"
)

// Memory is an in-process Store used by tests and by profiles opened with
// the ":memory:" path. It can be told to fail writes to exercise error paths.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
	logs   map[string][][]byte

	fault      error
	faultAfter int
	readFault  error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
		logs:   make(map[string][][]byte),
	}
}

// FailWrites makes every subsequent write fail with err. A nil err clears
// the fault.
func (m *Memory) FailWrites(err error) {
	m.FailWritesAfter(0, err)
}

// FailWritesAfter lets n more writes succeed, then fails every write with err.
func (m *Memory) FailWritesAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = err
	m.faultAfter = n
}

// FailReads makes every subsequent read fail with err. A nil err clears
// the fault.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readFault = err
}

func (m *Memory) Get(key string) (v []byte, err error) {
	err = m.Update(func(w Writer) error {
		v, err = w.Get(key)
		return err
	})
	return v, err
}

func (m *Memory) Range(key string) (entries [][]byte, err error) {
	err = m.Update(func(w Writer) error {
		entries, err = w.Range(key)
		return err
	})
	return entries, err
}

func (m *Memory) Len(key string) (n int, err error) {
	err = m.Update(func(w Writer) error {
		n, err = w.Len(key)
		return err
	})
	return n, err
}

func (m *Memory) Set(key string, value []byte) error {
	return m.Update(func(w Writer) error { return w.Set(key, value) })
}

func (m *Memory) Append(key string, value []byte) error {
	return m.Update(func(w Writer) error { return w.Append(key, value) })
}

// Update stages writes and applies them only when fn returns nil.
func (m *Memory) Update(fn func(w Writer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		m:       m,
		values:  make(map[string][]byte),
		appends: make(map[string][][]byte),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.values {
		m.values[k] = v
	}
	for k, entries := range tx.appends {
		m.logs[k] = append(m.logs[k], entries...)
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

type memTx struct {
	m       *Memory
	values  map[string][]byte
	appends map[string][][]byte
}

func (tx *memTx) checkFault() error {
	if tx.m.fault == nil {
		return nil
	}
	if tx.m.faultAfter > 0 {
		tx.m.faultAfter--
		return nil
	}
	return tx.m.fault
}

func (tx *memTx) Get(key string) ([]byte, error) {
	if tx.m.readFault != nil {
		return nil, tx.m.readFault
	}
	if v, ok := tx.values[key]; ok {
		return bytes.Clone(v), nil
	}
	if v, ok := tx.m.values[key]; ok {
		return bytes.Clone(v), nil
	}
	return nil, ErrNotFound
}

func (tx *memTx) Range(key string) ([][]byte, error) {
	if tx.m.readFault != nil {
		return nil, tx.m.readFault
	}
	base := tx.m.logs[key]
	pending := tx.appends[key]
	entries := make([][]byte, 0, len(base)+len(pending))
	for _, e := range base {
		entries = append(entries, bytes.Clone(e))
	}
	for _, e := range pending {
		entries = append(entries, bytes.Clone(e))
	}
	return entries, nil
}

func (tx *memTx) Len(key string) (int, error) {
	if tx.m.readFault != nil {
		return 0, tx.m.readFault
	}
	return len(tx.m.logs[key]) + len(tx.appends[key]), nil
}

func (tx *memTx) Set(key string, value []byte) error {
	if err := tx.checkFault(); err != nil {
		return err
	}
	tx.values[key] = bytes.Clone(value)
	return nil
}

func (tx *memTx) Append(key string, value []byte) error {
	if err := tx.checkFault(); err != nil {
		return err
	}
	tx.appends[key] = append(tx.appends[key], bytes.Clone(value))
	return nil
}
