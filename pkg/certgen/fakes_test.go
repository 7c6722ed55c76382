package certgen

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type memEvents map[EventID]*Event

func (m memEvents) GetEvent(ctx context.Context, eventID EventID) (*Event, error) {
	event, ok := m[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return event, nil
}

type memTemplates map[EventID][]Template

func (m memTemplates) GetTemplatesForEvent(ctx context.Context, eventID EventID) ([]Template, error) {
	return m[eventID], nil
}

type memObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	downloads int
	failOn    func(key string) error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (m *memObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if m.failOn != nil {
		if err := m.failOn(key); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.objects[key]; exists {
		return ErrObjectExists
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.downloads++
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (m *memObjectStore) PublicURL(key string) string {
	return "https://files.example.com/" + key
}

func (m *memObjectStore) keys(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

type memCertificates struct {
	mu      sync.Mutex
	nextID  int
	records map[string]*CertificateRecord
	failOn  func(email string) error
}

func newMemCertificates() *memCertificates {
	return &memCertificates{records: make(map[string]*CertificateRecord)}
}

func certKey(email string, eventID EventID) string {
	return email + "|" + eventID.String()
}

func (m *memCertificates) FindByEmailAndEvent(ctx context.Context, email string, eventID EventID) (*CertificateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[certKey(email, eventID)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memCertificates) Insert(ctx context.Context, record *CertificateRecord) (*CertificateRecord, error) {
	if m.failOn != nil {
		if err := m.failOn(record.Email); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := certKey(record.Email, record.EventID)
	if _, exists := m.records[key]; exists {
		return nil, fmt.Errorf("duplicate key %s", key)
	}

	m.nextID++
	cp := *record
	cp.ID = fmt.Sprintf("cert-%d", m.nextID)
	m.records[key] = &cp

	out := cp
	return &out, nil
}

func (m *memCertificates) Update(ctx context.Context, id string, record *CertificateRecord) (*CertificateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, r := range m.records {
		if r.ID == id {
			cp := *record
			cp.ID = id
			m.records[key] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, fmt.Errorf("certificate %s not found", id)
}

func (m *memCertificates) all() []CertificateRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CertificateRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// stubRenderer returns the name as the document, failing for names listed in failFor.
type stubRenderer struct {
	failFor map[string]error
	panicOn string
}

func (s stubRenderer) Render(templateBytes []byte, placement TextPlacement, name string, opts ...RenderOption) (*Document, error) {
	if name == s.panicOn && name != "" {
		panic("renderer exploded")
	}
	if err, ok := s.failFor[name]; ok {
		return nil, err
	}
	return &Document{
		Data:        append(append([]byte(nil), templateBytes...), []byte(name)...),
		ContentType: FormatPDF.ContentType(),
		Ext:         FormatPDF.Ext(),
	}, nil
}
