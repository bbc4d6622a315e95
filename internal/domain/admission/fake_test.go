package admission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ehr/hospital/internal/platform/events"
)

// memStore is an in-memory Repository. memTx serialises transactions with a
// single lock and restores a snapshot when fn fails, which gives the same
// all-or-nothing outcome as a Postgres transaction holding the bed row lock.
type memStore struct {
	mu         sync.Mutex // guards the maps for non-transactional calls
	beds       map[int64]Bed
	admissions map[int64]Admission
	nextBed    int64
	nextAdm    int64

	// failOn forces the named repository method to fail.
	failOn map[string]error
	writes int
}

func newMemStore() *memStore {
	return &memStore{
		beds:       map[int64]Bed{},
		admissions: map[int64]Admission{},
		failOn:     map[string]error{},
	}
}

func (m *memStore) fail(op string) error {
	if err, ok := m.failOn[op]; ok {
		return err
	}
	return nil
}

func (m *memStore) addBed(ward, label string) *Bed {
	b := &Bed{Ward: ward, Label: label}
	_ = m.CreateBed(context.Background(), b)
	return b
}

func (m *memStore) bed(id int64) Bed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beds[id]
}

func (m *memStore) admission(id int64) Admission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admissions[id]
}

func (m *memStore) CreateBed(_ context.Context, b *Bed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.beds {
		if existing.Ward == b.Ward && existing.Label == b.Label {
			return fmt.Errorf("%w: bed exists", ErrInvalidInput)
		}
	}
	m.nextBed++
	b.ID = m.nextBed
	b.CreatedAt = time.Now()
	m.beds[b.ID] = *b
	return nil
}

func (m *memStore) GetBed(_ context.Context, id int64) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBedNotFound, id)
	}
	return &b, nil
}

func (m *memStore) LockBed(ctx context.Context, id int64) (*Bed, error) {
	if err := m.fail("LockBed"); err != nil {
		return nil, err
	}
	return m.GetBed(ctx, id)
}

func (m *memStore) MarkOccupied(_ context.Context, bedID, admissionID int64) error {
	if err := m.fail("MarkOccupied"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.beds[bedID]
	if b.Occupied {
		return fmt.Errorf("%w: bed %d", ErrBedOccupied, bedID)
	}
	b.Occupied = true
	b.CurrentAdmissionID = &admissionID
	m.beds[bedID] = b
	m.writes++
	return nil
}

func (m *memStore) MarkAvailable(_ context.Context, bedID, admissionID int64) error {
	if err := m.fail("MarkAvailable"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.beds[bedID]
	if b.CurrentAdmissionID == nil || *b.CurrentAdmissionID != admissionID {
		return fmt.Errorf("%w: bed %d", ErrBedNotHeld, bedID)
	}
	b.Occupied = false
	b.CurrentAdmissionID = nil
	m.beds[bedID] = b
	m.writes++
	return nil
}

func (m *memStore) listBeds(filter func(Bed) bool) []*Bed {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Bed{}
	for _, b := range m.beds {
		if filter(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListBeds(context.Context) ([]*Bed, error) {
	return m.listBeds(func(Bed) bool { return true }), nil
}

func (m *memStore) ListAvailableBeds(context.Context) ([]*Bed, error) {
	return m.listBeds(func(b Bed) bool { return !b.Occupied }), nil
}

func (m *memStore) CreateAdmission(_ context.Context, a *Admission) error {
	if err := m.fail("CreateAdmission"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.admissions {
		if existing.BedID == a.BedID && existing.Status == StatusActive {
			return fmt.Errorf("%w: bed %d", ErrBedOccupied, a.BedID)
		}
	}
	m.nextAdm++
	a.ID = m.nextAdm
	a.CreatedAt = a.AdmittedAt
	m.admissions[a.ID] = *a
	m.writes++
	return nil
}

func (m *memStore) GetAdmission(_ context.Context, id int64) (*Admission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admissions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAdmissionNotFound, id)
	}
	return &a, nil
}

func (m *memStore) LockAdmission(ctx context.Context, id int64) (*Admission, error) {
	return m.GetAdmission(ctx, id)
}

func (m *memStore) SaveDischarge(_ context.Context, a *Admission) error {
	if err := m.fail("SaveDischarge"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.admissions[a.ID]
	if cur.Status != StatusActive {
		return fmt.Errorf("%w: %d", ErrAlreadyDischarged, a.ID)
	}
	m.admissions[a.ID] = *a
	m.writes++
	return nil
}

func (m *memStore) ListAdmissions(context.Context) ([]*Admission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Admission{}
	for _, a := range m.admissions {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AdmittedAt.Equal(out[j].AdmittedAt) {
			return out[i].AdmittedAt.After(out[j].AdmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// memTx runs one transaction at a time against a memStore.
type memTx struct {
	mu    sync.Mutex
	store *memStore
}

func (t *memTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store.mu.Lock()
	beds := make(map[int64]Bed, len(t.store.beds))
	for k, v := range t.store.beds {
		beds[k] = v
	}
	adms := make(map[int64]Admission, len(t.store.admissions))
	for k, v := range t.store.admissions {
		adms[k] = v
	}
	nextAdm, writes := t.store.nextAdm, t.store.writes
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.beds, t.store.admissions = beds, adms
		t.store.nextAdm, t.store.writes = nextAdm, writes
		t.store.mu.Unlock()
		return err
	}
	return nil
}

type memPatients map[int64]bool

func (p memPatients) Exists(_ context.Context, id int64) (bool, error) {
	return p[id], nil
}

type memDoctors map[int64]bool

func (d memDoctors) DoctorExists(_ context.Context, id int64) (bool, error) {
	return d[id], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, evt.Type)
	return "1-0", nil
}

var errBoom = errors.New("boom")
