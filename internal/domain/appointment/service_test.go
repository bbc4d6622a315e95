package appointment

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/hospital/pkg/ident"
)

type mockRepo struct {
	appts  map[int64]*Appointment
	nextID int64
	// writes records which update path each call took.
	writes []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[int64]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Lock(ctx context.Context, id int64) (*Appointment, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	a, ok := m.appts[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	a.Status = status
	m.writes = append(m.writes, "status")
	return nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, a.ID)
	}
	cp := *a
	m.appts[a.ID] = &cp
	m.writes = append(m.writes, "full")
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.appts[id]; !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	delete(m.appts, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter) ([]*Appointment, error) {
	out := []*Appointment{}
	for _, a := range m.appts {
		if f.DoctorID > 0 && a.DoctorID != f.DoctorID {
			continue
		}
		if !f.Day.IsZero() {
			y, mo, d := a.ScheduledAt.Date()
			fy, fmo, fd := f.Day.Date()
			if y != fy || mo != fmo || d != fd {
				continue
			}
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type idSet map[int64]bool

func (s idSet) Exists(_ context.Context, id int64) (bool, error)       { return s[id], nil }
func (s idSet) DoctorExists(_ context.Context, id int64) (bool, error) { return s[id], nil }

var slot = time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, passTx{}, idSet{7: true, 8: true}, idSet{3: true, 4: true}), repo
}

func strPtr(s string) *string { return &s }

func mustBook(t *testing.T, svc *Service) *Appointment {
	t.Helper()
	a, err := svc.Create(context.Background(), CreateInput{PatientID: 7, DoctorID: 3, ScheduledAt: slot, Reason: strPtr(" checkup ")})
	require.NoError(t, err)
	return a
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService()
	a := mustBook(t, svc)

	assert.Equal(t, StatusScheduled, a.Status)
	assert.Equal(t, "checkup", *a.Reason)
	assert.NotZero(t, a.ID)
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"missing all", CreateInput{}, ErrInvalidInput},
		{"missing time", CreateInput{PatientID: 7, DoctorID: 3}, ErrInvalidInput},
		{"unknown patient", CreateInput{PatientID: 99, DoctorID: 3, ScheduledAt: slot}, ErrPatientNotFound},
		{"unknown doctor", CreateInput{PatientID: 7, DoctorID: 99, ScheduledAt: slot}, ErrDoctorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, repo.appts)
		})
	}
}

func TestUpdate_StatusOnlyWritesStatus(t *testing.T) {
	svc, repo := newTestService()
	a := mustBook(t, svc)

	got, err := svc.Update(context.Background(), a.ID, Patch{Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, []string{"status"}, repo.writes)
}

func TestUpdate_FieldsWritesAll(t *testing.T) {
	svc, repo := newTestService()
	a := mustBook(t, svc)
	later := slot.Add(2 * time.Hour)
	doctor := ident.ID(4)

	got, err := svc.Update(context.Background(), a.ID, Patch{ScheduledAt: &later, DoctorID: &doctor, Reason: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, later, got.ScheduledAt)
	assert.Equal(t, int64(4), got.DoctorID)
	assert.Nil(t, got.Reason)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.Equal(t, []string{"full"}, repo.writes)
}

func TestUpdate_TerminalStatesAreClosed(t *testing.T) {
	for _, final := range []string{"Completed", "Cancelled"} {
		t.Run(final, func(t *testing.T) {
			svc, repo := newTestService()
			a := mustBook(t, svc)
			ctx := context.Background()

			_, err := svc.Update(ctx, a.ID, Patch{Status: strPtr(final)})
			require.NoError(t, err)

			_, err = svc.Update(ctx, a.ID, Patch{Status: strPtr("Scheduled")})
			assert.ErrorIs(t, err, ErrClosed)
			later := slot.Add(time.Hour)
			_, err = svc.Update(ctx, a.ID, Patch{ScheduledAt: &later})
			assert.ErrorIs(t, err, ErrClosed)
			assert.Len(t, repo.writes, 1)
		})
	}
}

func TestUpdate_Validation(t *testing.T) {
	svc, _ := newTestService()
	a := mustBook(t, svc)
	ctx := context.Background()
	zero := time.Time{}
	badDoctor := ident.ID(99)

	_, err := svc.Update(ctx, a.ID, Patch{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, a.ID, Patch{Status: strPtr("Postponed")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, a.ID, Patch{ScheduledAt: &zero})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, a.ID, Patch{DoctorID: &badDoctor})
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	_, err = svc.Update(ctx, 404, Patch{Status: strPtr("Cancelled")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Filters(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.Create(ctx, CreateInput{PatientID: 7, DoctorID: 3, ScheduledAt: slot})
	_, _ = svc.Create(ctx, CreateInput{PatientID: 8, DoctorID: 4, ScheduledAt: slot.Add(time.Hour)})
	_, _ = svc.Create(ctx, CreateInput{PatientID: 8, DoctorID: 3, ScheduledAt: slot.AddDate(0, 0, 1)})

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byDoctor, _ := svc.List(ctx, Filter{DoctorID: 3})
	assert.Len(t, byDoctor, 2)

	byDay, _ := svc.List(ctx, Filter{Day: slot})
	assert.Len(t, byDay, 2)

	both, _ := svc.List(ctx, Filter{DoctorID: 3, Day: slot})
	assert.Len(t, both, 1)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	a := mustBook(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err := svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), ErrNotFound)
}
