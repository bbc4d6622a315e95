package billing

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/hospital/internal/domain/admission"
)

type mockRepo struct {
	bills  map[int64]*Bill
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{bills: make(map[int64]*Bill)}
}

func (m *mockRepo) Create(_ context.Context, b *Bill) error {
	m.nextID++
	b.ID = m.nextID
	b.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, int(m.nextID), time.UTC)
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepo) Lock(ctx context.Context, id int64) (*Bill, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) SaveStatus(_ context.Context, b *Bill) error {
	cur := m.bills[b.ID]
	if cur.Status != StatusPending {
		return fmt.Errorf("%w: %d", ErrClosed, b.ID)
	}
	cp := *b
	m.bills[b.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, patientID int64) ([]*Bill, error) {
	out := []*Bill{}
	for _, b := range m.bills {
		if patientID == 0 || b.PatientID == patientID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type patientSet map[int64]bool

func (p patientSet) Exists(_ context.Context, id int64) (bool, error) { return p[id], nil }

type admissionMap map[int64]*admission.Admission

func (a admissionMap) GetByID(_ context.Context, id int64) (*admission.Admission, error) {
	adm, ok := a[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", admission.ErrAdmissionNotFound, id)
	}
	return adm, nil
}

var paidAt = time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo, passTx{}, patientSet{7: true, 8: true}, admissionMap{
		11: {ID: 11, PatientID: 7, Status: admission.StatusDischarged},
	})
	svc.now = func() time.Time { return paidAt }
	return svc, repo
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService()
	b, err := svc.Create(context.Background(), CreateInput{PatientID: 7, AdmissionID: 11, Amount: 125050, Description: strPtr(" ward stay ")})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, int64(11), *b.AdmissionID)
	assert.Equal(t, "ward stay", *b.Description)
	assert.Nil(t, b.PaidAt)
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"missing patient", CreateInput{Amount: 100}, ErrInvalidInput},
		{"zero amount", CreateInput{PatientID: 7}, ErrInvalidInput},
		{"negative amount", CreateInput{PatientID: 7, Amount: -5}, ErrInvalidInput},
		{"unknown patient", CreateInput{PatientID: 99, Amount: 100}, ErrPatientNotFound},
		{"unknown admission", CreateInput{PatientID: 7, AdmissionID: 12, Amount: 100}, ErrAdmissionNotFound},
		{"other patient's admission", CreateInput{PatientID: 8, AdmissionID: 11, Amount: 100}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, repo.bills)
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	b, _ := svc.Create(ctx, CreateInput{PatientID: 7, Amount: 5000})

	paid, err := svc.UpdateStatus(ctx, b.ID, "paid")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, paidAt, *paid.PaidAt)

	_, err = svc.UpdateStatus(ctx, b.ID, "Cancelled")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUpdateStatus_Errors(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	b, _ := svc.Create(ctx, CreateInput{PatientID: 7, Amount: 5000})

	_, err := svc.UpdateStatus(ctx, b.ID, "Refunded")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateStatus(ctx, b.ID, "Pending")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateStatus(ctx, 999, "Paid")
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, err := svc.UpdateStatus(ctx, b.ID, "Cancelled")
	require.NoError(t, err)
	assert.Nil(t, cancelled.PaidAt)
}

func TestList_ByPatient(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.Create(ctx, CreateInput{PatientID: 7, Amount: 100})
	_, _ = svc.Create(ctx, CreateInput{PatientID: 8, Amount: 200})
	newest, _ := svc.Create(ctx, CreateInput{PatientID: 7, Amount: 300})

	all, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID)

	mine, err := svc.List(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func strPtr(s string) *string { return &s }
