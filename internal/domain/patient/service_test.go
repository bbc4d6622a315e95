package patient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"
)

type mockRepo struct {
	patients map[int64]*Patient
	nextID   int64
	err      error
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[int64]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return p, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var all []*Patient
	for _, p := range m.patients {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) Exists(_ context.Context, id int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.patients[id]
	return ok, nil
}

func newTestService() *Service {
	svc := NewService(newMockRepo())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	svc := newTestService()
	p, err := svc.Create(context.Background(), CreateInput{
		FirstName:   " Ada ",
		LastName:    "Lovelace",
		DateOfBirth: strPtr("1990-12-10"),
		Phone:       strPtr(""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected ID to be set")
	}
	if p.FullName() != "Ada Lovelace" {
		t.Errorf("expected trimmed name, got %q", p.FullName())
	}
	if p.DateOfBirth == nil || p.DateOfBirth.Year() != 1990 {
		t.Errorf("unexpected date of birth: %v", p.DateOfBirth)
	}
	if p.Phone != nil {
		t.Error("expected empty phone to be dropped")
	}
}

func TestService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing first name", CreateInput{LastName: "Doe"}},
		{"missing last name", CreateInput{FirstName: "John"}},
		{"blank names", CreateInput{FirstName: " ", LastName: " "}},
		{"bad date", CreateInput{FirstName: "John", LastName: "Doe", DateOfBirth: strPtr("10/12/1990")}},
		{"future date", CreateInput{FirstName: "John", LastName: "Doe", DateOfBirth: strPtr("2030-01-01")}},
	}
	svc := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Get(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Exists(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	p, _ := svc.Create(ctx, CreateInput{FirstName: "A", LastName: "B"})

	if ok, err := svc.Exists(ctx, p.ID); err != nil || !ok {
		t.Errorf("expected patient to exist, got %v %v", ok, err)
	}
	if ok, _ := svc.Exists(ctx, p.ID+1); ok {
		t.Error("expected unknown patient to not exist")
	}
	if ok, _ := svc.Exists(ctx, 0); ok {
		t.Error("expected id 0 to not exist")
	}
}

func TestService_List(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = svc.Create(ctx, CreateInput{FirstName: "P", LastName: fmt.Sprint(i)})
	}
	list, total, err := svc.List(ctx, 2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 || len(list) != 1 {
		t.Errorf("expected 1 of 5, got %d of %d", len(list), total)
	}
}
