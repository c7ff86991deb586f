package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// FindByMR fetches the unique patient registered under the MR number.
func (s *Service) FindByMR(ctx context.Context, mrNumber string) (*Patient, error) {
	mrNumber = strings.TrimSpace(mrNumber)
	if mrNumber == "" {
		return nil, fmt.Errorf("mr number is required")
	}
	return s.repo.GetByMRNumber(ctx, mrNumber)
}

// FindByNamePhone resolves a patient through the secondary name+phone key
// used by the insurance claim flow when no MR number is at hand.
func (s *Service) FindByNamePhone(ctx context.Context, name, phone string) (*Patient, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("name and phone are required")
	}
	return s.repo.GetByNamePhone(ctx, name, phone)
}

// Register creates a new patient record from freeform customer details.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Phone == "" {
		return fmt.Errorf("phone number is required")
	}
	if p.Age < 0 {
		return fmt.Errorf("age cannot be negative")
	}
	return s.repo.Create(ctx, p)
}
