package account

import (
	"context"
	"errors"
	"strings"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"

	"github.com/google/uuid"
)

func validateAddress(a *models.Address) error {
	a.Label = strings.ToLower(strings.TrimSpace(a.Label))
	switch a.Label {
	case "":
		a.Label = models.AddressHome
	case models.AddressHome, models.AddressOffice, models.AddressOther:
	default:
		return apperr.Validation("label must be home, office or other")
	}
	switch {
	case strings.TrimSpace(a.FullName) == "":
		return apperr.Validation("fullName is required")
	case strings.TrimSpace(a.Line1) == "":
		return apperr.Validation("line1 is required")
	case strings.TrimSpace(a.City) == "":
		return apperr.Validation("city is required")
	case strings.TrimSpace(a.PostalCode) == "":
		return apperr.Validation("postalCode is required")
	}
	if a.Country == "" {
		a.Country = "India"
	}
	return nil
}

// setDefault keeps at most one default. With no default left, the first
// address takes it.
func setDefault(addrs []models.Address, id string) {
	for i := range addrs {
		addrs[i].IsDefault = addrs[i].ID == id
	}
	if id == "" && len(addrs) > 0 {
		addrs[0].IsDefault = true
	}
}

func (s *Service) saveAddresses(ctx context.Context, userID string, addrs []models.Address) ([]models.Address, error) {
	if err := s.users.SetAddresses(ctx, userID, addrs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Auth("Account no longer exists")
		}
		return nil, apperr.Internal(err)
	}
	return addrs, nil
}

func (s *Service) Addresses(ctx context.Context, userID string) ([]models.Address, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Addresses == nil {
		return []models.Address{}, nil
	}
	return u.Addresses, nil
}

func (s *Service) AddAddress(ctx context.Context, userID string, a models.Address) ([]models.Address, error) {
	if err := validateAddress(&a); err != nil {
		return nil, err
	}
	addrs, err := s.Addresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	a.ID = uuid.NewString()
	addrs = append(addrs, a)
	if a.IsDefault || len(addrs) == 1 {
		setDefault(addrs, a.ID)
	}
	return s.saveAddresses(ctx, userID, addrs)
}

func (s *Service) UpdateAddress(ctx context.Context, userID, id string, a models.Address) ([]models.Address, error) {
	if err := validateAddress(&a); err != nil {
		return nil, err
	}
	addrs, err := s.Addresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range addrs {
		if addrs[i].ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("Address not found")
	}
	wasDefault := addrs[idx].IsDefault
	a.ID = id
	addrs[idx] = a
	if a.IsDefault {
		setDefault(addrs, id)
	} else {
		addrs[idx].IsDefault = wasDefault
	}
	return s.saveAddresses(ctx, userID, addrs)
}

func (s *Service) DeleteAddress(ctx context.Context, userID, id string) ([]models.Address, error) {
	addrs, err := s.Addresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Address, 0, len(addrs))
	removedDefault, found := false, false
	for _, a := range addrs {
		if a.ID == id {
			found = true
			removedDefault = a.IsDefault
			continue
		}
		out = append(out, a)
	}
	if !found {
		return nil, apperr.NotFound("Address not found")
	}
	if removedDefault {
		setDefault(out, "")
	}
	return s.saveAddresses(ctx, userID, out)
}

func (s *Service) SetDefaultAddress(ctx context.Context, userID, id string) ([]models.Address, error) {
	addrs, err := s.Addresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, a := range addrs {
		if a.ID == id {
			found = true
		}
	}
	if !found {
		return nil, apperr.NotFound("Address not found")
	}
	setDefault(addrs, id)
	return s.saveAddresses(ctx, userID, addrs)
}
