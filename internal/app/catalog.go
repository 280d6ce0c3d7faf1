package app

import (
	"context"

	"voyager_booking/internal/domain"
)

// CatalogService reads the hotel catalog from the remote API on every call.
type CatalogService struct {
	voyager domain.VoyagerClient
}

func NewCatalogService(v domain.VoyagerClient) *CatalogService {
	return &CatalogService{voyager: v}
}

func (s *CatalogService) Hotels(ctx context.Context, token string) ([]domain.Hotel, error) {
	raw, err := s.voyager.ListHotels(ctx, token)
	if err != nil {
		return nil, err
	}
	return MapCatalog(raw), nil
}

func (s *CatalogService) Hotel(ctx context.Context, token, id string) (domain.Hotel, error) {
	hs, err := s.Hotels(ctx, token)
	if err != nil {
		return domain.Hotel{}, err
	}
	h, ok := domain.FindHotel(hs, id)
	if !ok {
		return domain.Hotel{}, &domain.Error{Kind: domain.KindNotFound, Op: "catalog.hotel", Message: "hotel not found", Err: domain.ErrNotFound}
	}
	return h, nil
}
