package query

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/flathunt/platform/listing-service/internal/repository"
	"github.com/flathunt/platform/shared/cqrs"
	"github.com/flathunt/platform/shared/geo"
	"github.com/flathunt/platform/shared/logging"
	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/result"
	"github.com/flathunt/platform/shared/store"
	"github.com/flathunt/platform/shared/utils"
)

const (
	MsgNegativeFilter  = "rooms and maxDistance cannot be negative"
	MsgCoordinatesPair = "lng and lat must be supplied together"
)

// ApartmentQueryService serves searches and lookups. Store timeouts are
// applied per round trip by the read repository.
type ApartmentQueryService struct {
	readRepo *repository.ApartmentReadRepository
	origin   models.Point
	logger   logging.Logger
}

// NewApartmentQueryService takes the point distances are measured from when
// a search has a maxDistance but no coordinates.
func NewApartmentQueryService(
	readRepo *repository.ApartmentReadRepository,
	origin models.Point,
	logger logging.Logger,
) *ApartmentQueryService {
	return &ApartmentQueryService{readRepo: readRepo, origin: origin, logger: logger}
}

// Search returns the apartments matching every supplied filter. When a
// proximity filter applies, results are nearest first.
func (s *ApartmentQueryService) Search(ctx context.Context, q cqrs.SearchApartmentsQuery) ([]models.ApartmentView, error) {
	sq, rerr := s.buildQuery(q)
	if rerr != nil {
		return nil, rerr
	}

	views, err := s.readRepo.Search(ctx, sq)
	if err != nil {
		s.logger.Error(ctx, "search failed", "error", err)
		return nil, result.Failure(err)
	}
	return views, nil
}

func (s *ApartmentQueryService) buildQuery(q cqrs.SearchApartmentsQuery) (store.ApartmentQuery, *result.Error) {
	var sq store.ApartmentQuery
	if q.City != nil {
		sq.City = strings.ToLower(strings.TrimSpace(*q.City))
	}
	if q.Country != nil {
		sq.Country = strings.ToLower(strings.TrimSpace(*q.Country))
	}
	if q.Rooms != nil {
		if *q.Rooms < 0 {
			return sq, result.BadRequest(MsgNegativeFilter)
		}
		sq.Rooms = *q.Rooms
	}

	if q.MaxDistance == nil {
		return sq, nil
	}
	km := *q.MaxDistance
	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return sq, result.BadRequest(MsgNegativeFilter)
	}
	if km == 0 {
		return sq, nil
	}

	origin := s.origin
	switch {
	case q.Lng != nil && q.Lat != nil:
		if !geo.ValidateCoordinates(*q.Lng, *q.Lat) {
			return sq, result.BadRequest(result.MsgInvalidCoords)
		}
		origin = geo.NewPoint(*q.Lng, *q.Lat)
	case q.Lng != nil || q.Lat != nil:
		return sq, result.BadRequest(MsgCoordinatesPair)
	}
	sq.Near = &store.Proximity{Origin: origin, MaxDistanceMeters: geo.KilometersToMeters(km)}
	return sq, nil
}

func (s *ApartmentQueryService) FindApartment(ctx context.Context, q cqrs.GetApartmentQuery) (*models.ApartmentView, error) {
	if !utils.ValidateID(q.ApartmentID) {
		return nil, result.BadRequest(result.MsgInvalidID)
	}

	view, err := s.readRepo.GetByID(ctx, q.ApartmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, result.NotFound(result.MsgApartmentAbsent)
		}
		s.logger.Error(ctx, "failed to load apartment", "apartment_id", q.ApartmentID, "error", err)
		return nil, result.Failure(err)
	}
	return view, nil
}
