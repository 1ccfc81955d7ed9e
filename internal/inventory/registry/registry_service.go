package registry

import (
	"time"

	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

const (
	// batchSize bounds how many serials one chunk resolves before pausing.
	batchSize = 10

	// batchPause is the gap between chunks, keeping bulk lookups from
	// monopolizing the connection pool.
	batchPause = 100 * time.Millisecond
)

type RegistryService struct {
	lr    LocationRepository
	cache *LocationCache
	log   *zap.Logger

	now   func() time.Time
	sleep func(d time.Duration)
}

func NewService(lr LocationRepository, cache *LocationCache, log *zap.Logger) *RegistryService {
	return &RegistryService{
		lr:    lr,
		cache: cache,
		log:   log,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Locate resolves one serial, serving from cache when fresh.
func (s *RegistryService) Locate(serial string) (*models.ItemLocation, error) {
	if s.cache != nil {
		if location, ok := s.cache.Get(serial); ok {
			return &location, nil
		}
	}

	location, err := s.lr.ResolveLocation(serial, s.now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(*location)
	}
	return location, nil
}

// LocateBatch resolves many serials in chunks, pausing between chunks. A
// serial whose lookup fails is reported at its inventory default rather than
// failing the whole batch; resolution errors are logged and swallowed.
func (s *RegistryService) LocateBatch(serials []string) []models.ItemLocation {
	locations := make([]models.ItemLocation, 0, len(serials))

	for start := 0; start < len(serials); start += batchSize {
		if start > 0 {
			s.sleep(batchPause)
		}

		end := start + batchSize
		if end > len(serials) {
			end = len(serials)
		}
		for _, serial := range serials[start:end] {
			location, err := s.Locate(serial)
			if err != nil {
				s.log.Warn("location lookup failed, defaulting to inventory",
					zap.String("serialnumber", serial),
					zap.Error(err),
				)
				fallback := models.InventoryLocation(serial, s.now())
				locations = append(locations, fallback)
				continue
			}
			locations = append(locations, *location)
		}
	}

	return locations
}
