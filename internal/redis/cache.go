package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"motorent/internal/domain"
	"motorent/internal/repository"
)

// MotorcycleCacheTTL is how long rate data is served from cache. Rates change
// rarely; stock is never cached.
const MotorcycleCacheTTL = 60 * time.Second

const motorcycleCachePrefix = "cache:motorcycle:"

// cachedMotorcycle is the cached subset of a motorcycle: everything pricing
// needs and nothing that changes per booking.
type cachedMotorcycle struct {
	ID                string   `json:"id"`
	Make              string   `json:"make"`
	Model             string   `json:"model"`
	Variant           string   `json:"variant"`
	Color             string   `json:"color"`
	PricePerDayMonThu float64  `json:"price_per_day_mon_thu"`
	PricePerDayFriSun float64  `json:"price_per_day_fri_sun"`
	SecurityDeposit   float64  `json:"security_deposit"`
	Categories        []string `json:"categories"`
}

// MotorcycleCache is a read-through cache in front of a MotorcycleRepository.
// GetByID always reads the backing store so stock checks see live counters;
// GetByIDs serves rate data from Redis and returns motorcycles without stock.
type MotorcycleCache struct {
	client *redis.Client
	repo   repository.MotorcycleRepository
}

// NewMotorcycleCache creates a new MotorcycleCache.
func NewMotorcycleCache(client *redis.Client, repo repository.MotorcycleRepository) *MotorcycleCache {
	return &MotorcycleCache{client: client, repo: repo}
}

// GetByID reads through to the backing store and refreshes the cached rates.
func (c *MotorcycleCache) GetByID(ctx context.Context, id string) (*domain.Motorcycle, error) {
	m, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = c.setBatch(ctx, []*domain.Motorcycle{m})
	return m, nil
}

// GetByIDs returns rate data for the given motorcycles, loading cache misses
// from the backing store with a single query.
func (c *MotorcycleCache) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Motorcycle, error) {
	result := make(map[string]*domain.Motorcycle, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	pipe := c.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(ids))
	for _, id := range ids {
		cmds[id] = pipe.Get(ctx, motorcycleCachePrefix+id)
	}

	// A pipeline error is either redis.Nil for a miss or an unavailable
	// server; both fall back to the store per key below.
	_, _ = pipe.Exec(ctx)

	var missing []string
	for id, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var cached cachedMotorcycle
		if err := json.Unmarshal(data, &cached); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = cached.toDomain()
	}

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := c.repo.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	fresh := make([]*domain.Motorcycle, 0, len(loaded))
	for id, m := range loaded {
		result[id] = m
		fresh = append(fresh, m)
	}
	_ = c.setBatch(ctx, fresh)

	return result, nil
}

func (c *MotorcycleCache) setBatch(ctx context.Context, motorcycles []*domain.Motorcycle) error {
	if len(motorcycles) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, m := range motorcycles {
		data, err := json.Marshal(fromDomain(m))
		if err != nil {
			continue
		}
		pipe.Set(ctx, motorcycleCachePrefix+m.ID, data, MotorcycleCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func fromDomain(m *domain.Motorcycle) cachedMotorcycle {
	categories := make([]string, len(m.Categories))
	for i, c := range m.Categories {
		categories[i] = string(c)
	}

	return cachedMotorcycle{
		ID:                m.ID,
		Make:              m.Make,
		Model:             m.Model,
		Variant:           m.Variant,
		Color:             m.Color,
		PricePerDayMonThu: m.PricePerDayMonThu,
		PricePerDayFriSun: m.PricePerDayFriSun,
		SecurityDeposit:   m.SecurityDeposit,
		Categories:        categories,
	}
}

func (c cachedMotorcycle) toDomain() *domain.Motorcycle {
	m := &domain.Motorcycle{
		ID:                c.ID,
		Make:              c.Make,
		Model:             c.Model,
		Variant:           c.Variant,
		Color:             c.Color,
		PricePerDayMonThu: c.PricePerDayMonThu,
		PricePerDayFriSun: c.PricePerDayFriSun,
		SecurityDeposit:   c.SecurityDeposit,
	}
	for _, cat := range c.Categories {
		m.Categories = append(m.Categories, domain.Category(cat))
	}
	return m
}
