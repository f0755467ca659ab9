// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"time"

	"stock_diagnosis/internal/feature/marketdata/adapters/scraper"
	"stock_diagnosis/internal/feature/marketdata/domain/entity"
	"stock_diagnosis/internal/feature/marketdata/usecase"
	"stock_diagnosis/internal/platform/cache"
	infrahttp "stock_diagnosis/internal/platform/http"
)

// maxConnsPerHost limits parallel connections to the scraping target.
const maxConnsPerHost = 4

// NewFetcher creates a fully configured scraping Fetcher with HTTP client.
func NewFetcher(cfg scraper.Config) (*scraper.Fetcher, error) {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout, infrahttp.WithMaxConnsPerHost(maxConnsPerHost))

	var opts []scraper.FetcherOption
	if cfg.IdentitiesFile != "" {
		pool, err := scraper.LoadIdentities(cfg.IdentitiesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load identities: %w", err)
		}
		opts = append(opts, scraper.WithIdentities(pool))
	}
	return scraper.NewFetcher(cfg, httpClient, opts...), nil
}

// NewMarketDataUsecase wires the fetcher, extractor and snapshot cache into a MarketDataUsecase.
// The snapshot cache is returned as well so that admin operations share the same instance.
func NewMarketDataUsecase(store cache.Store) (*usecase.MarketDataUsecase, *cache.TTLCache[entity.MarketSnapshot], error) {
	fetcher, err := NewFetcher(scraper.LoadConfig())
	if err != nil {
		return nil, nil, err
	}
	snapshots := cache.NewSnapshotCache[entity.MarketSnapshot](store)
	uc := usecase.NewMarketDataUsecase(fetcher, scraper.NewExtractor(time.Now), snapshots)
	return uc, snapshots, nil
}
