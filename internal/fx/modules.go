package fx

import (
	"context"
	"log"

	"github.com/amityadav/refiner/internal/ai"
	"github.com/amityadav/refiner/internal/articleapi"
	"github.com/amityadav/refiner/internal/config"
	"github.com/amityadav/refiner/internal/core"
	"github.com/amityadav/refiner/internal/extractor"
	"github.com/amityadav/refiner/internal/persistence"
	"github.com/amityadav/refiner/internal/retry"
	"github.com/amityadav/refiner/internal/scraperapi"
	"github.com/amityadav/refiner/internal/search"
	"github.com/amityadav/refiner/internal/serpapi"
	"github.com/amityadav/refiner/internal/store"
	"github.com/amityadav/refiner/internal/synthesis"
	"github.com/amityadav/refiner/internal/tavily"
	"github.com/amityadav/refiner/internal/throttle"
	"github.com/amityadav/refiner/internal/worker"
	"go.uber.org/fx"
)

// ============================================================================
// FX MODULES - Group related providers together
// ============================================================================

// Options carries command-line choices into the graph
type Options struct {
	Memory  bool // in-memory store instead of Postgres
	Migrate bool // apply migrations before opening the store
	DryRun  bool
	Limit   int // overrides PIPELINE_BATCH_LIMIT when > 0
}

// ConfigModule provides application configuration
var ConfigModule = fx.Module("config",
	fx.Provide(config.Load),
)

// StoreModule provides the article store
var StoreModule = fx.Module("store",
	fx.Provide(NewStore),
)

// SearchModule provides search registry with all search providers
var SearchModule = fx.Module("search",
	fx.Provide(
		NewSearchRegistry,
		NewReferenceFinder,
	),
)

// ExtractorModule provides page rendering and content extraction
var ExtractorModule = fx.Module("extractor",
	fx.Provide(
		NewRenderer,
		NewExtractor,
	),
)

// AIModule provides the LLM generator and synthesizer
var AIModule = fx.Module("ai",
	fx.Provide(
		NewGenerator,
		NewSynthesizer,
	),
)

// PipelineModule provides the enrichment core and its persistence adapter
var PipelineModule = fx.Module("pipeline",
	fx.Invoke(ValidateConfig),
	fx.Provide(
		NewPersistence,
		NewEnrichmentCore,
	),
)

// WorkerModule provides the scheduled enrichment worker
var WorkerModule = fx.Module("worker",
	fx.Provide(NewWorker),
)

// PipelineModules is everything a pipeline run needs
var PipelineModules = fx.Options(
	ConfigModule,
	StoreModule,
	SearchModule,
	ExtractorModule,
	AIModule,
	PipelineModule,
)

// ============================================================================
// PROVIDER FUNCTIONS - Constructors that FX will call automatically
// ============================================================================

// ValidateConfig fails startup when the selected providers lack credentials
func ValidateConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Printf("[FX] Config validated (search: %s, llm: %s, renderer: %s)", cfg.SearchProvider, cfg.LLMProvider, cfg.Renderer)
	return nil
}

// NewStore opens Postgres, or an in-memory store when opts.Memory is set
func NewStore(lc fx.Lifecycle, cfg config.Config, opts Options) (store.Store, error) {
	if opts.Memory {
		log.Printf("[FX] MemoryStore initialized")
		return store.NewMemoryStore(), nil
	}

	if opts.Migrate {
		if err := store.Migrate(cfg.DatabaseURL, "up", 0); err != nil {
			return nil, err
		}
	}

	st, err := store.NewPostgresStore(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			st.Close()
			return nil
		},
	})
	log.Printf("[FX] PostgresStore initialized")
	return st, nil
}

// NewSearchRegistry creates search registry with all available providers
func NewSearchRegistry(cfg config.Config) *search.Registry {
	registry := search.NewRegistry()

	if cfg.SerpAPIKey != "" {
		registry.Register(serpapi.NewClient(cfg.SerpAPIKey))
		log.Printf("[FX] SearchRegistry: SerpApi registered")
	}
	if cfg.TavilyAPIKey != "" {
		registry.Register(tavily.NewClient(cfg.TavilyAPIKey))
		log.Printf("[FX] SearchRegistry: Tavily registered")
	}
	if cfg.ScraperAPIKey != "" {
		registry.Register(scraperapi.NewClient(cfg.ScraperAPIKey))
		log.Printf("[FX] SearchRegistry: ScraperAPI registered")
	}

	log.Printf("[FX] SearchRegistry initialized with %d providers", registry.Count())
	return registry
}

// NewReferenceFinder wraps the configured provider with throttling and retry
func NewReferenceFinder(cfg config.Config, registry *search.Registry) (*search.Discovery, error) {
	provider, err := registry.Get(cfg.SearchProvider)
	if err != nil {
		return nil, err
	}
	policy := retry.Policy{Name: "search", MaxAttempts: cfg.RetryAttempts, Base: cfg.SearchRetryBase}
	return search.NewDiscovery(provider, throttle.Every("search", cfg.SearchDelay), policy), nil
}

// NewRenderer picks the page renderer
func NewRenderer(cfg config.Config) extractor.Renderer {
	if cfg.Renderer == "http" {
		log.Printf("[FX] Renderer: plain HTTP")
		return extractor.NewHTTPRenderer(cfg.RenderTimeout)
	}
	log.Printf("[FX] Renderer: headless Chrome")
	return extractor.NewChromeRenderer(cfg.ChromePath, cfg.RenderTimeout, cfg.RenderSettle)
}

// NewExtractor spaces reference fetches by REFERENCE_DELAY
func NewExtractor(cfg config.Config, r extractor.Renderer) *extractor.Extractor {
	return extractor.New(r, throttle.Every("reference", cfg.ReferenceDelay))
}

// NewGenerator creates the LLM generator selected by LLM_PROVIDER
func NewGenerator(cfg config.Config) (ai.Generator, error) {
	gen, err := ai.NewGenerator(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[FX] Generator initialized (%s)", cfg.LLMProvider)
	return gen, nil
}

// NewSynthesizer creates the article rewriter
func NewSynthesizer(cfg config.Config, gen ai.Generator) *synthesis.Synthesizer {
	policy := retry.Policy{Name: "synthesis", MaxAttempts: cfg.RetryAttempts, Base: cfg.SynthRetryBase}
	return synthesis.New(gen, policy)
}

// NewPersistence writes through the article API and falls back to the store
func NewPersistence(cfg config.Config, st store.Store, opts Options) *persistence.Adapter {
	var primary persistence.Path
	if cfg.APIBaseURL != "" && !opts.Memory {
		primary = articleapi.NewClient(cfg.APIBaseURL)
		log.Printf("[FX] Persistence: API %s with direct store fallback", cfg.APIBaseURL)
	} else {
		log.Printf("[FX] Persistence: direct store only")
	}
	return persistence.New(primary, st)
}

// CoreParams groups dependencies for the enrichment core
type CoreParams struct {
	fx.In
	Config      config.Config
	Options     Options
	Finder      *search.Discovery
	Extractor   *extractor.Extractor
	Synthesizer *synthesis.Synthesizer
	Persistence *persistence.Adapter
}

// NewEnrichmentCore creates the pipeline
func NewEnrichmentCore(p CoreParams) *core.EnrichmentCore {
	opts := core.Options{
		BatchLimit:      p.Config.BatchLimit,
		MaxReferences:   p.Config.MaxReferences,
		MinContentChars: p.Config.MinContentChars,
		ArticleThrottle: throttle.Every("article", p.Config.ArticleDelay),
		DryRun:          p.Options.DryRun,
	}
	if p.Options.Limit > 0 {
		opts.BatchLimit = p.Options.Limit
	}
	c := core.NewEnrichmentCore(p.Finder, p.Extractor, p.Synthesizer, p.Persistence, opts)
	log.Printf("[FX] EnrichmentCore initialized (batch %d, refs %d, dry run %v)", opts.BatchLimit, opts.MaxReferences, opts.DryRun)
	return c
}

// NewWorker creates the enrichment worker
func NewWorker(c *core.EnrichmentCore, cfg config.Config) *worker.Worker {
	return worker.NewWorker(c, cfg.EnrichSchedule)
}
