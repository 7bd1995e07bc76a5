package pipeline

import (
	"fmt"

	"noctua/internal/categorization"
	"noctua/internal/content"
	"noctua/internal/dedupe"
	"noctua/internal/digest"
)

// Config holds the tunable thresholds of the content engine
type Config struct {
	MinContentChars     int
	SimilarityThreshold float64
	MinKeywordMatches   int
	ClassifyScanChars   int
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		MinContentChars:     content.DefaultMinContentChars,
		SimilarityThreshold: dedupe.DefaultThreshold,
		MinKeywordMatches:   categorization.DefaultMinMatches,
		ClassifyScanChars:   categorization.DefaultScanChars,
	}
}

// Builder helps construct a fully configured Pipeline
type Builder struct {
	config      Config
	source      MessageSource
	store       DigestStore
	synthesizer digest.Synthesizer
	weather     digest.WeatherProvider
}

// NewBuilder creates a new pipeline builder with default settings
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig sets the pipeline thresholds
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config
	return b
}

// WithSource sets where messages come from
func (b *Builder) WithSource(source MessageSource) *Builder {
	b.source = source
	return b
}

// WithStore sets the digest store
func (b *Builder) WithStore(store DigestStore) *Builder {
	b.store = store
	return b
}

// WithSynthesizer enables narrative synthesis
func (b *Builder) WithSynthesizer(synthesizer digest.Synthesizer) *Builder {
	b.synthesizer = synthesizer
	return b
}

// WithWeather enables the weather line in the intro
func (b *Builder) WithWeather(weather digest.WeatherProvider) *Builder {
	b.weather = weather
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build() (*Pipeline, error) {
	if b.source == nil {
		return nil, fmt.Errorf("message source is required")
	}
	if b.store == nil {
		return nil, fmt.Errorf("digest store is required")
	}

	return NewPipeline(
		b.source,
		content.NewNormalizer(b.config.MinContentChars),
		categorization.NewClassifier(b.config.MinKeywordMatches, b.config.ClassifyScanChars),
		dedupe.New(b.config.SimilarityThreshold),
		digest.NewCompiler(b.synthesizer, b.weather),
		b.store,
	), nil
}
