package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/CourseLens/internal/types"
)

// Middleware normalizes a course record in place.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process rewrites fields of the course. An error means the record
	// could not be normalized by this stage.
	Process(course *types.Course) error
}

// Pipeline chains middleware processors together.
// Records are never dropped: a failing record is restored to its input state.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default returns the pipeline run after enrichment.
func Default(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(NewHTMLSanitizeMiddleware())
	p.Use(&TrimMiddleware{})
	p.Use(NewCurrencyNormalizeMiddleware())
	p.Use(NewDateNormalizeMiddleware())
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the course through all middleware in order. On error the
// course is restored to the state it had before Process was called.
func (p *Pipeline) Process(course *types.Course) error {
	snapshot := *course

	for _, mw := range p.middlewares {
		if err := mw.Process(course); err != nil {
			*course = snapshot
			return &types.PipelineError{
				Stage: mw.Name(),
				Key:   course.Key(),
				Err:   err,
			}
		}
	}

	return nil
}

// Run processes every course, logging and counting failures.
func (p *Pipeline) Run(courses []*types.Course) (failed int) {
	for _, c := range courses {
		if err := p.Process(c); err != nil {
			failed++
			p.logger.Warn("normalization failed, record kept as-is", "error", err)
		}
	}
	return failed
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
