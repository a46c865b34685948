package extract

import (
	"fmt"
	"log/slog"

	"QASchemaScraper/internal/ports"
)

// Options parameterizes the default strategies.
type Options struct {
	EmphasisSelector  string
	MinQuestionLength int
	MaxOptionLength   int
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	candidates map[string]CandidateFinder
	answers    map[string]AnswerFinder
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		candidates: map[string]CandidateFinder{},
		answers:    map[string]AnswerFinder{},
	}
}

// DefaultRegistry registers every built-in strategy.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()
	r.RegisterCandidateFinder(LinkFinder{})
	r.RegisterCandidateFinder(TextLineFinder{})
	r.RegisterCandidateFinder(SelectorFinder{})

	r.RegisterAnswerFinder(ListItemFinder{})
	r.RegisterAnswerFinder(SelectorAnswerFinder{})
	r.RegisterAnswerFinder(EmphasisFinder{Selector: opts.EmphasisSelector, WithinArticle: true})
	r.RegisterAnswerFinder(EmphasisFinder{Selector: opts.EmphasisSelector})
	return r
}

// RegisterCandidateFinder adds or replaces a question-locating strategy.
func (r *Registry) RegisterCandidateFinder(f CandidateFinder) {
	r.candidates[f.Name()] = f
}

// RegisterAnswerFinder adds or replaces an answer strategy.
func (r *Registry) RegisterAnswerFinder(f AnswerFinder) {
	r.answers[f.Name()] = f
}

// CandidateFinders resolves names into an ordered cascade.
func (r *Registry) CandidateFinders(names []string) ([]CandidateFinder, error) {
	out := make([]CandidateFinder, 0, len(names))
	for _, name := range names {
		f, ok := r.candidates[name]
		if !ok {
			return nil, fmt.Errorf("candidate strategy %s is not registered", name)
		}
		out = append(out, f)
	}
	return out, nil
}

// AnswerFinders resolves names into an ordered cascade.
func (r *Registry) AnswerFinders(names []string) ([]AnswerFinder, error) {
	out := make([]AnswerFinder, 0, len(names))
	for _, name := range names {
		f, ok := r.answers[name]
		if !ok {
			return nil, fmt.Errorf("answer strategy %s is not registered", name)
		}
		out = append(out, f)
	}
	return out, nil
}

// Pipeline is a configured locator and resolver pair.
type Pipeline struct {
	Locator  *Locator
	Resolver *Resolver
}

// Build resolves the named cascades into a ready pipeline.
func (r *Registry) Build(candidateNames, answerNames []string, opts Options, fetcher ports.PageFetcher, log *slog.Logger) (Pipeline, error) {
	candidates, err := r.CandidateFinders(candidateNames)
	if err != nil {
		return Pipeline{}, err
	}
	answers, err := r.AnswerFinders(answerNames)
	if err != nil {
		return Pipeline{}, err
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return Pipeline{
		Locator:  NewLocator(candidates, opts.MinQuestionLength, log.With("component", "locator")),
		Resolver: NewResolver(fetcher, answers, NewOptionScanner(opts.MaxOptionLength), log.With("component", "resolver")),
	}, nil
}
