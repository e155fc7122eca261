package cleaner

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/redact"
)

// Cleaner runs a fixed set of detectors over text. It holds no mutable
// state and is safe for concurrent use.
type Cleaner struct {
	detectors   []*pii.Detector
	selection   Selection
	ignoreCase  bool
	placeholder string
	workers     int
	registry    *pii.Registry
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithIgnoreCase matches every rule case-insensitively.
func WithIgnoreCase(on bool) Option {
	return func(c *Cleaner) { c.ignoreCase = on }
}

// WithPlaceholder sets the Replace text. It must be non-empty and must not
// be matched by any selected detector.
func WithPlaceholder(p string) Option {
	return func(c *Cleaner) { c.placeholder = p }
}

// WithWorkers bounds batch concurrency. Values below one mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Cleaner) { c.workers = n }
}

// WithRegistry resolves names against r instead of pii.Default().
func WithRegistry(r *pii.Registry) Option {
	return func(c *Cleaner) { c.registry = r }
}

// New resolves sel and returns a ready Cleaner. Unknown names fail with
// *pii.UnknownDetectorError before any text is scanned.
func New(sel Selection, opts ...Option) (*Cleaner, error) {
	c := &Cleaner{
		selection:   sel,
		placeholder: redact.Placeholder,
		registry:    pii.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}

	dets, err := c.registry.Resolve(sel.names)
	if err != nil {
		return nil, err
	}
	c.detectors = dets

	if c.placeholder == "" {
		return nil, &pii.InvalidConfigurationError{Field: "placeholder", Value: c.placeholder, Reason: "must not be empty"}
	}
	if spans := c.Detect(c.placeholder); len(spans) > 0 {
		return nil, &pii.InvalidConfigurationError{
			Field:  "placeholder",
			Value:  c.placeholder,
			Reason: fmt.Sprintf("matched by the %s cleaner", spans[0].Detector),
		}
	}
	return c, nil
}

// Selection returns the configuration the Cleaner was built from.
func (c *Cleaner) Selection() Selection {
	return c.selection
}

// Detectors returns the names of the resolved detectors in run order.
func (c *Cleaner) Detectors() []string {
	names := make([]string, len(c.detectors))
	for i, d := range c.detectors {
		names[i] = d.Name()
	}
	return names
}

// Placeholder returns the Replace text.
func (c *Cleaner) Placeholder() string {
	return c.placeholder
}

// Detect returns the merged PII spans of text, sorted by Start and
// non-overlapping. Offsets are in bytes.
func (c *Cleaner) Detect(text string) []pii.Span {
	if text == "" {
		return nil
	}
	results := make([]pii.Result, len(c.detectors))
	for i, d := range c.detectors {
		results[i].Detector = d.Name()
		if c.ignoreCase {
			results[i].Spans = d.ScanFold(text)
		} else {
			results[i].Spans = d.Scan(text)
		}
	}
	return pii.Merge(results)
}

// Clean returns text with every detected span rewritten under s.
func (c *Cleaner) Clean(text string, s redact.Strategy) string {
	return redact.Rewrite(text, c.Detect(text), s, c.placeholder)
}

// DetectBatch runs Detect on each element concurrently. Results are in input
// order. The only error is ctx's.
func (c *Cleaner) DetectBatch(ctx context.Context, texts []string) ([][]pii.Span, error) {
	out := make([][]pii.Span, len(texts))
	err := c.each(ctx, len(texts), func(i int) {
		out[i] = c.Detect(texts[i])
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CleanBatch runs Clean on each element concurrently. Results are in input
// order.
func (c *Cleaner) CleanBatch(ctx context.Context, texts []string, s redact.Strategy) ([]string, error) {
	out := make([]string, len(texts))
	err := c.each(ctx, len(texts), func(i int) {
		out[i] = c.Clean(texts[i], s)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DetectValues is DetectBatch over untyped values. Every element must be a
// string; the first that is not fails the whole call with
// *pii.InvalidInputError before any scanning starts.
func (c *Cleaner) DetectValues(ctx context.Context, values []any) ([][]pii.Span, error) {
	texts, err := asStrings(values)
	if err != nil {
		return nil, err
	}
	return c.DetectBatch(ctx, texts)
}

// CleanValues is CleanBatch over untyped values, validated like
// DetectValues.
func (c *Cleaner) CleanValues(ctx context.Context, values []any, s redact.Strategy) ([]string, error) {
	texts, err := asStrings(values)
	if err != nil {
		return nil, err
	}
	return c.CleanBatch(ctx, texts, s)
}

func asStrings(values []any) ([]string, error) {
	texts := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, &pii.InvalidInputError{Index: i, Value: v}
		}
		texts[i] = s
	}
	return texts, nil
}

// each calls fn for 0..n-1 with at most c.workers in flight. Cancelling ctx
// stops new elements from being scheduled.
func (c *Cleaner) each(ctx context.Context, n int, fn func(i int)) error {
	if n == 0 {
		return ctx.Err()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
