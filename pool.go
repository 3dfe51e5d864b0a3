package md2html

import (
	"runtime"
	"sync"

	"go.uber.org/multierr"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps the number of parsers created automatically.
	MaxPoolSize = 16
)

// ParserFactory creates the parsers of a pool.
type ParserFactory func() (*Parser, error)

// ParserPool hands out Parsers to goroutines, one Parser per goroutine at a
// time. Parsers are created lazily on first acquire.
type ParserPool struct {
	size    int
	factory ParserFactory
	parsers []*Parser
	sem     chan *Parser
	mu      sync.Mutex
	created int
	closed  bool
}

// NewParserPool creates a pool with capacity for n parsers built by factory.
// A nil factory uses NewParser with no options.
func NewParserPool(n int, factory ParserFactory) *ParserPool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	if factory == nil {
		factory = func() (*Parser, error) { return NewParser() }
	}

	return &ParserPool{
		size:    n,
		factory: factory,
		parsers: make([]*Parser, 0, n),
		sem:     make(chan *Parser, n),
	}
}

// Acquire gets a parser from the pool, creating one if needed.
// Blocks if all parsers are in use. A factory error frees the slot for a
// later attempt. Acquire returns ErrPoolClosed once Close has been called,
// including for callers blocked waiting on a parser.
func (p *ParserPool) Acquire() (*Parser, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	select {
	case parser := <-p.sem:
		p.mu.Unlock()
		return parser, nil
	default:
	}

	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		parser, err := p.factory()

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.created--
			return nil, err
		}
		if p.closed {
			return nil, multierr.Append(ErrPoolClosed, parser.Close())
		}
		p.parsers = append(p.parsers, parser)
		return parser, nil
	}
	p.mu.Unlock()

	parser, ok := <-p.sem
	if !ok {
		return nil, ErrPoolClosed
	}
	// A closed sem still drains parsers released before Close.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	return parser, nil
}

// Release returns a parser to the pool. Releasing into a closed pool is a
// no-op: Close already owns every parser the pool created.
// The send happens under the lock so Close cannot close sem in between; it
// never blocks because sem holds one slot per created parser.
func (p *ParserPool) Release(parser *Parser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- parser
}

// Close closes every parser the pool created.
// Returns the combined error of all parsers that fail to close.
func (p *ParserPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	parsers := p.parsers
	p.mu.Unlock()

	var err error
	for _, parser := range parsers {
		err = multierr.Append(err, parser.Close())
	}
	return err
}

// Size returns the pool capacity.
func (p *ParserPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	n := runtime.GOMAXPROCS(0)

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
