package attachments

import (
	"context"

	"github.com/statistics102/course-monitor/internal/models"
)

// Pending is the single-shot result of AppendAsync. It resolves exactly
// once, with either the stored attachment or an error.
type Pending struct {
	done chan struct{}
	att  models.Attachment
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(att models.Attachment, err error) {
	p.att, p.err = att, err
	close(p.done)
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the result is available or ctx ends. Giving up on ctx
// does not stop the encoding already under way.
func (p *Pending) Wait(ctx context.Context) (models.Attachment, error) {
	select {
	case <-p.done:
		return p.att, p.err
	case <-ctx.Done():
		return models.Attachment{}, ctx.Err()
	}
}
