package xchannel

import (
	"context"

	"github.com/xlake-project/xlake/internal/object"
)

// Channel carries exactly one of a Stream form or a Batch form between
// nodes. Both forms expose a uniform "drain as stream of LazyObject"
// operation via Stream(ctx).
type Channel struct {
	stream *StreamForm
	batch  *BatchForm
}

// FromStream wraps an existing stream form.
func FromStream(s *StreamForm) *Channel { return &Channel{stream: s} }

// FromBatch wraps an existing batch form.
func FromBatch(b *BatchForm) *Channel { return &Channel{batch: b} }

// NewEmpty returns a Channel with an empty stream form, the Default in the
// teacher lineage's PipeChannel.
func NewEmpty() *Channel { return &Channel{stream: NewStreamForm()} }

// Unit wraps a single item in a fresh stream-form Channel.
func Unit(item *object.LazyObject) *Channel {
	return &Channel{stream: FromUnit(item)}
}

// IsBatch reports whether the channel currently holds batch form.
func (c *Channel) IsBatch() bool { return c.batch != nil }

// ExtendOne appends item to whichever form is active.
func (c *Channel) ExtendOne(ctx context.Context, item *object.LazyObject) error {
	if c.batch != nil {
		return c.batch.ExtendOne(ctx, item)
	}
	if c.stream == nil {
		c.stream = NewStreamForm()
	}
	c.stream.ExtendOne(item)
	return nil
}

// Stream materialises the channel as a StreamForm, executing the batch
// engine's query plan and converting rows to Objects if the channel
// currently holds batch form. A stream-form channel is returned as-is.
func (c *Channel) Stream(ctx context.Context) (*StreamForm, error) {
	if c.batch != nil {
		return c.batch.ToStream(ctx)
	}
	if c.stream == nil {
		c.stream = NewStreamForm()
	}
	return c.stream, nil
}

// Batch returns the channel's batch form, failing with
// ErrStreamToBatchUnsupported if the channel currently holds stream form.
func (c *Channel) Batch() (*BatchForm, error) {
	if c.batch == nil {
		return nil, ErrStreamToBatchUnsupported
	}
	return c.batch, nil
}
