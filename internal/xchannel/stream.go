// Package xchannel implements the Channel data-plane carrier and its two
// interchangeable forms: a lazy record stream and a columnar batch.
// Grounded on original_source/crates/xlake-core/src/{stream,batch}.rs and
// their formats/ counterparts.
package xchannel

import (
	"container/list"
	"context"
	"fmt"

	"github.com/xlake-project/xlake/internal/object"
)

// Producer is an asynchronous, fallible source of LazyObjects. Next
// returns ok=false once exhausted.
type Producer interface {
	Next(ctx context.Context) (item *object.LazyObject, ok bool, err error)
}

// ProducerFunc adapts a plain function into a Producer.
type ProducerFunc func(ctx context.Context) (*object.LazyObject, bool, error)

func (f ProducerFunc) Next(ctx context.Context) (*object.LazyObject, bool, error) { return f(ctx) }

// StreamForm is a pair of an optional asynchronous producer and a buffered
// queue of already-produced items. Polling yields queued items first once
// the producer is exhausted; while the producer is active its items are
// forwarded directly — matching the teacher lineage's StreamFormat.
type StreamForm struct {
	producer Producer
	queue    *list.List
}

func NewStreamForm() *StreamForm {
	return &StreamForm{queue: list.New()}
}

// FromProducer wraps an asynchronous producer with no queued items.
func FromProducer(p Producer) *StreamForm {
	return &StreamForm{producer: p, queue: list.New()}
}

// FromUnit seeds a stream with a single already-produced item, the
// entry point used to wrap a value produced outside any Src (e.g. a
// Func's single-output case).
func FromUnit(item *object.LazyObject) *StreamForm {
	s := NewStreamForm()
	s.ExtendOne(item)
	return s
}

// ExtendOne pushes item onto the queue, exactly the extend_one() operation
// every format exposes to factory-local code.
func (s *StreamForm) ExtendOne(item *object.LazyObject) {
	s.queue.PushBack(item)
}

// Next pulls one item: from the producer while it is active, and from the
// queue only once the producer is nil or exhausted, per the poll order
// documented in stream.rs.
func (s *StreamForm) Next(ctx context.Context) (*object.LazyObject, bool, error) {
	if s.producer != nil {
		item, ok, err := s.producer.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return item, true, nil
		}
		s.producer = nil
	}
	if s.queue.Len() == 0 {
		return nil, false, nil
	}
	front := s.queue.Front()
	s.queue.Remove(front)
	return front.Value.(*object.LazyObject), true, nil
}

// Drain pulls every remaining item in order, the uniform "drain as stream"
// operation a Channel exposes regardless of which form backs it.
func (s *StreamForm) Drain(ctx context.Context) ([]*object.LazyObject, error) {
	var out []*object.LazyObject
	for {
		item, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}

// ErrStreamToBatchUnsupported is returned by any attempt to convert a
// stream-form Channel into a batch form: the spec makes this a hard error.
var ErrStreamToBatchUnsupported = fmt.Errorf("xchannel: stream to batch conversion is not supported")
