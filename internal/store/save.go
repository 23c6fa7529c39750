package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/xlake-project/xlake/internal/model"
	"github.com/xlake-project/xlake/internal/object"
	"github.com/xlake-project/xlake/internal/value"
	"github.com/xlake-project/xlake/internal/xchannel"
)

// HashModel is the "hash" model save() casts every incoming record
// against: a record "provides" hash iff it carries a string-typed "hash"
// field, however that field was produced upstream.
var HashModel = model.New("hash", model.Field{Name: "hash", Kind: value.KindString})

// Save runs the content-addressed cache algorithm (spec 4.6) over in's
// stream form, returning a new channel carrying the (possibly
// store-substituted) records in the same order. logger defaults to a no-op
// logger if nil.
func Save(ctx context.Context, st Store, in *xchannel.Channel, logger *zap.Logger) (*xchannel.Channel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	stream, err := in.Stream(ctx)
	if err != nil {
		return nil, err
	}

	out := xchannel.NewStreamForm()
	for {
		item, ok, err := stream.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		record, err := saveOne(ctx, st, item, logger)
		if err != nil {
			return nil, err
		}
		out.ExtendOne(record)
	}

	return xchannel.FromStream(out), nil
}

func saveOne(ctx context.Context, st Store, item *object.LazyObject, logger *zap.Logger) (*object.LazyObject, error) {
	view, rejected := model.Cast(item, HashModel)
	if rejected != nil {
		// Does not provide the hash model: forward unchanged.
		return rejected, nil
	}

	h, ok := view.GetString("hash")
	if !ok {
		return rejectedOr(view), nil
	}

	hit, err := st.Contains(ctx, h)
	if err != nil {
		return nil, err
	}

	record := view.Into()
	if hit {
		logger.Debug("Hit cache", zap.String("hash", h))
		if !record.IsReady() {
			// Conservative policy (spec 9's flagged open question): a
			// pending future's in-flight semantics are not dropped in
			// favour of the store, even on a cache hit.
			return record, nil
		}
		fut := object.NewFuncFuture(func(ctx context.Context) (*value.Object, error) {
			return st.Read(ctx, h)
		})
		return record.ReplaceWith(fut), nil
	}

	logger.Debug("Miss cache", zap.String("hash", h))
	flat, err := record.Flatten(ctx)
	if err != nil {
		return nil, err
	}
	content := flat.Layers()[0].Content
	if err := st.Write(ctx, h, content); err != nil {
		return nil, err
	}
	return flat, nil
}

// rejectedOr is unreachable in practice: the hash model's schema requires
// a string "hash" field, so a successful cast guarantees GetString
// succeeds. Kept as an explicit fallback rather than a panic because
// Save must never crash the executor's driving task on a record shape it
// doesn't fully trust.
func rejectedOr(v *model.View) *object.LazyObject {
	return v.Into()
}
