// internal/app/store/availability/watch.go
package availability

import (
	"context"
	"fmt"

	"github.com/whosinapp/whosin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// changeEvent is the slice of a change stream document the board cares
// about.
type changeEvent struct {
	OperationType string            `bson:"operationType"`
	FullDocument  models.DateRecord `bson:"fullDocument"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

// Watch opens a change stream on the availability collection and applies
// remote writes to the board until ctx is canceled. It blocks; run it in a
// goroutine.
//
// Change streams need a replica set. On a standalone server Watch returns
// an error immediately and the board still works, just without live
// updates from other writers.
func (b *Board) Watch(ctx context.Context) error {
	if b.watch == nil {
		return fmt.Errorf("board has no collection to watch")
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := b.watch.Collection().Watch(ctx, bson.A{}, opts)
	if err != nil {
		return fmt.Errorf("open change stream: %w", err)
	}
	defer stream.Close(context.Background())

	b.log.Info("availability change stream open")
	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			b.log.Warn("decode change event", zap.Error(err))
			continue
		}
		switch ev.OperationType {
		case "insert", "update", "replace":
			if ev.FullDocument.Date == "" {
				// UpdateLookup can miss a document deleted between the
				// change and the lookup.
				continue
			}
			b.apply(ev.FullDocument)
		case "delete":
			b.remove(ev.DocumentKey.ID)
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("change stream: %w", err)
	}
	return nil
}
