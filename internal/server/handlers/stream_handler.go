package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/repository/store"
)

// SnapshotSource subscribes to full snapshots of one collection.
type SnapshotSource func(ctx context.Context, onChange func(any), onError func(error)) (func(), error)

// Snapshots adapts a typed collection to a SnapshotSource.
func Snapshots[T any](c *store.Collection[T]) SnapshotSource {
	return func(ctx context.Context, onChange func(any), onError func(error)) (func(), error) {
		return c.Subscribe(ctx, func(docs []T) { onChange(docs) }, onError)
	}
}

// StreamHandler pushes collection snapshots over server-sent events.
type StreamHandler struct {
	sources map[string]SnapshotSource
	logger  *zap.Logger
}

// NewStreamHandler constructs the HTTP handler adapter. sources is keyed by
// collection name.
func NewStreamHandler(sources map[string]SnapshotSource, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{sources: sources, logger: logger}
}

// Stream sends a "snapshot" event with the whole collection on connect and
// after every change. Snapshots produced faster than the client reads are
// coalesced into the latest one.
func (h *StreamHandler) Stream(c *gin.Context) {
	name := c.Param("collection")
	source, ok := h.sources[name]
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown collection " + name})
		return
	}

	ctx := c.Request.Context()
	updates := make(chan any, 1)
	push := func(docs any) {
		for {
			select {
			case updates <- docs:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	}

	unsubscribe, err := source(ctx, push, func(err error) {
		h.logger.Warn("snapshot reload failed", zap.String("collection", name), zap.Error(err))
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer unsubscribe()

	h.logger.Debug("stream opened", zap.String("collection", name))
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case docs := <-updates:
			c.SSEvent("snapshot", docs)
			return true
		}
	})
	h.logger.Debug("stream closed", zap.String("collection", name))
}
