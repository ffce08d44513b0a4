package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/martinfar/bitcoin-explorer-api/internal/rpc"
)

// TipEvent is pushed to subscribers whenever the chain tip advances.
type TipEvent struct {
	Height int64  `json:"height"`
	Hash   string `json:"hash"`
}

// Watcher polls the node for the chain height and broadcasts every new
// block to the hub. A failed poll is logged and retried on the next tick.
type Watcher struct {
	RPC      rpc.Caller
	Hub      *Hub
	Interval time.Duration

	lastHeight int64
}

func (w *Watcher) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.pollOnce(ctx); err != nil {
			slog.Warn("tip poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) error {
	raw, err := w.RPC.Call(ctx, "getblockcount")
	if err != nil {
		return err
	}
	var height int64
	if err := json.Unmarshal(raw, &height); err != nil {
		return fmt.Errorf("decode block count: %w", err)
	}

	// First observation is the baseline; history is not replayed.
	if w.lastHeight == 0 {
		w.lastHeight = height
		return nil
	}

	for h := w.lastHeight + 1; h <= height; h++ {
		hashRaw, err := w.RPC.Call(ctx, "getblockhash", h)
		if err != nil {
			return err
		}
		var hash string
		if err := json.Unmarshal(hashRaw, &hash); err != nil {
			return fmt.Errorf("decode block hash: %w", err)
		}
		w.Hub.Broadcast(TipEvent{Height: h, Hash: hash})
		w.lastHeight = h
	}
	return nil
}
