package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/martinfar/bitcoin-explorer-api/internal/rpc"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	ErrBadBlockHash = errors.New("invalid block hash")
	ErrBadTxID      = errors.New("invalid transaction id")
)

// DefaultWindow is how many recent blocks LatestBlocks attempts to fetch.
const DefaultWindow = 10

// Service answers explorer queries against the node. Node payloads pass
// through as raw JSON; the gateway never reshapes them.
type Service struct {
	RPC    rpc.Caller
	Window int
}

// Block fetches block detail by hash. A syntactically invalid hash fails
// with ErrBadBlockHash before any RPC call is made.
func (s *Service) Block(ctx context.Context, hash string) (json.RawMessage, error) {
	if !validHash(hash) {
		return nil, ErrBadBlockHash
	}
	return s.RPC.Call(ctx, "getblock", hash)
}

// Transaction fetches verbose transaction detail by txid. Txids share the
// block hash syntax and are validated the same way.
func (s *Service) Transaction(ctx context.Context, txid string) (json.RawMessage, error) {
	if !validHash(txid) {
		return nil, ErrBadTxID
	}
	return s.RPC.Call(ctx, "getrawtransaction", txid, true)
}

// LatestBlocks walks the chain tip-first: getblockcount once, then for each
// of the window's heights a getblockhash/getblock pair, strictly in order.
// A failed pair skips that height and moves on; skipped reports how many
// heights were dropped. Only a failed count call fails the whole request.
func (s *Service) LatestBlocks(ctx context.Context) (blocks []json.RawMessage, skipped int, err error) {
	raw, err := s.RPC.Call(ctx, "getblockcount")
	if err != nil {
		return nil, 0, fmt.Errorf("getblockcount: %w", err)
	}
	var count int64
	if err := json.Unmarshal(raw, &count); err != nil {
		return nil, 0, fmt.Errorf("decode block count: %w", err)
	}

	window := s.window()
	blocks = make([]json.RawMessage, 0, window)
	for i := int64(0); i < int64(window); i++ {
		height := count - i
		if height < 0 {
			break
		}

		hashRaw, err := s.RPC.Call(ctx, "getblockhash", height)
		if err != nil {
			slog.Warn("skipping block", "height", height, "stage", "getblockhash", "error", err)
			skipped++
			continue
		}
		var hash string
		if err := json.Unmarshal(hashRaw, &hash); err != nil {
			slog.Warn("skipping block", "height", height, "stage", "getblockhash", "error", err)
			skipped++
			continue
		}

		block, err := s.RPC.Call(ctx, "getblock", hash)
		if err != nil {
			slog.Warn("skipping block", "height", height, "stage", "getblock", "error", err)
			skipped++
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks, skipped, nil
}

func (s *Service) window() int {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultWindow
}

// validHash accepts exactly 64 hex characters, the wire form of a
// double-SHA256 identifier. chainhash tolerates shorter strings, so length
// is checked first.
func validHash(s string) bool {
	if len(s) != chainhash.MaxHashStringSize {
		return false
	}
	_, err := chainhash.NewHashFromStr(s)
	return err == nil
}
