package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

const genesisHash = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"

type call struct {
	method string
	params []any
}

// fakeCaller routes each method to fn and records every call made.
type fakeCaller struct {
	calls []call
	fn    func(method string, params []any) (json.RawMessage, error)
}

func (f *fakeCaller) Call(_ context.Context, method string, params ...any) (json.RawMessage, error) {
	f.calls = append(f.calls, call{method: method, params: params})
	return f.fn(method, params)
}

// chainAt simulates a healthy node at the given height. failHashAt and
// failBlockAt make individual stages fail for one height.
func chainAt(height int64, failHashAt, failBlockAt int64) func(string, []any) (json.RawMessage, error) {
	return func(method string, params []any) (json.RawMessage, error) {
		switch method {
		case "getblockcount":
			return json.RawMessage(fmt.Sprintf("%d", height)), nil
		case "getblockhash":
			h := params[0].(int64)
			if failHashAt != 0 && h == failHashAt {
				return nil, errors.New("hash lookup down")
			}
			return json.RawMessage(fmt.Sprintf(`"hash-%d"`, h)), nil
		case "getblock":
			hash := params[0].(string)
			if failBlockAt != 0 && hash == fmt.Sprintf("hash-%d", failBlockAt) {
				return nil, errors.New("block fetch down")
			}
			var h int64
			if _, err := fmt.Sscanf(hash, "hash-%d", &h); err != nil {
				return nil, fmt.Errorf("unexpected hash %q", hash)
			}
			return json.RawMessage(fmt.Sprintf(`{"hash":%q,"height":%d}`, hash, h)), nil
		}
		return nil, fmt.Errorf("unexpected method %q", method)
	}
}

func heights(t *testing.T, blocks []json.RawMessage) []int64 {
	t.Helper()
	out := make([]int64, 0, len(blocks))
	for _, b := range blocks {
		var v struct {
			Height int64 `json:"height"`
		}
		if err := json.Unmarshal(b, &v); err != nil {
			t.Fatalf("decode block %s: %v", b, err)
		}
		out = append(out, v.Height)
	}
	return out
}

func TestBlockRejectsBadHashWithoutRPC(t *testing.T) {
	bad := []string{
		"",
		"xyz",
		genesisHash[:63],
		genesisHash + "0",
		"g" + genesisHash[1:],
	}
	for _, hash := range bad {
		fake := &fakeCaller{fn: chainAt(1, 0, 0)}
		svc := &Service{RPC: fake}
		_, err := svc.Block(context.Background(), hash)
		if !errors.Is(err, ErrBadBlockHash) {
			t.Errorf("Block(%q) error = %v, want ErrBadBlockHash", hash, err)
		}
		if len(fake.calls) != 0 {
			t.Errorf("Block(%q) issued %d RPC calls, want 0", hash, len(fake.calls))
		}
	}
}

func TestBlockPassesThrough(t *testing.T) {
	payload := json.RawMessage(`{"hash":"` + genesisHash + `","height":0,"nTx":1}`)
	fake := &fakeCaller{fn: func(method string, params []any) (json.RawMessage, error) {
		if method != "getblock" {
			t.Errorf("method = %q, want getblock", method)
		}
		if params[0] != genesisHash {
			t.Errorf("params[0] = %v", params[0])
		}
		return payload, nil
	}}
	svc := &Service{RPC: fake}

	got, err := svc.Block(context.Background(), genesisHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload reshaped: %s", got)
	}
}

func TestTransactionRejectsBadTxID(t *testing.T) {
	fake := &fakeCaller{fn: chainAt(1, 0, 0)}
	svc := &Service{RPC: fake}

	_, err := svc.Transaction(context.Background(), "not-a-txid")
	if !errors.Is(err, ErrBadTxID) {
		t.Fatalf("error = %v, want ErrBadTxID", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("issued %d RPC calls, want 0", len(fake.calls))
	}
}

func TestTransactionVerboseFlag(t *testing.T) {
	fake := &fakeCaller{fn: func(method string, params []any) (json.RawMessage, error) {
		if method != "getrawtransaction" {
			t.Errorf("method = %q", method)
		}
		if len(params) != 2 || params[0] != genesisHash || params[1] != true {
			t.Errorf("params = %v, want [txid true]", params)
		}
		return json.RawMessage(`{"txid":"x"}`), nil
	}}
	svc := &Service{RPC: fake}

	if _, err := svc.Transaction(context.Background(), genesisHash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLatestBlocksFullWindow(t *testing.T) {
	fake := &fakeCaller{fn: chainAt(100, 0, 0)}
	svc := &Service{RPC: fake}

	blocks, skipped, err := svc.LatestBlocks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	got := heights(t, blocks)
	want := []int64{100, 99, 98, 97, 96, 95, 94, 93, 92, 91}
	if len(got) != len(want) {
		t.Fatalf("heights = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("heights = %v, want %v", got, want)
		}
	}
}

func TestLatestBlocksCountFailureAborts(t *testing.T) {
	fake := &fakeCaller{fn: func(method string, params []any) (json.RawMessage, error) {
		return nil, errors.New("node down")
	}}
	svc := &Service{RPC: fake}

	_, _, err := svc.LatestBlocks(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fake.calls) != 1 {
		t.Errorf("issued %d RPC calls, want just getblockcount", len(fake.calls))
	}
}

func TestLatestBlocksSkipsFailedHashLookup(t *testing.T) {
	fake := &fakeCaller{fn: chainAt(100, 97, 0)}
	svc := &Service{RPC: fake}

	blocks, skipped, err := svc.LatestBlocks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	got := heights(t, blocks)
	want := []int64{100, 99, 98, 96, 95, 94, 93, 92, 91}
	if len(got) != len(want) {
		t.Fatalf("heights = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("heights = %v, want %v", got, want)
		}
	}
}

func TestLatestBlocksSkipsFailedBlockFetch(t *testing.T) {
	fake := &fakeCaller{fn: chainAt(100, 0, 99)}
	svc := &Service{RPC: fake}

	blocks, skipped, err := svc.LatestBlocks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(blocks) != 9 {
		t.Errorf("len(blocks) = %d, want 9", len(blocks))
	}
}

func TestLatestBlocksShortChain(t *testing.T) {
	fake := &fakeCaller{fn: chainAt(3, 0, 0)}
	svc := &Service{RPC: fake}

	blocks, skipped, err := svc.LatestBlocks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d", skipped)
	}
	got := heights(t, blocks)
	want := []int64{3, 2, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("heights = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("heights = %v, want %v", got, want)
		}
	}
}

func TestLatestBlocksCustomWindow(t *testing.T) {
	fake := &fakeCaller{fn: chainAt(100, 0, 0)}
	svc := &Service{RPC: fake, Window: 3}

	blocks, _, err := svc.LatestBlocks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 3 {
		t.Errorf("len(blocks) = %d, want 3", len(blocks))
	}
}
