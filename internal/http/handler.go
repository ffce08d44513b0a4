package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/martinfar/bitcoin-explorer-api/internal/explorer"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Explorer *explorer.Service
}

func NewHandler(svc *explorer.Service) *Handler {
	return &Handler{Explorer: svc}
}

// GetBlock serves GET /block/{hash}. Node output is passed through
// unmodified; RPC failures surface as an opaque 500 with detail kept in
// the logs.
func (h *Handler) GetBlock(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	block, err := h.Explorer.Block(r.Context(), hash)
	if err != nil {
		if errors.Is(err, explorer.ErrBadBlockHash) {
			writeError(w, http.StatusBadRequest, "invalid block hash")
			return
		}
		slog.Error("block lookup failed", "hash", hash, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve block information")
		return
	}
	writeRaw(w, http.StatusOK, block)
}

// GetTransaction serves GET /tx/{txid}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txid := chi.URLParam(r, "txid")

	tx, err := h.Explorer.Transaction(r.Context(), txid)
	if err != nil {
		if errors.Is(err, explorer.ErrBadTxID) {
			writeError(w, http.StatusBadRequest, "invalid transaction id")
			return
		}
		slog.Error("transaction lookup failed", "txid", txid, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve transaction information")
		return
	}
	writeRaw(w, http.StatusOK, tx)
}

// GetLatestBlocks serves GET /latest_blocks: a tip-first array of up to the
// configured window of block details. Heights that could not be fetched are
// omitted from the array and counted in the X-Blocks-Skipped header.
func (h *Handler) GetLatestBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, skipped, err := h.Explorer.LatestBlocks(r.Context())
	if err != nil {
		slog.Error("latest blocks failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve latest blocks")
		return
	}
	if skipped > 0 {
		w.Header().Set("X-Blocks-Skipped", strconv.Itoa(skipped))
	}
	writeJSON(w, http.StatusOK, blocks)
}
