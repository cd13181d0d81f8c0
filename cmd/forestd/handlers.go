// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/certen/forestlog/pkg/database"
	"github.com/certen/forestlog/pkg/forest"
	"github.com/certen/forestlog/pkg/proof"
	"github.com/certen/forestlog/pkg/tree"
)

type addRequest struct {
	Entry string `json:"entry"` // 64 hex characters (32 bytes)
}

type addResponse struct {
	Root        string `json:"root"`
	Cardinality int    `json:"cardinality"`
}

func (s *server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entry, err := decodeEntry(req.Entry)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	treesBefore := len(s.forest.Trees())
	start := time.Now()
	next, err := s.forest.Add(ctx, entry)
	elapsed := time.Since(start)
	if err == nil {
		s.forest = next
	}
	current := s.forest
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusInternalServerError, "add: "+err.Error())
		return
	}

	s.metrics.Adds.Inc()
	s.metrics.MergeDuration.Observe(elapsed.Seconds())
	// Add always inserts one singleton tree; any net shrinkage of the tree
	// count below that is carry merges collapsing equal-height trees.
	if merges := treesBefore + 1 - len(current.Trees()); merges > 0 {
		s.metrics.Merges.Add(float64(merges))
	}
	s.metrics.ForestCardinality.Set(float64(current.Cardinality()))

	if err := forest.SaveIndex(s.indexDB, current); err != nil {
		writeError(w, http.StatusInternalServerError, "save index: "+err.Error())
		return
	}

	if s.checkpoint != nil {
		cpCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, cpErr := s.checkpoint.Record(cpCtx, int64(current.Cardinality()), current.Root(), int64(current.Cardinality()))
		cancel()
		if cpErr != nil {
			writeError(w, http.StatusInternalServerError, "record checkpoint: "+cpErr.Error())
			return
		}
	}

	root := current.Root()
	writeJSON(w, http.StatusOK, addResponse{
		Root:        hex.EncodeToString(root[:]),
		Cardinality: current.Cardinality(),
	})
}

func (s *server) handleInclusion(w http.ResponseWriter, r *http.Request) {
	hexEntry := strings.TrimPrefix(r.URL.Path, "/inclusion/")
	entry, err := decodeEntry(hexEntry)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := s.currentForest()
	p, ok, err := proof.ProveInclusion(r.Context(), f, entry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "prove inclusion: "+err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "entry not present in forest")
		return
	}
	s.metrics.InclusionProofsBuilt.Inc()
	if p.Verify(f.Root()) {
		s.metrics.InclusionProofsVerified.Inc()
	} else {
		writeError(w, http.StatusInternalServerError, "generated inclusion proof failed self-verification")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleExclusion(w http.ResponseWriter, r *http.Request) {
	hexEntry := strings.TrimPrefix(r.URL.Path, "/exclusion/")
	entry, err := decodeEntry(hexEntry)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := s.currentForest()
	p, present, err := proof.ProveExclusion(r.Context(), f, entry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "prove exclusion: "+err.Error())
		return
	}
	if present {
		writeError(w, http.StatusConflict, "entry is present in forest")
		return
	}
	s.metrics.ExclusionProofsBuilt.Inc()
	if p.Verify() {
		s.metrics.ExclusionProofsVerified.Inc()
	} else {
		writeError(w, http.StatusInternalServerError, "generated exclusion proof failed self-verification")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleLatestCheckpoint(w http.ResponseWriter, r *http.Request) {
	cp, err := s.checkpoint.Latest(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

type healthResponse struct {
	Status      string            `json:"status"`
	NodeID      string            `json:"node_id"`
	Cardinality int               `json:"cardinality"`
	Checkpoint  *checkpointHealth `json:"checkpoint,omitempty"`
}

// checkpointHealth summarizes the checkpoint database's reachability and
// schema state, omitted entirely from healthResponse when checkpointing is
// disabled.
type checkpointHealth struct {
	Healthy    bool                     `json:"healthy"`
	Error      string                   `json:"error,omitempty"`
	Migrations []database.MigrationInfo `json:"migrations,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		NodeID:      s.cfg.NodeID,
		Cardinality: s.currentForest().Cardinality(),
	}

	if s.checkpoint != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		ch := &checkpointHealth{}
		if status, err := s.checkpoint.Health(ctx); err != nil {
			ch.Error = err.Error()
		} else if status != nil {
			ch.Healthy = status.Healthy
			ch.Error = status.Error
		}
		if migrations, err := s.checkpoint.MigrationStatus(ctx); err == nil {
			ch.Migrations = migrations
		}
		resp.Checkpoint = ch
	}

	writeJSON(w, http.StatusOK, resp)
}

func decodeEntry(hexStr string) (tree.Entry, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return tree.Entry{}, errors.New("entry must be hex-encoded")
	}
	return tree.EntryFromBytes(b)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
