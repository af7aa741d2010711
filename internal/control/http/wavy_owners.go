// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Owners handles GET /hls/owners: lists every owner and their audio ids.
func (s *WavyServer) Owners(w http.ResponseWriter, r *http.Request) {
	type block struct {
		owner  string
		audios []string
	}
	var blocks []block
	s.Index.ForEachOwner(func(owner string, audios []string) {
		sort.Strings(audios)
		blocks = append(blocks, block{owner: owner, audios: audios})
	})
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].owner < blocks[j].owner })

	if len(blocks) == 0 {
		http.Error(w, "no owners found", http.StatusNotFound)
		return
	}

	var sb strings.Builder
	for _, b := range blocks {
		fmt.Fprintf(&sb, "%s:\n", b.owner)
		for _, a := range b.audios {
			fmt.Fprintf(&sb, "  - %s\n", a)
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}
