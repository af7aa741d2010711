// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ManuGH/wavy-storage/internal/log"
)

// AudioInfo handles GET /hls/audio-info/: lists every owner's audios with
// their parsed metadata, enriching the spec's minimal listing requirement
// with the full field set the original server exposes.
func (s *WavyServer) AudioInfo(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "control.http.audio_info")

	type item struct {
		owner, audio string
		meta         AudioMetadata
		hasMeta      bool
	}
	var items []item

	s.Index.ForEachOwner(func(owner string, audios []string) {
		for _, audio := range audios {
			metaPath := filepath.Join(s.Storage.AudioDir(owner, audio), "metadata.toml")
			var meta AudioMetadata
			hasMeta := false
			if _, err := toml.DecodeFile(metaPath, &meta); err == nil {
				hasMeta = true
			} else {
				logger.Debug().Err(err).Str("owner", owner).Str("audio", audio).Msg("metadata unavailable for listing")
			}
			items = append(items, item{owner: owner, audio: audio, meta: meta, hasMeta: hasMeta})
		}
	})

	if len(items) == 0 {
		http.Error(w, "no audio found", http.StatusNotFound)
		return
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].owner != items[j].owner {
			return items[i].owner < items[j].owner
		}
		return items[i].audio < items[j].audio
	})

	var sb strings.Builder
	for _, it := range items {
		fmt.Fprintf(&sb, "%s/%s:\n", it.owner, it.audio)
		if !it.hasMeta {
			sb.WriteString("  (no metadata)\n")
			continue
		}
		fmt.Fprintf(&sb, "  path: %s\n", it.meta.Path)
		fmt.Fprintf(&sb, "  format: %s\n", it.meta.Format)
		fmt.Fprintf(&sb, "  duration: %.2f\n", it.meta.DurationSeconds)
		fmt.Fprintf(&sb, "  bitrate: %d\n", it.meta.Bitrate)
		fmt.Fprintf(&sb, "  available_bitrates: %v\n", it.meta.AvailableBitrates)
		if len(it.meta.Tags) > 0 {
			sb.WriteString("  tags:\n")
			keys := make([]string, 0, len(it.meta.Tags))
			for k := range it.meta.Tags {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, "    %s: %s\n", k, it.meta.Tags[k])
			}
		}
		for i, st := range it.meta.Streams {
			fmt.Fprintf(&sb, "  stream[%d]: codec=%s sample_rate=%d channels=%d layout=%s format=%s bitrate=%d\n",
				i, st.Codec, st.SampleRate, st.Channels, st.ChannelLayout, st.SampleFormat, st.Bitrate)
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}
