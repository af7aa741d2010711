// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package http

// StreamMetadata describes one encoded stream within an audio file, as
// recorded by the owner-side packaging tool.
type StreamMetadata struct {
	Codec         string `toml:"codec"`
	SampleRate    int    `toml:"sample_rate"`
	Channels      int    `toml:"channels"`
	ChannelLayout string `toml:"channel_layout"`
	SampleFormat  string `toml:"sample_format"`
	Bitrate       int    `toml:"bitrate"`
}

// AudioMetadata mirrors the full Wavy TOML metadata schema: file-level
// fields, free-form tags, and per-stream encode parameters. The server only
// parses and lists this; it never mutates it.
type AudioMetadata struct {
	Path              string           `toml:"path"`
	Format            string           `toml:"format"`
	DurationSeconds   float64          `toml:"duration"`
	Bitrate           int              `toml:"bitrate"`
	AvailableBitrates []int            `toml:"available_bitrates"`
	Tags              map[string]string `toml:"tags"`
	Streams           []StreamMetadata `toml:"streams"`
}
