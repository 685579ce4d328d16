// Package models defines the domain entities produced by catalog ingestion.
package models

// ChannelType classifies how a stream is intended to be consumed.
type ChannelType string

const (
	// ChannelTypeLive is a continuous live broadcast stream.
	ChannelTypeLive ChannelType = "live"
	// ChannelTypeVOD is a single on-demand item (movie or one-off).
	ChannelTypeVOD ChannelType = "vod"
	// ChannelTypeSeries is an episodic on-demand item.
	ChannelTypeSeries ChannelType = "series"
	// ChannelTypeUnknown is used when no classification rule matched.
	ChannelTypeUnknown ChannelType = "unknown"
)

// Valid returns true for one of the defined channel types.
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelTypeLive, ChannelTypeVOD, ChannelTypeSeries, ChannelTypeUnknown:
		return true
	default:
		return false
	}
}

// Channel represents a single playable entry from an ingested playlist.
// Channels are immutable once constructed; identity is (Name, StreamURL).
type Channel struct {
	// Name is the display name taken from the EXTINF title.
	Name string `json:"name"`

	// StreamURL is the playback URL for this channel.
	StreamURL string `json:"stream_url"`

	// TvgID is the EPG channel identifier for matching with program data.
	TvgID string `json:"tvg_id,omitempty"`

	// TvgLogo is the URL to the channel logo.
	TvgLogo string `json:"tvg_logo,omitempty"`

	// Type is the heuristic stream classification.
	Type ChannelType `json:"channel_type"`
}

// Key returns the identity key for equality and deduplication.
func (c *Channel) Key() string {
	return c.Name + "|" + c.StreamURL
}

// Validate performs basic validation on the channel.
func (c *Channel) Validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.StreamURL == "" {
		return ErrStreamURLRequired
	}
	if !c.Type.Valid() {
		return ErrInvalidChannelType
	}
	return nil
}

// Group is a named, insertion-ordered collection of channels.
// Duplicate channels are permitted; group names are unique within a catalog.
type Group struct {
	// Name is the group name, unique within a catalog.
	Name string `json:"name"`

	// Channels holds the group's channels in insertion order.
	Channels []*Channel `json:"channels"`
}
