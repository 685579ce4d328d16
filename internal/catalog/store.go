// Package catalog holds the in-memory channel catalog produced by a single
// ingestion run, plus its JSON snapshot codec. A catalog is built once,
// sealed into an immutable Store, and replaced wholesale by the next load.
package catalog

import (
	"strings"
	"time"

	"github.com/jmylchreest/catarr/internal/models"
)

// DefaultGroupName is used for channels whose playlist entry carries no
// group-title attribute, unless the builder is configured otherwise.
const DefaultGroupName = "Uncategorized"

// Statistics summarizes a sealed store. It is embedded in snapshots.
type Statistics struct {
	TotalChannels      int            `json:"total_channels"`
	TotalGroups        int            `json:"total_groups"`
	ChannelsByType     map[string]int `json:"channels_by_type"`
	InternedGroupNames int            `json:"interned_group_names"`
}

// Builder accumulates channels during a load. It is not safe for concurrent
// use: during ingestion exactly one collector goroutine owns it.
type Builder struct {
	defaultGroup string

	groups     map[string]*models.Group
	groupOrder []string
	channels   []*models.Channel
	nameIndex  map[string]*models.Channel

	// intern maps group titles to a single shared string instance so that
	// playlists repeating the same title thousands of times do not hold
	// thousands of copies.
	intern map[string]string
}

// NewBuilder creates an empty builder. An empty defaultGroup selects
// DefaultGroupName.
func NewBuilder(defaultGroup string) *Builder {
	if defaultGroup == "" {
		defaultGroup = DefaultGroupName
	}
	return &Builder{
		defaultGroup: defaultGroup,
		groups:       make(map[string]*models.Group),
		nameIndex:    make(map[string]*models.Channel),
		intern:       make(map[string]string),
	}
}

// Add inserts a channel into the named group. An empty group name selects
// the default group. Duplicate channel names are allowed; the name index
// keeps the most recent insertion.
func (b *Builder) Add(ch *models.Channel, groupName string) {
	name := b.internGroup(groupName)

	g, ok := b.groups[name]
	if !ok {
		g = &models.Group{Name: name}
		b.groups[name] = g
		b.groupOrder = append(b.groupOrder, name)
	}

	g.Channels = append(g.Channels, ch)
	b.channels = append(b.channels, ch)
	b.nameIndex[strings.ToLower(ch.Name)] = ch
}

// Len returns the number of channels added so far.
func (b *Builder) Len() int {
	return len(b.channels)
}

// Build seals the builder into an immutable Store. The builder must not be
// used afterwards.
func (b *Builder) Build() *Store {
	return &Store{
		defaultGroup: b.defaultGroup,
		groups:       b.groups,
		groupOrder:   b.groupOrder,
		channels:     b.channels,
		nameIndex:    b.nameIndex,
		internSize:   len(b.intern),
		createdAt:    time.Now().UTC(),
	}
}

// internGroup returns the canonical shared instance of a group name.
func (b *Builder) internGroup(name string) string {
	if name == "" {
		name = b.defaultGroup
	}
	if canonical, ok := b.intern[name]; ok {
		return canonical
	}
	b.intern[name] = name
	return name
}

// Store is a sealed, read-only catalog. All accessors are safe for
// concurrent use.
type Store struct {
	defaultGroup string
	groups       map[string]*models.Group
	groupOrder   []string
	channels     []*models.Channel
	nameIndex    map[string]*models.Channel
	internSize   int
	createdAt    time.Time
}

// DefaultGroup returns the group name used for ungrouped channels.
func (s *Store) DefaultGroup() string {
	return s.defaultGroup
}

// CreatedAt returns when this store was sealed.
func (s *Store) CreatedAt() time.Time {
	return s.createdAt
}

// Groups returns all groups in first-seen order.
func (s *Store) Groups() []*models.Group {
	out := make([]*models.Group, 0, len(s.groupOrder))
	for _, name := range s.groupOrder {
		out = append(out, s.groups[name])
	}
	return out
}

// Group looks up a group by exact name.
func (s *Store) Group(name string) (*models.Group, bool) {
	g, ok := s.groups[name]
	return g, ok
}

// Channels returns the flat channel list in insertion order.
func (s *Store) Channels() []*models.Channel {
	return s.channels
}

// Lookup finds a channel by name, case-insensitively. When several channels
// share a name the most recently ingested one is returned.
func (s *Store) Lookup(name string) (*models.Channel, bool) {
	ch, ok := s.nameIndex[strings.ToLower(name)]
	return ch, ok
}

// Search returns channels whose name contains the query, case-insensitively,
// in catalog order.
func (s *Store) Search(query string) []*models.Channel {
	q := strings.ToLower(query)
	var out []*models.Channel
	for _, ch := range s.channels {
		if strings.Contains(strings.ToLower(ch.Name), q) {
			out = append(out, ch)
		}
	}
	return out
}

// Stats computes summary statistics for the store.
func (s *Store) Stats() Statistics {
	byType := make(map[string]int)
	for _, ch := range s.channels {
		byType[string(ch.Type)]++
	}
	return Statistics{
		TotalChannels:      len(s.channels),
		TotalGroups:        len(s.groups),
		ChannelsByType:     byType,
		InternedGroupNames: s.internSize,
	}
}
