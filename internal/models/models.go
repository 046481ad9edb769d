package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// FeatureFields is the canonical set of scoreable audio features. Slot
// targets may only reference fields listed here.
var FeatureFields = []string{
	"speed",
	"intensity",
	"brightness",
	"complexity",
	"valence",
	"arousal",
	"tempo",
}

// IsFeatureField reports whether name is a scoreable audio feature.
func IsFeatureField(name string) bool {
	for _, f := range FeatureFields {
		if f == name {
			return true
		}
	}
	return false
}

// Track is a catalog entity. Tracks are created and mutated by catalog
// management tooling; the sequence engine only ever reads them. Feature
// columns are pointers because analysis legitimately leaves gaps.
type Track struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id" yaml:"id"`
	Title      string `gorm:"index" json:"title" yaml:"title"`
	Artist     string `gorm:"index" json:"artist" yaml:"artist"`
	Album      string `json:"album" yaml:"album"`
	Genre      string `json:"genre" yaml:"genre"`
	ChannelID  string `gorm:"type:uuid;index" json:"channel_id" yaml:"channel_id"`
	EnergyTier string `gorm:"type:varchar(16)" json:"energy_tier" yaml:"energy_tier"`

	Speed      *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
	Intensity  *float64 `json:"intensity,omitempty" yaml:"intensity,omitempty"`
	Brightness *float64 `json:"brightness,omitempty" yaml:"brightness,omitempty"`
	Complexity *float64 `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Valence    *float64 `json:"valence,omitempty" yaml:"valence,omitempty"`
	Arousal    *float64 `json:"arousal,omitempty" yaml:"arousal,omitempty"`
	Tempo      *float64 `json:"tempo,omitempty" yaml:"tempo,omitempty"`

	Metadata map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty" yaml:"metadata,omitempty"`

	CreatedAt time.Time      `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-" yaml:"-"`
}

// Feature returns the named audio feature value. ok is false when the
// feature was never recorded for this track.
func (t Track) Feature(name string) (float64, bool) {
	var v *float64
	switch strings.ToLower(name) {
	case "speed":
		v = t.Speed
	case "intensity":
		v = t.Intensity
	case "brightness":
		v = t.Brightness
	case "complexity":
		v = t.Complexity
	case "valence":
		v = t.Valence
	case "arousal":
		v = t.Arousal
	case "tempo":
		v = t.Tempo
	default:
		return 0, false
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// FieldValue resolves a filter field reference against the track. Known
// columns resolve first; anything else is treated as a dot path into the
// metadata document (e.g. "rights.label"). ok is false when the reference
// does not resolve on this track.
func (t Track) FieldValue(name string) (any, bool) {
	key := strings.ToLower(name)
	switch key {
	case "id":
		return t.ID, true
	case "title":
		return t.Title, true
	case "artist":
		return t.Artist, true
	case "album":
		return t.Album, true
	case "genre":
		return t.Genre, true
	case "channel_id":
		return t.ChannelID, true
	case "energy_tier":
		return t.EnergyTier, true
	}
	if v, ok := t.Feature(key); ok {
		return v, true
	}
	return lookupMetadataPath(t.Metadata, key)
}

func lookupMetadataPath(meta map[string]any, path string) (any, bool) {
	if meta == nil {
		return nil, false
	}
	var current any = meta
	for _, seg := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SequenceSpec is the stored aggregate an authoring workflow produces and the
// engine consumes unmodified: slot definitions, rule groups and the repeat
// policy. Definitions and rule groups are persisted as JSON documents so the
// authoring tools' field names remain the wire contract.
type SequenceSpec struct {
	ID                   string `gorm:"type:uuid;primaryKey"`
	Name                 string `gorm:"index"`
	Description          string `gorm:"type:text"`
	ChannelID            string `gorm:"type:uuid;index"`
	EnergyTier           string `gorm:"type:varchar(16)"`
	NumSlots             int
	RecentRepeatWindow   int
	Definitions          []map[string]any `gorm:"type:jsonb;serializer:json"`
	RuleGroups           []map[string]any `gorm:"type:jsonb;serializer:json"`
	PlaybackContinuation string           `gorm:"type:varchar(32)"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
