package models

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

// Track files for the preview CLI use the same snake_case field names the
// API and stored specs use.
func TestTrackYAMLWireNames(t *testing.T) {
	doc := `
- id: track-a
  title: Alpha
  artist: Someone
  genre: electronic
  channel_id: 11111111-1111-1111-1111-111111111111
  energy_tier: high
  speed: 7.5
  tempo: 128
  metadata:
    rights:
      label: indie
`
	var tracks []Track
	if err := yaml.Unmarshal([]byte(doc), &tracks); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
	track := tracks[0]
	if track.ChannelID != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("channel_id not decoded, got %q", track.ChannelID)
	}
	if track.EnergyTier != "high" {
		t.Errorf("energy_tier not decoded, got %q", track.EnergyTier)
	}
	if track.Speed == nil || *track.Speed != 7.5 {
		t.Errorf("speed not decoded, got %v", track.Speed)
	}
	if track.Tempo == nil || *track.Tempo != 128 {
		t.Errorf("tempo not decoded, got %v", track.Tempo)
	}
	if v, ok := track.FieldValue("rights.label"); !ok || v != "indie" {
		t.Errorf("metadata path not decoded, got %v (%v)", v, ok)
	}
	if track.Intensity != nil {
		t.Errorf("expected absent feature to stay nil, got %v", *track.Intensity)
	}
}

func TestTrackJSONWireNames(t *testing.T) {
	track := Track{ID: "track-a", ChannelID: "chan-1", EnergyTier: "low"}
	data, err := json.Marshal(track)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wire["channel_id"] != "chan-1" {
		t.Errorf("expected channel_id on the wire, got keys %v", wire)
	}
	if wire["energy_tier"] != "low" {
		t.Errorf("expected energy_tier on the wire, got keys %v", wire)
	}
}
