package storyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrief(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Brief
		wantErr bool
	}{
		{
			name:  "plain text",
			input: "Smart irrigation uses soil sensors.\n",
			want:  Brief{Content: "Smart irrigation uses soil sensors."},
		},
		{
			name:  "with front matter",
			input: "---\ntitle: Smart Irrigation\naudience: farmers\ntone: friendly\nscenes: 5\n---\nSensors water crops.\n",
			want: Brief{
				Title:    "Smart Irrigation",
				Audience: "farmers",
				Tone:     "friendly",
				Scenes:   5,
				Content:  "Sensors water crops.",
			},
		},
		{
			name:    "unclosed front matter",
			input:   "---\ntitle: x\nbody",
			wantErr: true,
		},
		{
			name:    "empty body",
			input:   "---\ntitle: x\n---\n\n",
			wantErr: true,
		},
		{
			name:    "scene count out of range",
			input:   "---\nscenes: 500\n---\ncontent",
			wantErr: true,
		},
		{
			name:    "bad yaml",
			input:   "---\ntitle: [unterminated\n---\ncontent",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBrief(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseBriefEmpty(t *testing.T) {
	_, err := ParseBrief("   \n")
	assert.ErrorIs(t, err, ErrEmptyBrief)
}
