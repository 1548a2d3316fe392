package highlight

import (
	"testing"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEmbed(t *testing.T) {
	tests := []struct {
		name string
		link *string
		want Embed
	}{
		{"nil", nil, Embed{Type: EmbedTypeNone}},
		{"empty", utils.Ptr(""), Embed{Type: EmbedTypeNone}},
		{"watch", utils.Ptr("https://www.youtube.com/watch?v=abc123&t=42"), Embed{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"}},
		{"short link", utils.Ptr("https://youtu.be/abc123?si=xyz"), Embed{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"}},
		{"shorts", utils.Ptr("https://youtube.com/shorts/abc123"), Embed{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"}},
		{"already embedded", utils.Ptr("https://www.youtube.com/embed/abc123"), Embed{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"}},
		{"video file", utils.Ptr("https://cdn.example.com/clips/goal.MP4"), Embed{Type: EmbedTypeVideo, URL: "https://cdn.example.com/clips/goal.MP4"}},
		{"other", utils.Ptr("https://clips.example.com/42"), Embed{Type: EmbedTypeLink, URL: "https://clips.example.com/42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetEmbed(tt.link))
		})
	}
}

func TestNormalize(t *testing.T) {
	link, err := Normalize("  https://youtu.be/abc123  ")
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc123", *link)

	link, err = Normalize("   ")
	require.NoError(t, err)
	assert.Nil(t, link)

	for _, bad := range []string{"javascript:alert(1)", "not a url", "ftp://example.com/clip"} {
		_, err := Normalize(bad)
		assert.ErrorIs(t, err, fixture.ErrValidation, bad)
	}
}
