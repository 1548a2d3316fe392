// Package highlight turns the clip links attached to wow moments into
// something the scoreboard can embed.
package highlight

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
	"github.com/AdamBeresnev/kickabout/internal/utils"
)

type EmbedType int

const (
	EmbedTypeNone EmbedType = iota
	EmbedTypeYouTube
	EmbedTypeVideo
	EmbedTypeLink
)

type Embed struct {
	Type EmbedType
	URL  string
}

const maxClipLength = 2048

// Normalize validates a submitted clip link. Blank input means no clip.
func Normalize(raw string) (*string, error) {
	link := utils.StringOrNil(raw)
	if link == nil {
		return nil, nil
	}
	if len(*link) > maxClipLength {
		return nil, fmt.Errorf("%w: clip link exceeds %d characters", fixture.ErrValidation, maxClipLength)
	}
	u, err := url.Parse(*link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: clip link must be an http(s) URL", fixture.ErrValidation)
	}
	return link, nil
}

func GetEmbed(link *string) Embed {
	if link == nil || *link == "" {
		return Embed{Type: EmbedTypeNone}
	}
	l := *link

	if id := youTubeID(l); id != "" {
		return Embed{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + id}
	}
	if strings.Contains(l, "youtube.com/embed/") {
		return Embed{Type: EmbedTypeYouTube, URL: l}
	}

	lower := strings.ToLower(l)
	for _, ext := range []string{".mp4", ".webm", ".ogg", ".mov"} {
		if strings.HasSuffix(lower, ext) {
			return Embed{Type: EmbedTypeVideo, URL: l}
		}
	}

	// Anything else is shown as a plain link, not an iframe.
	return Embed{Type: EmbedTypeLink, URL: l}
}

func youTubeID(l string) string {
	u, err := url.Parse(l)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Host, "www.")
	switch {
	case host == "youtu.be":
		return strings.Trim(u.Path, "/")
	case (host == "youtube.com" || host == "m.youtube.com") && u.Path == "/watch":
		return u.Query().Get("v")
	case (host == "youtube.com" || host == "m.youtube.com") && strings.HasPrefix(u.Path, "/shorts/"):
		return strings.TrimPrefix(u.Path, "/shorts/")
	}
	return ""
}
