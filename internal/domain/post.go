package domain

// Rating is the normalized content rating of a post.
type Rating string

const (
	RatingExplicit     Rating = "explicit"
	RatingQuestionable Rating = "questionable"
	RatingSafe         Rating = "safe"
	RatingUnknown      Rating = "unknown"
)

// Post is one search result mapped onto a single shape regardless of the site it came from.
type Post struct {
	ID         string   `json:"id"`
	FileURL    string   `json:"fileUrl"`
	PreviewURL string   `json:"previewUrl,omitempty"`
	PostView   string   `json:"postView,omitempty"`
	Tags       []string `json:"tags"`
	Rating     Rating   `json:"rating"`
	Score      int      `json:"score"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	Hash       string   `json:"hash,omitempty"`
	Source     string   `json:"source,omitempty"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	SourceSite string   `json:"sourceSite"`

	// Raw is the item as the site returned it.
	Raw map[string]any `json:"-"`
}

// Available reports whether the post has a file to download. Sites leave the
// file url out for deleted or restricted posts.
func (p Post) Available() bool {
	return p.FileURL != ""
}

func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
