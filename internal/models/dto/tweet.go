package dto

type TweetRequest struct {
	Text string `json:"text"`
}

// TweetEvent is the payload broadcast to realtime subscribers when a tweet is created.
type TweetEvent struct {
	Text   string `json:"text"`
	UserID string `json:"userId"`
}
