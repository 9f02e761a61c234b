package tweets

import "github.com/hongminglow/tweeter-be/internal/models"

// Decision is the outcome of an ownership check.
type Decision int

const (
	Allowed Decision = iota
	Forbidden
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Forbidden:
		return "forbidden"
	default:
		return "not_found"
	}
}

// Authorize decides whether userID may mutate tweet. Existence is checked
// before ownership, so a missing tweet is NotFound for everyone.
func Authorize(userID string, tweet *models.Tweet) Decision {
	if tweet == nil {
		return NotFound
	}
	if tweet.UserID != userID {
		return Forbidden
	}
	return Allowed
}
