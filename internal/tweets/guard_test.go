package tweets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/tweeter-be/internal/models"
)

func TestAuthorize(t *testing.T) {
	tweet := &models.Tweet{ID: "t1", UserID: "owner"}

	assert.Equal(t, Allowed, Authorize("owner", tweet))
	assert.Equal(t, Forbidden, Authorize("intruder", tweet))
	assert.Equal(t, Forbidden, Authorize("", tweet))
	assert.Equal(t, NotFound, Authorize("owner", nil))
	assert.Equal(t, NotFound, Authorize("intruder", nil))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "forbidden", Forbidden.String())
	assert.Equal(t, "not_found", NotFound.String())
}
