package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceKey(t *testing.T) {
	assert.Equal(t, "timid-github!https://api.github.com", ServiceKey("https://api.github.com"))
	assert.Equal(t, "timid-github!https://ghe.example.test/api/v3", ServiceKey("https://ghe.example.test/api/v3"))
}
