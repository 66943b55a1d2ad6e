package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "smartpractice:tutor:tree:Go", GenerateCacheKey("tutor", "tree", "Go"))
	assert.Equal(t, "smartpractice:tutor:tree:Go:a_b", GenerateCacheKey("tutor", "tree", "Go", "a", "b"))
}

func TestTreeKey(t *testing.T) {
	assert.Equal(t, "smartpractice:tutor:tree:Distributed Systems", TreeKey("Distributed Systems"))
}
