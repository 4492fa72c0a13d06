package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/avatars/u1/me.png",
		PublicURL("https://cdn.example.com/", "avatars", "u1/me.png"))
	assert.Equal(t, "http://localhost:9000/attachments/a/b.pdf",
		PublicURL("http://localhost:9000", "attachments", "a/b.pdf"))
}
