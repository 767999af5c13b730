package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidTimer(t *testing.T) {
	for _, s := range []int{0, 3, 10, 30, 60} {
		assert.True(t, ValidTimer(s), "timer %d", s)
	}
	for _, s := range []int{-1, 1, 5, 15, 61, 120} {
		assert.False(t, ValidTimer(s), "timer %d", s)
	}
}

func TestMediaType_Valid(t *testing.T) {
	assert.True(t, MediaTypeImage.Valid())
	assert.True(t, MediaTypeVideo.Valid())
	assert.False(t, MediaType("audio").Valid())
	assert.False(t, MediaType("").Valid())
}

func TestGrant_ExpiresAt(t *testing.T) {
	opened := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	g := &PermissionGrant{}
	_, ok := g.ExpiresAt(10)
	assert.False(t, ok, "unopened grant has no expiry")

	g.OpenedAt = &opened
	exp, ok := g.ExpiresAt(10)
	assert.True(t, ok)
	assert.Equal(t, opened.Add(10*time.Second), exp)

	_, ok = g.ExpiresAt(0)
	assert.False(t, ok, "once items have no timer")
}

func TestMediaItem_Helpers(t *testing.T) {
	now := time.Now()
	m := &MediaItem{OwnerID: "alice", TimerSeconds: 30}
	assert.True(t, m.IsOwner("alice"))
	assert.False(t, m.IsOwner("bob"))
	assert.Equal(t, 30*time.Second, m.Timer())
	assert.False(t, m.Deleted())
	assert.False(t, m.Withdrawn())
	m.DeletedAt = &now
	assert.True(t, m.Deleted())
	assert.True(t, m.Withdrawn())
	m.Reaped = true
	assert.True(t, m.Deleted())
	assert.False(t, m.Withdrawn(), "swept items are not withdrawn")
}
