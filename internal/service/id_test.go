package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rifa/internal/model"
)

func TestNextID(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	assert.Equal(t, "1700000000000", nextID(nil, now))

	taken := []model.Participation{{ID: "1700000000000"}, {ID: "1700000000001"}}
	assert.Equal(t, "1700000000002", nextID(taken, now))
}
