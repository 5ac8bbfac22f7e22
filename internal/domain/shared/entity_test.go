package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntity(t *testing.T) {
	e := NewBaseEntity()
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
}

func TestBaseEntityTouch(t *testing.T) {
	e := NewBaseEntity()
	created := e.CreatedAt

	time.Sleep(time.Millisecond)
	e.Touch()

	assert.True(t, e.UpdatedAt.After(created))
	assert.Equal(t, created, e.CreatedAt)
}
