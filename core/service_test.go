package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	name     string
	startErr error
	events   *[]string
}

func (s *recordingService) Start(ctx context.Context) error {
	*s.events = append(*s.events, "start "+s.name)
	return s.startErr
}

func (s *recordingService) Stop() {
	*s.events = append(*s.events, "stop "+s.name)
}

func TestRegistryStartsInOrderStopsInReverse(t *testing.T) {
	var events []string
	registry := NewRegistry()
	registry.Register(&recordingService{name: "store", events: &events})
	registry.Register(&recordingService{name: "api", events: &events})

	require.NoError(t, registry.StartAll(context.Background()))
	registry.StopAll()

	assert.Equal(t, []string{"start store", "start api", "stop api", "stop store"}, events)
}

func TestRegistryStartAllFailsFast(t *testing.T) {
	var events []string
	broken := errors.New("no database")
	registry := NewRegistry()
	registry.Register(&recordingService{name: "store", startErr: broken, events: &events})
	registry.Register(&recordingService{name: "api", events: &events})

	err := registry.StartAll(context.Background())
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, []string{"start store"}, events, "later services are never started")
}
