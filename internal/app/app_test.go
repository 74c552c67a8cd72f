package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/crm-resolution-service/internal/infrastructure/events"
	"github.com/alejandroruanova/crm-resolution-service/internal/pkg/config"
)

func TestDedupConfig(t *testing.T) {
	got := DedupConfig(config.DedupConfig{
		CustomerNameThreshold:    0.8,
		CustomerAddressThreshold: 0.7,
		LeadNameThreshold:        0.95,
		LeadCompanyThreshold:     0.6,
	})

	assert.Equal(t, 0.8, got.CustomerNameThreshold)
	assert.Equal(t, 0.7, got.CustomerAddressThreshold)
	assert.Equal(t, 0.95, got.LeadNameThreshold)
	assert.Equal(t, 0.6, got.LeadCompanyThreshold)
}

func TestGroupPublisher_NilWhenEventsDisabled(t *testing.T) {
	a := &App{}
	// must be an untyped nil so handlers skip publishing
	assert.True(t, a.GroupPublisher() == nil)

	a.Producer = &events.Producer{}
	assert.NotNil(t, a.GroupPublisher())
}

func TestClose_ReverseOrderAndJoinedErrors(t *testing.T) {
	var order []string
	a := &App{
		closers: []func() error{
			func() error { order = append(order, "db"); return nil },
			func() error { order = append(order, "cache"); return errors.New("redis gone") },
			func() error { order = append(order, "producer"); return nil },
		},
	}

	err := a.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis gone")
	assert.Equal(t, []string{"producer", "cache", "db"}, order)

	// closers run once
	assert.NoError(t, a.Close())
	assert.Len(t, order, 3)
}
