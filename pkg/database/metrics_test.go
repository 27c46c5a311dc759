package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describeAll(c prometheus.Collector) []*prometheus.Desc {
	ch := make(chan *prometheus.Desc, 32)
	c.Describe(ch)
	close(ch)

	var descs []*prometheus.Desc
	for d := range ch {
		descs = append(descs, d)
	}
	return descs
}

func TestNewPoolStatsCollector_NilPoolDescribes(t *testing.T) {
	c := NewPoolStatsCollector(nil, "purchase-orders")
	require.NotNil(t, c)
	assert.Equal(t, "purchase-orders", c.service)

	var _ prometheus.Collector = c
	assert.Len(t, describeAll(c), 8)
}

func TestPoolStatsCollector_DescriptorNames(t *testing.T) {
	descs := describeAll(NewPoolStatsCollector(nil, "purchase-orders"))

	for _, name := range []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_total_connections",
		"db_pool_max_connections",
		"db_pool_acquire_count_total",
		"db_pool_acquire_duration_seconds_total",
		"db_pool_empty_acquire_count_total",
		"db_pool_canceled_acquire_count_total",
	} {
		found := false
		for _, d := range descs {
			if strings.Contains(d.String(), `"`+name+`"`) {
				found = true
				break
			}
		}
		assert.True(t, found, "missing descriptor %q", name)
	}
}
