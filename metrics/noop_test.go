// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics = defaultNoopMetrics()

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	Counter("noop_count").Add(1)
	CounterVec("noop_count_vec", []string{"result"}).AddWithLabel(1, map[string]string{"nonsense": "ok"})
	Gauge("noop_gauge").Set(3)
	GaugeVec("noop_gauge_vec", []string{"x"}).SetWithLabel(1, nil)
	Histogram("noop_hist", nil).Observe(1)
	HistogramVec("noop_hist_vec", []string{"x"}, nil).ObserveWithLabels(1, nil)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
