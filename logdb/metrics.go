// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/gravity-chain/epochcore/metrics"
)

var (
	metricWrittenEvents = metrics.LazyLoadCounter("logdb_written_events_count")
	metricQueryNames    = metrics.LazyLoadHistogramVec("logdb_query_names_bucket", []string{"type"}, []int64{0, 1, 2, 5, 10, 25})
	metricQueryOrder    = metrics.LazyLoadCounterVec("logdb_query_order", []string{"order"})
	metricStmtCache     = metrics.LazyLoadCounterVec("logdb_stmt_cache_count", []string{"result"})
	metricLimitBucket   = metrics.LazyLoadHistogramVec("logdb_query_limit_bucket", []string{"type"}, []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
)

func metricsHandleEventsFilter(filter *EventFilter) {
	if metrics.NoOp() {
		return
	}

	metricQueryNames().ObserveWithLabels(int64(len(filter.Names)), map[string]string{"type": "event"})

	if filter.Order == DESC {
		metricQueryOrder().AddWithLabel(1, map[string]string{"order": "desc"})
	} else {
		metricQueryOrder().AddWithLabel(1, map[string]string{"order": "asc"})
	}

	if filter.Options != nil {
		limit := filter.Options.Limit
		if limit > 1000 {
			limit = 1001
		}
		metricLimitBucket().ObserveWithLabels(int64(limit), map[string]string{"type": "event"})
	}
}
