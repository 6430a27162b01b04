package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "woo_pages_fetched_total",
		Help: "Total pages fetched by stream",
	}, []string{"stream"})

	recordsExtractedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "woo_records_extracted_total",
		Help: "Total records extracted from pages by stream",
	}, []string{"stream"})

	paginationLoopsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "woo_pagination_loops_total",
		Help: "Total number of pagination loops detected by stream",
	}, []string{"stream"})
)
