package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ShoppingListsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_lists_total",
			Help: "Total number of shopping list documents requested, by outcome",
		},
		[]string{"outcome"},
	)

	ShoppingListItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_items",
			Help:    "Number of aggregated line items per shopping list",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)
)

// RecordRequest records one finished HTTP request. route is the matched
// route pattern, not the raw path, so label cardinality stays bounded.
func RecordRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordShoppingList records a shopping list download attempt.
func RecordShoppingList(items int, err error) {
	if err != nil {
		ShoppingListsRendered.WithLabelValues("error").Inc()
		return
	}
	ShoppingListsRendered.WithLabelValues("ok").Inc()
	ShoppingListItems.Observe(float64(items))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
