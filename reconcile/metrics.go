package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var attributesCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recipe_attributes_created_total",
		Help: "Tags and ingredients created lazily while reconciling recipe associations",
	},
	[]string{"kind"},
)
