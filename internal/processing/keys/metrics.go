package keys

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	keysGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlinks_keys_generated_total",
			Help: "Random keys handed out by the generator, by key length",
		},
		[]string{"length"},
	)

	keyCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlinks_key_collisions_total",
			Help: "Random draws rejected because the key was already in use",
		},
	)

	lengthEscalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlinks_key_length_escalations_total",
			Help: "Times the generator gave up on a length and moved to length+1",
		},
	)
)
