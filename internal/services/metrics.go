package services

import "github.com/prometheus/client_golang/prometheus"

// waCommands counts WhatsApp inbound messages by how they were dispatched.
var waCommands = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "whatsapp_commands_total",
		Help: "WhatsApp inbound messages by dispatched command.",
	},
	[]string{"command"},
)

func init() {
	prometheus.MustRegister(waCommands)
}
