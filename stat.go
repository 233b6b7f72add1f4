package lwmqtt

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/golang-io/requests"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Stat struct {
	Uptime         prometheus.Counter
	ActiveSessions prometheus.Gauge
	PacketReceived prometheus.Counter
	ByteReceived   prometheus.Counter
	PacketSent     prometheus.Counter
	ByteSent       prometheus.Counter
}

var (
	stat = Stat{
		Uptime:         prometheus.NewCounter(prometheus.CounterOpts{Name: "lwmqtt_uptime_seconds", Help: "The uptime in seconds"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{Name: "lwmqtt_active_session_count", Help: "The number of connected MQTT sessions"}),
		PacketReceived: prometheus.NewCounter(prometheus.CounterOpts{Name: "lwmqtt_received_packets", Help: "The total number of received MQTT packets"}),
		ByteReceived:   prometheus.NewCounter(prometheus.CounterOpts{Name: "lwmqtt_received_bytes", Help: "The total number of received MQTT bytes"}),
		PacketSent:     prometheus.NewCounter(prometheus.CounterOpts{Name: "lwmqtt_send_packets", Help: "The total number of send MQTT packets"}),
		ByteSent:       prometheus.NewCounter(prometheus.CounterOpts{Name: "lwmqtt_send_bytes", Help: "The total number of send MQTT bytes"}),
	}
)

// Httpd serves /metrics and pprof on the given listen URL.
func Httpd(listenURL string) error {
	stat.Register()
	stat.RefreshUptime()
	mux := requests.NewServeMux(requests.URL(listenURL))
	mux.Route("/metrics", promhttp.Handler())
	mux.Pprof()
	s := requests.NewServer(context.Background(), mux, requests.OnStart(func(s *http.Server) {
		log.Printf("http serve: %s", s.Addr)
	}))
	return s.ListenAndServe()
}

func (s *Stat) RefreshUptime() {
	go func() {
		tick := time.NewTicker(time.Second)
		for range tick.C {
			s.Uptime.Inc()
		}
	}()
}

func (s *Stat) Register() {
	prometheus.MustRegister(stat.Uptime)
	prometheus.MustRegister(stat.ActiveSessions)
	prometheus.MustRegister(stat.PacketReceived)
	prometheus.MustRegister(stat.ByteReceived)
	prometheus.MustRegister(stat.PacketSent)
	prometheus.MustRegister(stat.ByteSent)
}
