// Package metrics exposes game counters to Prometheus.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	SessionsCreated prometheus.Counter
	GamesStarted    prometheus.Counter
	GamesEnded      *prometheus.CounterVec
	ActiveGames     prometheus.Gauge
	Guesses         *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guesswhat_sessions_created_total",
			Help: "Sessions created through the HTTP endpoint.",
		}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guesswhat_games_started_total",
			Help: "Rounds that started successfully.",
		}),
		GamesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guesswhat_games_ended_total",
			Help: "Rounds that ended, by reason.",
		}, []string{"reason"}),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guesswhat_active_games",
			Help: "Rounds currently accepting guesses.",
		}),
		Guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guesswhat_guesses_total",
			Help: "Guesses received, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.SessionsCreated, m.GamesStarted, m.GamesEnded, m.ActiveGames, m.Guesses)
	return m
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) GameStarted() {
	if m == nil {
		return
	}
	m.GamesStarted.Inc()
	m.ActiveGames.Inc()
}

// GameEnded records a finished round; reason is "win" or "timeout".
func (m *Metrics) GameEnded(reason string) {
	if m == nil {
		return
	}
	m.GamesEnded.WithLabelValues(reason).Inc()
	m.ActiveGames.Dec()
}

// Guess records a guess; result is "correct", "wrong" or "exhausted".
func (m *Metrics) Guess(result string) {
	if m == nil {
		return
	}
	m.Guesses.WithLabelValues(result).Inc()
}
