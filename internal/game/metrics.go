package game

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/worldsim/internal/creature"
)

// Metrics — метрики игры. nil-безопасна: методы на nil ничего не делают.
type Metrics struct {
	dispatched   *prometheus.CounterVec
	domainEvents *prometheus.CounterVec
	damage       *prometheus.CounterVec
	deaths       *prometheus.CounterVec
	logins       prometheus.Counter
	logouts      prometheus.Counter
	framesSent   prometheus.Counter
	bytesSent    prometheus.Counter

	online     prometheus.Gauge
	creatures  prometheus.Gauge
	pending    prometheus.Gauge
	presence   prometheus.Gauge
	lightLevel prometheus.Gauge
	processCPU prometheus.Gauge
	processRSS prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg. reg == nil — без регистрации.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "operations_dispatched_total",
			Help:      "Число поставленных операций по виду.",
		}, []string{"kind"}),
		domainEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "domain_events_total",
			Help:      "Число доменных событий существ по виду.",
		}, []string{"kind"}),
		damage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "damage_dealt_total",
			Help:      "Суммарный нанесённый урон по виду атакующего.",
		}, []string{"attacker"}),
		deaths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "deaths_total",
			Help:      "Число смертей по виду существа.",
		}, []string{"kind"}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "logins_total",
			Help:      "Успешные входы игроков.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "logouts_total",
			Help:      "Завершённые сессии игроков.",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "frames_sent_total",
			Help:      "Отправленные клиентам кадры.",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "game",
			Name:      "bytes_sent_total",
			Help:      "Отправленные клиентам байты.",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "players_online",
			Help:      "Игроки онлайн на этом сервере.",
		}),
		creatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "creatures",
			Help:      "Существа в реестре.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "pending_events",
			Help:      "События в очереди планировщика.",
		}),
		presence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "presence_online",
			Help:      "Игроки онлайн по общему реестру присутствия.",
		}),
		lightLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "world_light_level",
			Help:      "Текущая освещённость мира.",
		}),
		processCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом сервера.",
		}),
		processRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "game",
			Name:      "process_rss_bytes",
			Help:      "Резидентная память процесса сервера.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.dispatched, m.domainEvents, m.damage, m.deaths, m.logins, m.logouts,
			m.framesSent, m.bytesSent, m.online, m.creatures, m.pending, m.presence,
			m.lightLevel, m.processCPU, m.processRSS,
		)
	}
	return m
}

func (m *Metrics) operationDispatched(kind string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(kind).Inc()
}

func (m *Metrics) domainEvent(kind creature.EventKind) {
	if m == nil {
		return
	}
	m.domainEvents.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) damageDealt(attacker creature.Kind, amount int) {
	if m == nil || amount <= 0 {
		return
	}
	m.damage.WithLabelValues(attacker.String()).Add(float64(amount))
}

func (m *Metrics) death(kind creature.Kind) {
	if m == nil {
		return
	}
	m.deaths.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) login() {
	if m == nil {
		return
	}
	m.logins.Inc()
}

func (m *Metrics) logout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

func (m *Metrics) frameSent(n int) {
	if m == nil {
		return
	}
	m.framesSent.Inc()
	m.bytesSent.Add(float64(n))
}

// Snapshot — состояние сервера для статуса и датчиков
type Snapshot struct {
	Online      int     `json:"online"`
	Connections int     `json:"connections"`
	Creatures   int     `json:"creatures"`
	Pending     int     `json:"pending_events"`
	Presence    int64   `json:"presence_online"`
	Light       byte    `json:"light_level"`
	Hour        int     `json:"hour"`
	Minute      int     `json:"minute"`
	CPUPercent  float64 `json:"cpu_percent"`
	RSSBytes    uint64  `json:"rss_bytes"`
}

func (m *Metrics) observe(s Snapshot) {
	if m == nil {
		return
	}
	m.online.Set(float64(s.Online))
	m.creatures.Set(float64(s.Creatures))
	m.pending.Set(float64(s.Pending))
	m.presence.Set(float64(s.Presence))
	m.lightLevel.Set(float64(s.Light))
	m.processCPU.Set(s.CPUPercent)
	m.processRSS.Set(float64(s.RSSBytes))
}

// processSampler читает загрузку CPU и память процесса через gopsutil
type processSampler struct {
	proc *process.Process
}

func newProcessSampler() *processSampler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return &processSampler{}
	}
	return &processSampler{proc: proc}
}

// sample возвращает загрузку CPU с прошлого вызова и RSS
func (p *processSampler) sample() (cpu float64, rss uint64) {
	if p == nil || p.proc == nil {
		return 0, 0
	}
	if v, err := p.proc.Percent(0); err == nil {
		cpu = v
	}
	if mem, err := p.proc.MemoryInfo(); err == nil && mem != nil {
		rss = mem.RSS
	}
	return cpu, rss
}
