package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/annel0/worldsim/internal/logging"
)

// SubjectRoot — корень subject'ов доменных событий. Тип события с точкой
// (player.login) становится хвостом: worldsim.events.player.login.
const SubjectRoot = "worldsim.events"

// Заголовки сообщения, по которым подписчик фильтрует без разбора тела
const (
	headerSource   = "Worldsim-Source"
	headerPriority = "Worldsim-Priority"
)

// SubjectFor — subject события данного типа
func SubjectFor(eventType string) string {
	return SubjectRoot + "." + eventType
}

// subjectsFor — subject'ы подписки. Без фильтра по типам слушается весь корень.
func subjectsFor(f Filter) []string {
	if len(f.Types) == 0 {
		return []string{SubjectRoot + ".>"}
	}
	out := make([]string, 0, len(f.Types))
	seen := make(map[string]bool, len(f.Types))
	for _, t := range f.Types {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, SubjectFor(t))
	}
	if len(out) == 0 {
		return []string{SubjectRoot + ".>"}
	}
	return out
}

// JetStreamOption настраивает подключение к JetStream
type JetStreamOption func(*jetStreamOptions)

type jetStreamOptions struct {
	clientName    string
	durable       string
	deliverAll    bool
	ackWait       time.Duration
	maxReconnects int
}

// WithClientName — имя клиента в мониторинге NATS
func WithClientName(name string) JetStreamOption {
	return func(o *jetStreamOptions) { o.clientName = name }
}

// WithDurable делает подписки долговечными: после перезапуска чтение продолжается
// с последнего подтверждённого события. Имя дополняется типами фильтра.
func WithDurable(name string) JetStreamOption {
	return func(o *jetStreamOptions) { o.durable = name }
}

// WithDeliverAll — новые подписки читают стрим с начала, а не только свежие события
func WithDeliverAll() JetStreamOption {
	return func(o *jetStreamOptions) { o.deliverAll = true }
}

// JetStreamBus реализует EventBus поверх NATS JetStream
type JetStreamBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	stream string
	opts   jetStreamOptions

	published uint64
	consumed  uint64
	dropped   uint64
}

// NewJetStreamBus подключается к NATS и создаёт стрим или обновляет срок хранения
// существующего. url: nats://127.0.0.1:4222, stream по умолчанию WORLDSIM.
// retention <= 0 — стрим не трогается и должен уже существовать.
func NewJetStreamBus(url, stream string, retention time.Duration, opts ...JetStreamOption) (*JetStreamBus, error) {
	if stream == "" {
		stream = "WORLDSIM"
	}
	o := jetStreamOptions{clientName: "worldsim", ackWait: 30 * time.Second, maxReconnects: -1}
	for _, opt := range opts {
		opt(&o)
	}

	logger := logging.GetEventBusLogger()
	nc, err := nats.Connect(url,
		nats.Name(o.clientName),
		nats.MaxReconnects(o.maxReconnects),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("⚠️ NATS отключился: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("🔌 NATS переподключён к %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      stream,
		Subjects:  []string{SubjectRoot + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    retention,
		Storage:   nats.FileStorage,
	}
	info, err := js.StreamInfo(stream)
	switch {
	case retention <= 0:
	case errors.Is(err, nats.ErrStreamNotFound):
		_, err = js.AddStream(cfg)
	case err == nil && info.Config.MaxAge != retention:
		_, err = js.UpdateStream(cfg)
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("stream %s: %w", stream, err)
	}

	return &JetStreamBus{nc: nc, js: js, stream: stream, opts: o}, nil
}

// Publish публикует конверт в subject его типа. ID конверта служит ключом
// дедупликации JetStream.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(SubjectFor(ev.EventType))
	msg.Data = data
	msg.Header.Set(headerSource, ev.Source)
	msg.Header.Set(headerPriority, strconv.Itoa(ev.Priority))

	if _, err := jb.js.PublishMsg(msg, nats.Context(ctx), nats.MsgId(ev.ID)); err != nil {
		return fmt.Errorf("publish %s: %w", ev.EventType, err)
	}
	atomic.AddUint64(&jb.published, 1)
	return nil
}

// Subscribe подписывается на subject каждого типа фильтра. Источник отсекается
// по заголовку до разбора тела.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	handler := func(msg *nats.Msg) {
		if len(f.Sources) > 0 && msg.Header != nil {
			if src := msg.Header.Get(headerSource); src != "" && !slices.Contains(f.Sources, src) {
				_ = msg.Ack()
				return
			}
		}
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			atomic.AddUint64(&jb.dropped, 1)
			_ = msg.Term()
			return
		}
		if matchFilter(&ev, f) {
			h(ctx, &ev)
			atomic.AddUint64(&jb.consumed, 1)
		}
		_ = msg.Ack()
	}

	subs := &jetSubs{}
	for _, subj := range subjectsFor(f) {
		opts := []nats.SubOpt{nats.ManualAck(), nats.AckWait(jb.opts.ackWait), nats.BindStream(jb.stream)}
		if jb.opts.deliverAll {
			opts = append(opts, nats.DeliverAll())
		} else {
			opts = append(opts, nats.DeliverNew())
		}
		if jb.opts.durable != "" {
			opts = append(opts, nats.Durable(durableName(jb.opts.durable, subj)))
		}

		s, err := jb.js.Subscribe(subj, handler, opts...)
		if err != nil {
			subs.Unsubscribe()
			return nil, fmt.Errorf("subscribe %s: %w", subj, err)
		}
		subs.list = append(subs.list, s)
	}
	return subs, nil
}

// durableName — имя consumer'а для subject'а. NATS запрещает точки и звёздочки в именах.
func durableName(base, subject string) string {
	tail := strings.TrimPrefix(subject, SubjectRoot+".")
	tail = strings.NewReplacer(".", "_", "*", "any", ">", "all").Replace(tail)
	return base + "_" + tail
}

// Close дожидается отправки буферизованных сообщений и закрывает соединение
func (jb *JetStreamBus) Close() error {
	return jb.nc.Drain()
}

// jetSubs — подписки по всем subject'ам одного фильтра
type jetSubs struct {
	list []*nats.Subscription
}

func (j *jetSubs) Unsubscribe() {
	for _, s := range j.list {
		_ = s.Unsubscribe()
	}
	j.list = nil
}

// Metrics возвращает счётчики шины. Очередь JetStream живёт на сервере,
// поэтому InFlight всегда ноль.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&jb.published),
		Consumed:  atomic.LoadUint64(&jb.consumed),
		Dropped:   atomic.LoadUint64(&jb.dropped),
	}
}
