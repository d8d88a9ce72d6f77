// Package mqtt bridges the remote manager to an MQTT broker: every frame is
// published as JSON and send requests are accepted on a command topic.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/logger"
	"github.com/dbehnke/ir-nexus/pkg/metrics"
	"github.com/dbehnke/ir-nexus/pkg/remote"
	"github.com/dbehnke/ir-nexus/pkg/session"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	topicFrames  = "frames"
	topicSend    = "send"
	topicResult  = "send/result"
	topicStatus  = "status"
	queueSize    = 256
	tokenTimeout = 5 * time.Second
	sendTimeout  = 30 * time.Second
)

// ErrStopped is returned by Start after Stop
var ErrStopped = errors.New("mqtt: publisher stopped")

// Config holds MQTT publisher configuration
type Config struct {
	Enabled     bool
	Broker      string
	TopicPrefix string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	Retained    bool
	AcceptSend  bool
}

// Sender runs send requests received from the broker
type Sender interface {
	SendMessage(ctx context.Context, msg remote.Message) (remote.Request, error)
}

// broker is the part of paho.Client the publisher uses
type broker interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// FrameMessage is the JSON published on <prefix>/frames
type FrameMessage struct {
	Protocol  string    `json:"protocol"`
	Address   uint32    `json:"address"`
	Command   uint32    `json:"command"`
	Toggle    bool      `json:"toggle"`
	Repeat    bool      `json:"repeat"`
	Frame     int       `json:"frame"`
	Symbols   int       `json:"symbols"`
	AirtimeUS int64     `json:"airtime_us"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ResultMessage answers a send request on <prefix>/send/result
type ResultMessage struct {
	ID        string    `json:"id,omitempty"`
	OK        bool      `json:"ok"`
	Protocol  string    `json:"protocol,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher handles MQTT event publishing
type Publisher struct {
	config    Config
	log       *logger.Logger
	client    broker
	sender    Sender
	collector *metrics.Collector

	frames   chan FrameMessage
	requests chan remote.Message

	mu        sync.RWMutex
	connected bool
	cancel    context.CancelFunc
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// Option configures a Publisher
type Option func(*Publisher)

// WithSender enables <prefix>/send when the config also accepts it
func WithSender(s Sender) Option {
	return func(p *Publisher) { p.sender = s }
}

// WithCollector counts received send requests
func WithCollector(c *metrics.Collector) Option {
	return func(p *Publisher) { p.collector = c }
}

// withBroker swaps the paho client, for tests
func withBroker(b broker) Option {
	return func(p *Publisher) { p.client = b }
}

// New creates a new MQTT publisher. Nothing connects until Start.
func New(config Config, log *logger.Logger, opts ...Option) *Publisher {
	if log == nil {
		log = logger.Discard()
	}

	p := &Publisher{
		config:   config,
		log:      log.WithComponent("mqtt"),
		frames:   make(chan FrameMessage, queueSize),
		requests: make(chan remote.Message, 16),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil && config.Enabled {
		p.client = paho.NewClient(p.clientOptions())
	}
	return p
}

func (p *Publisher) clientOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(p.config.Broker)
	opts.SetClientID(p.config.ClientID)
	if p.config.Username != "" {
		opts.SetUsername(p.config.Username)
		opts.SetPassword(p.config.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Handlers run on paho's router; a long hold must not stall it
	opts.SetOrderMatters(false)

	opts.SetWill(p.formatTopic(topicStatus), "offline", 1, true)

	opts.SetOnConnectHandler(func(_ paho.Client) { p.handleConnect() })
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.setConnected(false)
		p.log.Warn("MQTT connection lost", logger.Error(err))
	})
	return opts
}

// Start connects to the broker and starts the publish and command workers.
// It returns once the first connection is up; reconnects happen in the
// background.
func (p *Publisher) Start(ctx context.Context) error {
	if !p.config.Enabled {
		p.log.Info("MQTT publisher disabled")
		return nil
	}

	select {
	case <-p.stopCh:
		return ErrStopped
	default:
	}

	p.log.Info("Starting MQTT publisher",
		logger.String("broker", p.config.Broker),
		logger.String("client_id", p.config.ClientID),
		logger.Bool("accept_send", p.acceptsSend()))

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			p.client.Disconnect(0)
			return ctx.Err()
		case <-p.stopCh:
			p.client.Disconnect(0)
			return ErrStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	select {
	case <-p.stopCh:
		cancel()
		return ErrStopped
	default:
	}

	p.wg.Add(2)
	go p.publishLoop(runCtx)
	go p.commandLoop(runCtx)
	return nil
}

// handleConnect runs on every (re)connect: announce and resubscribe
func (p *Publisher) handleConnect() {
	p.setConnected(true)
	p.log.Info("MQTT connected", logger.String("broker", p.config.Broker))

	if err := p.publishRaw(p.formatTopic(topicStatus), true, []byte("online")); err != nil {
		p.log.Warn("Failed to announce online status", logger.Error(err))
	}

	if !p.acceptsSend() {
		return
	}
	topic := p.formatTopic(topicSend)
	token := p.client.Subscribe(topic, p.config.QoS, func(_ paho.Client, msg paho.Message) {
		p.handleSend(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(tokenTimeout) {
		p.log.Error("Subscribe timed out", logger.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		p.log.Error("Subscribe failed", logger.String("topic", topic), logger.Error(err))
		return
	}
	p.log.Info("Subscribed to send topic", logger.String("topic", topic))
}

func (p *Publisher) acceptsSend() bool {
	return p.config.AcceptSend && p.sender != nil
}

// Stop announces offline and disconnects. Safe to call more than once.
func (p *Publisher) Stop() {
	if !p.config.Enabled {
		return
	}
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.mu.RLock()
		cancel := p.cancel
		p.mu.RUnlock()
		if cancel != nil {
			cancel()
		}
		p.wg.Wait()
		if p.IsConnected() {
			_ = p.publishRaw(p.formatTopic(topicStatus), true, []byte("offline"))
		}
		p.client.Disconnect(250)
		p.setConnected(false)
		p.log.Info("Stopped MQTT publisher")
	})
}

// FrameSent implements session.Observer. It only queues; publishLoop sends.
func (p *Publisher) FrameSent(r session.Report) {
	if !p.config.Enabled {
		return
	}
	msg := FrameMessage{
		Protocol:  r.Protocol.String(),
		Address:   r.Address,
		Command:   r.Command,
		Toggle:    r.Toggle,
		Repeat:    r.Repeat,
		Frame:     r.Frame,
		Symbols:   r.Symbols,
		AirtimeUS: r.Airtime.Microseconds(),
		Error:     r.ErrorText(),
		Timestamp: r.Time,
	}
	select {
	case p.frames <- msg:
	default:
		p.log.Warn("Frame queue full, dropping event", logger.String("protocol", msg.Protocol))
	}
}

func (p *Publisher) publishLoop(ctx context.Context) {
	defer p.wg.Done()
	topic := p.formatTopic(topicFrames)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.frames:
			if err := p.publish(topic, msg); err != nil {
				p.log.Debug("Frame not published", logger.Error(err))
			}
		}
	}
}

// handleSend parses a request from the broker and queues it for commandLoop
func (p *Publisher) handleSend(topic string, payload []byte) {
	p.log.Debug("Received send request", logger.String("topic", topic), logger.Int("size", len(payload)))

	var msg remote.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		p.log.Warn("Invalid send request", logger.String("topic", topic), logger.Error(err))
		p.reply(ResultMessage{Error: "invalid request: " + err.Error()})
		return
	}
	if p.collector != nil {
		p.collector.RequestReceived("mqtt")
	}

	select {
	case p.requests <- msg:
	default:
		p.log.Warn("Send queue full, rejecting request", logger.String("id", msg.ID))
		p.reply(ResultMessage{ID: msg.ID, Error: "busy"})
	}
}

func (p *Publisher) commandLoop(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.requests:
			p.execute(ctx, msg)
		}
	}
}

func (p *Publisher) execute(ctx context.Context, msg remote.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := p.sender.SendMessage(sendCtx, msg)
	result := ResultMessage{ID: msg.ID, OK: err == nil, Protocol: req.Protocol.String()}
	if err != nil {
		result.Error = err.Error()
		p.log.Warn("MQTT send failed",
			logger.String("id", msg.ID),
			logger.String("protocol", result.Protocol),
			logger.Error(err))
	}
	p.reply(result)
}

func (p *Publisher) reply(result ResultMessage) {
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}
	if err := p.publish(p.formatTopic(topicResult), result); err != nil {
		p.log.Debug("Result not published", logger.Error(err))
	}
}

// publish serializes event and publishes it with the configured QoS
func (p *Publisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to serialize event",
			logger.String("topic", topic),
			logger.Error(err))
		return err
	}
	return p.publishRaw(topic, p.config.Retained, payload)
}

func (p *Publisher) publishRaw(topic string, retained bool, payload []byte) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	token := p.client.Publish(topic, p.config.QoS, retained, payload)
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		p.log.Error("Failed to publish", logger.String("topic", topic), logger.Error(err))
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.log.Debug("Published MQTT event",
		logger.String("topic", topic),
		logger.Int("payload_size", len(payload)))
	return nil
}

// IsConnected returns whether the client is connected
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client != nil && p.client.IsConnected()
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

// formatTopic formats a topic with the configured prefix
func (p *Publisher) formatTopic(suffix string) string {
	prefix := strings.TrimSuffix(p.config.TopicPrefix, "/")
	if prefix == "" {
		return suffix
	}
	return fmt.Sprintf("%s/%s", prefix, suffix)
}
