package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aquasense/aquasense-core/internal/device"
	"github.com/aquasense/aquasense-core/internal/infrastructure/config"
	"github.com/aquasense/aquasense-core/internal/infrastructure/logging"
	"github.com/aquasense/aquasense-core/internal/infrastructure/mqtt"
	"github.com/aquasense/aquasense-core/internal/metrics"
	"github.com/aquasense/aquasense-core/internal/reading"
)

// sensorQoS is the subscription QoS for device topics. At-least-once:
// duplicates are harmless because merges are idempotent per field.
const sensorQoS = 1

// FieldMerger folds one field message into the reading store.
// Satisfied by reading.Merger.
type FieldMerger interface {
	MergeField(ctx context.Context, deviceID string, ts time.Time, field reading.Field, value float64) (*reading.Reading, error)
}

// StatusUpserter applies device status messages to the registry.
// Satisfied by device.Registry.
type StatusUpserter interface {
	UpsertStatus(ctx context.Context, deviceID string, status bool, firmwareVersion *string) (*device.Device, error)
}

// Notifier broadcasts the data-changed marker. Satisfied by notify.Hub.
type Notifier interface {
	NotifyDataChanged()
}

// Recorder mirrors merged readings into the archive.
// Satisfied by archive.Archiver.
type Recorder interface {
	Record(r reading.Reading)
}

// Broker is the subscription surface of the MQTT client.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// task is one unit of work for the pool.
type task func(ctx context.Context)

// Service turns transport messages into registry upserts and reading
// merges.
//
// Delivery callbacks only validate and enqueue; a bounded worker pool
// does the store work. Merges hitting an unavailable store are retried
// with exponential backoff a bounded number of times, then dropped.
// Every other failure drops the single offending message and never
// stalls the stream.
type Service struct {
	cfg      config.IngestConfig
	merger   FieldMerger
	devices  StatusUpserter
	notifier Notifier
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *logging.Logger
	topics   mqtt.Topics

	// retryInterval seeds the backoff; shortened in tests.
	retryInterval time.Duration

	queue     chan task
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates an ingest service. recorder may be nil when the archive
// is disabled.
func New(
	cfg config.IngestConfig,
	merger FieldMerger,
	devices StatusUpserter,
	notifier Notifier,
	recorder Recorder,
	m *metrics.Metrics,
	logger *logging.Logger,
) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	return &Service{
		cfg:           cfg,
		merger:        merger,
		devices:       devices,
		notifier:      notifier,
		recorder:      recorder,
		metrics:       m,
		logger:        logger,
		retryInterval: 500 * time.Millisecond,
		queue:         make(chan task, cfg.QueueSize),
	}
}

// Start launches the worker pool. Workers exit when the context is
// cancelled or the queue is closed.
func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		for i := 0; i < s.cfg.Workers; i++ {
			s.wg.Add(1)
			go s.worker(ctx)
		}
	})
}

// Close shuts the queue and waits for in-flight work to finish.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

// Subscribe registers the ingest handlers on the broker: one wildcard
// subscription for device statuses and one per recognised field.
func (s *Service) Subscribe(broker Broker) error {
	if err := broker.Subscribe(s.topics.AllDeviceStatuses(), sensorQoS, s.HandleStatus); err != nil {
		return err
	}
	for _, f := range reading.Fields() {
		if err := broker.Subscribe(s.topics.SensorFieldWildcard(f.String()), sensorQoS, s.HandleSensorField); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case t, ok := <-s.queue:
			if !ok {
				return
			}
			t(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// enqueue hands a task to the pool without blocking the delivery
// callback. A full queue drops the message.
func (s *Service) enqueue(t task) {
	select {
	case s.queue <- t:
	default:
		s.metrics.Drops.WithLabelValues(metrics.DropQueueFull).Inc()
		s.logger.Warn("ingest queue full, message dropped")
	}
}

// HandleStatus processes a device status message. Registered for
// aquasense/devices/+/status.
func (s *Service) HandleStatus(topic string, payload []byte) error {
	s.metrics.MessagesReceived.WithLabelValues("status").Inc()

	deviceID, ok := s.topics.ParseDeviceStatus(topic)
	if !ok {
		s.drop(metrics.DropMalformedPayload, "unparseable status topic", "topic", topic)
		return nil
	}
	online, firmware, err := decodeStatus(payload)
	if err != nil {
		s.drop(metrics.DropMalformedPayload, "bad status payload", "device_id", deviceID, "error", err)
		return nil
	}

	s.enqueue(func(ctx context.Context) {
		if _, err := s.devices.UpsertStatus(ctx, deviceID, online, firmware); err != nil {
			s.drop(metrics.DropStoreUnavailable, "status upsert failed", "device_id", deviceID, "error", err)
			return
		}
		s.logger.Debug("device status updated", "device_id", deviceID, "online", online)
		s.broadcast()
	})
	return nil
}

// HandleSensorField processes a per-field measurement message.
// Registered for aquasense/sensors/+/{field}, one subscription per field.
func (s *Service) HandleSensorField(topic string, payload []byte) error {
	s.metrics.MessagesReceived.WithLabelValues("sensor").Inc()

	deviceID, fieldName, ok := s.topics.ParseSensorField(topic)
	if !ok {
		s.drop(metrics.DropMalformedPayload, "unparseable sensor topic", "topic", topic)
		return nil
	}
	field, err := reading.ParseField(fieldName)
	if err != nil {
		s.drop(metrics.DropInvalidField, "unrecognised field", "device_id", deviceID, "field", fieldName)
		return nil
	}
	value, ts, err := decodeSensor(field, payload)
	if err != nil {
		s.drop(metrics.DropMalformedPayload, "bad sensor payload", "device_id", deviceID, "field", fieldName, "error", err)
		return nil
	}

	s.enqueue(func(ctx context.Context) {
		s.merge(ctx, deviceID, ts, field, value)
	})
	return nil
}

// merge runs one field merge with bounded retry on store failures.
func (s *Service) merge(ctx context.Context, deviceID string, ts time.Time, field reading.Field, value float64) {
	var merged *reading.Reading

	op := func() error {
		r, err := s.merger.MergeField(ctx, deviceID, ts, field, value)
		if err != nil {
			if errors.Is(err, reading.ErrStoreUnavailable) {
				return err
			}
			return backoff.Permanent(err)
		}
		merged = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInterval
	//nolint:gosec // MergeRetries is validated non-negative by config
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.cfg.MergeRetries)), ctx))
	if err != nil {
		switch {
		case errors.Is(err, reading.ErrUnknownDevice):
			s.drop(metrics.DropUnknownDevice, "sensor message for unregistered device",
				"device_id", deviceID, "field", field)
		case errors.Is(err, reading.ErrInvalidField):
			s.drop(metrics.DropInvalidField, "merge rejected field", "device_id", deviceID, "field", field)
		default:
			s.drop(metrics.DropStoreUnavailable, "merge failed after retries",
				"device_id", deviceID, "field", field, "error", err)
		}
		return
	}

	s.metrics.Merges.Inc()
	s.logger.Debug("reading merged", "device_id", deviceID, "field", field, "ts", merged.Timestamp)

	if s.recorder != nil {
		s.recorder.Record(*merged)
	}
	s.broadcast()
}

// broadcast fans the change marker out, best-effort.
func (s *Service) broadcast() {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyDataChanged()
	s.metrics.Broadcasts.Inc()
}

// drop counts and logs one dropped message.
func (s *Service) drop(reason, msg string, args ...any) {
	s.metrics.Drops.WithLabelValues(reason).Inc()
	s.logger.Warn(msg, args...)
}
