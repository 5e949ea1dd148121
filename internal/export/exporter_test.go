package export

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/maxset"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/letterscan/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/metrics"
)

type fakeSink struct {
	name     string
	pingErr  error
	failures int
	mu       sync.Mutex
	calls    int
	got      []Envelope
	closed   bool
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeSink) Close() error { f.closed = true; return nil }

func (f *fakeSink) Publish(ctx context.Context, env Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New(f.name + " unavailable")
	}
	f.got = append(f.got, env)
	return nil
}

func testExportConfig() config.ExportConfig {
	return config.ExportConfig{Timeout: time.Second, MaxAttempts: 3, InitialDelay: time.Millisecond}
}

func sampleEnvelope() Envelope {
	return Envelope{
		RunID:      "6f1c1f3e-0000-4000-8000-000000000001",
		Source:     "words.txt",
		MaxWordLen: 31,
		Overflow:   "split",
		FinishedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		Report: maxset.Report{
			Records:    []maxset.WordRecord{{Word: "abc", Count: 1}},
			MaxScore:   3,
			TotalWords: 2,
			Distinct:   1,
		},
	}
}

func TestPublishAllSinks(t *testing.T) {
	m := metrics.New()
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b", failures: 2}
	exp := New([]Sink{a, b}, testExportConfig(), m)

	if err := exp.Publish(context.Background(), sampleEnvelope()); err != nil {
		t.Fatal(err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("deliveries a=%d b=%d", len(a.got), len(b.got))
	}
	if b.calls != 3 {
		t.Errorf("b called %d times, want 3 (two retries)", b.calls)
	}
	if got := testutil.ToFloat64(m.ExportsTotal.WithLabelValues("b", "ok")); got != 1 {
		t.Errorf("exports{b,ok} = %v", got)
	}
}

func TestPublishJoinsFailures(t *testing.T) {
	m := metrics.New()
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", failures: 10}
	exp := New([]Sink{good, bad}, testExportConfig(), m)

	err := exp.Publish(context.Background(), sampleEnvelope())
	if !errors.Is(err, apperrors.ErrExport) {
		t.Fatalf("err = %v, want ErrExport", err)
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("error does not name the failing sink: %v", err)
	}
	if len(good.got) != 1 {
		t.Error("healthy sink should still receive the report")
	}
	if got := testutil.ToFloat64(m.ExportsTotal.WithLabelValues("bad", "error")); got != 1 {
		t.Errorf("exports{bad,error} = %v", got)
	}
}

func TestPreflight(t *testing.T) {
	up := &fakeSink{name: "redis"}
	down := &fakeSink{name: "kafka", pingErr: errors.New("connection refused")}

	if err := New([]Sink{up}, testExportConfig(), nil).Preflight(context.Background()); err != nil {
		t.Fatalf("preflight with healthy sink: %v", err)
	}
	err := New([]Sink{up, down}, testExportConfig(), nil).Preflight(context.Background())
	if !errors.Is(err, apperrors.ErrExport) || !strings.Contains(err.Error(), "kafka (connection refused)") {
		t.Fatalf("err = %v", err)
	}
}

func TestDisabledExporter(t *testing.T) {
	exp := New(nil, testExportConfig(), nil)
	if exp.Enabled() {
		t.Fatal("exporter without sinks reports enabled")
	}
	if err := exp.Preflight(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := exp.Publish(context.Background(), sampleEnvelope()); err != nil {
		t.Fatal(err)
	}
	if err := exp.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestFromConfigDisabled(t *testing.T) {
	exp, err := FromConfig(config.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if exp.Enabled() {
		t.Error("default config should not enable export")
	}
}

func TestFromConfigBuildsSinks(t *testing.T) {
	cfg := config.Default()
	cfg.Kafka.Enabled = true
	cfg.Redis.Enabled = true
	cfg.Postgres.Enabled = true
	exp, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()
	var names []string
	for _, s := range exp.sinks {
		names = append(names, s.Name())
	}
	if strings.Join(names, ",") != "kafka,redis,postgres" {
		t.Errorf("sinks = %v", names)
	}
}

func TestClose(t *testing.T) {
	a, b := &fakeSink{name: "a"}, &fakeSink{name: "b"}
	if err := New([]Sink{a, b}, testExportConfig(), nil).Close(); err != nil {
		t.Fatal(err)
	}
	if !a.closed || !b.closed {
		t.Error("not every sink was closed")
	}
}

type fakeProducer struct {
	events []kafka.Event
}

func (f *fakeProducer) Publish(ctx context.Context, event kafka.Event) error {
	f.events = append(f.events, event)
	return nil
}
func (f *fakeProducer) Ping(context.Context) error { return nil }
func (f *fakeProducer) Close() error { return nil }

func TestKafkaSinkKeysByRunID(t *testing.T) {
	p := &fakeProducer{}
	env := sampleEnvelope()
	if err := NewKafkaSink(p).Publish(context.Background(), env); err != nil {
		t.Fatal(err)
	}
	if len(p.events) != 1 || p.events[0].Key != env.RunID {
		t.Fatalf("events = %+v", p.events)
	}
	if got, ok := p.events[0].Value.(Envelope); !ok || got.Report.MaxScore != 3 {
		t.Errorf("value = %#v", p.events[0].Value)
	}
}

type fakeChannel struct {
	channel   string
	payload   []byte
	receivers int64
}

func (f *fakeChannel) Publish(ctx context.Context, channel string, message any) (int64, error) {
	f.channel = channel
	f.payload = message.([]byte)
	return f.receivers, nil
}
func (f *fakeChannel) Ping(context.Context) error { return nil }
func (f *fakeChannel) Close() error { return nil }

func TestRedisSinkPublishesJSON(t *testing.T) {
	c := &fakeChannel{}
	if err := NewRedisSink(c, "letterscan:reports").Publish(context.Background(), sampleEnvelope()); err != nil {
		t.Fatal(err)
	}
	if c.channel != "letterscan:reports" {
		t.Errorf("channel = %q", c.channel)
	}
	var got Envelope
	if err := json.Unmarshal(c.payload, &got); err != nil {
		t.Fatalf("payload %q: %v", c.payload, err)
	}
	if got.Source != "words.txt" || got.Report.Records[0].Word != "abc" {
		t.Errorf("decoded = %+v", got)
	}
}
