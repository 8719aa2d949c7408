package telemetry

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const serviceName = "apartment-harvester"

// Config selects the OTLP metrics endpoint. gRPC wins when both are
// set; with neither, Setup reports that telemetry is unconfigured.
type Config struct {
	GrpcEndpoint string
	HttpEndpoint string
}

// ErrNotConfigured is returned by Setup when no endpoint is set, so the
// caller can fall back to the Noop collector.
var ErrNotConfigured = errors.New("telemetry: no OTLP endpoint configured")

// Collector is the OTLP-backed Metrics implementation.
type Collector struct {
	provider *sdkmetric.MeterProvider

	scrapeSuccess   otelmetric.Int64Counter
	scrapeFailures  otelmetric.Int64Counter
	listingsScraped otelmetric.Int64Counter
	validationOK    otelmetric.Int64Counter
	validationFail  otelmetric.Int64Counter
	retries         otelmetric.Int64Counter
	dbInsertFail    otelmetric.Int64Counter
	runDuration     otelmetric.Float64Histogram
	memoryGauge     otelmetric.Float64Gauge
	cpuGauge        otelmetric.Float64Gauge
}

// Setup builds a meter provider exporting over OTLP and registers it
// globally. Callers should Shutdown the collector at process exit.
func Setup(ctx context.Context, config Config) (*Collector, error) {
	if config.GrpcEndpoint == "" && config.HttpEndpoint == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(5*time.Second))),
		sdkmetric.WithResource(r),
	)
	otel.SetMeterProvider(provider)

	return newCollector(provider)
}

func newExporter(ctx context.Context, config Config) (sdkmetric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if config.GrpcEndpoint != "" {
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(config.GrpcEndpoint))
	}
	return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(config.HttpEndpoint))
}

func newCollector(provider *sdkmetric.MeterProvider) (*Collector, error) {
	meter := provider.Meter(serviceName)
	c := &Collector{provider: provider}

	var errs []error
	instrument := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	c.scrapeSuccess, err = meter.Int64Counter("scraper_success_total",
		otelmetric.WithDescription("Total successful scrapes"))
	instrument(err)
	c.scrapeFailures, err = meter.Int64Counter("scraper_failures_total",
		otelmetric.WithDescription("Total failed scrapes"))
	instrument(err)
	c.listingsScraped, err = meter.Int64Counter("listings_scraped_total",
		otelmetric.WithDescription("Total number of listings scraped"))
	instrument(err)
	c.validationOK, err = meter.Int64Counter("validation_success_total",
		otelmetric.WithDescription("Records classified as success"))
	instrument(err)
	c.validationFail, err = meter.Int64Counter("validation_failures_total",
		otelmetric.WithDescription("Records classified as failed"))
	instrument(err)
	c.retries, err = meter.Int64Counter("scraper_retries_total",
		otelmetric.WithDescription("Total retry attempts made during scraping"))
	instrument(err)
	c.dbInsertFail, err = meter.Int64Counter("db_insert_failures_total",
		otelmetric.WithDescription("Total failed DB insert operations"))
	instrument(err)
	c.runDuration, err = meter.Float64Histogram("scrape_duration_seconds",
		otelmetric.WithDescription("Time taken for a full harvest run"))
	instrument(err)
	c.memoryGauge, err = meter.Float64Gauge("scraper_memory_usage_mb",
		otelmetric.WithDescription("Memory usage of the harvester in MB"))
	instrument(err)
	c.cpuGauge, err = meter.Float64Gauge("scraper_cpu_usage_percent",
		otelmetric.WithDescription("CPU usage percent of the harvester"))
	instrument(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Shutdown flushes pending metrics.
func (c *Collector) Shutdown(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}

func sourceAttr(source string) otelmetric.AddOption {
	return otelmetric.WithAttributes(attribute.String("source", source))
}

func (c *Collector) ScrapeSucceeded(ctx context.Context, source string) {
	c.scrapeSuccess.Add(ctx, 1, sourceAttr(source))
}

func (c *Collector) ScrapeFailed(ctx context.Context, source string) {
	c.scrapeFailures.Add(ctx, 1, sourceAttr(source))
}

func (c *Collector) ListingScraped(ctx context.Context, source string) {
	c.listingsScraped.Add(ctx, 1, sourceAttr(source))
}

func (c *Collector) ValidationSucceeded(ctx context.Context) {
	c.validationOK.Add(ctx, 1)
}

func (c *Collector) ValidationFailed(ctx context.Context) {
	c.validationFail.Add(ctx, 1)
}

func (c *Collector) RetryAttempted(ctx context.Context, source string) {
	c.retries.Add(ctx, 1, sourceAttr(source))
}

func (c *Collector) DBInsertFailed(ctx context.Context, table string) {
	c.dbInsertFail.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("table", table)))
}

func (c *Collector) RunDuration(ctx context.Context, d time.Duration) {
	c.runDuration.Record(ctx, d.Seconds())
}

// SampleResourceUsage records process memory and CPU gauges once,
// called at run completion.
func (c *Collector) SampleResourceUsage(ctx context.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	c.memoryGauge.Record(ctx, float64(memStats.Alloc)/1024/1024)

	if vm, err := mem.VirtualMemory(); err == nil {
		c.memoryGauge.Record(ctx, float64(vm.Used)/1024/1024,
			otelmetric.WithAttributes(attribute.String("scope", "system")))
	}
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		c.cpuGauge.Record(ctx, usage[0])
	}
}
