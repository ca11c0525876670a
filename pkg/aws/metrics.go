package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// PutMetricData accepts at most this many datums per call.
const maxMetricBatch = 1000

const (
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"
	MetricHTTP4xx      = "HTTP4xxErrors"
	MetricHTTP5xx      = "HTTP5xxErrors"

	MetricOrdersPlaced     = "OrdersPlaced"
	MetricOrdersCancelled  = "OrdersCancelled"
	MetricOrderRevenue     = "OrderRevenue"
	MetricPaymentSucceeded = "PaymentSucceeded"
	MetricPaymentFailed    = "PaymentFailed"
)

// MetricsAPI is the part of the CloudWatch client the metrics client uses.
type MetricsAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsClient publishes custom metrics. A nil or disabled client is a no-op,
// so callers never need to check before recording.
type MetricsClient struct {
	api       MetricsAPI
	namespace string
	enabled   bool
	now       func() time.Time
}

func NewMetricsClient(cfg aws.Config, namespace string, enabled bool) *MetricsClient {
	return NewMetricsClientWithAPI(cloudwatch.NewFromConfig(cfg), namespace, enabled)
}

func NewMetricsClientWithAPI(api MetricsAPI, namespace string, enabled bool) *MetricsClient {
	if namespace == "" {
		namespace = "Storefront"
	}
	return &MetricsClient{api: api, namespace: namespace, enabled: enabled, now: time.Now}
}

// Datum builds one data point. Dimensions are sorted by name so identical
// dimension sets always produce the same series.
func (m *MetricsClient) Datum(name string, value float64, unit types.StandardUnit, dimensions map[string]string) types.MetricDatum {
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dims := make([]types.Dimension, 0, len(keys))
	for _, k := range keys {
		dims = append(dims, types.Dimension{Name: aws.String(k), Value: aws.String(dimensions[k])})
	}
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
		Dimensions: dims,
	}
}

func (m *MetricsClient) PutMetric(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions map[string]string) error {
	if !m.IsEnabled() {
		return nil
	}
	return m.PutMetricBatch(ctx, []types.MetricDatum{m.Datum(metricName, value, unit, dimensions)})
}

// PutMetricBatch sends datums in as few calls as the API allows.
func (m *MetricsClient) PutMetricBatch(ctx context.Context, datums []types.MetricDatum) error {
	if !m.IsEnabled() || len(datums) == 0 {
		return nil
	}
	for start := 0; start < len(datums); start += maxMetricBatch {
		end := min(start+maxMetricBatch, len(datums))
		_, err := m.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: datums[start:end],
		})
		if err != nil {
			return fmt.Errorf("put %d metrics: %w", end-start, err)
		}
	}
	return nil
}

func (m *MetricsClient) RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error {
	return m.PutMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions)
}

func (m *MetricsClient) RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error {
	return m.PutMetric(ctx, metricName, value, types.StandardUnitNone, dimensions)
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}
