// Package websocket - websocket/metrics.go
// file: websocket/metrics.go

package websocket

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"go-model-viewer/logger"
)

// Namespace for all model server metrics
const metricsNamespace = "ModelViewer"

// MetricsPublisher receives hub gauges.
type MetricsPublisher interface {
	PublishViewerConnections(count int)
	PublishCatalogSize(count int)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) PublishViewerConnections(int) {}
func (NoopMetrics) PublishCatalogSize(int)       {}

// CloudWatchMetrics pushes gauges to CloudWatch.
type CloudWatchMetrics struct {
	client cloudwatchiface.CloudWatchAPI
	server string
	now    func() time.Time
}

// NewCloudWatchMetrics builds a publisher from the default AWS credential chain.
func NewCloudWatchMetrics(region, server string) (*CloudWatchMetrics, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("metrics: aws session: %w", err)
	}
	return NewCloudWatchMetricsWithClient(cloudwatch.New(sess), server), nil
}

// NewCloudWatchMetricsWithClient wraps an existing CloudWatch client.
func NewCloudWatchMetricsWithClient(client cloudwatchiface.CloudWatchAPI, server string) *CloudWatchMetrics {
	return &CloudWatchMetrics{client: client, server: server, now: time.Now}
}

// PublishViewerConnections pushes the current WebSocket connection count
func (m *CloudWatchMetrics) PublishViewerConnections(count int) {
	m.putMetric("ViewerConnections", float64(count), cloudwatch.StandardUnitCount)
}

// PublishCatalogSize pushes the number of models being served
func (m *CloudWatchMetrics) PublishCatalogSize(count int) {
	m.putMetric("CatalogModels", float64(count), cloudwatch.StandardUnitCount)
}

// -----------------------------------------------------------
// internal helper function to package up CloudWatch calls
// -----------------------------------------------------------
func (m *CloudWatchMetrics) putMetric(metricName string, value float64, unit string) {
	_, err := m.client.PutMetricData(&cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricsNamespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: []*cloudwatch.Dimension{
					{
						Name:  aws.String("Server"),
						Value: aws.String(m.server),
					},
				},
				Timestamp: aws.Time(m.now()),
				Value:     aws.Float64(value),
				Unit:      aws.String(unit),
			},
		},
	})

	if err != nil {
		logger.Error.Printf("[putMetric] CloudWatch metric failed (%s): %v", metricName, err)
	}
}
