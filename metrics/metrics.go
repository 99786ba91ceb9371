// Package metrics exports the IPC-scheduler's counters and
// send_and_receive latency as OpenTelemetry instruments, the same
// meter/counter/histogram shape the teacher's metrics package uses for
// its command/query counters.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder is the meter facade the kernel context holds; callers never
// touch the OTel API directly.
type Recorder struct {
	meter metric.Meter

	messageTotal       metric.Int64Counter
	sendErrorTotal     metric.Int64Counter
	receiveErrorTotal  metric.Int64Counter
	lotteryTotal       metric.Int64Counter
	idleTotal          metric.Int64Counter
	directHandoffTotal metric.Int64Counter
	pendingGauge       metric.Int64UpDownCounter
	incompleteGauge    metric.Int64UpDownCounter
	transactionLatency metric.Float64Histogram
}

// New creates a Recorder against the global OTel meter provider;
// callers arrange the provider via Setup before constructing one.
func New() (*Recorder, error) {
	meter := otel.Meter("dx-kernel")

	messageTotal, err := meter.Int64Counter("dx_kernel_message_total",
		metric.WithDescription("Total messages sent through the IPC core"))
	if err != nil {
		return nil, err
	}
	sendErrorTotal, err := meter.Int64Counter("dx_kernel_send_error_total",
		metric.WithDescription("Total send() failures"))
	if err != nil {
		return nil, err
	}
	receiveErrorTotal, err := meter.Int64Counter("dx_kernel_receive_error_total",
		metric.WithDescription("Total receive() failures"))
	if err != nil {
		return nil, err
	}
	lotteryTotal, err := meter.Int64Counter("dx_kernel_lottery_total",
		metric.WithDescription("Total pick_next decisions resolved by a lottery draw"))
	if err != nil {
		return nil, err
	}
	idleTotal, err := meter.Int64Counter("dx_kernel_idle_total",
		metric.WithDescription("Total pick_next decisions that fell through to the idle thread"))
	if err != nil {
		return nil, err
	}
	directHandoffTotal, err := meter.Int64Counter("dx_kernel_direct_handoff_total",
		metric.WithDescription("Total pick_next decisions resolved by direct hand-off"))
	if err != nil {
		return nil, err
	}
	pendingGauge, err := meter.Int64UpDownCounter("dx_kernel_pending",
		metric.WithDescription("Current size of the global pending-message pool"))
	if err != nil {
		return nil, err
	}
	incompleteGauge, err := meter.Int64UpDownCounter("dx_kernel_incomplete",
		metric.WithDescription("Current number of outstanding send_and_receive transactions"))
	if err != nil {
		return nil, err
	}
	transactionLatency, err := meter.Float64Histogram("dx_kernel_transaction_duration_seconds",
		metric.WithDescription("send_and_receive request-to-reply latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Recorder{
		meter:              meter,
		messageTotal:       messageTotal,
		sendErrorTotal:     sendErrorTotal,
		receiveErrorTotal:  receiveErrorTotal,
		lotteryTotal:       lotteryTotal,
		idleTotal:          idleTotal,
		directHandoffTotal: directHandoffTotal,
		pendingGauge:       pendingGauge,
		incompleteGauge:    incompleteGauge,
		transactionLatency: transactionLatency,
	}, nil
}

// RecordMessage increments the message counter. ipc.Scheduler does
// not call it.
func (r *Recorder) RecordMessage(ctx context.Context) {
	r.messageTotal.Add(ctx, 1)
}

// RecordSendError increments the send-error counter, tagged by status.
func (r *Recorder) RecordSendError(ctx context.Context, status string) {
	r.sendErrorTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordReceiveError increments the receive-error counter, tagged by status.
func (r *Recorder) RecordReceiveError(ctx context.Context, status string) {
	r.receiveErrorTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordPickNext increments exactly one of the lottery/idle/direct-handoff
// counters, matching whichever branch pick_next took.
func (r *Recorder) RecordPickNext(ctx context.Context, kind string) {
	switch kind {
	case "lottery":
		r.lotteryTotal.Add(ctx, 1)
	case "idle":
		r.idleTotal.Add(ctx, 1)
	case "direct_handoff":
		r.directHandoffTotal.Add(ctx, 1)
	}
}

// SetPending adds delta to the pending-pool gauge.
func (r *Recorder) SetPending(ctx context.Context, delta int64) {
	r.pendingGauge.Add(ctx, delta)
}

// SetIncomplete reports the outstanding-transaction count's delta.
func (r *Recorder) SetIncomplete(ctx context.Context, delta int64) {
	r.incompleteGauge.Add(ctx, delta)
}

// RecordTransaction records one send_and_receive's request-to-reply
// duration.
func (r *Recorder) RecordTransaction(ctx context.Context, d time.Duration, variant string) {
	r.transactionLatency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("variant", variant)))
}
