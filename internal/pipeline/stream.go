package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"authtower/internal/analyzer"
	inputredis "authtower/internal/input/redis"
	"authtower/internal/logger"
	"authtower/internal/rules"
	"authtower/internal/telemetry"
	"authtower/internal/transform/okta"
)

// StreamPipeline consumes authentication rows from Redis and analyzes
// them in batches. Every flush is a self-contained analysis run over the
// rows accumulated since the previous flush; no state carries across
// runs.
type StreamPipeline struct {
	consumer      *inputredis.Consumer
	engine        rules.Engine
	detectCfg     analyzer.Config
	writer        ReportWriter
	batchSize     int
	flushInterval time.Duration
}

// NewStreamPipeline creates a streaming analysis pipeline.
func NewStreamPipeline(consumer *inputredis.Consumer, engine rules.Engine, detectCfg analyzer.Config, writer ReportWriter, batchSize int, flushInterval time.Duration) *StreamPipeline {
	return &StreamPipeline{
		consumer:      consumer,
		engine:        engine,
		detectCfg:     detectCfg,
		writer:        writer,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Run starts the pipeline loop.
func (p *StreamPipeline) Run(ctx context.Context) error {
	logger.Infof("Stream pipeline started")

	if p.batchSize <= 0 {
		p.batchSize = 1000
	}
	if p.flushInterval <= 0 {
		p.flushInterval = 30 * time.Second
	}

	rowCh := make(chan okta.Row, p.batchSize)
	go p.readLoop(ctx, rowCh)

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	var pending []okta.Row
	flush := func() {
		if len(pending) == 0 {
			return
		}
		p.analyze(pending)
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case <-ticker.C:
			flush()
		case row, ok := <-rowCh:
			if !ok {
				flush()
				return ctx.Err()
			}
			pending = append(pending, row)
			if len(pending) >= p.batchSize {
				flush()
			}
		}
	}
}

// Close releases pipeline resources.
func (p *StreamPipeline) Close() error {
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			logger.Errorf("Failed to close report writer: %v", err)
		}
	}
	if p.consumer != nil {
		return p.consumer.Close()
	}
	return nil
}

func (p *StreamPipeline) readLoop(ctx context.Context, out chan<- okta.Row) {
	defer close(out)
	for {
		payload, err := p.consumer.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop redis message: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if payload == nil {
			continue
		}
		row, err := decodeRow(payload)
		if err != nil {
			logger.Warnf("Failed to decode row: %v", err)
			continue
		}
		select {
		case out <- row:
		case <-ctx.Done():
			return
		}
	}
}

// analyze runs one full analysis pass over the accumulated rows. A batch
// failing the schema check produces no report; the error is logged and
// the rows are dropped, since later rows cannot repair an absent column.
func (p *StreamPipeline) analyze(rows []okta.Row) {
	batch, err := okta.Normalize(okta.ColumnsOf(rows), rows)
	if err != nil {
		logger.Errorf("Batch rejected: %v", err)
		return
	}

	report := analyzer.Run(batch, p.engine, p.detectCfg)
	telemetry.ObserveBatch(len(rows), batch.Skipped.BadTimestamp, batch.Skipped.BadOutcome, len(report.Alerts))

	if err := p.writer.WriteReport(report); err != nil {
		logger.Errorf("Failed to write report: %v", err)
		return
	}
	logger.Infof("Analyzed batch: rows=%d events=%d skipped=%d alerts=%d",
		len(rows), len(report.Events), report.Skipped.Total(), len(report.Alerts))
}

// decodeRow parses a JSON object payload into a raw row, coercing scalar
// values to the strings the normalizer expects.
func decodeRow(payload []byte) (okta.Row, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}

	row := make(okta.Row, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			row[k] = ""
		case string:
			row[k] = val
		case bool:
			if val {
				row[k] = "true"
			} else {
				row[k] = "false"
			}
		case float64:
			if val == float64(int64(val)) {
				row[k] = fmt.Sprintf("%d", int64(val))
			} else {
				row[k] = fmt.Sprintf("%f", val)
			}
		default:
			row[k] = fmt.Sprintf("%v", val)
		}
	}
	return row, nil
}
