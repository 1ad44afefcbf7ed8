package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *ScanRecord) error                           { return nil }
func (n *NoopRecorder) RecentRuns(_ int) ([]RunSummary, error)                   { return nil, nil }
func (n *NoopRecorder) InstrumentHistory(_ string, _ int) ([]PricePoint, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                            { return nil }
