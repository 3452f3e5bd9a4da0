package migrate

import (
	"context"
	"fmt"
	"time"
)

// Service runs the migration stages against a device transport and the local
// working directory. Each stage method is safe to call on its own; Run chains
// them.
type Service struct {
	transport Transport
	decrypter Decrypter
	parser    CardParser
	verifier  DatabaseVerifier
	logger    Logger
	clock     Clock
	remote    RemoteLayout
}

// NewService creates a Service. verifier may be nil to skip checking decrypted
// databases; a nil logger or clock falls back to NopLogger and RealClock.
func NewService(transport Transport, decrypter Decrypter, parser CardParser, verifier DatabaseVerifier, logger Logger, clock Clock, remote RemoteLayout) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Service{
		transport: transport,
		decrypter: decrypter,
		parser:    parser,
		verifier:  verifier,
		logger:    logger,
		clock:     clock,
		remote:    remote,
	}
}

// Devices lists every device the transport reports.
func (s *Service) Devices(ctx context.Context) ([]Device, error) {
	devices, err := s.transport.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return devices, nil
}

// Report is what one stage did: per-item outcomes and the warnings it logged.
// Count is stage specific; Convert stores the number of contacts written.
type Report struct {
	Stage    Stage
	Outcomes []Outcome
	Warnings []string
	Count    int

	StartedAt  time.Time
	FinishedAt time.Time
}

func (s *Service) newReport(stage Stage) *Report {
	return &Report{Stage: stage, StartedAt: s.clock.Now()}
}

func (s *Service) finish(r *Report) *Report {
	r.FinishedAt = s.clock.Now()
	return r
}

// warn logs msg at WARN and keeps it on the report.
func (s *Service) warn(r *Report, msg string, args ...any) {
	s.logger.Warn(msg, args...)
	r.Warnings = append(r.Warnings, msg)
}

func (r *Report) Warned() bool { return len(r.Warnings) > 0 }

// Found returns the outcomes that located (or produced) their item.
func (r *Report) Found() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Found() {
			out = append(out, o)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
