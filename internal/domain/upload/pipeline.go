package upload

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "github.com/ben-burie/Stryde/pkg/errors"
	"github.com/ben-burie/Stryde/pkg/metrics"
)

const csvSuffix = ".csv"

// Outcome labels used for logs and metrics.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeServer     = "server"
	OutcomeTransport  = "transport"
)

var (
	// ErrNoFile is returned when the picker fired without a file.
	ErrNoFile = apperrors.Wrap(apperrors.CodeNoFile, "No file selected", nil)
	// ErrNotCSV is returned for any filename without a case-sensitive .csv suffix.
	ErrNotCSV = apperrors.Wrap(apperrors.CodeInvalidFile, "Please upload a CSV file", nil)
)

// Analyzer sends one file to the analytics service and decodes its JSON reply.
type Analyzer interface {
	Analyze(ctx context.Context, file File) (Result, error)
}

// View is the modal and result state rendered by the page.
type View struct {
	ModalOpen       bool    `json:"uploadModal"`
	DropZoneVisible bool    `json:"dropZone"`
	LoadingVisible  bool    `json:"uploadLoading"`
	ErrorVisible    bool    `json:"uploadErrorVisible"`
	Error           string  `json:"uploadError"`
	ErrorKind       string  `json:"uploadErrorKind,omitempty"`
	Selected        string  `json:"uploadInput"`
	Source          Source  `json:"uploadSource,omitempty"`
	State           State   `json:"state"`
	InFlight        int     `json:"inFlight"`
	Results         Metrics `json:"results"`
	Message         string  `json:"message,omitempty"`
}

// Pipeline turns a user supplied file into rendered coaching metrics.
type Pipeline struct {
	analyzer Analyzer
	metrics  *metrics.Manager
	logger   *slog.Logger
	onChange func()
	now      func() time.Time

	mu   sync.Mutex
	view View
}

// NewPipeline constructs a Pipeline. onChange runs after every visible state change
// with no lock held; it may be nil.
func NewPipeline(analyzer Analyzer, m *metrics.Manager, logger *slog.Logger, onChange func()) *Pipeline {
	if onChange == nil {
		onChange = func() {}
	}
	return &Pipeline{
		analyzer: analyzer,
		metrics:  m,
		logger:   logger.With("component", "upload.pipeline"),
		onChange: onChange,
		now:      time.Now,
		view: View{
			DropZoneVisible: true,
			State:           StateIdle,
			Results: Metrics{
				VDOT:      "--",
				HeartRate: "-- BPM",
				FiveKTime: "--",
				HalfTime:  "--",
				FullTime:  "--",
			},
		},
	}
}

// View returns a copy of the current state.
func (p *Pipeline) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Open shows the modal and resets it to Idle.
func (p *Pipeline) Open() {
	p.update(func(v *View) {
		v.ModalOpen = true
		v.DropZoneVisible = true
		v.LoadingVisible = false
		v.ErrorVisible = false
		v.Error = ""
		v.ErrorKind = ""
		v.Selected = ""
		v.Source = ""
		v.Message = ""
		v.State = StateIdle
	})
}

// Close hides the modal.
func (p *Pipeline) Close() {
	p.update(func(v *View) {
		v.ModalOpen = false
	})
}

// SelectFile accepts a handle from the picker or a drop and submits it.
func (p *Pipeline) SelectFile(ctx context.Context, file File, source Source) error {
	if file.IsZero() {
		p.fail(ErrNoFile, OutcomeValidation)
		return ErrNoFile
	}
	p.logger.Debug("file selected", "file", file.Name, "source", source, "bytes", len(file.Content))
	return p.submit(ctx, file, source)
}

// Submit validates the file and issues exactly one analytics request for it.
// The returned error carries the failure kind as an AppError code.
func (p *Pipeline) Submit(ctx context.Context, file File) error {
	return p.submit(ctx, file, "")
}

func (p *Pipeline) submit(ctx context.Context, file File, source Source) error {
	if !strings.HasSuffix(file.Name, csvSuffix) {
		p.fail(ErrNotCSV, OutcomeValidation)
		return ErrNotCSV
	}

	p.update(func(v *View) {
		v.Selected = file.Name
		v.Source = source
		v.DropZoneVisible = false
		v.LoadingVisible = true
		v.ErrorVisible = false
		v.Error = ""
		v.ErrorKind = ""
		v.State = StateLoading
		v.InFlight++
	})
	defer p.update(func(v *View) {
		v.InFlight--
		if v.InFlight > 0 {
			return
		}
		v.LoadingVisible = false
		v.State = StateIdle
	})

	start := p.now()
	result, err := p.analyzer.Analyze(ctx, file)
	p.metrics.ObserveUpload(p.now().Sub(start).Seconds())
	if err != nil {
		failure := apperrors.Wrap(apperrors.CodeTransportError, "Upload failed", err)
		p.logger.Warn("upload transport failure", "file", file.Name, "error", err)
		p.fail(failure, OutcomeTransport)
		return failure
	}

	if result.HasError() {
		failure := apperrors.Wrap(apperrors.CodeServerError, result.ErrorText(), nil)
		p.logger.Info("upload rejected by analytics service", "file", file.Name, "error", result.ErrorText())
		p.fail(failure, OutcomeServer)
		return failure
	}

	projected := result.Project()
	p.update(func(v *View) {
		v.Results = projected
		v.Message = text(result.Message)
		v.ModalOpen = false
	})
	p.metrics.UploadOutcome(OutcomeSuccess)
	p.logger.Info("upload analyzed", "file", file.Name, "vdot", projected.VDOT, "avg_hr", projected.HeartRate)
	return nil
}

func (p *Pipeline) fail(err error, outcome string) {
	p.update(func(v *View) {
		v.Error = err.Error()
		v.ErrorVisible = true
		v.ErrorKind = outcome
		v.DropZoneVisible = true
	})
	p.metrics.UploadOutcome(outcome)
}

func (p *Pipeline) update(fn func(v *View)) {
	p.mu.Lock()
	fn(&p.view)
	p.mu.Unlock()
	p.onChange()
}
