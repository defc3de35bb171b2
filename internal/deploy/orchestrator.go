// Package deploy drives the publish workflow for a case site: validate,
// save, allocate the subdomain, submit the build job and poll it to a
// terminal state with retry, backoff and a final health check. A rollback
// snapshot is captured in memory before every attempt.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"beacon/api/internal/customize"
	"beacon/api/internal/util"
	"beacon/api/internal/validate"
)

// Status is the orchestrator's state machine position for a deploy attempt:
// idle -> preparing -> deploying -> checking -> completed | failed | cancelled.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPreparing Status = "preparing"
	StatusDeploying Status = "deploying"
	StatusChecking  Status = "checking"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job states reported by the deployment backend.
const (
	JobNotDeployed = "not_deployed"
	JobDeploying   = "deploying"
	JobDeployed    = "deployed"
	JobFailed      = "failed"
)

const (
	DefaultPollInterval     = 5 * time.Second
	DefaultMaxPollAttempts  = 60
	DefaultMaxSubmitRetries = 3
	// A poll that fails on the network burns this many attempts so
	// transient failures cannot extend the timeout indefinitely.
	pollErrorWeight = 3
)

// Availability is the subdomain availability answer.
type Availability struct {
	Available bool
	Message   string
}

// Submission acknowledges an accepted deploy job.
type Submission struct {
	DeploymentID string
	URL          string
}

// JobStatus is one poll result.
type JobStatus struct {
	State string
	URL   string
	Error string
}

// Request is the payload submitted to the deployment backend.
type Request struct {
	Subdomain    string
	CustomDomain string
	TemplateID   string
	TemplateData customize.Document
	CaseData     map[string]any
	Settings     map[string]any
}

// Backend is the external deployment service boundary.
type Backend interface {
	CheckSubdomain(ctx context.Context, subdomain, caseID string) (Availability, error)
	SubmitDeploy(ctx context.Context, caseID string, req Request) (Submission, error)
	UpdateDeploy(ctx context.Context, caseID string, req Request) (Submission, error)
	DeploymentStatus(ctx context.Context, caseID string) (JobStatus, error)
	HealthCheck(ctx context.Context, url string) error
}

// Saver is the manual-save path of the autosave coordinator.
type Saver interface {
	SaveNow() error
}

// Snapshot is the pre-deploy copy held in memory for the duration of an
// attempt. It is never persisted.
type Snapshot struct {
	Customizations customize.Document
	CaseData       map[string]any
}

// Record tracks a deploy attempt client-side.
type Record struct {
	Status   Status
	Progress int
	URL      string
	Err      error
	Skipped  bool
}

// ValidationError marks user-input failures that must surface immediately
// and are never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SaveError marks a failed pre-deploy save, distinct from submit failures.
type SaveError struct{ Err error }

func (e *SaveError) Error() string { return fmt.Sprintf("save before deploy failed: %v", e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// TimeoutError means the poll budget ran out without a terminal state. The
// remote job's real fate is unknown; it may still complete.
type TimeoutError struct{ Attempts int }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("deployment status unknown after %d checks; the deploy may still complete, check back shortly", e.Attempts)
}

// DefaultRelevantFields are the case fields whose change makes a redeploy
// necessary. template_id is included: switching templates changes the
// rendered output even when nothing else did. Callers may override the list
// through Options.
var DefaultRelevantFields = []string{
	"subdomain", "custom_domain", "first_name", "last_name", "primary_photo", "template_id",
}

// Options tune one deploy attempt. Zero values take the defaults.
type Options struct {
	Force            bool
	SkipSave         bool
	HasExisting      bool
	RelevantFields   []string
	PollInterval     time.Duration
	MaxPollAttempts  int
	MaxSubmitRetries int
	Settings         map[string]any
}

// Orchestrator runs at most one deploy attempt at a time for one case site.
type Orchestrator struct {
	mu sync.Mutex

	backend Backend
	saver   Saver

	record       Record
	rollback     *Snapshot
	lastDeployed *Snapshot
	cancelled    bool
	cancelCh     chan struct{}
}

// New creates an idle orchestrator. saver may be nil when there is no
// autosave coordinator to flush through.
func New(backend Backend, saver Saver) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		saver:   saver,
		record:  Record{Status: StatusIdle},
	}
}

// Record returns the current attempt state.
func (o *Orchestrator) Record() Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.record
}

// Rollback returns the snapshot captured before the last attempt, for the
// caller to re-apply. It is not re-applied automatically.
func (o *Orchestrator) Rollback() *Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rollback == nil {
		return nil
	}
	copied := cloneSnapshot(*o.rollback)
	return &copied
}

// Cancel stops polling immediately and leaves the submitted remote job's
// fate unresolved; no cancellation is sent upstream.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelled || o.cancelCh == nil {
		return
	}
	o.cancelled = true
	close(o.cancelCh)
}

// Deploy runs the full workflow. Failures land in the returned record's Err
// and Status fields; the method never panics and only returns early through
// those fields.
func (o *Orchestrator) Deploy(ctx context.Context, caseID string, doc customize.Document, caseData map[string]any, opts Options) Record {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxPollAttempts <= 0 {
		opts.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if opts.MaxSubmitRetries <= 0 {
		opts.MaxSubmitRetries = DefaultMaxSubmitRetries
	}
	if len(opts.RelevantFields) == 0 {
		opts.RelevantFields = DefaultRelevantFields
	}

	o.mu.Lock()
	o.cancelled = false
	o.cancelCh = make(chan struct{})
	o.record = Record{Status: StatusPreparing, Progress: 5}
	o.mu.Unlock()

	subdomain, _ := caseData["subdomain"].(string)
	customDomain, _ := caseData["custom_domain"].(string)
	firstName, _ := caseData["first_name"].(string)
	lastName, _ := caseData["last_name"].(string)
	photo, _ := caseData["primary_photo"].(string)

	// Precondition checks, each with a distinct user-facing error.
	if missing := validate.MissingCaseFields(validate.CaseFields{
		FirstName:    firstName,
		LastName:     lastName,
		Subdomain:    subdomain,
		CustomDomain: customDomain,
		PrimaryPhoto: photo,
	}); len(missing) > 0 {
		return o.fail(&ValidationError{Field: missing[0], Message: "required case field is missing"})
	}
	if !validate.Subdomain(subdomain) {
		return o.fail(&ValidationError{Field: "subdomain", Message: "subdomain must be 3-50 lowercase letters, digits or hyphens, not reserved"})
	}
	if customDomain != "" && !validate.CustomDomain(customDomain) {
		return o.fail(&ValidationError{Field: "custom_domain", Message: "custom domain must be a bare hostname without scheme or path"})
	}
	if result := customize.Validate(doc); !result.Valid {
		return o.fail(&ValidationError{Field: "customizations", Message: fmt.Sprintf("document is invalid: %v", result.Errors)})
	}

	// Skip the round-trip when nothing the rendered site depends on changed.
	if !opts.Force && !o.deployNeeded(doc, caseData, opts.RelevantFields) {
		o.mu.Lock()
		o.record = Record{Status: StatusCompleted, Progress: 100, Skipped: true}
		record := o.record
		o.mu.Unlock()
		return record
	}

	o.mu.Lock()
	snapshot := Snapshot{Customizations: customize.Clone(doc), CaseData: cloneCaseData(caseData)}
	o.rollback = &snapshot
	o.mu.Unlock()

	if !opts.SkipSave && o.saver != nil {
		if err := o.saver.SaveNow(); err != nil {
			return o.fail(&SaveError{Err: err})
		}
	}

	availability, err := o.backend.CheckSubdomain(ctx, subdomain, caseID)
	if err != nil {
		return o.fail(fmt.Errorf("subdomain availability check failed: %w", err))
	}
	if !availability.Available {
		message := availability.Message
		if message == "" {
			message = "subdomain is already taken"
		}
		return o.fail(&ValidationError{Field: "subdomain", Message: message})
	}

	o.setProgress(StatusPreparing, 20)

	request := Request{
		Subdomain:    subdomain,
		CustomDomain: customDomain,
		TemplateID:   doc.Metadata.TemplateID,
		TemplateData: customize.FormatForAPI(doc),
		CaseData:     cloneCaseData(caseData),
		Settings:     opts.Settings,
	}

	submission, err := o.submitWithRetry(ctx, caseID, request, opts)
	if err != nil {
		return o.fail(err)
	}

	o.setProgress(StatusDeploying, 40)

	record := o.poll(ctx, caseID, submission, opts)
	if record.Status == StatusCompleted {
		o.mu.Lock()
		o.lastDeployed = &Snapshot{Customizations: customize.Clone(doc), CaseData: cloneCaseData(caseData)}
		o.mu.Unlock()
	}
	return record
}

// submitWithRetry sends the deploy request, retrying transient failures with
// capped exponential backoff. Validation-classified failures are surfaced
// immediately.
func (o *Orchestrator) submitWithRetry(ctx context.Context, caseID string, request Request, opts Options) (Submission, error) {
	var lastErr error
	for attempt := 0; attempt < opts.MaxSubmitRetries; attempt++ {
		if attempt > 0 {
			if err := o.sleep(ctx, util.Backoff(attempt-1)); err != nil {
				return Submission{}, err
			}
		}
		var submission Submission
		var err error
		if opts.HasExisting {
			submission, err = o.backend.UpdateDeploy(ctx, caseID, request)
		} else {
			submission, err = o.backend.SubmitDeploy(ctx, caseID, request)
		}
		if err == nil {
			return submission, nil
		}
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return Submission{}, validationErr
		}
		lastErr = err
	}
	return Submission{}, fmt.Errorf("deploy submission failed after %d attempts: %w", opts.MaxSubmitRetries, lastErr)
}

// poll drives the status checks strictly sequentially: each poll waits for
// the previous to resolve before the interval to the next starts.
func (o *Orchestrator) poll(ctx context.Context, caseID string, submission Submission, opts Options) Record {
	budget := opts.MaxPollAttempts
	polled := 0
	for budget > 0 {
		if err := o.sleep(ctx, opts.PollInterval); err != nil {
			return o.finish(StatusCancelled, 0, "", nil)
		}
		status, err := o.backend.DeploymentStatus(ctx, caseID)
		polled++
		if err != nil {
			budget -= pollErrorWeight
			continue
		}
		budget--
		switch status.State {
		case JobDeployed:
			url := status.URL
			if url == "" {
				url = submission.URL
			}
			o.setProgress(StatusChecking, 90)
			if err := o.backend.HealthCheck(ctx, url); err != nil {
				return o.finish(StatusFailed, 90, url, fmt.Errorf("site health check failed: %w", err))
			}
			return o.finish(StatusCompleted, 100, url, nil)
		case JobFailed:
			message := status.Error
			if message == "" {
				message = "deployment failed"
			}
			return o.finish(StatusFailed, 0, "", fmt.Errorf("%s", message))
		default:
			progress := 40 + (50*polled)/opts.MaxPollAttempts
			if progress > 85 {
				progress = 85
			}
			o.setProgress(StatusDeploying, progress)
		}
	}
	return o.finish(StatusFailed, 0, "", &TimeoutError{Attempts: polled})
}

// sleep waits for the duration unless the context is done or Cancel fires.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	o.mu.Lock()
	cancelCh := o.cancelCh
	o.mu.Unlock()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cancelCh:
		return context.Canceled
	case <-timer.C:
		return nil
	}
}

func (o *Orchestrator) deployNeeded(doc customize.Document, caseData map[string]any, relevantFields []string) bool {
	o.mu.Lock()
	last := o.lastDeployed
	o.mu.Unlock()
	if last == nil {
		return true
	}
	if !customize.EqualCustomizations(doc, last.Customizations) {
		return true
	}
	for _, field := range relevantFields {
		if fmt.Sprint(caseData[field]) != fmt.Sprint(last.CaseData[field]) {
			return true
		}
	}
	return false
}

// SetLastDeployed seeds the change-detection snapshot, used when a prior
// deployment is loaded from storage.
func (o *Orchestrator) SetLastDeployed(doc customize.Document, caseData map[string]any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastDeployed = &Snapshot{Customizations: customize.Clone(doc), CaseData: cloneCaseData(caseData)}
}

func (o *Orchestrator) setProgress(status Status, progress int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelled {
		return
	}
	o.record.Status = status
	o.record.Progress = progress
}

func (o *Orchestrator) fail(err error) Record {
	return o.finish(StatusFailed, 0, "", err)
}

func (o *Orchestrator) finish(status Status, progress int, url string, err error) Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelled && status != StatusCancelled {
		status = StatusCancelled
		err = nil
	}
	o.record = Record{Status: status, Progress: progress, URL: url, Err: err}
	return o.record
}

func cloneSnapshot(s Snapshot) Snapshot {
	return Snapshot{
		Customizations: customize.Clone(s.Customizations),
		CaseData:       cloneCaseData(s.CaseData),
	}
}

func cloneCaseData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = value
	}
	return out
}
