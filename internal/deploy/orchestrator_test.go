package deploy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"beacon/api/internal/customize"
)

type fakeBackend struct {
	mu sync.Mutex

	availability Availability
	checkErr     error

	submitErr    error
	submitErrs   []error
	submitCalls  int
	updateCalls  int
	submission   Submission
	statusScript []JobStatus
	statusErrs   []error
	statusCalls  int

	healthErr   error
	healthCalls int
}

func (f *fakeBackend) CheckSubdomain(context.Context, string, string) (Availability, error) {
	if f.checkErr != nil {
		return Availability{}, f.checkErr
	}
	if f.availability == (Availability{}) {
		return Availability{Available: true}, nil
	}
	return f.availability, nil
}

func (f *fakeBackend) SubmitDeploy(context.Context, string, Request) (Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		return Submission{}, err
	}
	if f.submitErr != nil {
		return Submission{}, f.submitErr
	}
	return f.submission, nil
}

func (f *fakeBackend) UpdateDeploy(ctx context.Context, caseID string, req Request) (Submission, error) {
	f.mu.Lock()
	f.updateCalls++
	f.mu.Unlock()
	return f.submission, nil
}

func (f *fakeBackend) DeploymentStatus(context.Context, string) (JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.statusCalls
	f.statusCalls++
	if call < len(f.statusErrs) && f.statusErrs[call] != nil {
		return JobStatus{}, f.statusErrs[call]
	}
	if call < len(f.statusScript) {
		return f.statusScript[call], nil
	}
	if len(f.statusScript) > 0 {
		return f.statusScript[len(f.statusScript)-1], nil
	}
	return JobStatus{State: JobDeploying}, nil
}

func (f *fakeBackend) HealthCheck(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthCalls++
	return f.healthErr
}

type fakeSaver struct {
	calls int
	err   error
}

func (s *fakeSaver) SaveNow() error {
	s.calls++
	return s.err
}

func deployableDoc() customize.Document {
	doc := customize.New("classic", "2.1.0")
	doc = customize.Set(doc, "global.primaryColor", "#1d4ed8")
	return doc
}

func deployableCaseData() map[string]any {
	return map[string]any{
		"subdomain":     "findjanedoe",
		"custom_domain": "",
		"first_name":    "Jane",
		"last_name":     "Doe",
		"primary_photo": "https://example.com/jane.jpg",
		"template_id":   "classic",
	}
}

func fastOpts() Options {
	return Options{
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 10,
	}
}

func TestDeploySuccess(t *testing.T) {
	backend := &fakeBackend{
		submission: Submission{DeploymentID: "dep_1", URL: "https://findjanedoe.beaconsites.org/"},
		statusScript: []JobStatus{
			{State: JobDeploying},
			{State: JobDeploying},
			{State: JobDeployed, URL: "https://findjanedoe.beaconsites.org/"},
		},
	}
	saver := &fakeSaver{}
	o := New(backend, saver)

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), fastOpts())

	if record.Status != StatusCompleted {
		t.Fatalf("Status = %s, want completed (err: %v)", record.Status, record.Err)
	}
	if record.Progress != 100 {
		t.Fatalf("Progress = %d, want 100", record.Progress)
	}
	if record.URL != "https://findjanedoe.beaconsites.org/" {
		t.Fatalf("URL = %q", record.URL)
	}
	if saver.calls != 1 {
		t.Fatalf("SaveNow calls = %d, want 1", saver.calls)
	}
	if backend.healthCalls != 1 {
		t.Fatalf("HealthCheck calls = %d, want exactly 1", backend.healthCalls)
	}
	if backend.submitCalls != 1 || backend.updateCalls != 0 {
		t.Fatalf("submit/update = %d/%d, want 1/0", backend.submitCalls, backend.updateCalls)
	}
}

func TestDeployUsesUpdateForExistingSite(t *testing.T) {
	backend := &fakeBackend{
		submission:   Submission{DeploymentID: "dep_2", URL: "https://x.beaconsites.org/"},
		statusScript: []JobStatus{{State: JobDeployed}},
	}
	o := New(backend, nil)

	opts := fastOpts()
	opts.HasExisting = true
	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), opts)

	if record.Status != StatusCompleted {
		t.Fatalf("Status = %s (err: %v)", record.Status, record.Err)
	}
	if backend.updateCalls != 1 || backend.submitCalls != 0 {
		t.Fatalf("submit/update = %d/%d, want 0/1", backend.submitCalls, backend.updateCalls)
	}
}

func TestDeployMissingFieldsFailsWithoutBackendCalls(t *testing.T) {
	backend := &fakeBackend{}
	saver := &fakeSaver{}
	o := New(backend, saver)

	caseData := deployableCaseData()
	caseData["last_name"] = ""

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), caseData, fastOpts())

	if record.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed", record.Status)
	}
	var validationErr *ValidationError
	if !errors.As(record.Err, &validationErr) {
		t.Fatalf("Err = %v, want ValidationError", record.Err)
	}
	if validationErr.Field != "last_name" {
		t.Fatalf("Field = %q, want last_name", validationErr.Field)
	}
	if saver.calls != 0 || backend.submitCalls != 0 {
		t.Fatal("validation failure must short-circuit before save and submit")
	}
}

func TestDeployInvalidSubdomain(t *testing.T) {
	o := New(&fakeBackend{}, nil)
	caseData := deployableCaseData()
	caseData["subdomain"] = "Bad--Sub"

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), caseData, fastOpts())

	var validationErr *ValidationError
	if !errors.As(record.Err, &validationErr) || validationErr.Field != "subdomain" {
		t.Fatalf("Err = %v, want subdomain ValidationError", record.Err)
	}
}

func TestDeploySubdomainTaken(t *testing.T) {
	backend := &fakeBackend{availability: Availability{Available: false, Message: "subdomain is already taken"}}
	o := New(backend, nil)

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), fastOpts())

	var validationErr *ValidationError
	if !errors.As(record.Err, &validationErr) || validationErr.Field != "subdomain" {
		t.Fatalf("Err = %v, want subdomain ValidationError", record.Err)
	}
	if backend.submitCalls != 0 {
		t.Fatal("taken subdomain must not be submitted")
	}
}

func TestDeploySaveErrorIsDistinct(t *testing.T) {
	backend := &fakeBackend{}
	saver := &fakeSaver{err: errors.New("disk full")}
	o := New(backend, saver)

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), fastOpts())

	var saveErr *SaveError
	if !errors.As(record.Err, &saveErr) {
		t.Fatalf("Err = %v, want SaveError", record.Err)
	}
	if backend.submitCalls != 0 {
		t.Fatal("failed save must stop the deploy before submission")
	}
}

func TestDeploySubmitRetriesTransientErrors(t *testing.T) {
	backend := &fakeBackend{
		submitErrs:   []error{errors.New("http 502"), errors.New("http 502")},
		submission:   Submission{DeploymentID: "dep_3", URL: "https://x.beaconsites.org/"},
		statusScript: []JobStatus{{State: JobDeployed}},
	}
	o := New(backend, nil)

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), fastOpts())

	if record.Status != StatusCompleted {
		t.Fatalf("Status = %s (err: %v), want completed after retries", record.Status, record.Err)
	}
	if backend.submitCalls != 3 {
		t.Fatalf("submit calls = %d, want 3", backend.submitCalls)
	}
}

func TestDeploySubmitValidationErrorNeverRetried(t *testing.T) {
	backend := &fakeBackend{
		submitErr: &ValidationError{Field: "template_id", Message: "unknown template"},
	}
	o := New(backend, nil)

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), fastOpts())

	var validationErr *ValidationError
	if !errors.As(record.Err, &validationErr) {
		t.Fatalf("Err = %v, want ValidationError", record.Err)
	}
	if backend.submitCalls != 1 {
		t.Fatalf("submit calls = %d, validation errors must not retry", backend.submitCalls)
	}
}

func TestDeployPollTimeout(t *testing.T) {
	backend := &fakeBackend{
		submission:   Submission{DeploymentID: "dep_4"},
		statusScript: []JobStatus{{State: JobDeploying}},
	}
	o := New(backend, nil)

	opts := fastOpts()
	opts.MaxPollAttempts = 4
	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), opts)

	if record.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed", record.Status)
	}
	var timeoutErr *TimeoutError
	if !errors.As(record.Err, &timeoutErr) {
		t.Fatalf("Err = %v, want TimeoutError", record.Err)
	}
	if timeoutErr.Attempts != 4 {
		t.Fatalf("Attempts = %d, want 4", timeoutErr.Attempts)
	}
}

func TestDeployPollErrorsBurnExtraBudget(t *testing.T) {
	backend := &fakeBackend{
		submission: Submission{DeploymentID: "dep_5"},
		statusErrs: []error{errors.New("net down"), errors.New("net down")},
	}
	o := New(backend, nil)

	opts := fastOpts()
	opts.MaxPollAttempts = 6
	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), opts)

	if record.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed", record.Status)
	}
	// Two failed polls cost 3 budget each, exhausting the budget of 6.
	if backend.statusCalls != 2 {
		t.Fatalf("status calls = %d, want 2", backend.statusCalls)
	}
}

func TestDeployJobFailure(t *testing.T) {
	backend := &fakeBackend{
		submission:   Submission{DeploymentID: "dep_6"},
		statusScript: []JobStatus{{State: JobFailed, Error: "build exploded"}},
	}
	o := New(backend, nil)

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), fastOpts())

	if record.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed", record.Status)
	}
	if record.Err == nil || record.Err.Error() != "build exploded" {
		t.Fatalf("Err = %v, want build exploded", record.Err)
	}
}

func TestDeployHealthCheckFailure(t *testing.T) {
	backend := &fakeBackend{
		submission:   Submission{DeploymentID: "dep_7", URL: "https://x.beaconsites.org/"},
		statusScript: []JobStatus{{State: JobDeployed}},
		healthErr:    errors.New("503"),
	}
	o := New(backend, nil)

	record := o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), fastOpts())

	if record.Status != StatusFailed {
		t.Fatalf("Status = %s, want failed after health check", record.Status)
	}
	if backend.healthCalls != 1 {
		t.Fatalf("health calls = %d, want 1", backend.healthCalls)
	}
}

func TestDeploySkipsWhenNothingRelevantChanged(t *testing.T) {
	backend := &fakeBackend{
		submission:   Submission{DeploymentID: "dep_8", URL: "https://x.beaconsites.org/"},
		statusScript: []JobStatus{{State: JobDeployed}},
	}
	o := New(backend, nil)
	doc := deployableDoc()
	caseData := deployableCaseData()

	first := o.Deploy(context.Background(), "case_1", doc, caseData, fastOpts())
	if first.Status != StatusCompleted || first.Skipped {
		t.Fatalf("first deploy = %+v", first)
	}

	// Identical inputs: skipped without touching the backend again.
	submitsBefore := backend.submitCalls
	second := o.Deploy(context.Background(), "case_1", doc, caseData, fastOpts())
	if second.Status != StatusCompleted || !second.Skipped {
		t.Fatalf("second deploy = %+v, want skipped completion", second)
	}
	if backend.submitCalls != submitsBefore {
		t.Fatal("skipped deploy must not resubmit")
	}

	// An irrelevant field change still skips.
	caseData["summary"] = "updated summary"
	third := o.Deploy(context.Background(), "case_1", doc, caseData, fastOpts())
	if !third.Skipped {
		t.Fatal("irrelevant field change must still skip")
	}

	// A relevant field change deploys again.
	caseData["template_id"] = "hopeful"
	fourth := o.Deploy(context.Background(), "case_1", doc, caseData, fastOpts())
	if fourth.Skipped {
		t.Fatal("template change must force a real deploy")
	}

	// Force overrides the skip.
	caseData["template_id"] = "classic"
	o.SetLastDeployed(doc, caseData)
	opts := fastOpts()
	opts.Force = true
	fifth := o.Deploy(context.Background(), "case_1", doc, caseData, opts)
	if fifth.Skipped {
		t.Fatal("forced deploy must not skip")
	}
}

func TestDeployCancelDuringPolling(t *testing.T) {
	backend := &fakeBackend{
		submission:   Submission{DeploymentID: "dep_9"},
		statusScript: []JobStatus{{State: JobDeploying}},
	}
	o := New(backend, nil)

	opts := fastOpts()
	opts.PollInterval = 20 * time.Millisecond
	opts.MaxPollAttempts = 100

	done := make(chan Record, 1)
	go func() {
		done <- o.Deploy(context.Background(), "case_1", deployableDoc(), deployableCaseData(), opts)
	}()

	time.Sleep(50 * time.Millisecond)
	o.Cancel()

	select {
	case record := <-done:
		if record.Status != StatusCancelled {
			t.Fatalf("Status = %s, want cancelled", record.Status)
		}
		if record.Err != nil {
			t.Fatalf("cancelled record carries error: %v", record.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("deploy did not stop after Cancel")
	}
}

func TestRollbackSnapshotCaptured(t *testing.T) {
	backend := &fakeBackend{
		submission:   Submission{DeploymentID: "dep_10"},
		statusScript: []JobStatus{{State: JobDeployed, URL: "https://x.beaconsites.org/"}},
	}
	o := New(backend, nil)
	doc := deployableDoc()

	o.Deploy(context.Background(), "case_1", doc, deployableCaseData(), fastOpts())

	rollback := o.Rollback()
	if rollback == nil {
		t.Fatal("rollback snapshot missing after deploy")
	}
	if !customize.EqualCustomizations(rollback.Customizations, doc) {
		t.Fatal("rollback snapshot does not match the deployed document")
	}

	// The returned snapshot is a copy.
	rollback.CaseData["subdomain"] = "tampered"
	if again := o.Rollback(); again.CaseData["subdomain"] == "tampered" {
		t.Fatal("Rollback leaked internal state")
	}
}
