// Package publisher is the local deployment backend: it renders a case's
// enabled pages into a per-case git repository, commits each publish as the
// deploying user, tags releases, and answers status polls and health checks.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"beacon/api/internal/deploy"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SubdomainSource answers whether a subdomain is already allocated to a
// different case. Implemented by the store.
type SubdomainSource interface {
	SubdomainTaken(ctx context.Context, subdomain, excludeCaseID string) (bool, error)
}

type job struct {
	state        string
	url          string
	errMessage   string
	subdomain    string
	deploymentID string
	siteDir      string
	startedAt    time.Time
}

// Service implements deploy.Backend on the local filesystem.
type Service struct {
	baseDir    string
	siteDomain string
	subdomains SubdomainSource
	author     string

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	jobMu sync.Mutex
	jobs  map[string]*job
}

// New creates a publisher rooted at baseDir. Sites publish to
// https://<subdomain>.<siteDomain>/.
func New(baseDir, siteDomain string, subdomains SubdomainSource) *Service {
	return &Service{
		baseDir:    baseDir,
		siteDomain: siteDomain,
		subdomains: subdomains,
		author:     "Beacon Publisher",
		locks:      make(map[string]*sync.Mutex),
		jobs:       make(map[string]*job),
	}
}

// CheckSubdomain reports availability against the allocation store.
func (s *Service) CheckSubdomain(ctx context.Context, subdomain, caseID string) (deploy.Availability, error) {
	taken, err := s.subdomains.SubdomainTaken(ctx, subdomain, caseID)
	if err != nil {
		return deploy.Availability{}, fmt.Errorf("check subdomain: %w", err)
	}
	if taken {
		return deploy.Availability{Available: false, Message: fmt.Sprintf("%q is already in use by another case", subdomain)}, nil
	}
	return deploy.Availability{Available: true}, nil
}

// SubmitDeploy starts a publish job for a first-time deployment.
func (s *Service) SubmitDeploy(ctx context.Context, caseID string, req deploy.Request) (deploy.Submission, error) {
	return s.startJob(ctx, caseID, req)
}

// UpdateDeploy republishes an already-deployed case. The local backend
// treats it the same as a first deploy: the site repo accumulates commits.
func (s *Service) UpdateDeploy(ctx context.Context, caseID string, req deploy.Request) (deploy.Submission, error) {
	return s.startJob(ctx, caseID, req)
}

func (s *Service) startJob(ctx context.Context, caseID string, req deploy.Request) (deploy.Submission, error) {
	if strings.TrimSpace(req.Subdomain) == "" {
		return deploy.Submission{}, &deploy.ValidationError{Field: "subdomain", Message: "subdomain is required"}
	}
	if strings.TrimSpace(caseID) == "" {
		return deploy.Submission{}, &deploy.ValidationError{Field: "caseId", Message: "case id is required"}
	}

	deploymentID := fmt.Sprintf("dep-%s-%d", caseID, time.Now().UnixNano())
	url := fmt.Sprintf("https://%s.%s/", req.Subdomain, s.siteDomain)
	siteDir := s.sitePath(caseID)

	s.jobMu.Lock()
	s.jobs[caseID] = &job{
		state:        deploy.JobDeploying,
		url:          url,
		subdomain:    req.Subdomain,
		deploymentID: deploymentID,
		siteDir:      siteDir,
		startedAt:    time.Now(),
	}
	s.jobMu.Unlock()

	go s.publish(caseID, req, url)

	return deploy.Submission{DeploymentID: deploymentID, URL: url}, nil
}

func (s *Service) publish(caseID string, req deploy.Request, url string) {
	author := s.author
	if name, ok := req.CaseData["deployed_by"].(string); ok && strings.TrimSpace(name) != "" {
		author = name
	}

	pages, err := RenderSite(req)
	if err == nil {
		err = s.commitSite(caseID, pages, author, fmt.Sprintf("Publish %s.%s", req.Subdomain, s.siteDomain))
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	current, ok := s.jobs[caseID]
	if !ok {
		return
	}
	if err != nil {
		current.state = deploy.JobFailed
		current.errMessage = err.Error()
		return
	}
	current.state = deploy.JobDeployed
	current.url = url
}

// DeploymentStatus answers a status poll.
func (s *Service) DeploymentStatus(ctx context.Context, caseID string) (deploy.JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	current, ok := s.jobs[caseID]
	if !ok {
		return deploy.JobStatus{State: deploy.JobNotDeployed}, nil
	}
	return deploy.JobStatus{State: current.state, URL: current.url, Error: current.errMessage}, nil
}

// HealthCheck is a reachability probe only: the published index page must
// exist for the site behind the URL. No content verification.
func (s *Service) HealthCheck(ctx context.Context, url string) error {
	s.jobMu.Lock()
	var siteDir string
	for _, current := range s.jobs {
		if current.url == url {
			siteDir = current.siteDir
			break
		}
	}
	s.jobMu.Unlock()
	if siteDir == "" {
		return fmt.Errorf("no published site for %s", url)
	}
	if _, err := os.Stat(filepath.Join(siteDir, "index.html")); err != nil {
		return fmt.Errorf("published index missing: %w", err)
	}
	return nil
}

// commitSite writes the rendered pages into the case's site repo, commits,
// and tags the release as deploy-N.
func (s *Service) commitSite(caseID string, pages map[string]string, author, message string) error {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	path := s.sitePath(caseID)
	repo, err := s.ensureRepo(path)
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	for name, html := range pages {
		if err := os.WriteFile(filepath.Join(path, name), []byte(html), 0o644); err != nil {
			return fmt.Errorf("write page %s: %w", name, err)
		}
		if _, err := worktree.Add(name); err != nil {
			return fmt.Errorf("git add %s: %w", name, err)
		}
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		// Nothing changed since the last publish; keep the existing tag.
		return nil
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author,
			Email: fmt.Sprintf("%s@publisher.beaconsites.org", sanitizeEmail(author)),
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit site: %w", err)
	}

	tagName := fmt.Sprintf("deploy-%d", s.releaseCount(repo)+1)
	if _, err := repo.CreateTag(tagName, hash, nil); err != nil {
		return fmt.Errorf("tag release %s: %w", tagName, err)
	}
	return nil
}

func (s *Service) ensureRepo(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open site repo: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create site dir: %w", err)
	}
	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init site repo: %w", err)
	}
	return repo, nil
}

func (s *Service) releaseCount(repo *git.Repository) int {
	iter, err := repo.Tags()
	if err != nil {
		return 0
	}
	defer iter.Close()
	count := 0
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(ref.Name().Short(), "deploy-") {
			count++
		}
		return nil
	})
	return count
}

// ReleaseHistory lists the publish commits for a case, newest first.
func (s *Service) ReleaseHistory(caseID string, limit int) ([]Release, error) {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.sitePath(caseID))
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return []Release{}, nil
		}
		return nil, fmt.Errorf("open site repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return []Release{}, nil
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]Release, 0, limit)
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, Release{
			Hash:      commitObj.Hash.String(),
			Message:   commitObj.Message,
			Author:    commitObj.Author.Name,
			CreatedAt: commitObj.Author.When,
		})
		if limit > 0 && len(items) >= limit {
			return errStopIteration
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

var errStopIteration = errors.New("stop iteration")

// Release is one publish commit in a case site's history.
type Release struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}

func (s *Service) sitePath(caseID string) string {
	return filepath.Join(s.baseDir, caseID)
}

func (s *Service) caseLock(caseID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[caseID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[caseID] = lock
	}
	return lock
}

func sanitizeEmail(input string) string {
	var out strings.Builder
	for _, ch := range strings.ToLower(strings.TrimSpace(input)) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '.', ch == '-':
			out.WriteRune(ch)
		case ch == ' ':
			out.WriteRune('.')
		}
	}
	if out.Len() == 0 {
		return "publisher"
	}
	return out.String()
}
