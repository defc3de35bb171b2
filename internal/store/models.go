package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	AccountType           string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	DeactivatedAt         *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Case is one missing-person or crime-victim case record.
type Case struct {
	ID               string
	OwnerID          string
	FirstName        string
	LastName         string
	CaseType         string // missing, homicide, unidentified
	Status           string // draft, published, archived
	Summary          string
	Subdomain        string
	CustomDomain     string
	PrimaryPhoto     string
	TemplateID       string
	DeploymentStatus string // not_deployed, deploying, deployed, failed
	SiteURL          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CaseDocument is the persisted customization document for a case, stored
// as jsonb.
type CaseDocument struct {
	CaseID    string
	Document  string
	UpdatedBy string
	UpdatedAt time.Time
}

// Message is a tip or contact message submitted through a case site.
type Message struct {
	ID          string
	CaseID      string
	Kind        string // tip, message
	SenderName  string
	SenderEmail string
	Subject     string
	Body        string
	IsRead      bool
	CreatedAt   time.Time
}

// SpotlightPost is a social-style update published to a case's feed.
type SpotlightPost struct {
	ID         string
	CaseID     string
	AuthorID   string
	AuthorName string
	Title      string
	Body       string
	PhotoURL   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AccessRequest tracks a user asking for a role on someone else's case.
type AccessRequest struct {
	ID             string
	CaseID         string
	RequesterID    string
	RequesterName  string
	RequesterEmail string
	RequestedRole  string // helper, advocate, leo
	Note           string
	Status         string // pending, approved, denied
	DecidedBy      string
	DecidedAt      *time.Time
	CreatedAt      time.Time
}

// CaseAccess is a granted role on a specific case.
type CaseAccess struct {
	CaseID    string
	UserID    string
	Role      string
	GrantedBy string
	GrantedAt time.Time
}

// Deployment is one recorded deploy attempt for a case site.
type Deployment struct {
	ID          string
	CaseID      string
	Subdomain   string
	Status      string
	URL         string
	Error       string
	DeployedBy  string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
