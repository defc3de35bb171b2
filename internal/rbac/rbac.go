package rbac

import "strings"

// AccountType is the role recorded on a user account. LEO (law enforcement)
// accounts are deliberately read-only: view, comment and tip access, but no
// case mutation, no post authoring, no access sharing.
type AccountType string

const (
	AccountAdmin      AccountType = "admin"
	AccountOwner      AccountType = "owner"
	AccountAdvocate   AccountType = "advocate"
	AccountHelper     AccountType = "helper"
	AccountLEO        AccountType = "leo"
	AccountUnverified AccountType = "unverified"
)

// Capabilities is the derived permission set for an account type. It is never
// persisted; recompute it from the user record on each load.
type Capabilities struct {
	CreateCases     bool
	EditCases       bool
	DeploySites     bool
	CreatePosts     bool
	ViewAllCases    bool
	ViewAllMessages bool
	ManageUsers     bool
	ManageAccess    bool
	ViewAnalytics   bool
}

// ReadOnly reports whether the capability set permits no mutations at all.
func (c Capabilities) ReadOnly() bool {
	return !c.CreateCases && !c.EditCases && !c.DeploySites && !c.CreatePosts &&
		!c.ManageUsers && !c.ManageAccess
}

var capabilityTable = map[AccountType]Capabilities{
	AccountAdmin: {
		CreateCases:     true,
		EditCases:       true,
		DeploySites:     true,
		CreatePosts:     true,
		ViewAllCases:    true,
		ViewAllMessages: true,
		ManageUsers:     true,
		ManageAccess:    true,
		ViewAnalytics:   true,
	},
	AccountOwner: {
		CreateCases:   true,
		EditCases:     true,
		DeploySites:   true,
		CreatePosts:   true,
		ManageAccess:  true,
		ViewAnalytics: true,
	},
	AccountAdvocate: {
		CreateCases: true,
		EditCases:   true,
		DeploySites: true,
		CreatePosts: true,
	},
	AccountHelper: {
		EditCases:   true,
		CreatePosts: true,
	},
	AccountLEO: {
		ViewAllCases:    true,
		ViewAllMessages: true,
	},
	AccountUnverified: {},
}

// Derive maps an account type to its capability set. Unknown types receive
// the most restrictive set: fail closed, not open.
func Derive(accountType string) Capabilities {
	return capabilityTable[Normalize(accountType)]
}

// Normalize folds a raw account type string onto a known AccountType.
// Anything unrecognized collapses to unverified, which carries no
// capabilities at all.
func Normalize(accountType string) AccountType {
	switch AccountType(strings.ToLower(strings.TrimSpace(accountType))) {
	case AccountAdmin:
		return AccountAdmin
	case AccountOwner, "verified", "family":
		return AccountOwner
	case AccountAdvocate:
		return AccountAdvocate
	case AccountHelper:
		return AccountHelper
	case AccountLEO, "law_enforcement":
		return AccountLEO
	default:
		return AccountUnverified
	}
}
