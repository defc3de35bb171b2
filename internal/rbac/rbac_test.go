package rbac

import "testing"

func TestDerive(t *testing.T) {
	cases := []struct {
		name        string
		accountType string
		want        Capabilities
	}{
		{
			name:        "admin has everything",
			accountType: "admin",
			want: Capabilities{
				CreateCases: true, EditCases: true, DeploySites: true,
				CreatePosts: true, ViewAllCases: true, ViewAllMessages: true,
				ManageUsers: true, ManageAccess: true, ViewAnalytics: true,
			},
		},
		{
			name:        "owner manages own cases but not users",
			accountType: "owner",
			want: Capabilities{
				CreateCases: true, EditCases: true, DeploySites: true,
				CreatePosts: true, ManageAccess: true, ViewAnalytics: true,
			},
		},
		{
			name:        "advocate creates and edits",
			accountType: "advocate",
			want: Capabilities{
				CreateCases: true, EditCases: true, DeploySites: true, CreatePosts: true,
			},
		},
		{
			name:        "helper edits shared cases only",
			accountType: "helper",
			want:        Capabilities{EditCases: true, CreatePosts: true},
		},
		{
			name:        "leo is read only",
			accountType: "leo",
			want:        Capabilities{ViewAllCases: true, ViewAllMessages: true},
		},
		{
			name:        "unverified has nothing",
			accountType: "unverified",
			want:        Capabilities{},
		},
		{
			name:        "unknown fails closed",
			accountType: "superuser",
			want:        Capabilities{},
		},
		{
			name:        "empty fails closed",
			accountType: "",
			want:        Capabilities{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Derive(tc.accountType); got != tc.want {
				t.Fatalf("Derive(%q) = %+v, want %+v", tc.accountType, got, tc.want)
			}
		})
	}
}

func TestLEOIsReadOnly(t *testing.T) {
	caps := Derive("leo")
	if !caps.ReadOnly() {
		t.Fatal("law enforcement capabilities must be read only")
	}
	if !caps.ViewAllCases || !caps.ViewAllMessages {
		t.Fatal("law enforcement must see all cases and messages")
	}
}

func TestNormalizeAliases(t *testing.T) {
	cases := []struct {
		in   string
		want AccountType
	}{
		{"admin", AccountAdmin},
		{"  Admin  ", AccountAdmin},
		{"owner", AccountOwner},
		{"verified", AccountOwner},
		{"family", AccountOwner},
		{"leo", AccountLEO},
		{"law_enforcement", AccountLEO},
		{"HELPER", AccountHelper},
		{"advocate", AccountAdvocate},
		{"", AccountUnverified},
		{"banana", AccountUnverified},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
