package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	cases := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "noreply@beaconsites.org",
			},
			expected: true,
		},
		{
			name:     "nothing configured",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "noreply@beaconsites.org",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestSendEmailUnconfigured(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendEmail([]string{"to@example.com"}, "subject", "body"); err == nil {
		t.Fatal("sending without configuration must fail")
	}
	if err := svc.SendHTMLEmail([]string{"to@example.com"}, "subject", "<p>hi</p>"); err == nil {
		t.Fatal("sending HTML without configuration must fail")
	}
}

func TestRenderVerificationTemplate(t *testing.T) {
	html, err := renderTemplate(verificationEmailTemplate, verificationData{
		AppName:         "Beacon",
		UserName:        "Jane",
		VerificationURL: "https://app.beaconsites.org/verify-email?token=abc",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	for _, want := range []string{"Jane", "verify-email?token=abc", "Beacon"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered verification email missing %q", want)
		}
	}
}

func TestRenderTipNotificationTemplate(t *testing.T) {
	html, err := renderTemplate(tipNotificationTemplate, tipNotificationData{
		AppName:    "Beacon",
		CaseName:   "Jane Doe",
		TipSubject: "Possible sighting",
		InboxURL:   "https://app.beaconsites.org/cases/case_1/inbox",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	for _, want := range []string{"Jane Doe", "Possible sighting", "cases/case_1/inbox"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered tip notification missing %q", want)
		}
	}
}

func TestRenderAccessRequestTemplate(t *testing.T) {
	html, err := renderTemplate(accessRequestTemplate, accessRequestData{
		AppName:       "Beacon",
		CaseName:      "Jane Doe",
		RequesterName: "Robin Vale",
		Role:          "advocate",
		RequestsURL:   "https://app.beaconsites.org/cases/case_1/access-requests",
	})
	if err != nil {
		t.Fatalf("renderTemplate: %v", err)
	}
	for _, want := range []string{"Robin Vale", "advocate", "access-requests"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered access request email missing %q", want)
		}
	}
}
