package model

import "testing"

func TestIsValidStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusNew, true},
		{StatusContacted, true},
		{StatusInterested, true},
		{StatusEnrolled, true},
		{StatusRejected, true},
		{"", false},
		{"New", false},
		{"archived", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := IsValidStatus(tt.status); got != tt.want {
				t.Errorf("IsValidStatus(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	if !IsValidRole(RoleAdmin) || !IsValidRole(RoleStaff) {
		t.Error("expected admin and staff to be valid roles")
	}
	if IsValidRole("editor") {
		t.Error("editor should not be a valid role")
	}
	if IsValidRole("") {
		t.Error("empty role should not be valid")
	}
}

func TestValidStatusesOrder(t *testing.T) {
	statuses := ValidStatuses()
	if len(statuses) != 5 {
		t.Fatalf("expected 5 statuses, got %d", len(statuses))
	}
	if statuses[0] != StatusNew {
		t.Errorf("first status = %q, want %q", statuses[0], StatusNew)
	}
	if statuses[3] != StatusEnrolled {
		t.Errorf("fourth status = %q, want %q", statuses[3], StatusEnrolled)
	}
}
