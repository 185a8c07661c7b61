// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Lead status values describing a lead's pipeline stage. The status is a
// flat tag: any value may be set from any other value.
const (
	StatusNew        = "new"
	StatusContacted  = "contacted"
	StatusInterested = "interested"
	StatusEnrolled   = "enrolled"
	StatusRejected   = "rejected"
)

// SourceWebsite is the default source recorded for leads created via the
// public intake form.
const SourceWebsite = "website"

// ValidStatuses returns all valid lead statuses in pipeline order.
func ValidStatuses() []string {
	return []string{
		StatusNew,
		StatusContacted,
		StatusInterested,
		StatusEnrolled,
		StatusRejected,
	}
}

// IsValidStatus checks if a lead status is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Courses lists the course options offered on the intake form. Course is
// stored as free text; this list only drives the UI selects.
func Courses() []string {
	return []string{
		"Web Development",
		"Data Science",
		"Digital Marketing",
		"UI/UX Design",
	}
}
