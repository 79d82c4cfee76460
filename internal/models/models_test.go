package models

import "testing"

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleResponder, RoleReporter} {
		if !role.Valid() {
			t.Fatalf("expected %q to be valid", role)
		}
	}
	if Role("dispatcher").Valid() {
		t.Fatal("expected unknown role to be invalid")
	}
}

func TestIncidentStatusValid(t *testing.T) {
	for _, status := range []IncidentStatus{StatusReported, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed} {
		if !status.Valid() {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	if IncidentStatus("archived").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestIncidentStatusActive(t *testing.T) {
	active := []IncidentStatus{StatusReported, StatusAssigned, StatusInProgress}
	for _, status := range active {
		if !status.Active() {
			t.Fatalf("expected %q to be active", status)
		}
	}
	for _, status := range []IncidentStatus{StatusResolved, StatusClosed} {
		if status.Active() {
			t.Fatalf("expected %q to be inactive", status)
		}
	}
}

func TestIncidentSeverityValid(t *testing.T) {
	for _, severity := range []IncidentSeverity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if !severity.Valid() {
			t.Fatalf("expected %q to be valid", severity)
		}
	}
	if IncidentSeverity("urgent").Valid() {
		t.Fatal("expected unknown severity to be invalid")
	}
}

func TestNotificationTypeValid(t *testing.T) {
	if !NotificationIncidentCreated.Valid() || !NotificationMessage.Valid() {
		t.Fatal("expected known notification types to be valid")
	}
	if NotificationType("digest").Valid() {
		t.Fatal("expected unknown notification type to be invalid")
	}
}
