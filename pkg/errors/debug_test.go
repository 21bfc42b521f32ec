package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpExtractsPgxFields(t *testing.T) {
	driverErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "uq_group_participant_active",
		TableName:      "group_booking_participants",
		Detail:         "Key (group_booking_request_id, user_id) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("adding participant: %w", driverErr), "adding participant")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected code %s, got %s", CodeConflict, d.Code)
	}
	if d.PGCode != "23505" {
		t.Fatalf("expected SQLSTATE 23505, got %q", d.PGCode)
	}
	if d.PGConstraint != "uq_group_participant_active" {
		t.Fatalf("unexpected constraint %q", d.PGConstraint)
	}
	if d.PGTable != "group_booking_participants" {
		t.Fatalf("unexpected table %q", d.PGTable)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected the unwrap chain to be recorded, got %v", d.Chain)
	}
}

func TestDumpExtractsPqFields(t *testing.T) {
	driverErr := &pq.Error{
		Code:       pq.ErrorCode("23505"),
		Constraint: "uq_group_booking_invite_code",
		Table:      "group_booking_requests",
		Message:    "duplicate key value violates unique constraint",
	}
	d := Dump(fmt.Errorf("creating request: %w", driverErr))

	if d.PGCode != "23505" {
		t.Fatalf("expected SQLSTATE 23505, got %q", d.PGCode)
	}
	if d.PGConstraint != "uq_group_booking_invite_code" {
		t.Fatalf("unexpected constraint %q", d.PGConstraint)
	}
}

func TestDumpNilAndPlainErrors(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected zero dump for nil error, got %+v", d)
	}

	d := Dump(New(CodeNotFound, "group booking request not found"))
	if d.Code != CodeNotFound {
		t.Fatalf("expected code %s, got %s", CodeNotFound, d.Code)
	}
	if d.PGCode != "" {
		t.Fatalf("expected no driver fields on a plain error, got %q", d.PGCode)
	}
}
