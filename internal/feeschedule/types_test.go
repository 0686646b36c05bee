package feeschedule

import (
	"testing"

	"github.com/google/uuid"
)

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }
func bptr(v bool) *bool       { return &v }

func TestToStageRow(t *testing.T) {
	batch := uuid.New()
	row := &Row{
		PayerName:         "  Blue Cross  PPO ",
		Code:              " 97-110 ",
		InNetworkRate:     fptr(52.555),
		OutNetworkRate:    fptr(30),
		CoinsurancePct:    fptr(12.34),
		Copay:             fptr(25),
		DeductibleApplies: bptr(true),
		EffectiveDate:     sptr("2026-01-01"),
	}

	s, err := ToStageRow(row, batch, 7)
	if err != nil {
		t.Fatalf("ToStageRow: %v", err)
	}
	if s.IngestBatchID != batch || s.SourceRowNumber != 7 {
		t.Errorf("batch/row = %v/%d", s.IngestBatchID, s.SourceRowNumber)
	}
	if s.Payer != "blue cross ppo" {
		t.Errorf("Payer = %q", s.Payer)
	}
	if s.Code != "97110" {
		t.Errorf("Code = %q", s.Code)
	}
	if s.PayerDisplay == nil || *s.PayerDisplay != row.PayerName {
		t.Errorf("PayerDisplay = %v", s.PayerDisplay)
	}
	if s.InNetworkCents == nil || *s.InNetworkCents != 5256 {
		t.Errorf("InNetworkCents = %v, want 5256", s.InNetworkCents)
	}
	if s.OutNetworkCents == nil || *s.OutNetworkCents != 3000 {
		t.Errorf("OutNetworkCents = %v, want 3000", s.OutNetworkCents)
	}
	if s.CoinsuranceBPS == nil || *s.CoinsuranceBPS != 1234 {
		t.Errorf("CoinsuranceBPS = %v, want 1234", s.CoinsuranceBPS)
	}
	if s.CopayCents == nil || *s.CopayCents != 2500 {
		t.Errorf("CopayCents = %v, want 2500", s.CopayCents)
	}
	if !s.DeductibleApplies {
		t.Error("DeductibleApplies not carried")
	}
	if s.EffectiveDate == nil {
		t.Error("EffectiveDate not parsed")
	}
}

func TestToStageRow_Rejections(t *testing.T) {
	batch := uuid.New()
	if _, err := ToStageRow(&Row{PayerName: "", Code: "97110"}, batch, 1); err == nil {
		t.Error("empty payer must be rejected")
	}
	if _, err := ToStageRow(&Row{PayerName: "Aetna", Code: " - "}, batch, 2); err == nil {
		t.Error("code with no alphanumerics must be rejected")
	}
}

func TestToStageRow_NullableFieldsStayNil(t *testing.T) {
	s, err := ToStageRow(&Row{PayerName: "Aetna", Code: "97110"}, uuid.New(), 1)
	if err != nil {
		t.Fatalf("ToStageRow: %v", err)
	}
	if s.InNetworkCents != nil || s.OutNetworkCents != nil ||
		s.CoinsuranceBPS != nil || s.CopayCents != nil || s.EffectiveDate != nil {
		t.Errorf("nullable fields should stay nil: %+v", s)
	}
	if s.DeductibleApplies {
		t.Error("DeductibleApplies defaults to false")
	}
}
