package db

import (
	"testing"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

func TestEncodeCitations_Nil(t *testing.T) {
	got, err := encodeCitations(nil)
	if err != nil {
		t.Fatalf("encodeCitations() error = %v", err)
	}

	if string(got) != "[]" {
		t.Fatalf("encodeCitations(nil) = %s, want []", got)
	}
}

func TestDecodeCitations_KeepsVerification(t *testing.T) {
	payload := []byte(`[{"pmid":"123","title":"T","authors":"A","journal":"J","year":2020,"summary":"S","studyType":"rct","verified":true}]`)

	got, err := decodeCitations(payload)
	if err != nil {
		t.Fatalf("decodeCitations() error = %v", err)
	}

	if len(got) != 1 || got[0].PMID != "123" || !got[0].Verified || got[0].StudyType != domain.StudyTypeRCT {
		t.Fatalf("decodeCitations() = %+v", got)
	}
}

func TestDecodeCitations_Invalid(t *testing.T) {
	if _, err := decodeCitations([]byte(`{"pmid":1}`)); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}
