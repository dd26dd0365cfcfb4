package textproc

import (
	"testing"
)

func TestBuildMetadata(t *testing.T) {
	sections := map[string]string{
		SectionCompanyDescription: "Acme was founded in Berlin.",
		SectionFundingInfo:        "They raised 5 million.",
	}
	entities := Entities{
		Organizations: []string{"Acme Labs", "Orbital Systems"},
		People:        []string{"Jordan Smith"},
		Locations:     []string{"Berlin"},
		Amounts:       []string{"5 million"},
	}

	md := BuildMetadata("Acme was founded in Berlin. They raised 5 million.", 2, sections, entities)

	if md["word_count"] != 9 {
		t.Errorf("word_count = %v, want 9", md["word_count"])
	}
	if md["sentence_count"] != 2 {
		t.Errorf("sentence_count = %v, want 2", md["sentence_count"])
	}
	if md["has_funding_info"] != true {
		t.Error("expected has_funding_info true")
	}
	if md["has_technical_info"] != false {
		t.Error("expected has_technical_info false")
	}
	if md["mentioned_organizations"] != "Acme Labs,Orbital Systems" {
		t.Errorf("mentioned_organizations = %v", md["mentioned_organizations"])
	}
	if md["mentioned_people"] != "Jordan Smith" {
		t.Errorf("mentioned_people = %v", md["mentioned_people"])
	}
	if md["extracted_amounts"] != "5 million" {
		t.Errorf("extracted_amounts = %v", md["extracted_amounts"])
	}
	if md["section_present"] != "company_description,funding_info" {
		t.Errorf("section_present = %v", md["section_present"])
	}
	if md["funding_info"] != "They raised 5 million." {
		t.Errorf("funding_info = %v", md["funding_info"])
	}
	if md["technical_info"] != "" {
		t.Errorf("technical_info = %v", md["technical_info"])
	}
}

func TestBuildMetadata_EmptyEntities(t *testing.T) {
	md := BuildMetadata("short text", 1, map[string]string{}, Entities{})

	if md["mentioned_organizations"] != "" {
		t.Errorf("expected empty string, got %v", md["mentioned_organizations"])
	}
	if md["section_present"] != "" {
		t.Errorf("expected empty string, got %v", md["section_present"])
	}
	if md["word_count"] != 2 {
		t.Errorf("word_count = %v, want 2", md["word_count"])
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor()

	raw := "<p>Acme Labs was founded in 2022.</p>" +
		"<p>The startup raised 25 million in seed funding led by Orbital Ventures.</p>" +
		"<p>For more information visit https://acme.example</p>"

	res, err := p.Process(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.CleanText == "" {
		t.Fatal("expected non-empty clean text")
	}
	if _, ok := res.Sections[SectionFundingInfo]; !ok {
		t.Error("expected funding_info section")
	}
	if !contains(res.Entities.Organizations, "Acme Labs") {
		t.Errorf("expected Acme Labs in organizations, got %v", res.Entities.Organizations)
	}
	if res.Metadata["has_funding_info"] != true {
		t.Error("expected has_funding_info true")
	}
	wc, ok := res.Metadata["word_count"].(int)
	if !ok || wc == 0 {
		t.Errorf("unexpected word_count: %v", res.Metadata["word_count"])
	}
}
