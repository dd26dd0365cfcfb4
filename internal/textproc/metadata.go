package textproc

import "strings"

// BuildMetadata derives indexable metadata from the processed document.
// Entity lists are flattened to comma-separated strings so every value is
// scalar (string, int or bool).
func BuildMetadata(text string, sentenceCount int, sections map[string]string, entities Entities) map[string]any {
	present := make([]string, 0, len(SectionNames))
	for _, name := range SectionNames {
		if sections[name] != "" {
			present = append(present, name)
		}
	}

	return map[string]any{
		"word_count":              len(strings.Fields(text)),
		"sentence_count":          sentenceCount,
		"has_technical_info":      sections[SectionTechnicalInfo] != "",
		"has_funding_info":        sections[SectionFundingInfo] != "",
		"mentioned_organizations": strings.Join(entities.Organizations, ","),
		"mentioned_people":        strings.Join(entities.People, ","),
		"mentioned_locations":     strings.Join(entities.Locations, ","),
		"section_present":         strings.Join(present, ","),
		"extracted_amounts":       strings.Join(entities.Amounts, ","),
		"company_description":     sections[SectionCompanyDescription],
		"product_details":         sections[SectionProductDetails],
		"technical_info":          sections[SectionTechnicalInfo],
		"team_info":               sections[SectionTeamInfo],
		"funding_info":            sections[SectionFundingInfo],
	}
}
