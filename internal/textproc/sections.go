package textproc

import "strings"

// Section names, in the order they are reported in section_present.
const (
	SectionCompanyDescription = "company_description"
	SectionProductDetails     = "product_details"
	SectionTechnicalInfo      = "technical_info"
	SectionTeamInfo           = "team_info"
	SectionFundingInfo        = "funding_info"
)

// SectionNames lists all known sections in canonical order.
var SectionNames = []string{
	SectionCompanyDescription,
	SectionProductDetails,
	SectionTechnicalInfo,
	SectionTeamInfo,
	SectionFundingInfo,
}

var sectionKeywords = map[string][]string{
	SectionCompanyDescription: {
		"about", "company", "startup", "founded", "headquarters",
		"based", "mission", "vision",
	},
	SectionProductDetails: {
		"product", "platform", "solution", "technology", "features",
		"capabilities", "launches", "introducing",
	},
	SectionTechnicalInfo: {
		"technical", "technology", "stack", "architecture", "built with",
		"powered by", "infrastructure", "ai", "ml", "algorithm",
	},
	SectionTeamInfo: {
		"founder", "ceo", "team", "leadership", "executive",
		"previously worked", "background",
	},
	SectionFundingInfo: {
		"funding", "raised", "investment", "investors", "round",
		"seed", "series", "led by", "participated",
	},
}

// ExtractSections collects sentences relevant to each section. A sentence
// matches when its lowercased text contains any section keyword (keywords
// are stored lowercased, so matching is case-insensitive); the
// following sentence is pulled in as context. A sentence matching several
// keywords is appended once per match, duplicates included.
func ExtractSections(sentences []string) map[string]string {
	sections := make(map[string]string)

	for _, name := range SectionNames {
		keywords := sectionKeywords[name]
		var relevant []string

		for i, sent := range sentences {
			lower := strings.ToLower(sent)
			if !containsAny(lower, keywords) {
				continue
			}
			relevant = append(relevant, sent)
			if i+1 < len(sentences) {
				relevant = append(relevant, sentences[i+1])
			}
		}

		if len(relevant) > 0 {
			sections[name] = strings.TrimSpace(strings.Join(relevant, " "))
		}
	}

	return sections
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
