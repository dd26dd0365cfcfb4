package domain

// Contact is one suggested outreach recipient. Generated contacts are
// fictional but plausible for the company and role.
type Contact struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// CompanyInfo is the slice of match data the outreach generator needs.
type CompanyInfo struct {
	CompanyName        string `json:"company_name"`
	CompanyDescription string `json:"company_description"`
	Industry           string `json:"industry"`
}

// OutreachPackage bundles everything needed to contact one company:
// suggested recipients plus a tailored cover letter.
type OutreachPackage struct {
	CompanyName string    `json:"company_name"`
	Contacts    []Contact `json:"contacts"`
	CoverLetter string    `json:"cover_letter"`
}
