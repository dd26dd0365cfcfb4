// Package outreach drafts contact suggestions and a cover letter for a
// matched company.
package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/candidex/candidex/internal/domain"
	"github.com/candidex/candidex/internal/judge"
)

const (
	contactsSystemPrompt = "You are an expert at generating realistic but fictional business contacts."
	letterSystemPrompt   = "You are an expert at writing compelling cover letters."
)

// Generator produces a completion for a system+user prompt pair.
type Generator interface {
	GenerateContent(ctx context.Context, system, user string) (string, error)
}

// Service generates outreach packages.
type Service struct {
	generator Generator
	logger    *zap.Logger
}

// New creates an outreach service.
func New(generator Generator, logger *zap.Logger) *Service {
	return &Service{generator: generator, logger: logger}
}

// GeneratePackage builds the full outreach package for one company:
// two suggested contacts plus a tailored cover letter. Contact generation
// degrades to deterministic placeholders when the model misbehaves; a
// failed cover letter fails the request.
func (s *Service) GeneratePackage(
	ctx context.Context, resumeText string, info domain.CompanyInfo, rolePreference string,
) (domain.OutreachPackage, error) {
	contacts := s.generateContacts(ctx, info, rolePreference)

	coverLetter, err := s.generateCoverLetter(ctx, resumeText, info, rolePreference)
	if err != nil {
		return domain.OutreachPackage{}, err
	}

	return domain.OutreachPackage{
		CompanyName: info.CompanyName,
		Contacts:    contacts,
		CoverLetter: coverLetter,
	}, nil
}

func (s *Service) generateContacts(ctx context.Context, info domain.CompanyInfo, rolePreference string) []domain.Contact {
	prompt := buildContactsPrompt(info, rolePreference)

	raw, err := s.generator.GenerateContent(ctx, contactsSystemPrompt, prompt)
	if err != nil {
		s.logger.Warn("contact generation failed, using fallback contacts",
			zap.String("company", info.CompanyName),
			zap.Error(err),
		)
		return fallbackContacts(info.CompanyName)
	}

	var contacts []domain.Contact
	if err := json.Unmarshal([]byte(judge.ExtractJSON(raw)), &contacts); err != nil || len(contacts) == 0 {
		s.logger.Warn("contact response unparseable, using fallback contacts",
			zap.String("company", info.CompanyName),
		)
		return fallbackContacts(info.CompanyName)
	}
	return contacts
}

func (s *Service) generateCoverLetter(
	ctx context.Context, resumeText string, info domain.CompanyInfo, rolePreference string,
) (string, error) {
	prompt := buildCoverLetterPrompt(resumeText, info, rolePreference)

	letter, err := s.generator.GenerateContent(ctx, letterSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generate cover letter: %w", err)
	}
	return strings.TrimSpace(letter), nil
}

func buildContactsPrompt(info domain.CompanyInfo, rolePreference string) string {
	industry := info.Industry
	if industry == "" {
		industry = "Technology"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate 2 realistic but fictional contacts for this company:\n\n")
	fmt.Fprintf(&b, "Company Name: %s\n", info.CompanyName)
	fmt.Fprintf(&b, "Company Description: %s\n", info.CompanyDescription)
	fmt.Fprintf(&b, "Industry: %s\n", industry)
	fmt.Fprintf(&b, "Candidate's Target Role: %s\n\n", rolePreference)
	fmt.Fprintf(&b, "For each contact, provide:\n")
	fmt.Fprintf(&b, "1. A realistic full name\n")
	fmt.Fprintf(&b, "2. A relevant senior role that would be involved in hiring for %s\n", rolePreference)
	fmt.Fprintf(&b, "3. A fictional but realistic business email\n\n")
	fmt.Fprintf(&b, "Return ONLY a valid JSON array with 2 contacts, using this exact format:\n")
	fmt.Fprintf(&b, `[
    {
        "name": "Full Name",
        "role": "Job Title",
        "email": "business_email@company.com"
    },
    {
        "name": "Full Name",
        "role": "Job Title",
        "email": "business_email@company.com"
    }
]`)
	return b.String()
}

func buildCoverLetterPrompt(resumeText string, info domain.CompanyInfo, rolePreference string) string {
	industry := info.Industry
	if industry == "" {
		industry = "Technology"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a professional cover letter for a job application based on the following information.\n")
	fmt.Fprintf(&b, "Do not include the date or company address. Start directly with \"Dear Hiring Manager,\"\n\n")
	fmt.Fprintf(&b, "RESUME:\n%s\n\n", resumeText)
	fmt.Fprintf(&b, "COMPANY:\n%s\n%s\nIndustry: %s\n\n", info.CompanyName, info.CompanyDescription, industry)
	fmt.Fprintf(&b, "DESIRED ROLE:\n%s\n\n", rolePreference)
	fmt.Fprintf(&b, "Write a concise, compelling cover letter that:\n")
	fmt.Fprintf(&b, "1. Shows enthusiasm for the company and role\n")
	fmt.Fprintf(&b, "2. Highlights relevant experience from the resume\n")
	fmt.Fprintf(&b, "3. Demonstrates understanding of the company's business\n")
	fmt.Fprintf(&b, "4. Explains why you're a good fit\n")
	fmt.Fprintf(&b, "5. Ends with a professional closing\n\n")
	fmt.Fprintf(&b, "Keep the tone professional but conversational.")
	return b.String()
}

// fallbackContacts are deterministic placeholders used when generation
// fails. Emails are derived from the company name with spaces removed.
func fallbackContacts(companyName string) []domain.Contact {
	host := strings.ReplaceAll(strings.ToLower(companyName), " ", "")
	if host == "" {
		host = "company"
	}
	return []domain.Contact{
		{Name: "John Smith", Role: "Engineering Manager", Email: "jsmith@" + host + ".com"},
		{Name: "Sarah Johnson", Role: "Technical Recruiter", Email: "sjohnson@" + host + ".com"},
	}
}
