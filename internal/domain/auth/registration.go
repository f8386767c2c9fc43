package auth

import "strings"

// RegistrationProfile carries role-conditional profile fields collected at sign-up.
type RegistrationProfile struct {
	FullName string
	Phone    string
	Location string

	// Recruiter fields.
	CompanyName    string
	CompanyWebsite string
	JobTitle       string

	// Candidate fields.
	ExperienceLevel string
	Skills          []string
	Headline        string
}

// ExperienceYears maps an experience band to the years-of-experience value the
// identity service stores. Unknown bands count as entry level.
func ExperienceYears(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "mid":
		return 3
	case "senior":
		return 5
	default:
		return 1
	}
}

// Payload builds the profile object sent with POST /auth/register for the given role.
func (p RegistrationProfile) Payload(role Role) Attributes {
	out := Attributes{"role": string(role)}
	setIfPresent(out, "full_name", p.FullName)
	setIfPresent(out, "phone", p.Phone)
	setIfPresent(out, "location", p.Location)

	switch role {
	case RoleRecruiter:
		setIfPresent(out, "company_name", p.CompanyName)
		setIfPresent(out, "company_website", p.CompanyWebsite)
		setIfPresent(out, "job_title", p.JobTitle)
	case RoleCandidate:
		out["years_of_experience"] = ExperienceYears(p.ExperienceLevel)
		skills := make([]string, 0, len(p.Skills))
		for _, s := range p.Skills {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
		out["skills"] = skills
		setIfPresent(out, "headline", p.Headline)
	case RoleAdmin:
	}
	return out
}

func setIfPresent(a Attributes, key, val string) {
	if val = strings.TrimSpace(val); val != "" {
		a[key] = val
	}
}
