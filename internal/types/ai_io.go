package types

// StructureJobInput represents the input for structuring raw job text
type StructureJobInput struct {
	JobText  string   `json:"jobText"`
	Language Language `json:"language"`
}

// EnhanceRoleInput represents the input for rewriting a slot's role title
type EnhanceRoleInput struct {
	CurrentRole    string   `json:"currentRole"`
	AvailableRoles []string `json:"availableRoles"`
	ProjectContext string   `json:"projectContext"`
	Technologies   []string `json:"technologies"`
	JobTitle       string   `json:"jobTitle"`
	JobKeywords    []string `json:"jobKeywords"`
	Language       Language `json:"language"`
}

// EnhanceRoleOutput represents the rewritten role title
type EnhanceRoleOutput struct {
	Role string `json:"role"`
}

// EnhanceBulletsInput represents the input for rewriting a slot's bullets
type EnhanceBulletsInput struct {
	Bullets          []string `json:"bullets"`
	ProjectContext   string   `json:"projectContext"`
	Technologies     []string `json:"technologies"`
	JobKeywords      []string `json:"jobKeywords"`
	ActionVerbs      []string `json:"actionVerbs"`
	Responsibilities []string `json:"responsibilities"`
	NumBullets       int      `json:"numBullets"`
	MaxLength        int      `json:"maxLength"`
	Language         Language `json:"language"`
}

// EnhanceBulletsOutput represents the rewritten bullet list
type EnhanceBulletsOutput struct {
	Bullets []string `json:"bullets"`
}

// GenerateProfileInput represents the input for the profile summary paragraph
type GenerateProfileInput struct {
	Title        string   `json:"title"`
	Degree       string   `json:"degree"`
	Roles        []string `json:"roles"`
	Technologies []string `json:"technologies"`
	JobTitle     string   `json:"jobTitle"`
	JobKeywords  []string `json:"jobKeywords"`
	Language     Language `json:"language"`
}

// GenerateProfileOutput represents the generated profile paragraph
type GenerateProfileOutput struct {
	Profile string `json:"profile"`
}

// GenerateSoftSkillsInput represents the input for soft skill generation
type GenerateSoftSkillsInput struct {
	JobSoftSkills    []string `json:"jobSoftSkills"`
	Responsibilities []string `json:"responsibilities"`
	Count            int      `json:"count"`
	Language         Language `json:"language"`
}

// GenerateSoftSkillsOutput represents the generated soft skill list
type GenerateSoftSkillsOutput struct {
	SoftSkills []string `json:"soft_skills"`
}

// GenerateCoverLetterInput represents the input for cover letter generation
type GenerateCoverLetterInput struct {
	CandidateName string   `json:"candidateName"`
	JobTitle      string   `json:"jobTitle"`
	Company       string   `json:"company"`
	Profile       string   `json:"profile"`
	Experiences   []string `json:"experiences"`
	Skills        []string `json:"skills"`
	Language      Language `json:"language"`
}

// GenerateCoverLetterOutput represents the generated cover letter
type GenerateCoverLetterOutput struct {
	CoverLetter string `json:"cover_letter"`
}
