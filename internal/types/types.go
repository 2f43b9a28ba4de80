package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Language is a supported output language code
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

// Strategy selects how a slot's role or content is produced
type Strategy string

const (
	StrategyDirect   Strategy = "direct"
	StrategyEnhanced Strategy = "enhanced"
)

// RemotePolicy values extracted from job postings
const (
	RemotePolicyRemote       = "remote"
	RemotePolicyHybrid       = "hybrid"
	RemotePolicyOnSite       = "on-site"
	RemotePolicyNotSpecified = "not_specified"
)

// JobLocation is the location block of a structured job
type JobLocation struct {
	City         string `json:"city"`
	RemotePolicy string `json:"remote_policy"`
}

// TechnicalPriorities categorizes a job's technical skills by importance
type TechnicalPriorities struct {
	MustHave  []string `json:"must_have"`
	Preferred []string `json:"preferred"`
}

// StructuredJob is the requirement object extracted from raw job text.
// Produced once per request and immutable thereafter.
type StructuredJob struct {
	Title               string              `json:"title"`
	Company             string              `json:"company"`
	Location            JobLocation         `json:"location"`
	RequiredSkills      []string            `json:"required_skills"`
	Keywords            []string            `json:"keywords"`
	SoftSkills          []string            `json:"soft_skills"`
	Responsibilities    []string            `json:"responsibilities"`
	TechnicalPriorities TechnicalPriorities `json:"technical_priorities"`
	ActionVerbs         []string            `json:"action_verbs"`
	Language            Language            `json:"language"`
}

// LocalizedText is a string that may carry per-language variants.
// It unmarshals from either a plain JSON string or an object like
// {"en": "...", "fr": "..."}.
type LocalizedText struct {
	Values map[Language]string
	Plain  string
}

func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(data, &t.Values)
	}
	return json.Unmarshal(data, &t.Plain)
}

func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if t.Values != nil {
		return json.Marshal(t.Values)
	}
	return json.Marshal(t.Plain)
}

// Resolve returns the variant for lang, falling back to any available
// variant and finally to the plain string.
func (t LocalizedText) Resolve(lang Language) string {
	if v, ok := t.Values[lang]; ok {
		return v
	}
	for _, v := range t.Values {
		return v
	}
	return t.Plain
}

// ProjectRecord describes one project from the user's database.
// Read-only during request processing.
type ProjectRecord struct {
	Name           string        `json:"name"`
	Company        string        `json:"company"`
	StartDate      string        `json:"start_date"`
	EndDate        string        `json:"end_date"`
	Location       LocalizedText `json:"location"`
	Context        string        `json:"context"`
	Technologies   []string      `json:"technologies"`
	Bullets        []string      `json:"bullets"`
	AvailableRoles []string      `json:"available_roles"`
	Priority       float64       `json:"priority"`
}

// ProjectDatabase preserves the insertion order of the user's projects;
// slot candidate indexes refer to that order.
type ProjectDatabase struct {
	Names   []string
	Records map[string]ProjectRecord
}

func (db *ProjectDatabase) UnmarshalJSON(data []byte) error {
	db.Names = nil
	db.Records = make(map[string]ProjectRecord)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("projects_database must be a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("projects_database key must be a string")
		}

		var record ProjectRecord
		if err := dec.Decode(&record); err != nil {
			return fmt.Errorf("project %q: %w", name, err)
		}
		record.Name = name

		db.Names = append(db.Names, name)
		db.Records[name] = record
	}
	return nil
}

func (db ProjectDatabase) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range db.Names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(db.Records[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Len returns the number of projects in the database
func (db ProjectDatabase) Len() int {
	return len(db.Names)
}

// SkillRecord carries the ranking signals for one technical skill
type SkillRecord struct {
	Category string `json:"category"`
	Order    int    `json:"order"`
}

// SkillsDatabase is the user's technical skill inventory
type SkillsDatabase struct {
	Skills          map[string]SkillRecord `json:"skills"`
	EssentialSkills []string               `json:"essential_skills"`
}

// ExperienceSlotConfig declares one output experience slot. Candidate
// indexes are kept as json.Number so fractional values can be rejected
// instead of silently truncated.
type ExperienceSlotConfig struct {
	CandidateProjects []json.Number `json:"candidate_projects"`
	RoleStrategy      Strategy      `json:"role_strategy"`
	ContentStrategy   Strategy      `json:"content_strategy"`
}

// PersonalInfo is the user's identity block
type PersonalInfo struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Degree string `json:"degree"`
	Gender string `json:"gender,omitempty"`
}

// EducationRecord is one education entry, localized where the source is
type EducationRecord struct {
	Degree      LocalizedText `json:"degree"`
	Institution string        `json:"institution"`
	Location    LocalizedText `json:"location"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date"`
	Description LocalizedText `json:"description"`
}

// LanguageSkill is one spoken-language entry
type LanguageSkill struct {
	Language    LocalizedText `json:"language"`
	Proficiency LocalizedText `json:"proficiency"`
}

// UserProfile is the full user-supplied profile for one request
type UserProfile struct {
	Personal          PersonalInfo           `json:"personal"`
	Contact           map[string]string      `json:"contact"`
	ProjectsDatabase  ProjectDatabase        `json:"projects_database"`
	SkillsDatabase    SkillsDatabase         `json:"skills_database"`
	ExperiencesConfig []ExperienceSlotConfig `json:"experiences_config"`
	Education         []EducationRecord      `json:"education"`
	Languages         []LanguageSkill        `json:"languages"`
	Certifications    []map[string]string    `json:"certifications,omitempty"`
}

// ModelParams are the per-stage generation overrides a request may carry.
// Nil fields fall back to server defaults.
type ModelParams struct {
	Model       *string  `json:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

// BulletAdaptationParams control bullet generation limits
type BulletAdaptationParams struct {
	BulletsPerExperience *int `json:"bullets_per_experience,omitempty"`
	MaxBulletLength      *int `json:"max_bullet_length,omitempty"`
}

// SkillsGenerationParams control the skills section size
type SkillsGenerationParams struct {
	TargetTechnicalSkills *int `json:"target_technical_skills,omitempty"`
	NumSoftSkills         *int `json:"num_soft_skills,omitempty"`
}

// EnhancingParams groups the enhancement-stage overrides
type EnhancingParams struct {
	Coordinator       ModelParams            `json:"coordinator"`
	BulletCoordinator ModelParams            `json:"bullet_coordinator"`
	BulletAdaptation  BulletAdaptationParams `json:"bullet_adaptation"`
	SkillsGeneration  SkillsGenerationParams `json:"skills_generation"`
	ProfileGeneration ModelParams            `json:"profile_generation"`
	CoverLetter       ModelParams            `json:"cover_letter"`
}

// RequestConfig is the per-request configuration object. Unknown keys are
// ignored; recognized keys override the server defaults for this request.
type RequestConfig struct {
	OpenAI struct {
		DefaultModel *string `json:"default_model,omitempty"`
	} `json:"openai"`
	Structuring ModelParams     `json:"structuring"`
	Enhancing   EnhancingParams `json:"enhancing"`
}

// ProcessRequest is the inbound payload for the full pipeline
type ProcessRequest struct {
	JobText     string        `json:"job_text"`
	UserProfile UserProfile   `json:"user_profile"`
	Config      RequestConfig `json:"config"`
}

// StructureRequest is the inbound payload for job structuring alone
type StructureRequest struct {
	JobText string  `json:"job_text"`
	Model   *string `json:"model,omitempty"`
}

// ExperienceResult is one finalized output experience. Order in the
// resume always matches slot order.
type ExperienceResult struct {
	Role      string   `json:"role"`
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Bullets   []string `json:"bullets"`
	Context   string   `json:"context"`
	IsDirect  bool     `json:"is_direct"`
	ATSScore  float64  `json:"ats_score"`
}

// SkillsSection holds the final technical and soft skill lists
type SkillsSection struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

// Resume is the assembled resume document
type Resume struct {
	Personal       PersonalInfo        `json:"personal"`
	Contact        map[string]string   `json:"contact"`
	Profile        string              `json:"profile"`
	Experience     []ExperienceResult  `json:"experience"`
	Skills         SkillsSection       `json:"skills"`
	Education      []EducationRecord   `json:"education"`
	Languages      []LanguageSkill     `json:"languages"`
	Certifications []map[string]string `json:"certifications,omitempty"`
}

// ExperienceStats summarizes how slots were filled
type ExperienceStats struct {
	Total        int      `json:"total"`
	Enhanced     int      `json:"enhanced"`
	Direct       int      `json:"direct"`
	ProjectsUsed []string `json:"projects_used"`
}

// TimingBreakdown records per-stage wall-clock seconds
type TimingBreakdown struct {
	Structuring float64 `json:"structuring"`
	Coordinator float64 `json:"coordinator"`
	Enhancement float64 `json:"enhancement"`
	CoverLetter float64 `json:"cover_letter"`
	Assembly    float64 `json:"assembly"`
}

// ProcessMetadata accompanies every successful pipeline run
type ProcessMetadata struct {
	ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	TimingBreakdown       TimingBreakdown `json:"timing_breakdown"`
	Language              Language        `json:"language"`
	Experiences           ExperienceStats `json:"experiences"`
	AverageATSScore       float64         `json:"average_ats_score"`
	CoverLetterWordCount  int             `json:"cover_letter_word_count"`
}

// ProcessResult is the outbound payload for the full pipeline
type ProcessResult struct {
	Success       bool            `json:"success"`
	StructuredJob *StructuredJob  `json:"structured_job,omitempty"`
	Resume        *Resume         `json:"resume,omitempty"`
	CoverLetter   string          `json:"cover_letter,omitempty"`
	Metadata      ProcessMetadata `json:"metadata"`
}
