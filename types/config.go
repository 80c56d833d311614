package types

type OutputStyle int

const (
	StyleHuman OutputStyle = iota
	StyleHumanVerbose
	StyleMachineJSON
)

// AssignmentConfig is the parsed form of assignment.yml, the file that
// describes one assignment sheet: its due date, the template repository
// used to restore non-submission files, and the task folders to grade.
type AssignmentConfig struct {
	Assignment struct {
		Name               string   `yaml:"name"`
		DueDate            string   `yaml:"due_date"`
		TemplateRepository string   `yaml:"template_repository"`
		Tasks              []string `yaml:"tasks"`
	} `yaml:"assignment"`

	Config struct {
		Concurrency int       `yaml:"concurrency"`
		Toolchain   Toolchain `yaml:"toolchain,omitempty"`
	} `yaml:"config"`
}

// Toolchain selects the Java runtime the grading run is provisioned with.
type Toolchain struct {
	Version      string `yaml:"version,omitempty"`
	Distribution string `yaml:"distribution,omitempty"`
}

const (
	DefaultToolchainVersion      = "17"
	DefaultToolchainDistribution = "temurin"
)

// Resolve fills in the defaults for unset toolchain fields.
func (t Toolchain) Resolve() Toolchain {
	if t.Version == "" {
		t.Version = DefaultToolchainVersion
	}
	if t.Distribution == "" {
		t.Distribution = DefaultToolchainDistribution
	}
	return t
}

// TaskConfig is the parsed form of a task folder's task.yml.
type TaskConfig struct {
	Task struct {
		Name      string   `yaml:"name,omitempty"`
		Metrics   []string `yaml:"metrics"`
		DependsOn []string `yaml:"depends_on,omitempty"`
	} `yaml:"task"`

	// Scoring maps a metric name to its point budget. Metrics without an
	// entry contribute zero points but still have to pass.
	Scoring map[string]ScoringSpec `yaml:"scoring,omitempty"`
}

type ScoringSpec struct {
	MaxPoints float64 `yaml:"max_points"`
}

// MetricResult is the YAML document a metric run leaves in
// <task>/build/results/<metric>.yml for the evaluator to pick up.
type MetricResult struct {
	Metric    string   `yaml:"metric"`
	Points    float64  `yaml:"points"`
	MaxPoints float64  `yaml:"max_points"`
	Details   []string `yaml:"details,omitempty"`
}

// Initiator stores information about who initiated a workflow - whether
// it's a user, service account, or part of a CI pipeline
type Initiator struct {
	Type   string `json:"type"` // "user", "system", "ci"
	Id     string `json:"id"`
	Tenant string `json:"tenant"`
}
