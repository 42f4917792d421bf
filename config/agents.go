package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentDef describes a language-model persona used to perform one task.
type AgentDef struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskDef describes one declarative unit of work given to an agent. Subject
// is only meaningful for tasks that produce an email.
type TaskDef struct {
	Agent          string `yaml:"agent"`
	Description    string `yaml:"description"`
	Subject        string `yaml:"subject"`
	ExpectedOutput string `yaml:"expected_output"`
}

// AgentsFile is the on-disk shape of the agent and task definitions.
type AgentsFile struct {
	Agents map[string]AgentDef `yaml:"agents"`
	Tasks  map[string]TaskDef  `yaml:"tasks"`
}

// Agent and task names referenced throughout the pipeline.
const (
	AgentSearchOrchestrator = "search_orchestrator"
	AgentContentFilter      = "content_filter"
	AgentContextResearcher  = "context_researcher"
	AgentSummaryComposer    = "summary_composer"
	AgentEmailDistributor   = "email_distributor"

	TaskSearchSingleMP   = "search_single_mp"
	TaskFilterContent    = "filter_content"
	TaskResearchContext  = "research_context"
	TaskComposeSummary   = "compose_summary"
	TaskDistributeReport = "distribute_report"
)

// LoadAgents reads agent and task definitions from a YAML file.
func LoadAgents(path string) (*AgentsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading agents file %s: %w", path, err)
	}
	var af AgentsFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("parsing agents file %s: %w", path, err)
	}
	if err := af.Validate(); err != nil {
		return nil, fmt.Errorf("agents file %s: %w", path, err)
	}
	return &af, nil
}

// Validate checks that every task references a defined agent and that the
// pipeline's required agents and tasks are present.
func (af *AgentsFile) Validate() error {
	required := []string{
		AgentSearchOrchestrator, AgentContentFilter, AgentContextResearcher,
		AgentSummaryComposer, AgentEmailDistributor,
	}
	for _, name := range required {
		if _, ok := af.Agents[name]; !ok {
			return fmt.Errorf("missing agent definition %q", name)
		}
	}
	requiredTasks := []string{
		TaskSearchSingleMP, TaskFilterContent, TaskResearchContext,
		TaskComposeSummary, TaskDistributeReport,
	}
	for _, name := range requiredTasks {
		task, ok := af.Tasks[name]
		if !ok {
			return fmt.Errorf("missing task definition %q", name)
		}
		if _, ok := af.Agents[task.Agent]; !ok {
			return fmt.Errorf("task %q references unknown agent %q", name, task.Agent)
		}
	}
	return nil
}

// Prompt renders a task into a system/user prompt pair. The agent definition
// becomes the system prompt; the task description, with {placeholder} inputs
// substituted, becomes the user prompt.
func (af *AgentsFile) Prompt(taskName string, inputs map[string]string) (system string, user string, err error) {
	task, ok := af.Tasks[taskName]
	if !ok {
		return "", "", fmt.Errorf("unknown task %q", taskName)
	}
	agent := af.Agents[task.Agent]

	var sb strings.Builder
	sb.WriteString("You are " + agent.Role + ".\n")
	if agent.Backstory != "" {
		sb.WriteString(agent.Backstory + "\n")
	}
	if agent.Goal != "" {
		sb.WriteString("Your goal: " + interpolate(agent.Goal, inputs) + "\n")
	}
	system = sb.String()

	user = interpolate(task.Description, inputs)
	if task.ExpectedOutput != "" {
		user += "\n\nExpected output:\n" + interpolate(task.ExpectedOutput, inputs)
	}
	return system, user, nil
}

// SubjectLine renders a task's subject template with {placeholder} inputs
// substituted. It errors when the task is unknown or carries no subject.
func (af *AgentsFile) SubjectLine(taskName string, inputs map[string]string) (string, error) {
	task, ok := af.Tasks[taskName]
	if !ok {
		return "", fmt.Errorf("unknown task %q", taskName)
	}
	if strings.TrimSpace(task.Subject) == "" {
		return "", fmt.Errorf("task %q has no subject", taskName)
	}
	return interpolate(task.Subject, inputs), nil
}

// interpolate replaces {key} placeholders with their input values.
func interpolate(s string, inputs map[string]string) string {
	for k, v := range inputs {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
