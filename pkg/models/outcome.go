package models

import "strings"

// Outcome is the common view of a per-source ingestion result used by the composite fold.
type Outcome interface {
	Label() string
	Succeeded() bool
	Summary() string
}

// GitHubOutcome is the result of one GitHub ingestion.
type GitHubOutcome struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	ReposProcessed int      `json:"repos_processed"`
	RepoNames      []string `json:"repo_names"`
}

func (o *GitHubOutcome) Label() string   { return "GitHub" }
func (o *GitHubOutcome) Succeeded() bool { return o.Success }
func (o *GitHubOutcome) Summary() string { return o.Message }

// LeetCodeOutcome is the result of one LeetCode ingestion.
type LeetCodeOutcome struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ProblemsSolved int    `json:"problems_solved"`
}

func (o *LeetCodeOutcome) Label() string   { return "LeetCode" }
func (o *LeetCodeOutcome) Succeeded() bool { return o.Success }
func (o *LeetCodeOutcome) Summary() string { return o.Message }

// ResumeOutcome is the result of one résumé ingestion.
type ResumeOutcome struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	WordCount int    `json:"word_count"`
}

func (o *ResumeOutcome) Label() string   { return "Resume" }
func (o *ResumeOutcome) Succeeded() bool { return o.Success }
func (o *ResumeOutcome) Summary() string { return o.Message }

// LinkedInOutcome is the result of one LinkedIn job ingestion.
// On success Message carries the job content as Markdown.
type LinkedInOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (o *LinkedInOutcome) Label() string   { return "LinkedIn" }
func (o *LinkedInOutcome) Succeeded() bool { return o.Success }
func (o *LinkedInOutcome) Summary() string { return o.Message }

// CompositeOutcome is the folded result of IngestAll. Sources that were not
// requested are nil, not failed.
type CompositeOutcome struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	GitHub   *GitHubOutcome   `json:"github_result,omitempty"`
	LeetCode *LeetCodeOutcome `json:"leetcode_result,omitempty"`
	Resume   *ResumeOutcome   `json:"resume_result,omitempty"`
}

// CompositeSeparator joins per-source messages in a composite message.
const CompositeSeparator = " | "

// FoldOutcomes folds attempted outcomes, in the order given, into
// (AND of successes, "Label: message" parts joined by CompositeSeparator).
// Nil outcomes are skipped. An empty fold is (true, "").
func FoldOutcomes(outcomes ...Outcome) (bool, string) {
	success := true
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		success = success && o.Succeeded()
		parts = append(parts, o.Label()+": "+o.Summary())
	}
	return success, strings.Join(parts, CompositeSeparator)
}

// NewCompositeOutcome folds the three composite branches in the fixed order
// GitHub, LeetCode, Resume.
func NewCompositeOutcome(gh *GitHubOutcome, lc *LeetCodeOutcome, rs *ResumeOutcome) *CompositeOutcome {
	attempted := make([]Outcome, 0, 3)
	if gh != nil {
		attempted = append(attempted, gh)
	}
	if lc != nil {
		attempted = append(attempted, lc)
	}
	if rs != nil {
		attempted = append(attempted, rs)
	}

	success, message := FoldOutcomes(attempted...)
	return &CompositeOutcome{
		Success:  success,
		Message:  message,
		GitHub:   gh,
		LeetCode: lc,
		Resume:   rs,
	}
}
