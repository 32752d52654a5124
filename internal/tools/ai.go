package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ghlink/ghlink/internal/ailink"
	"github.com/ghlink/ghlink/internal/core/gateway"
)

const (
	maxDiffChars  = 60000
	maxPullFiles  = 100
	reviewTokens  = 2000
	summaryTokens = 1500

	reviewTemperature  = 0.3
	summaryTemperature = 0.4
)

const codeReviewPrompt = `Please review the following code changes and provide a comprehensive code review.

Code Changes:
%s

Context:
%s

Provide feedback on:
1. Code quality and best practices
2. Potential bugs or issues
3. Performance considerations
4. Security concerns
5. Suggestions for improvement
6. Overall assessment and recommendation`

const prDescriptionPrompt = `Generate a professional pull request description for the following changes.

PR Changes:
%s

Please create:
1. Clear and concise title
2. Detailed description explaining the changes
3. List of files modified
4. Breaking changes section (if applicable)
5. Testing instructions
6. Checklist for reviewers`

const repositoryAnalysisPrompt = `Analyze the following repository and provide insights.

Repository Information:
%s

Please analyze:
1. Project structure and organization
2. Technology stack assessment
3. Development maturity
4. Potential improvements
5. Risk assessment
6. Recommendations`

type pullFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// pullDiff renders the changed files of a pull request as a unified diff,
// truncated to maxDiffChars.
func pullDiff(ctx context.Context, d Deps, args Args) (string, []pullFile, error) {
	endpoint, err := pullEndpoint(args)
	if err != nil {
		return "", nil, err
	}
	var files []pullFile
	opts := &gateway.CallOptions{Query: map[string][]string{"per_page": {fmt.Sprint(maxPullFiles)}}}
	if err := d.GitHub.Get(ctx, endpoint+"/files", opts, &files); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	for _, file := range files {
		fmt.Fprintf(&b, "--- %s (%s, +%d -%d)\n", file.Filename, file.Status, file.Additions, file.Deletions)
		if file.Patch != "" {
			b.WriteString(file.Patch)
			b.WriteByte('\n')
		}
		if b.Len() >= maxDiffChars {
			break
		}
	}
	diff := b.String()
	if len(diff) > maxDiffChars {
		diff = diff[:maxDiffChars] + "\n[diff truncated]"
	}
	return diff, files, nil
}

func complete(ctx context.Context, d Deps, slug, prompt string, maxTokens int, temperature float64) (*ailink.Completion, error) {
	if d.AI == nil {
		return nil, errAIUnavailable
	}
	return d.AI.Complete(ctx, ailink.CompletionRequest{
		PromptSlug:  slug,
		User:        prompt,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
}

func pretty(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

func aiTools(d Deps) []*Tool {
	optionalRepo := []Param{
		{Name: "owner", Type: TypeString, Description: "Repository owner"},
		{Name: "repo", Type: TypeString, Description: "Repository name"},
		{Name: "pull_number", Type: TypeInteger, Description: "Pull request to read the diff from"},
	}

	return []*Tool{
		{
			Name:        "generate_code_review",
			Description: "Review a diff with the configured AI model. The diff is given directly or read from a pull request",
			Params: append([]Param{
				{Name: "code_diff", Type: TypeString, Description: "Unified diff to review"},
				{Name: "context", Type: TypeString, Description: "Extra context for the reviewer"},
			}, optionalRepo...),
			ReadOnly: true,
			Failure:  "Failed to generate code review",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				if d.AI == nil {
					return Fail(errAIUnavailable, "OpenRouter integration not available"), nil
				}
				diff := args.RawStr("code_diff")
				if strings.TrimSpace(diff) == "" {
					if !args.Has("pull_number") {
						return nil, invalid("code_diff", "code_diff or owner, repo and pull_number are required")
					}
					var err error
					if diff, _, err = pullDiff(ctx, d, args); err != nil {
						return nil, err
					}
				}

				completion, err := complete(ctx, d, "code-review", fmt.Sprintf(codeReviewPrompt, diff, args.RawStr("context")), reviewTokens, reviewTemperature)
				if err != nil {
					return nil, err
				}
				return OK("review", completion.Text, "Code review generated successfully").With("model", completion.Model), nil
			},
		},
		{
			Name:        "generate_pr_description",
			Description: "Draft a pull request description with the configured AI model from a change summary or an existing pull request",
			Params: append([]Param{
				{Name: "pr_changes", Type: TypeObject, Description: "Change summary (title, files, notes)"},
			}, optionalRepo...),
			ReadOnly: true,
			Failure:  "Failed to generate PR description",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				if d.AI == nil {
					return Fail(errAIUnavailable, "OpenRouter integration not available"), nil
				}
				changes := args.Object("pr_changes")
				if changes == nil {
					if !args.Has("pull_number") {
						return nil, invalid("pr_changes", "pr_changes or owner, repo and pull_number are required")
					}
					endpoint, err := pullEndpoint(args)
					if err != nil {
						return nil, err
					}
					var pull struct {
						Title string `json:"title"`
						Body  string `json:"body"`
						Head  struct {
							Ref string `json:"ref"`
						} `json:"head"`
						Base struct {
							Ref string `json:"ref"`
						} `json:"base"`
					}
					if err := d.GitHub.Get(ctx, endpoint, nil, &pull); err != nil {
						return nil, err
					}
					diff, files, err := pullDiff(ctx, d, args)
					if err != nil {
						return nil, err
					}
					names := make([]string, 0, len(files))
					for _, file := range files {
						names = append(names, file.Filename)
					}
					changes = map[string]any{
						"title": pull.Title,
						"body":  pull.Body,
						"head":  pull.Head.Ref,
						"base":  pull.Base.Ref,
						"files": names,
						"diff":  diff,
					}
				}

				completion, err := complete(ctx, d, "pr-description", fmt.Sprintf(prDescriptionPrompt, pretty(changes)), summaryTokens, summaryTemperature)
				if err != nil {
					return nil, err
				}
				return OK("description", completion.Text, "PR description generated successfully").With("model", completion.Model), nil
			},
		},
		{
			Name:        "analyze_repository",
			Description: "Summarize a repository's stack and health with the configured AI model",
			Params:      withRepo(),
			ReadOnly:    true,
			Failure:     "Failed to analyze repository",
			Handler: func(ctx context.Context, args Args) (*Result, error) {
				if d.AI == nil {
					return Fail(errAIUnavailable, "OpenRouter integration not available"), nil
				}
				endpoint, err := repoEndpoint(args)
				if err != nil {
					return nil, err
				}
				var repository map[string]any
				if err := d.GitHub.Get(ctx, endpoint, nil, &repository); err != nil {
					return nil, err
				}
				var languages map[string]any
				if err := d.GitHub.Get(ctx, endpoint+"/languages", nil, &languages); err != nil {
					return nil, err
				}

				info := map[string]any{"languages": languages}
				for _, field := range syncedFields {
					if value, ok := repository[field]; ok {
						info[field] = value
					}
				}
				completion, err := complete(ctx, d, "repository-analysis", fmt.Sprintf(repositoryAnalysisPrompt, pretty(info)), reviewTokens, reviewTemperature)
				if err != nil {
					return nil, err
				}
				return OK("analysis", completion.Text, "Repository analysis completed").With("model", completion.Model), nil
			},
		},
	}
}
