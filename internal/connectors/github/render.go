package github

import (
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// renderIssueThread lays out an issue and its comments as one markdown
// document: metadata header, opening post, then each reply in order.
func renderIssueThread(owner, name string, issue *gh.Issue, comments []*gh.IssueComment) *domain.RenderedContent {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", issue.GetTitle())
	fmt.Fprintf(&b, "Repository: %s/%s\n", owner, name)
	fmt.Fprintf(&b, "Issue: #%d (%s)\n", issue.GetNumber(), issue.GetState())
	fmt.Fprintf(&b, "Author: %s\n", issue.GetUser().GetLogin())
	fmt.Fprintf(&b, "Opened: %s\n", issue.GetCreatedAt().UTC().Format(time.RFC3339))

	if labels := labelNames(issue); len(labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(labels, ", "))
	}

	b.WriteString("\n")
	if body := strings.TrimSpace(issue.GetBody()); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}

	for _, comment := range comments {
		fmt.Fprintf(&b, "\n---\n\n## Reply from %s (%s)\n\n",
			comment.GetUser().GetLogin(),
			comment.GetCreatedAt().UTC().Format(time.RFC3339))
		if body := strings.TrimSpace(comment.GetBody()); body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
	}

	return &domain.RenderedContent{
		Text:     b.String(),
		Filename: fmt.Sprintf("github-%s-%s-issue-%d.md", owner, name, issue.GetNumber()),
	}
}

// labelNames extracts the label names of an issue.
func labelNames(issue *gh.Issue) []string {
	if len(issue.Labels) == 0 {
		return nil
	}
	names := make([]string, len(issue.Labels))
	for i, label := range issue.Labels {
		names[i] = label.GetName()
	}
	return names
}
