package agent

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RenderTask formats a task as the initial user message. The layout is
// line-oriented so ExtractTask can recover the fields without parsing the
// free-form description.
func RenderTask(task Task) string {
	var b strings.Builder

	b.WriteString("Please analyze the following GitHub issue and propose a solution or next steps. ")
	b.WriteString("Consider using available tools if they can help gather more context or information.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", task.Title)
	fmt.Fprintf(&b, "Repository: %s/%s\n", task.RepoOwner, task.RepoName)
	fmt.Fprintf(&b, "Issue Number: %d\n", task.IssueNumber)
	fmt.Fprintf(&b, "Labels: %s\n", strings.Join(task.Labels, ", "))
	fmt.Fprintf(&b, "Creator: %s\n", task.Creator)
	fmt.Fprintf(&b, "Status: %s\n", task.Status)
	fmt.Fprintf(&b, "URL: %s\n", task.URL)
	fmt.Fprintf(&b, "Description:\n%s", task.Description)

	return b.String()
}

// ExtractTask recovers a Task from a message produced by RenderTask. The
// description is everything after the "Description:" line, verbatim.
func ExtractTask(message string) Task {
	var task Task

	rest := message
	for rest != "" {
		line, tail, found := strings.Cut(rest, "\n")
		if line == "Description:" {
			task.Description = tail
			break
		}
		if !found {
			break
		}
		rest = tail

		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "Title":
			task.Title = value
		case "Repository":
			task.RepoOwner, task.RepoName, _ = strings.Cut(value, "/")
		case "Issue Number":
			task.IssueNumber, _ = strconv.Atoi(value)
		case "Labels":
			if value != "" {
				task.Labels = strings.Split(value, ", ")
			}
		case "Creator":
			task.Creator = value
		case "Status":
			task.Status = value
		case "URL":
			task.URL = value
		}
	}

	return task
}

// preview truncates s to at most n runes for progress lines, appending an
// ellipsis when anything was cut.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
