package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const readmePath = "README.md"

// PullRequest is an opened README pull request.
type PullRequest struct {
	Number int
	URL    string
	Branch string
}

// BranchError wraps a failure that happened after the update branch was
// created. The branch is left on the remote.
type BranchError struct {
	Branch string
	Err    error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("%v (branch %s left behind)", e.Err, e.Branch)
}

func (e *BranchError) Unwrap() error { return e.Err }

// BranchName returns the update branch name for a run started at now.
func BranchName(now time.Time) string {
	return fmt.Sprintf("readme-update-%d", now.Unix())
}

type repoInfo struct {
	DefaultBranch string `json:"default_branch"`
}

type gitRef struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type contentInfo struct {
	SHA string `json:"sha"`
}

type pullInfo struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreateReadmePR branches from the default branch's head, uploads content as
// README.md on the new branch and opens a pull request back to the default
// branch. Any failed call aborts the flow.
func (c *Client) CreateReadmePR(ctx context.Context, content string, now time.Time) (PullRequest, error) {
	repoPath := "/repos/" + c.Repository

	var repo repoInfo
	if _, err := c.do(ctx, "get repository", http.MethodGet, repoPath, nil, &repo); err != nil {
		return PullRequest{}, err
	}
	base := repo.DefaultBranch
	if base == "" {
		base = "main"
	}

	var head gitRef
	if _, err := c.do(ctx, "get base ref", http.MethodGet, repoPath+"/git/ref/heads/"+escapeRef(base), nil, &head); err != nil {
		return PullRequest{}, err
	}

	branch := BranchName(now)
	newRef := map[string]string{"ref": "refs/heads/" + branch, "sha": head.Object.SHA}
	if _, err := c.do(ctx, "create branch", http.MethodPost, repoPath+"/git/refs", newRef, nil); err != nil {
		return PullRequest{}, err
	}

	var existing contentInfo
	status, err := c.do(ctx, "get readme", http.MethodGet,
		repoPath+"/contents/"+readmePath+"?ref="+url.QueryEscape(branch), nil, &existing, http.StatusNotFound)
	if err != nil {
		return PullRequest{}, &BranchError{Branch: branch, Err: err}
	}
	if status == http.StatusNotFound {
		existing.SHA = ""
	}

	upload := map[string]string{
		"message": "docs: update README",
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
	}
	if existing.SHA != "" {
		upload["sha"] = existing.SHA
	}
	if _, err := c.do(ctx, "upload readme", http.MethodPut, repoPath+"/contents/"+readmePath, upload, nil); err != nil {
		return PullRequest{}, &BranchError{Branch: branch, Err: err}
	}

	pull := map[string]string{
		"title": "docs: update README",
		"head":  branch,
		"base":  base,
		"body":  "Automated README update generated from recent commits.",
	}
	var opened pullInfo
	if _, err := c.do(ctx, "open pull request", http.MethodPost, repoPath+"/pulls", pull, &opened); err != nil {
		return PullRequest{}, &BranchError{Branch: branch, Err: err}
	}

	return PullRequest{Number: opened.Number, URL: opened.HTMLURL, Branch: branch}, nil
}

// escapeRef escapes each segment of a branch name, keeping the slashes that
// separate them.
func escapeRef(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
