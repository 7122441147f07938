package client

import (
	"encoding/json"

	"github.com/penwyp/gitpane/internal/credential"
	"github.com/penwyp/gitpane/internal/errors"
)

// 后端 git 扩展使用的固定 endpoint。
const (
	EndpointPull            = "/git/pull"
	EndpointPush            = "/git/push"
	EndpointClone           = "/git/clone"
	EndpointAllHistory      = "/git/all_history"
	EndpointShowTopLevel    = "/git/show_top_level"
	EndpointShowPrefix      = "/git/show_prefix"
	EndpointStatus          = "/git/status"
	EndpointLog             = "/git/log"
	EndpointDetailedLog     = "/git/detailed_log"
	EndpointBranch          = "/git/branch"
	EndpointAdd             = "/git/add"
	EndpointAddAllUntracked = "/git/add_all_untracked"
	EndpointCheckout        = "/git/checkout"
	EndpointCommit          = "/git/commit"
	EndpointReset           = "/git/reset"
	EndpointDeleteCommit    = "/git/delete_commit"
	EndpointResetToCommit   = "/git/reset_to_commit"
	EndpointInit            = "/git/init"
)

// Result is the minimal answer of every git endpoint. Code is the exit
// status of the underlying git command; 0 means success.
type Result struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the git command succeeded.
func (r *Result) OK() bool { return r != nil && r.Code == 0 }

// RawResponse is returned by endpoints whose body the caller may not need
// (add, checkout, reset, delete_commit, reset_to_commit, init).
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Result decodes the body as {code, message}.
func (r *RawResponse) Result() (*Result, error) {
	var res Result
	if err := json.Unmarshal(r.Body, &res); err != nil {
		return nil, errors.Wrap(errors.ErrTypeResponse, "failed to parse response", err)
	}
	return &res, nil
}

// ShowTopLevelResult 仓库根目录
type ShowTopLevelResult struct {
	Code        int    `json:"code"`
	TopRepoPath string `json:"top_repo_path,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ShowPrefixResult 当前目录相对仓库根目录的前缀
type ShowPrefixResult struct {
	Code          int    `json:"code"`
	UnderRepoPath string `json:"under_repo_path,omitempty"`
	Message       string `json:"message,omitempty"`
}

// StatusFile is one entry of porcelain status: X and Y are the index and
// work tree status letters, From is set for renames.
type StatusFile struct {
	X    string `json:"x"`
	Y    string `json:"y"`
	To   string `json:"to"`
	From string `json:"from"`
}

// StatusResult 仓库整体状态
type StatusResult struct {
	Code    int          `json:"code"`
	Files   []StatusFile `json:"files,omitempty"`
	Message string       `json:"message,omitempty"`
}

// CommitInfo 单条提交记录
type CommitInfo struct {
	Commit    string `json:"commit"`
	Author    string `json:"author"`
	Date      string `json:"date"`
	CommitMsg string `json:"commit_msg"`
	PreCommit string `json:"pre_commit"`
}

// LogResult 提交历史
type LogResult struct {
	Code    int          `json:"code"`
	Commits []CommitInfo `json:"commits,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ModifiedFile is a file touched by a commit. The backend reports
// insertion/deletion counts as strings.
type ModifiedFile struct {
	ModifiedFilePath string `json:"modified_file_path"`
	ModifiedFileName string `json:"modified_file_name"`
	Insertion        string `json:"insertion"`
	Deletion         string `json:"deletion"`
}

// DetailedLogResult 单个提交的详细信息
type DetailedLogResult struct {
	Code               int            `json:"code"`
	ModifiedFileNote   string         `json:"modified_file_note,omitempty"`
	ModifiedFilesCount string         `json:"modified_files_count,omitempty"`
	NumberOfInsertions string         `json:"number_of_insertions,omitempty"`
	NumberOfDeletions  string         `json:"number_of_deletions,omitempty"`
	ModifiedFiles      []ModifiedFile `json:"modified_files,omitempty"`
	Message            string         `json:"message,omitempty"`
}

// Branch 分支信息
type Branch struct {
	IsCurrentBranch bool   `json:"is_current_branch"`
	IsRemoteBranch  bool   `json:"is_remote_branch"`
	Name            string `json:"name"`
	Upstream        string `json:"upstream"`
	TopCommit       string `json:"top_commit"`
	Tag             string `json:"tag"`
}

// BranchResult 分支列表
type BranchResult struct {
	Code     int      `json:"code"`
	Branches []Branch `json:"branches,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// CurrentBranch returns the branch flagged as current, if any.
func (r *BranchResult) CurrentBranch() (Branch, bool) {
	for _, b := range r.Branches {
		if b.IsCurrentBranch {
			return b, true
		}
	}
	return Branch{}, false
}

// HistoryData bundles the results all_history collects in one round trip.
type HistoryData struct {
	ShowTopLevel *ShowTopLevelResult `json:"show_top_level,omitempty"`
	Branch       *BranchResult       `json:"branch,omitempty"`
	Log          *LogResult          `json:"log,omitempty"`
	Status       *StatusResult       `json:"status,omitempty"`
}

// AllHistoryResult 仓库全部信息；同时用于判断路径是否位于 git 仓库中
type AllHistoryResult struct {
	Code int          `json:"code"`
	Data *HistoryData `json:"data,omitempty"`
}

// CheckoutOptions covers the four kinds of checkout the backend multiplexes
// on one endpoint: switch branch, create branch, discard all changes and
// discard a single file.
type CheckoutOptions struct {
	CheckoutBranch bool   `json:"checkout_branch"`
	NewCheck       bool   `json:"new_check"`
	BranchName     string `json:"branchname"`
	CheckoutAll    bool   `json:"checkout_all"`
	Filename       string `json:"filename"`
	TopRepoPath    string `json:"top_repo_path"`
}

// ---------------- 请求体 ----------------

type pathRequest struct {
	CurrentPath string `json:"current_path"`
}

type remoteRequest struct {
	CurrentPath string                 `json:"current_path"`
	Auth        *credential.Credential `json:"auth,omitempty"`
}

type cloneRequest struct {
	CurrentPath string                 `json:"current_path"`
	CloneURL    string                 `json:"clone_url"`
	Auth        *credential.Credential `json:"auth,omitempty"`
}

type detailedLogRequest struct {
	SelectedHash string `json:"selected_hash"`
	CurrentPath  string `json:"current_path"`
}

type addRequest struct {
	AddAll      bool   `json:"add_all"`
	Filename    string `json:"filename"`
	TopRepoPath string `json:"top_repo_path"`
}

type topRepoRequest struct {
	TopRepoPath string `json:"top_repo_path"`
}

// author 字段仅在至少一个非空时发送，发送时两者同时出现。
type commitRequest struct {
	CommitMsg   string  `json:"commit_msg"`
	TopRepoPath string  `json:"top_repo_path"`
	AuthorName  *string `json:"author_name,omitempty"`
	AuthorEmail *string `json:"author_email,omitempty"`
}

type resetRequest struct {
	ResetAll    bool   `json:"reset_all"`
	Filename    string `json:"filename"`
	TopRepoPath string `json:"top_repo_path"`
}

type commitIDRequest struct {
	CommitID    string `json:"commit_id"`
	TopRepoPath string `json:"top_repo_path"`
}
