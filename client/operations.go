package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/penwyp/gitpane/internal/credential"
)

// Pull 拉取远程更新。auth 为 nil 时请求体不包含 auth 字段。
func (c *Client) Pull(ctx context.Context, path string, auth *credential.Credential) (*Result, error) {
	var res Result
	if err := c.postJSON(ctx, EndpointPull, remoteRequest{CurrentPath: path, Auth: auth}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Push 推送本地提交。auth 为 nil 时请求体不包含 auth 字段。
func (c *Client) Push(ctx context.Context, path string, auth *credential.Credential) (*Result, error) {
	var res Result
	if err := c.postJSON(ctx, EndpointPush, remoteRequest{CurrentPath: path, Auth: auth}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Clone clones cloneURL into the directory path.
func (c *Client) Clone(ctx context.Context, path, cloneURL string, auth *credential.Credential) (*Result, error) {
	var res Result
	req := cloneRequest{CurrentPath: path, CloneURL: cloneURL, Auth: auth}
	if err := c.postJSON(ctx, EndpointClone, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AllHistory fetches top level, branches, log and status in one request.
// The backend answers a non-zero code when path is not inside a repository.
func (c *Client) AllHistory(ctx context.Context, path string) (*AllHistoryResult, error) {
	var res AllHistoryResult
	if err := c.postJSON(ctx, EndpointAllHistory, pathRequest{CurrentPath: path}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ShowTopLevel 获取仓库根目录
func (c *Client) ShowTopLevel(ctx context.Context, path string) (*ShowTopLevelResult, error) {
	var res ShowTopLevelResult
	if err := c.postJSON(ctx, EndpointShowTopLevel, pathRequest{CurrentPath: path}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ShowPrefix 获取 path 相对仓库根目录的前缀
func (c *Client) ShowPrefix(ctx context.Context, path string) (*ShowPrefixResult, error) {
	var res ShowPrefixResult
	if err := c.postJSON(ctx, EndpointShowPrefix, pathRequest{CurrentPath: path}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Status 获取文件状态
func (c *Client) Status(ctx context.Context, path string) (*StatusResult, error) {
	var res StatusResult
	if err := c.postJSON(ctx, EndpointStatus, pathRequest{CurrentPath: path}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Log 获取提交历史
func (c *Client) Log(ctx context.Context, path string) (*LogResult, error) {
	var res LogResult
	if err := c.postJSON(ctx, EndpointLog, pathRequest{CurrentPath: path}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DetailedLog 获取提交 hash 修改的文件明细
func (c *Client) DetailedLog(ctx context.Context, hash, path string) (*DetailedLogResult, error) {
	var res DetailedLogResult
	req := detailedLogRequest{SelectedHash: hash, CurrentPath: path}
	if err := c.postJSON(ctx, EndpointDetailedLog, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Branch 获取所有本地与远程分支
func (c *Client) Branch(ctx context.Context, path string) (*BranchResult, error) {
	var res BranchResult
	if err := c.postJSON(ctx, EndpointBranch, pathRequest{CurrentPath: path}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Add stages filename, or every change when all is true.
func (c *Client) Add(ctx context.Context, all bool, filename, topRepoPath string) (*RawResponse, error) {
	return c.postRaw(ctx, EndpointAdd, addRequest{AddAll: all, Filename: filename, TopRepoPath: topRepoPath})
}

// AddAllUntracked stages every untracked file.
func (c *Client) AddAllUntracked(ctx context.Context, topRepoPath string) (*Result, error) {
	var res Result
	if err := c.postJSON(ctx, EndpointAddAllUntracked, topRepoRequest{TopRepoPath: topRepoPath}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Checkout switches or creates a branch, or discards changes.
func (c *Client) Checkout(ctx context.Context, opts CheckoutOptions) (*RawResponse, error) {
	return c.postRaw(ctx, EndpointCheckout, opts)
}

// Commit 提交暂存区。authorName 与 authorEmail 均为空时不发送 author 字段。
func (c *Client) Commit(ctx context.Context, message, topRepoPath, authorName, authorEmail string) (*Result, error) {
	req := commitRequest{CommitMsg: message, TopRepoPath: topRepoPath}
	if authorName != "" || authorEmail != "" {
		req.AuthorName = &authorName
		req.AuthorEmail = &authorEmail
	}

	var res Result
	if err := c.postJSON(ctx, EndpointCommit, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Reset unstages filename, or everything when all is true.
func (c *Client) Reset(ctx context.Context, all bool, filename, topRepoPath string) (*RawResponse, error) {
	return c.postRaw(ctx, EndpointReset, resetRequest{ResetAll: all, Filename: filename, TopRepoPath: topRepoPath})
}

// DeleteCommit reverts the changes of commitID and then commits the result
// with message. The delete response is returned; a non-zero code from the
// follow-up commit is only logged.
func (c *Client) DeleteCommit(ctx context.Context, message, topRepoPath, commitID string) (*RawResponse, error) {
	resp, err := c.postRaw(ctx, EndpointDeleteCommit, commitIDRequest{CommitID: commitID, TopRepoPath: topRepoPath})
	if err != nil {
		return nil, err
	}
	res, err := c.Commit(ctx, message, topRepoPath, "", "")
	if err != nil {
		return nil, err
	}
	if res.Code != 0 {
		c.logger.Warn("Commit after delete_commit failed",
			zap.String("commit_id", commitID),
			zap.Int("code", res.Code),
			zap.String("message", res.Message))
	} else {
		c.logger.Debug("Commit after delete_commit succeeded", zap.String("commit_id", commitID))
	}
	return resp, nil
}

// ResetToCommit 将仓库重置到 commitID
func (c *Client) ResetToCommit(ctx context.Context, topRepoPath, commitID string) (*RawResponse, error) {
	return c.postRaw(ctx, EndpointResetToCommit, commitIDRequest{CommitID: commitID, TopRepoPath: topRepoPath})
}

// Init 在 path 初始化新仓库
func (c *Client) Init(ctx context.Context, path string) (*RawResponse, error) {
	return c.postRaw(ctx, EndpointInit, pathRequest{CurrentPath: path})
}
