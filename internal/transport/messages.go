package transport

import "cleanstage/store"

type StartRunRequest struct {
	Run store.Run `json:"run"`
}

type FinishRunRequest struct {
	RunID string `json:"run_id"`
	Error string `json:"error,omitempty"`
}

type ResolveRequest struct {
	RunID string `json:"run_id"`
	Ref   string `json:"ref"`
}

type ResolveReply struct {
	Version store.Version `json:"version"`
	Content []byte        `json:"content"`
}

type LogRequest struct {
	RunID       string            `json:"run_id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	FileName    string            `json:"file_name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Content     []byte            `json:"content"`
}

type LogReply struct {
	Version store.Version `json:"version"`
}

type Empty struct{}
