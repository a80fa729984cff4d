package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cleanstage/internal/logging"
	"cleanstage/store"
)

// StoreService serves a store.Adapter over gRPC.
type StoreService struct {
	store store.Adapter
}

func NewStoreService(a store.Adapter) *StoreService { return &StoreService{store: a} }

func (s *StoreService) StartRun(ctx context.Context, in *StartRunRequest) (*Empty, error) {
	return &Empty{}, toStatus(s.store.StartRun(ctx, in.Run))
}

func (s *StoreService) FinishRun(ctx context.Context, in *FinishRunRequest) (*Empty, error) {
	var runErr error
	if in.Error != "" {
		runErr = errors.New(in.Error)
	}
	return &Empty{}, toStatus(s.store.FinishRun(ctx, in.RunID, runErr))
}

func (s *StoreService) Resolve(ctx context.Context, in *ResolveRequest) (*ResolveReply, error) {
	ref, err := store.ParseRef(in.Ref)
	if err != nil {
		return nil, toStatus(err)
	}
	res, err := s.store.Use(ctx, in.RunID, ref)
	if err != nil {
		return nil, toStatus(err)
	}
	content, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, toStatus(err)
	}
	logging.L().Debug("store: resolved", "ref", res.Version.Ref(), "run_id", in.RunID)
	return &ResolveReply{Version: res.Version, Content: content}, nil
}

func (s *StoreService) Log(ctx context.Context, in *LogRequest) (*LogReply, error) {
	if !store.ValidName(in.FileName) {
		return nil, toStatus(fmt.Errorf("%w: file name %q", store.ErrInvalidRef, in.FileName))
	}
	dir, err := os.MkdirTemp("", "cleanstage-upload-")
	if err != nil {
		return nil, toStatus(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, in.FileName)
	if err := os.WriteFile(path, in.Content, 0o644); err != nil {
		return nil, toStatus(err)
	}
	v, err := s.store.Log(ctx, in.RunID, store.Artifact{
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		Path:        path,
		Metadata:    in.Metadata,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &LogReply{Version: v}, nil
}
