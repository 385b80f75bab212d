package securestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wallet-signer/pkg/errno"
)

// FileStore 每个条目一个 JSON 文件，目录权限 0700，文件权限 0600
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, unavailable("mkdir", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: invalid entry name %q", errno.ErrStoreUnavailable, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Put 先写临时文件再 rename，保证条目要么是旧值要么是新值
func (s *FileStore) Put(ctx context.Context, key string, value []byte, policy AccessPolicy) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(&Entry{Value: value, Policy: policy, UpdatedAt: s.now().UTC()})
	if err != nil {
		return err
	}
	defer clear(data)

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return unavailable("create temp", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return unavailable("chmod", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return unavailable("write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return unavailable("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("close", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return unavailable("rename", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (*Entry, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("read", err)
	}
	defer clear(data)

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errno.ErrCorruptStore, key, err)
	}
	return &e, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable("remove", err)
	}
	return nil
}

func (s *FileStore) Has(ctx context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("stat", err)
	}
	return true, nil
}
