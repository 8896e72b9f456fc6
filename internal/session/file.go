package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dunglas/httpsfv"
)

// FileStore persists the session as a single RFC 8941 Structured Field
// dictionary line, e.g.:
//
//	token="eyJhbGci...", username="crio.do", balance=500000
//
// One self-describing line keeps the file greppable and the parser borrowed
// from a well-tested grammar instead of a custom format.
type FileStore struct {
	Path string
}

// NewFileStore returns a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load(ctx context.Context) (Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil // no saved session = anonymous
		}
		return Session{}, fmt.Errorf("reading session file: %w", err)
	}

	line := strings.TrimSpace(string(data))
	if line == "" {
		return Session{}, nil
	}

	return parseSessionDict(line)
}

func (f *FileStore) Save(ctx context.Context, s Session) error {
	dict := httpsfv.NewDictionary()
	dict.Add("token", httpsfv.NewItem(s.Token))
	dict.Add("username", httpsfv.NewItem(s.Username))
	dict.Add("balance", httpsfv.NewItem(s.BalanceCents))

	line, err := httpsfv.Marshal(dict)
	if err != nil {
		return fmt.Errorf("serializing session: %w", err)
	}

	// 0600: the token is a bearer credential
	if err := os.WriteFile(f.Path, []byte(line+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// parseSessionDict decodes one structured-field dictionary line.
// Missing keys are tolerated (they zero-value); wrong member types are not.
func parseSessionDict(line string) (Session, error) {
	dict, err := httpsfv.UnmarshalDictionary([]string{line})
	if err != nil {
		return Session{}, fmt.Errorf("invalid session dictionary: %w", err)
	}

	var s Session
	if s.Token, err = dictString(dict, "token"); err != nil {
		return Session{}, err
	}
	if s.Username, err = dictString(dict, "username"); err != nil {
		return Session{}, err
	}
	if s.BalanceCents, err = dictInt(dict, "balance"); err != nil {
		return Session{}, err
	}
	return s, nil
}

func dictString(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", nil
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("session key %q must be an item", key)
	}
	v, ok := item.Value.(string)
	if !ok {
		return "", fmt.Errorf("session key %q must be a string", key)
	}
	return v, nil
}

func dictInt(dict *httpsfv.Dictionary, key string) (int64, error) {
	member, ok := dict.Get(key)
	if !ok {
		return 0, nil
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return 0, fmt.Errorf("session key %q must be an item", key)
	}
	v, ok := item.Value.(int64)
	if !ok {
		return 0, fmt.Errorf("session key %q must be an integer", key)
	}
	return v, nil
}
