package chat

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxCredentialLen is the maximum length in bytes of a username or password.
const MaxCredentialLen = 49

// VerifyResult is the outcome of a credential check.
type VerifyResult int

const (
	// VerifyOK means the credentials matched, or the username was unknown
	// and has been auto-registered with the presented password.
	VerifyOK VerifyResult = iota

	// VerifyWrongPassword means the username exists with a different password.
	VerifyWrongPassword
)

// String returns the string representation of the result.
func (r VerifyResult) String() string {
	switch r {
	case VerifyOK:
		return "OK"
	case VerifyWrongPassword:
		return "WRONG_PASSWORD"
	default:
		return "UNKNOWN"
	}
}

// CredentialStore persists username/password pairs as a line-oriented file,
// one "username:password" record per line. Writers serialise on a store-wide
// mutex; readers scan the whole file on each verify, so appended records are
// visible without any cache invalidation.
//
// With hashing enabled the stored value is a bcrypt hash instead of the
// clear-text password. The record format is unchanged.
type CredentialStore struct {
	path   string
	hashed bool

	mu sync.Mutex // serialises register/append
}

// NewCredentialStore creates a store backed by the file at path. The file is
// created on first registration.
func NewCredentialStore(path string, hashed bool) *CredentialStore {
	return &CredentialStore{path: path, hashed: hashed}
}

// SanitizeCredential cuts s at the first occurrence of CR, LF or the record
// separator ':' and caps it at MaxCredentialLen bytes.
func SanitizeCredential(s string) string {
	if i := strings.IndexAny(s, "\r\n:"); i >= 0 {
		s = s[:i]
	}
	if len(s) > MaxCredentialLen {
		s = s[:MaxCredentialLen]
	}
	return s
}

// Verify checks username/password against the store. An unknown username is
// auto-registered with the presented password and reported as VerifyOK
// (first-use semantics). The registered return is true when this call
// created the record.
//
// An unreadable credential file is treated as an empty store.
func (s *CredentialStore) Verify(username, password string) (result VerifyResult, registered bool, err error) {
	username = SanitizeCredential(username)
	password = SanitizeCredential(password)
	if username == "" || password == "" {
		return VerifyWrongPassword, false, ErrInvalidCredential
	}

	stored, found, err := s.lookup(username)
	if err != nil {
		return VerifyWrongPassword, false, err
	}
	if !found {
		if err := s.Register(username, password); err != nil {
			return VerifyWrongPassword, false, err
		}
		return VerifyOK, true, nil
	}

	if s.matches(stored, password) {
		return VerifyOK, false, nil
	}
	return VerifyWrongPassword, false, nil
}

// Register appends a new credential record. Empty or separator-bearing
// fields are rejected. Registering an existing username appends a second
// record, but lookups always return the first match, so the original
// password remains authoritative.
func (s *CredentialStore) Register(username, password string) error {
	username = SanitizeCredential(username)
	password = SanitizeCredential(password)
	if username == "" || password == "" {
		return ErrInvalidCredential
	}

	value := password
	if s.hashed {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		value = string(hash)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening credential file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, "%s:%s\n", username, value); err != nil {
		return fmt.Errorf("appending credential record: %w", err)
	}
	return nil
}

// lookup scans the credential file for the first record matching username.
// A missing or unreadable file is an empty store, not an error.
func (s *CredentialStore) lookup(username string) (value string, found bool, err error) {
	f, err := os.Open(s.path)
	if err != nil {
		return "", false, nil
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		user, pass, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if user == username {
			return pass, true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("reading credential file: %w", err)
	}
	return "", false, nil
}

// matches compares a presented password against the stored value.
func (s *CredentialStore) matches(stored, password string) bool {
	if s.hashed {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored == password
}
