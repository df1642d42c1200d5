package chat

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/bcrypt"
)

// VerifyResult is the outcome of a credential verification attempt.
type VerifyResult int

const (
	// VerifyOK indicates the password matched, or the username was
	// unknown and has now been auto-registered with it.
	VerifyOK VerifyResult = iota
	// VerifyWrongPassword indicates a known username with a mismatched
	// password.
	VerifyWrongPassword
)

// RegisterResult is the outcome of an explicit registration attempt.
type RegisterResult int

const (
	// RegisterOK indicates the record was appended.
	RegisterOK RegisterResult = iota
	// RegisterRejected indicates the input failed sanitization.
	RegisterRejected
)

const maxCredentialFieldLen = 49

// CredentialStore is the persisted username->password mapping (C1). It is
// a line-oriented file of "username:password" records, one per line,
// appended on registration and consulted on every verify. There is no
// in-memory cache: the file is read on each call, so external edits (see
// the fsnotify watcher) are picked up without a restart.
type CredentialStore struct {
	path string
	mu   sync.Mutex
}

// NewCredentialStore opens (without requiring it to exist yet) the
// credential file at path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Watch starts a goroutine (A5) that logs when the credential file is
// written or created on disk. It does not tell this process's own appends
// apart from external edits; both are logged. It never reloads anything
// into memory — C1 is read-through, so there is nothing to reload — it
// exists purely so operators editing the file by hand see that the server
// noticed. The returned closer func stops the watcher; a nil error from Watch
// with a nil closer means the watched path's directory could not be
// watched (e.g. it does not exist yet), which is logged and treated as
// non-fatal.
func (c *CredentialStore) Watch(logger *slog.Logger) (closer func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating credential file watcher: %w", err)
	}

	dir := credentialWatchDir(c.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		logger.Warn("credential file watcher disabled", "dir", dir, "error", err.Error())
		return nil, nil
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != c.path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					logger.Info("credential file changed externally", "path", c.path)
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("credential file watcher error", "error", watchErr.Error())
			}
		}
	}()

	return watcher.Close, nil
}

// credentialWatchDir returns the directory to watch for changes to path,
// since fsnotify watches directories rather than individual files.
func credentialWatchDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

// Verify looks up username. If absent, the pair is auto-registered and
// VerifyOK is returned (first-use semantics). If present, the supplied
// password is compared against the stored record, which may be a
// plain-text password or, when it carries the bcrypt "$2" prefix, a
// hashed one.
func (c *CredentialStore) Verify(username, password string) (VerifyResult, error) {
	username = sanitizeField(username)
	password = sanitizeField(password)

	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readRecords()
	if err != nil {
		return VerifyWrongPassword, err
	}

	if stored, ok := records[username]; ok {
		if credentialMatches(stored, password) {
			return VerifyOK, nil
		}
		return VerifyWrongPassword, nil
	}

	if err := c.appendRecord(username, password); err != nil {
		return VerifyWrongPassword, err
	}
	return VerifyOK, nil
}

// Register appends a new credential record, rejecting empty or
// separator-bearing input. It does not check for an existing username;
// callers that require uniqueness must check first via a failed Verify.
func (c *CredentialStore) Register(username, password string) (RegisterResult, error) {
	username = sanitizeField(username)
	password = sanitizeField(password)

	if username == "" || password == "" {
		return RegisterRejected, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.appendRecord(username, password); err != nil {
		return RegisterRejected, err
	}
	return RegisterOK, nil
}

// readRecords loads the full credential file into memory. A missing file
// is treated as an empty store, per the error-handling design: "Credential
// file unreadable -> treat as empty store (auto-register)".
func (c *CredentialStore) readRecords() (map[string]string, error) {
	records := make(map[string]string)

	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return records, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		user := line[:idx]
		pass := line[idx+1:]
		records[user] = pass
	}
	return records, nil
}

// appendRecord writes one "username:password" line to the credential
// file, creating it on first use.
func (c *CredentialStore) appendRecord(username, password string) error {
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening credential file: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s:%s\n", username, password)
	return err
}

// sanitizeField trims everything from the first CR, LF, or ':' onward,
// and truncates to the maximum field length.
func sanitizeField(s string) string {
	for i, r := range s {
		if r == '\r' || r == '\n' || r == ':' {
			s = s[:i]
			break
		}
	}
	if len(s) > maxCredentialFieldLen {
		s = s[:maxCredentialFieldLen]
	}
	return s
}

// credentialMatches compares a candidate password against a stored
// record, which is either plain text or a bcrypt hash (identified by the
// "$2" prefix bcrypt always produces).
func credentialMatches(stored, candidate string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	}
	return stored == candidate
}

// HashPassword bcrypt-hashes password for callers that want to populate
// the credential file with hashed records instead of plain text.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
