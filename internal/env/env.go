package env

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	warnLogger func(format string, args ...any) = func(format string, args ...any) {
		slog.Warn("deprecated environment variable", "detail", fmt.Sprintf(format, args...))
	}
	warnMu     sync.Mutex
	warnedKeys sync.Map
)

// Lookup returns the value of newKey if it exists. Otherwise the first legacy
// key that is set wins and a deprecation warning is logged once per key.
func Lookup(newKey string, legacy ...string) (string, bool) {
	if v, ok := os.LookupEnv(newKey); ok {
		return v, true
	}
	for _, oldKey := range legacy {
		if oldKey == "" {
			continue
		}
		if v, ok := os.LookupEnv(oldKey); ok {
			logDeprecated(oldKey, newKey)
			return v, true
		}
	}
	return "", false
}

// Bool parses a boolean variable. Unset or unparsable values report ok=false.
func Bool(newKey string, legacy ...string) (value bool, ok bool) {
	raw, found := Lookup(newKey, legacy...)
	if !found {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return b, true
}

// Int parses an integer variable. Unset or unparsable values report ok=false.
func Int(newKey string, legacy ...string) (value int, ok bool) {
	raw, found := Lookup(newKey, legacy...)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

func logDeprecated(oldKey, newKey string) {
	warnMu.Lock()
	onceIface, _ := warnedKeys.LoadOrStore(oldKey, &sync.Once{})
	logger := warnLogger
	warnMu.Unlock()
	once := onceIface.(*sync.Once)
	once.Do(func() {
		logger("%s is deprecated; use %s", oldKey, newKey)
	})
}

// ResetWarningsForTesting clears the cached once guards so tests can verify
// warning behaviour deterministically.
func ResetWarningsForTesting() {
	warnMu.Lock()
	warnedKeys = sync.Map{}
	warnMu.Unlock()
}

// SetWarnLoggerForTesting swaps the logger used for warnings. The returned
// function restores the previous logger and should be deferred in tests.
func SetWarnLoggerForTesting(fn func(format string, args ...any)) (restore func()) {
	warnMu.Lock()
	previous := warnLogger
	warnLogger = fn
	warnMu.Unlock()
	return func() {
		warnMu.Lock()
		warnLogger = previous
		warnMu.Unlock()
	}
}
