package errors

import (
	"sort"
	"sync"
)

// Registered codes.
const (
	CodeInvalidOptions = "G001"
	CodeLoadFailed     = "G002"
	CodeLoadCanceled   = "G003"
	CodeConfigInvalid  = "G004"
	CodeCatalogBackend = "G005"
	CodeConfigNotFound = "G006"
	CodeServerStart    = "G007"
)

// Template describes a registered error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Template{
		CodeInvalidOptions: {
			Category: CategoryResource,
			Message:  "Invalid resource options",
			Detail:   "A resource needs exactly one data source: a loader, a stream or an observable factory.",
		},
		CodeLoadFailed: {
			Category: CategoryResource,
			Message:  "Resource load failed",
			Detail:   "The loader returned an error after all retries were exhausted.",
		},
		CodeLoadCanceled: {
			Category: CategoryResource,
			Message:  "Resource load canceled",
			Detail:   "The load was superseded by a newer request or the resource was destroyed.",
		},
		CodeConfigInvalid: {
			Category: CategoryConfig,
			Message:  "Invalid configuration",
		},
		CodeCatalogBackend: {
			Category: CategoryCatalog,
			Message:  "Catalog backend error",
		},
		CodeConfigNotFound: {
			Category: CategoryConfig,
			Message:  "Configuration file not found",
		},
		CodeServerStart: {
			Category: CategoryServer,
			Message:  "Server failed to start",
		},
	}
)

// GetTemplate returns the template for code.
func GetTemplate(code string) (Template, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a code.
func Register(code string, t Template) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = t
}

// Codes returns every registered code, sorted.
func Codes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	codes := make([]string, 0, len(registry))
	for c := range registry {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
