// internal/view/details.go
package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/vhostsync/internal/snapshot"
)

// ErrUnknownType is returned when no detail layout exists for a host type.
var ErrUnknownType = errors.New("view: unknown virtual host type")

// HostType is the store-backed subtype of a virtual host.
type HostType string

const (
	TypeBDB      HostType = "BDB"
	TypeBDBHA    HostType = "BDB_HA"
	TypeDerby    HostType = "DERBY"
	TypeJDBC     HostType = "JDBC"
	TypeMemory   HostType = "Memory"
	TypeProvided HostType = "ProvidedStore"
)

// detailFields is the closed set of type-specific attributes shown per subtype.
var detailFields = map[HostType][]string{
	TypeBDB:      {"storePath", "storeUnderfullSize", "storeOverfullSize"},
	TypeBDBHA:    {"localTransactionSynchronizationPolicy", "remoteTransactionSynchronizationPolicy", "coalescingSync"},
	TypeDerby:    {"storePath", "storeUnderfullSize", "storeOverfullSize"},
	TypeJDBC:     {"connectionUrl", "connectionPoolType", "bigIntType", "bytesForBlob", "varBinaryType", "blobType"},
	TypeMemory:   {},
	TypeProvided: {},
}

// ParseHostType resolves a server type string, ignoring case.
func ParseHostType(s string) (HostType, bool) {
	for t := range detailFields {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// details renders the subtype fields. A snapshot without a type has none.
func details(s snapshot.Snapshot) ([]Field, error) {
	if s.Type == "" {
		return nil, nil
	}
	t, ok := ParseHostType(s.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, s.Type)
	}

	names := detailFields[t]
	out := make([]Field, 0, len(names))
	for _, n := range names {
		out = append(out, Field{Name: n, Value: Value(s.Attr(n))})
	}
	return out, nil
}
