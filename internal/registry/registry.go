// Package registry keeps the name to index tables for MIDI ports.
package registry

import (
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"github.com/leandrodaf/midiroute/sdk/contracts"
)

// table is an immutable snapshot of one enumeration.
type table struct {
	ports  []contracts.Port
	byName map[string]int
}

var emptyTable = &table{byName: map[string]int{}}

// Registry maps port names to transport indices, one table per direction.
// Tables are replaced wholesale on Refresh; lookups never observe a
// half-built table.
type Registry struct {
	transport contracts.Transport
	logger    contracts.Logger
	tables    [2]atomic.Pointer[table]
}

// New creates an empty registry. Call Refresh to populate it.
func New(transport contracts.Transport, logger contracts.Logger) *Registry {
	r := &Registry{transport: transport, logger: logger}
	r.tables[contracts.Input].Store(emptyTable)
	r.tables[contracts.Output].Store(emptyTable)
	return r
}

// Refresh re-enumerates dir and replaces its table. A port whose name cannot
// be read is skipped with a warning. If the port count cannot be read the
// previous table is kept and the error is returned.
func (r *Registry) Refresh(dir contracts.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: %d", contracts.ErrInvalidDirection, dir)
	}
	count, err := r.transport.PortCount(dir)
	if err != nil {
		r.logger.Error("Failed to count MIDI ports",
			r.logger.Field().String("direction", dir.String()),
			r.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %s port count: %v", contracts.ErrEnumerationFault, dir, err)
	}

	next := &table{
		ports:  make([]contracts.Port, 0, count),
		byName: make(map[string]int, count),
	}
	for i := 0; i < count; i++ {
		name, err := r.transport.PortName(dir, i)
		if err != nil {
			r.logger.Warn("Error getting MIDI port name; port skipped",
				r.logger.Field().String("direction", dir.String()),
				r.logger.Field().Int("index", i),
				r.logger.Field().Error("error", err))
			continue
		}
		name = truncateName(name)
		next.ports = append(next.ports, contracts.Port{Name: name, Index: i, Direction: dir})
		next.byName[name] = i
	}

	r.tables[dir].Store(next)
	r.logger.Debug("MIDI ports refreshed",
		r.logger.Field().String("direction", dir.String()),
		r.logger.Field().Int("count", len(next.ports)))
	return nil
}

// Lookup returns the transport index for name from the current table.
func (r *Registry) Lookup(dir contracts.Direction, name string) (int, error) {
	index, ok := r.table(dir).byName[name]
	if !ok {
		return -1, fmt.Errorf("%w: %s %q", contracts.ErrPortNotFound, dir, name)
	}
	return index, nil
}

// List returns the ports of the current table in enumeration order.
func (r *Registry) List(dir contracts.Direction) []contracts.Port {
	return append([]contracts.Port(nil), r.table(dir).ports...)
}

// Names returns the port names of the current table in enumeration order.
func (r *Registry) Names(dir contracts.Direction) []string {
	ports := r.table(dir).ports
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return names
}

// table returns the current table of dir, or an empty one for an unknown
// direction.
func (r *Registry) table(dir contracts.Direction) *table {
	if !dir.Valid() {
		return emptyTable
	}
	return r.tables[dir].Load()
}

func truncateName(name string) string {
	if len(name) <= contracts.MaxPortNameLen {
		return name
	}
	cut := contracts.MaxPortNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
