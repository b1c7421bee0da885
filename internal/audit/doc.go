// Package audit wires the permission audit workflow into the CLI: it
// acquires a namespace snapshot (live from the registry API or replayed from
// a state file), optionally persists it, and reports repositories accessible
// to users outside the owning organization.
//
// It exposes CommandBuilder for assembling the audit Cobra command and
// Service for driving the workflow programmatically.
package audit
