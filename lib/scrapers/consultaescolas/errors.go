package consultaescolas

import "fmt"

// ProtocolError means a server-issued token or element the session
// depends on was missing from a response: either the portal changed
// its page structure or the session desynchronized. Fatal when it
// happens on the initial request, since no session can be established.
type ProtocolError struct {
	Missing string
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("%s missing from response", e.Missing)
}

// LookupError means a requested city or school has no resolvable code
// on the portal. Scoped to that city/school, never fatal to a run.
type LookupError struct {
	Kind string
	Name string
}

func (e LookupError) Error() string {
	return fmt.Sprintf("no %s code found for %q", e.Kind, e.Name)
}

// NavigationError means an expected page element was absent partway
// through the per-school request sequence. Scoped to that school.
type NavigationError struct {
	Step    string
	Missing string
}

func (e NavigationError) Error() string {
	return fmt.Sprintf("%s: %s missing from response", e.Step, e.Missing)
}
