package domain

// DomainRecord is one entry of the protected-namespace catalog, e.g.
// "cber.ai" or "usitc.ai".
type DomainRecord struct {
	// Name is the namespace itself and the catalog key.
	Name        string
	FullName    string
	Category    string
	Description string
	// Scopes is the catalog of scopes the domain offers.
	Scopes []string
}

// OffersScope reports whether the domain's catalog includes the scope.
func (d *DomainRecord) OffersScope(scope string) bool {
	for _, s := range d.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
