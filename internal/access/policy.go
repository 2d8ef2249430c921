package access

// Policy answers whether a user may run admin commands. It is built once from
// static configuration and holds no other state.
type Policy struct {
	admins map[string]struct{}
	owner  string
}

func New(adminIDs []string, channelOwnerID string) *Policy {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id != "" {
			admins[id] = struct{}{}
		}
	}
	return &Policy{admins: admins, owner: channelOwnerID}
}

func (p *Policy) IsAuthorized(userID string) bool {
	if userID == "" {
		return false
	}
	if _, ok := p.admins[userID]; ok {
		return true
	}
	return p.owner != "" && userID == p.owner
}
