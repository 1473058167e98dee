package authz

// Permissions checked by the job API.
const (
	JobsSubmit  = "jobs:submit"
	JobsRead    = "jobs:read"
	JobsHistory = "jobs:history"
	ChatAsk     = "chat:ask"
)

// Checker reports whether subject holds permission. The subject is the
// role carried by the caller's token.
type Checker interface {
	HasPermission(subject, permission string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(subject, permission string) bool

func (f CheckerFunc) HasPermission(subject, permission string) bool {
	return f(subject, permission)
}

// MapChecker grants each subject a fixed list of permission patterns.
type MapChecker struct {
	grants map[string][]string
}

// NewMapChecker creates a checker from subject -> patterns.
func NewMapChecker(grants map[string][]string) *MapChecker {
	return &MapChecker{grants: grants}
}

func (c *MapChecker) HasPermission(subject, required string) bool {
	patterns, ok := c.grants[subject]
	if !ok {
		return false
	}
	return MatchAny(patterns, required)
}

// DefaultGrants is the built-in policy: clients submit, poll and chat;
// admins may also read the job history.
func DefaultGrants() map[string][]string {
	return map[string][]string{
		"client": {JobsSubmit, JobsRead, ChatAsk},
		"admin":  {"*:*"},
	}
}
