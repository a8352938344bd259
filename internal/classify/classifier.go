// Package classify assigns one EventTag to each transaction.
package classify

import (
	"txScope/internal/model"
)

// Classifier evaluates the ordered rule table against a transaction.
type Classifier struct {
	roles model.ContractRoles
	memos model.MemoSignatures
	rules []Rule
}

func New(roles model.ContractRoles, memos model.MemoSignatures) *Classifier {
	return &Classifier{
		roles: roles,
		memos: memos,
		rules: buildRules(roles),
	}
}

// Rules returns a copy of the decision list in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify never panics: failures inside rule evaluation yield ERROR_CLASSIFYING.
func (c *Classifier) Classify(tx model.Transaction) model.EventTag {
	tag, _ := c.Explain(tx)
	return tag
}

// Explain returns the tag and the name of the rule that produced it.
func (c *Classifier) Explain(tx model.Transaction) (tag model.EventTag, rule string) {
	defer func() {
		if r := recover(); r != nil {
			tag, rule = model.TagErrorClassifying, "recovered"
		}
	}()

	facts := newFacts(tx, c.roles, c.memos)
	for _, r := range c.rules {
		if r.Match(facts) {
			return r.Tag, r.Name
		}
	}
	return model.TagUnknown, "fallback"
}
