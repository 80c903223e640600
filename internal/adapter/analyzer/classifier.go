package analyzer

import (
	"strings"

	"golang.org/x/text/cases"

	"flowgen/internal/domain"
)

type roleRule struct {
	role    domain.Role
	needles []string
}

// Evaluated top to bottom; the first rule with a matching needle wins.
var roleRules = []roleRule{
	{role: domain.RolePage, needles: []string{"app"}},
	{role: domain.RolePage, needles: []string{"pages", "views", "meals"}},
	{role: domain.RoleLayout, needles: []string{"layouts", "header"}},
}

// Classifier assigns roles from directory and file naming conventions.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the role of the component at componentPath. Matching is a
// case-insensitive substring test against the whole path.
func (c *Classifier) Classify(componentPath string) domain.Role {
	folded := cases.Fold().String(componentPath)
	for _, rule := range roleRules {
		for _, needle := range rule.needles {
			if strings.Contains(folded, needle) {
				return rule.role
			}
		}
	}
	return domain.RoleGeneric
}
