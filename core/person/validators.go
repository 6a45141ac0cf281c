package person

import "github.com/trezcool/igreja/core"

func init() {
	core.RegisterEnumValidation(core.Validate, core.Translator, "funnelstatus", "status inválido", AllStatuses)
}

// IsValidStatus reports whether status is one of the known funnel statuses.
func IsValidStatus(status string) bool {
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}
