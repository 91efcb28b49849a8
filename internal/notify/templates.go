package notify

import (
	"github.com/shopops/payment-reaper/internal/models"
)

// Fixed track × stage → template name table. The SMS set is parallel to the
// email set, keyed by the same names with an "_sms" suffix.
var stageTemplates = map[models.Track]map[int]string{
	models.TrackOnlinePayment: {
		1: "incomplete_payment_first_reminder",
		2: "incomplete_payment_final_warning",
	},
	models.TrackGracePeriod: {
		1: "grace_period_first_reminder",
		2: "grace_period_second_reminder",
		3: "grace_period_final_warning",
	},
}

var deletedTemplates = map[models.Track]string{
	models.TrackOnlinePayment: "incomplete_payment_deleted",
	models.TrackGracePeriod:   "grace_period_expired",
}

const smsSuffix = "_sms"

// stageTemplateName returns the email template name for a track's stage
func stageTemplateName(track models.Track, stage int) (string, bool) {
	name, ok := stageTemplates[track][stage]
	return name, ok
}

// deletedTemplateName returns the email template name for a track's deletion
// notice
func deletedTemplateName(track models.Track) (string, bool) {
	name, ok := deletedTemplates[track]
	return name, ok
}

// finalStage reports whether the given stage is the last reminder before
// deletion on its track
func finalStage(track models.Track, stage int) bool {
	max := 0
	for s := range stageTemplates[track] {
		if s > max {
			max = s
		}
	}
	return stage == max
}
