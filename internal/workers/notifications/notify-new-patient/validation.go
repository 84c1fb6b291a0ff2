package notifynewpatient

import (
	"clinic-notify-workers/internal/common/jobs"
	"clinic-notify-workers/internal/common/validation"
)

var envelopeValidator = validation.MustValidator(GetInputSchema())

func GetInputSchema() validation.JSONSchema {
	return jobs.EnvelopeSchema("patientId")
}
